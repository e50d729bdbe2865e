// Package http provides the JSON response helpers used by the inspection
// server.
//
// # Response
//
//	res := gohttp.NewResponse(w)
//
//	res.JSON(200, data)           // raw JSON with status
//	res.Success(data)             // 200 {"data": ...}
//	res.NoContent()               // 204
//
//	res.Error(400, "bad input")   // {"message": "bad input"}
//	res.NotFound()                // 404 {"message": "Not found."}
//	res.ServerError()             // 500 {"message": "Server Error."}
//
//	// Registry errors carry their code, namespace and name
//	res.Fail(err)                 // 404 for SERVICE_NOT_FOUND, 409 for DUPLICATE_NAME, ...
package http
