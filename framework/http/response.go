package http

import (
	"errors"
	"net/http"

	jsoniter "github.com/json-iterator/go"

	"github.com/km-arc/go-registry/framework/container"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ── Response ─────────────────────────────────────────────────────────────────

// Response wraps http.ResponseWriter with JSON helpers.
type Response struct {
	w http.ResponseWriter
}

// NewResponse wraps a ResponseWriter.
func NewResponse(w http.ResponseWriter) *Response {
	return &Response{w: w}
}

// Raw returns the underlying ResponseWriter.
func (res *Response) Raw() http.ResponseWriter { return res.w }

// ── JSON responses ────────────────────────────────────────────────────────────

// JSON sends a JSON response.
//
//	res.JSON(http.StatusOK, map[string]any{"message": "ok"})
func (res *Response) JSON(status int, data any) {
	res.w.Header().Set("Content-Type", "application/json")
	res.w.WriteHeader(status)
	_ = json.NewEncoder(res.w).Encode(data)
}

// Success sends 200 JSON: {"data": v}
func (res *Response) Success(v any) {
	res.JSON(http.StatusOK, envelope{"data": v})
}

// NoContent sends 204 with no body.
func (res *Response) NoContent() {
	res.w.WriteHeader(http.StatusNoContent)
}

// Error sends a JSON error response.
//
//	res.Error(http.StatusNotFound, "Resource not found")
func (res *Response) Error(status int, message string) {
	res.JSON(status, envelope{"message": message})
}

// NotFound sends 404.
func (res *Response) NotFound(message ...string) {
	msg := first(message, "Not found.")
	res.JSON(http.StatusNotFound, envelope{"message": msg})
}

// ServerError sends 500.
func (res *Response) ServerError(message ...string) {
	msg := first(message, "Server Error.")
	res.JSON(http.StatusInternalServerError, envelope{"message": msg})
}

// Fail reports a registry error with a status derived from its code:
//
//	{"message": "...", "code": "SERVICE_NOT_FOUND", "namespace": "/a", "name": "db"}
func (res *Response) Fail(err error) {
	var cerr *container.Error
	if !errors.As(err, &cerr) {
		res.ServerError(err.Error())
		return
	}
	res.JSON(StatusFor(err), envelope{
		"message":   err.Error(),
		"code":      cerr.Code,
		"namespace": cerr.Namespace,
		"name":      cerr.Name,
	})
}

// StatusFor maps registry error codes onto HTTP statuses.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, container.ErrServiceNotFound), errors.Is(err, container.ErrNamespaceNotFound):
		return http.StatusNotFound
	case errors.Is(err, container.ErrInvalidName):
		return http.StatusBadRequest
	case errors.Is(err, container.ErrDuplicateName), errors.Is(err, container.ErrDuplicateAlias):
		return http.StatusConflict
	case errors.Is(err, container.ErrInterfaceMismatch), errors.Is(err, container.ErrInvalidPlugin):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

type envelope map[string]any

func first(ss []string, fallback string) string {
	if len(ss) > 0 && ss[0] != "" {
		return ss[0]
	}
	return fallback
}
