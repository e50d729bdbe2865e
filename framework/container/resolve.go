package container

import "fmt"

// ── Generics helpers ──────────────────────────────────────────────────────────

// Resolve is Get plus a type assertion to T. A value of the wrong type is
// reported as ErrInterfaceMismatch.
//
//	// Instead of: v, err := c.Get("db"); db := v.(*sql.DB)
//	// Write:      db, err := container.Resolve[*sql.DB](c, "db")
func Resolve[T any](c *Container, name string, args ...any) (T, error) {
	var zero T
	instance, err := c.Get(name, args...)
	if err != nil {
		return zero, err
	}
	typed, ok := instance.(T)
	if !ok {
		return zero, newError(CodeInterfaceMismatch, c.Path(), name, fmt.Sprintf(
			"Resolve[%T]: %q resolved to %T", zero, name, instance), nil)
	}
	return typed, nil
}

// MustResolve is Resolve that panics on error. Meant for bootstrap code where
// a missing service is a programming error.
func MustResolve[T any](c *Container, name string, args ...any) T {
	typed, err := Resolve[T](c, name, args...)
	if err != nil {
		panic(err)
	}
	return typed
}
