package container

import (
	"errors"
	"fmt"
)

// ── Error codes ───────────────────────────────────────────────────────────────

const (
	CodeInvalidName        = "INVALID_NAME"
	CodeDuplicateName      = "DUPLICATE_NAME"
	CodeDuplicateAlias     = "DUPLICATE_ALIAS"
	CodeConfiguration      = "CONFIGURATION_ERROR"
	CodeServiceNotFound    = "SERVICE_NOT_FOUND"
	CodeServiceCreation    = "SERVICE_CREATION_FAILED"
	CodeInterfaceMismatch  = "INTERFACE_MISMATCH"
	CodeNamespaceNotFound  = "NAMESPACE_NOT_FOUND"
	CodeInvalidPlugin      = "INVALID_PLUGIN"
	CodeCircularDependency = "CIRCULAR_DEPENDENCY"
)

// ── Error ─────────────────────────────────────────────────────────────────────

// Error is the structured error returned by every registry operation.
// errors.Is matches on Code, so callers compare against the sentinels below:
//
//	if errors.Is(err, container.ErrServiceNotFound) { ... }
type Error struct {
	Code      string
	Message   string
	Name      string // service, alias or namespace the error is about
	Namespace string // path of the container that raised it
	Cause     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Namespace != "" {
		msg = fmt.Sprintf("container %s: %s", e.Namespace, msg)
	} else {
		msg = "container: " + msg
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether target carries the same code. ErrInvalidArgument is
// accepted as an alias of ErrInvalidName.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || e.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// Sentinels for errors.Is comparisons.
var (
	ErrInvalidName        = &Error{Code: CodeInvalidName}
	ErrInvalidArgument    = ErrInvalidName
	ErrDuplicateName      = &Error{Code: CodeDuplicateName}
	ErrDuplicateAlias     = &Error{Code: CodeDuplicateAlias}
	ErrConfiguration      = &Error{Code: CodeConfiguration}
	ErrServiceNotFound    = &Error{Code: CodeServiceNotFound}
	ErrServiceCreation    = &Error{Code: CodeServiceCreation}
	ErrInterfaceMismatch  = &Error{Code: CodeInterfaceMismatch}
	ErrNamespaceNotFound  = &Error{Code: CodeNamespaceNotFound}
	ErrInvalidPlugin      = &Error{Code: CodeInvalidPlugin}
	ErrCircularDependency = &Error{Code: CodeCircularDependency}
)

// PanicError carries a value recovered while a service was being built.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error
// (runtime.Error, a panicked sentinel, ...).
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ── Constructors ──────────────────────────────────────────────────────────────

func newError(code, ns, name, msg string, cause error) *Error {
	return &Error{Code: code, Message: msg, Name: name, Namespace: ns, Cause: cause}
}

func invalidName(ns, raw, reason string) *Error {
	return newError(CodeInvalidName, ns, raw, fmt.Sprintf("invalid name %q: %s", raw, reason), nil)
}

func duplicateName(ns, name string) *Error {
	return newError(CodeDuplicateName, ns, name, fmt.Sprintf(
		"a service or alias named %q already exists and cannot be overridden", name), nil)
}

func serviceCreation(ns, name string, cause error) *Error {
	return newError(CodeServiceCreation, ns, name, fmt.Sprintf(
		"an error was raised while creating %q; no instance returned", name), cause)
}

// ── Helpers ───────────────────────────────────────────────────────────────────

// IsServiceNotFound reports whether err is a ServiceNotFound error.
func IsServiceNotFound(err error) bool { return errors.Is(err, ErrServiceNotFound) }

// IsServiceCreation reports whether err is a ServiceCreation error.
func IsServiceCreation(err error) bool { return errors.Is(err, ErrServiceCreation) }

// IsNamespaceNotFound reports whether err is a NamespaceNotFound error.
func IsNamespaceNotFound(err error) bool { return errors.Is(err, ErrNamespaceNotFound) }

// IsInvalidName reports whether err is an InvalidName error.
func IsInvalidName(err error) bool { return errors.Is(err, ErrInvalidName) }
