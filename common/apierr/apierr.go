// Package apierr defines the typed errors that component boundaries raise
// and the middleware layer maps onto the JSON error envelope.
package apierr

import (
	"fmt"
	"net/http"
)

// Error is an HTTP-mappable error. Headers, when present, are stamped on the
// response (rate-limit errors announce RateLimit-* and Retry-After).
type Error struct {
	Status  int
	Message string
	Headers http.Header
	cause   error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause for errors.Is / errors.As chains.
func (e *Error) Unwrap() error { return e.cause }

// New builds an error with an explicit status code.
func New(status int, format string, args ...any) *Error {
	return &Error{Status: status, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches an HTTP status to an underlying cause.
func Wrap(cause error, status int, message string) *Error {
	return &Error{Status: status, Message: message, cause: cause}
}

// BadRequest flags parameter parsing or validation failures.
func BadRequest(format string, args ...any) *Error {
	return New(http.StatusBadRequest, format, args...)
}

// Unauthorized flags a missing or invalid internal secret where required.
func Unauthorized(format string, args ...any) *Error {
	return New(http.StatusUnauthorized, format, args...)
}

// Forbidden flags protected-user access or key-only endpoints called bare.
func Forbidden(format string, args ...any) *Error {
	return New(http.StatusForbidden, format, args...)
}

// NotFound flags unresolvable salts/metadata or disabled routes.
func NotFound(format string, args ...any) *Error {
	return New(http.StatusNotFound, format, args...)
}

// TooManyRequests flags an exceeded quota; callers attach headers separately.
func TooManyRequests(format string, args ...any) *Error {
	return New(http.StatusTooManyRequests, format, args...)
}

// ServiceUnavailable flags emergency mode rejecting keyless traffic.
func ServiceUnavailable(format string, args ...any) *Error {
	return New(http.StatusServiceUnavailable, format, args...)
}

// Internal flags downstream failures after retries, or decode failures.
func Internal(cause error, message string) *Error {
	return Wrap(cause, http.StatusInternalServerError, message)
}
