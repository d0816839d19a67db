package apperr

import (
	"errors"
	"net/http"
)

// Error is an operational error safe to show to the caller. Anything that
// is not an *Error surfaces as an opaque 500 while the cause is logged.
type Error struct {
	Code    int
	Message string
}

func (e *Error) Error() string { return e.Message }

func New(code int, message string) *Error {
	return &Error{Code: code, Message: message}
}

func BadRequest(message string) *Error   { return New(http.StatusBadRequest, message) }
func Unauthorized(message string) *Error { return New(http.StatusUnauthorized, message) }
func Forbidden(message string) *Error    { return New(http.StatusForbidden, message) }
func NotFound(message string) *Error     { return New(http.StatusNotFound, message) }

// Status returns the HTTP status for err, or 500 when err is not operational.
func Status(err error) int {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Code
	}
	return http.StatusInternalServerError
}

// IsOperational reports whether err carries a caller-safe message.
func IsOperational(err error) bool {
	var ae *Error
	return errors.As(err, &ae)
}
