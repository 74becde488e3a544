// Package apperr carries the HTTP status a service failure should map to.
// Controllers are the only place these are translated into responses.
package apperr

import (
	"errors"
	"net/http"
)

// Error is a service-level failure with an associated HTTP status.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// BadRequest flags missing or malformed input.
func BadRequest(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Conflict flags a duplicate resource. The API maps it to 400, matching
// the register endpoint's contract.
func Conflict(msg string) *Error {
	return &Error{Status: http.StatusBadRequest, Message: msg}
}

// Unauthorized flags a missing, invalid or expired credential.
func Unauthorized(msg string) *Error {
	return &Error{Status: http.StatusUnauthorized, Message: msg}
}

// Forbidden flags an ownership mismatch.
func Forbidden(msg string) *Error {
	return &Error{Status: http.StatusForbidden, Message: msg}
}

// NotFound flags a missing resource or an unresolvable recipient email.
func NotFound(msg string) *Error {
	return &Error{Status: http.StatusNotFound, Message: msg}
}

// Internal wraps an unexpected failure with a client-safe message.
func Internal(msg string) *Error {
	return &Error{Status: http.StatusInternalServerError, Message: msg}
}

// Status returns the HTTP status attached to err, or 500 when err carries
// none.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Status
	}
	return http.StatusInternalServerError
}
