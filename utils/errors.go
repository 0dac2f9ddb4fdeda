package utils

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound matches every 404 HTTPError via errors.Is.
var ErrNotFound = errors.New("not found")

// HTTPError is an error whose message is safe to show to the caller.
type HTTPError struct {
	Status  int
	Message string
}

func (e *HTTPError) Error() string { return e.Message }

func (e *HTTPError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

func NotFound(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusNotFound, Message: msg}
}

func BadRequest(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusBadRequest, Message: msg}
}

func BadRequestf(format string, args ...any) *HTTPError {
	return BadRequest(fmt.Sprintf(format, args...))
}

func Unauthorized(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusUnauthorized, Message: msg}
}

func Forbidden(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusForbidden, Message: msg}
}

func Conflict(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusConflict, Message: msg}
}

func Locked(msg string) *HTTPError {
	return &HTTPError{Status: http.StatusLocked, Message: msg}
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var he *HTTPError
	if errors.As(err, &he) {
		return he.Status
	}
	return http.StatusInternalServerError
}
