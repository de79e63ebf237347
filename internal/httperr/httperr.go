// Package httperr defines the error shape shared by every service:
// an HTTP status plus the {error, message} body clients see. Because
// the identity service relays user-record-service failures verbatim,
// the same value travels across service boundaries unchanged.
package httperr

import (
	"fmt"
	"net/http"
)

// Canonical machine-readable error codes.
const (
	CodeBadRequest   = "BAD_REQUEST"
	CodeUnauthorised = "UNAUTHORISED"
	CodeForbidden    = "FORBIDDEN"
	CodeNotFound     = "NOT_FOUND"
	CodeConflict     = "CONFLICT"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
)

// Error is a user-visible failure. Status is the HTTP status to
// respond with; Code and Message form the response body.
type Error struct {
	Status  int    `json:"-"`
	Code    string `json:"error"`
	Message string `json:"message"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%d %s: %s", e.Status, e.Code, e.Message)
}

// New builds an Error with the canonical code for the given status.
func New(status int, message string) *Error {
	return &Error{Status: status, Code: CodeForStatus(status), Message: message}
}

// BadRequest, Unauthorised, Forbidden, NotFound, Conflict and Internal
// are shorthands for the six statuses the services actually produce.
func BadRequest(message string) *Error { return New(http.StatusBadRequest, message) }

func Unauthorised(message string) *Error { return New(http.StatusUnauthorized, message) }

func Forbidden(message string) *Error { return New(http.StatusForbidden, message) }

func NotFound(message string) *Error { return New(http.StatusNotFound, message) }

func Conflict(message string) *Error { return New(http.StatusConflict, message) }

// Internal reports a generic server failure. Internal detail is never
// echoed to the caller; log it at the fault site instead.
func Internal() *Error {
	return New(http.StatusInternalServerError, "Something went wrong.")
}

// CodeForStatus maps an HTTP status to its canonical code.
func CodeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return CodeBadRequest
	case http.StatusUnauthorized:
		return CodeUnauthorised
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		return CodeInternal
	}
}
