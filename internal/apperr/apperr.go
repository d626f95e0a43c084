// Package apperr carries user-facing failures with the HTTP status they map to.
package apperr

import (
	"errors"
	"net/http"
)

type Error struct {
	Status int
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Detail + ": " + e.Err.Error()
	}
	return e.Detail
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(status int, detail string) *Error {
	return &Error{Status: status, Detail: detail}
}

func Wrap(status int, detail string, err error) *Error {
	return &Error{Status: status, Detail: detail, Err: err}
}

func BadRequest(detail string) *Error   { return New(http.StatusBadRequest, detail) }
func Unauthorized(detail string) *Error { return New(http.StatusUnauthorized, detail) }
func Forbidden(detail string) *Error    { return New(http.StatusForbidden, detail) }
func NotFound(detail string) *Error     { return New(http.StatusNotFound, detail) }
func Conflict(detail string) *Error     { return New(http.StatusConflict, detail) }

func Internal(detail string, err error) *Error {
	return Wrap(http.StatusInternalServerError, detail, err)
}

// StatusOf reports the HTTP status and detail for err. Errors that are not
// *Error map to 500 with a generic detail so internals never leak.
func StatusOf(err error) (int, string) {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Status, ae.Detail
	}
	return http.StatusInternalServerError, "Internal server error"
}
