package response

import (
	"errors"
	"net/http"
)

// Error is a domain error that knows which HTTP status it maps to. Two Errors
// are equal under errors.Is when code and message match; Detail is ignored.
type Error struct {
	Code   int
	Err    error
	Detail string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return e.Err.Error() + ": " + e.Detail
	}
	return e.Err.Error()
}

// Message is the client-facing text without the detail suffix.
func (e *Error) Message() string {
	return e.Err.Error()
}

func (e *Error) Is(target error) bool {
	var t *Error
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Err.Error() == t.Err.Error()
}

func NewError(code int, err string) error {
	return &Error{Code: code, Err: errors.New(err)}
}

// WithDetail copies a sentinel Error and attaches detail to it. Non-Error
// values are returned unchanged.
func WithDetail(err error, detail string) error {
	var e *Error
	if !errors.As(err, &e) {
		return err
	}
	return &Error{Code: e.Code, Err: e.Err, Detail: detail}
}

// StatusOf returns the HTTP status carried by err, or 500.
func StatusOf(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return http.StatusInternalServerError
}
