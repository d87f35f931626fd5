// Package apperrors holds the error taxonomy shared by storage backends,
// services and HTTP controllers.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrValidation    = errors.New("validation failed")
	ErrConflict      = errors.New("conflict")
	ErrHasDependents = errors.New("has dependents")
	ErrUnavailable   = errors.New("storage unavailable")
)

// Error pairs a taxonomy kind with a human readable message and an optional cause.
// errors.Is matches both the kind and the cause.
type Error struct {
	Kind    error
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}

	return []error{e.Kind, e.Err}
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func Validation(field string, format string, args ...any) error {
	return &Error{Kind: ErrValidation, Field: field, Message: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: ErrConflict, Message: fmt.Sprintf(format, args...)}
}

func HasDependents(format string, args ...any) error {
	return &Error{Kind: ErrHasDependents, Message: fmt.Sprintf(format, args...)}
}

// Unavailable wraps a low-level medium failure (connection, disk, bucket) so no
// raw driver error leaks past the storage boundary.
func Unavailable(op string, err error) error {
	return &Error{Kind: ErrUnavailable, Message: op, Err: err}
}

// Message returns the human readable part of err, without the wrapped cause
// for storage failures.
func Message(err error) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		if errors.Is(appErr.Kind, ErrUnavailable) {
			return "storage unavailable: " + appErr.Message
		}

		return appErr.Message
	}

	return err.Error()
}

// HTTPStatus maps an error kind to the response status. Conflicts and blocked
// deletes are client errors (400) so the UI can show the message inline.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrConflict), errors.Is(err, ErrHasDependents):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
