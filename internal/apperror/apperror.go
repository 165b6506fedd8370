// Package apperror defines the error taxonomy shared by the data, service and
// HTTP layers.
//
// Repositories never return "nothing" on failure. Every failure is an error
// that callers classify with errors.Is against one of the sentinels below:
//
//	ErrNotFound     → the row does not exist (unknown slug → 404 page)
//	ErrValidation   → user input rejected (form is re-rendered with errors)
//	ErrConflict     → a unique constraint fired (duplicate slug, username, registration)
//	ErrUnavailable  → no connection could be acquired from the pool
//	ErrUnauthorized → credentials did not match
//	ErrForbidden    → authenticated, but not allowed
//
// Anything else is a statement failure and is treated as an internal error.
package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrValidation   = errors.New("validation error")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnavailable  = errors.New("unavailable")
)

type AppError struct {
	Err     error  // sentinel, matched with errors.Is
	Message string // Human-readable error message
	Field   string // Optional: field causing the error
	Cause   error  // Optional: underlying driver error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

// Unwrap exposes both the sentinel and the underlying cause so errors.Is and
// errors.As can reach either.
func (e *AppError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Err, e.Cause}
	}
	return []error{e.Err}
}

func NotFound(resource, id string) *AppError {
	return &AppError{
		Err:     ErrNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

func ValidationFailed(field, message string) *AppError {
	return &AppError{
		Err:     ErrValidation,
		Message: message,
		Field:   field,
	}
}

func Conflict(resource, id string) *AppError {
	return &AppError{
		Err:     ErrConflict,
		Message: fmt.Sprintf("%s already exists: %s", resource, id),
	}
}

// Forbidden returns an AppError indicating the caller lacks permission.
// HTTP handlers map this to 403 Forbidden.
func Forbidden(message string) *AppError {
	return &AppError{
		Err:     ErrForbidden,
		Message: message,
	}
}

// Unauthorized is returned when credentials do not match. The message is safe
// to show to the user and never says which half of the credentials was wrong.
func Unauthorized(message string) *AppError {
	return &AppError{
		Err:     ErrUnauthorized,
		Message: message,
	}
}

// Unavailable wraps a connectivity failure: the pool could not hand out a
// connection, or the connection died mid-statement. The process keeps running.
func Unavailable(op string, cause error) *AppError {
	return &AppError{
		Err:     ErrUnavailable,
		Message: op + ": database unavailable",
		Cause:   cause,
	}
}
