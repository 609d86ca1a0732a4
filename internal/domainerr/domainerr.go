// Package domainerr defines the error kinds shared by the ledger, the budget
// registry, the recurrence engine and the category directory.
//
// Every domain error unwraps to one of ErrValidation, ErrInvalidOperation or
// ErrNotFound, so callers can branch with errors.Is regardless of which
// package produced the error.
package domainerr

import (
	"errors"
	"fmt"
)

var (
	ErrValidation       = errors.New("validation error")
	ErrInvalidOperation = errors.New("invalid operation")
	ErrNotFound         = errors.New("not found")
)

type Error struct {
	Kind    error
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func New(kind error, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Validation(format string, args ...any) error {
	return New(ErrValidation, fmt.Sprintf(format, args...))
}

func InvalidOperation(format string, args ...any) error {
	return New(ErrInvalidOperation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...any) error {
	return New(ErrNotFound, fmt.Sprintf(format, args...))
}

// KindOf returns a short machine readable name for err, or "internal" when err
// is not a domain error.
func KindOf(err error) string {
	switch {
	case errors.Is(err, ErrValidation):
		return "validation"
	case errors.Is(err, ErrInvalidOperation):
		return "invalid_operation"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "internal"
	}
}
