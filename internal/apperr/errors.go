// Package apperr defines the error taxonomy surfaced by the stock service.
//
// NotFound, InsufficientStock and validation errors abort the operation and
// reach the caller. Sync failures never do; they are handled at the sync
// coordinator boundary and exist here only as a marker for logging.
package apperr

import "errors"

var (
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
)

// ValidationError reports a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return "validation: " + e.Field + " " + e.Reason
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
