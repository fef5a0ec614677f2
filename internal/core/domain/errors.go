package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrDuplicateResource = errors.New("resource already exists")
	ErrForbidden         = errors.New("access denied")
	ErrInvalidTransition = errors.New("invalid deployment status transition")
	ErrInvalidQuery      = errors.New("invalid query: provide exactly one selector")
	ErrExternalService   = errors.New("external service unavailable")
)

// ValidationError reports a single malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %q: %s", e.Field, e.Message)
}

func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
