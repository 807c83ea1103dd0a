package model

import (
	"errors"
	"fmt"
)

// Domain errors shared by the service layer. Handlers translate these to
// HTTP status codes; nothing below is ever retried.
var (
	// ErrNotFound indicates a referenced entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock indicates a requested quantity exceeds a
	// widget's available stock, at add time or completion time.
	ErrInsufficientStock = errors.New("not enough supply to satisfy order")

	// ErrOrderCompleted indicates a mutation was attempted on an order
	// that has already been completed, including a second completion.
	ErrOrderCompleted = errors.New("order already completed")
)

// ValidationError reports malformed or out-of-range input for a single
// field. The empty Field form carries cross-field failures.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a field-level validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
