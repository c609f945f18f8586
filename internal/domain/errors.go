package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors used by adapters to map failures onto transport status codes
var (
	ErrValidation = errors.New("invalid request")
	ErrNotFound   = errors.New("not found")
)

// ValidationError reports a malformed or out-of-range request field.
// It is raised before any simulation state is built.
type ValidationError struct {
	Field  string
	Reason string
}

// NewValidationError creates a ValidationError for the given field
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid request: " + e.Reason
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Unwrap lets errors.Is(err, ErrValidation) match
func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// NotFoundError reports an identifier that could not be resolved
type NotFoundError struct {
	Kind string // e.g. "instrument"
	ID   string
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(kind, id string) *NotFoundError {
	return &NotFoundError{Kind: kind, ID: id}
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// Unwrap lets errors.Is(err, ErrNotFound) match
func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
