package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("requested item not found")
	ErrValidation    = errors.New("validation error")
	ErrQuotaExceeded = errors.New("chat quota exceeded")
	ErrForbidden     = errors.New("forbidden")
	ErrConflict      = errors.New("conflict")
)

// ValidationError is returned before any external call is made when a
// request fails a business rule. It matches ErrValidation with errors.Is.
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

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// ExternalServiceError wraps a failed or timed-out call to a collaborator
// (geocoder, forecaster, image search, language model).
type ExternalServiceError struct {
	Service string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s call failed: %v", e.Service, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }

// ParseError reports a language model response that did not match its schema.
type ParseError struct {
	Schema string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid %s response: %s", e.Schema, e.Reason)
}

// PersistenceError wraps a store failure. Fatal ones abort the operation.
type PersistenceError struct {
	Op    string
	Fatal bool
	Err   error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
