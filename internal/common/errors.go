// Package common defines sentinel errors and small shared types used across
// the server layers. Callers should use errors.Is to match these values.
package common

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors.
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorConflict           = errors.New("conflict")
	ErrorValidation         = errors.New("validation error")
	ErrorStorageUnavailable = errors.New("object storage is not configured")

	// Auth errors.
	ErrInvalidToken        = errors.New("invalid token")
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenRevoked = errors.New("refresh token revoked")
)

// FieldError describes a single rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries per-field details and matches ErrorValidation.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrorValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f.Field, f.Message))
	}
	return ErrorValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrorValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Message: message}}}
}

// PublicError attaches a client-safe message to one of the sentinels above.
// errors.Is sees through it to the sentinel.
type PublicError struct {
	Err     error
	Message string
}

func (e *PublicError) Error() string { return e.Err.Error() + ": " + e.Message }

func (e *PublicError) Unwrap() error { return e.Err }

// WithMessage wraps err with a message that may be shown to API clients.
func WithMessage(err error, message string) error {
	return &PublicError{Err: err, Message: message}
}
