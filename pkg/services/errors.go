// Package services provides standardized error types for service layer operations.
package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInvalidRequest marks payloads rejected by schema or struct validation (422).
	ErrInvalidRequest = errors.New("invalid request")
	// ErrRequestNil is returned when Submit is called without a request.
	ErrRequestNil = errors.New("rule request cannot be nil")
	// ErrPublishTimeout is recorded when the event bus does not answer in time.
	ErrPublishTimeout = errors.New("timed out publishing event")
)

// FieldError describes a single violation at a dotted location such as "Rules.0.enabled".
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// ValidationError collects every violation found in a payload.
type ValidationError struct {
	Op     string
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}

	return fmt.Sprintf("%s: %s", e.Op, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}

// IsValidationError checks if an error is a validation error that should return HTTP 422.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidRequest) || errors.Is(err, ErrRequestNil)
}

// AsValidationError extracts the field violations carried by err, if any.
func AsValidationError(err error) (*ValidationError, bool) {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr, true
	}

	return nil, false
}

func newValidationError(op string, fields ...FieldError) *ValidationError {
	return &ValidationError{
		Op:     op,
		Fields: fields,
	}
}
