package model

import (
	"errors"
	"strings"
)

// ErrInvariantViolation signals data that should never reach the analysis
// stage, such as a negative price. It is a bug in a connector, not user input.
var ErrInvariantViolation = errors.New("aggregation invariant violation")

// FieldError describes one rejected query field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationError is returned for queries that must not be fanned out.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+" "+f.Reason)
	}
	return ErrInvalidQuery.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidQuery
}
