// Package apperrors holds the error taxonomy shared by the store, the importer and the http layer.
package apperrors

import (
	"errors"
	"fmt"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("not found")
	ErrPersistence = errors.New("persistence failure")
)

// ValidationError is a bad input value. It matches ErrValidation with errors.Is.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func Validation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// NotFound wraps ErrNotFound with what was being looked for.
func NotFound(what string, id interface{}) error {
	return fmt.Errorf("%s %v: %w", what, id, ErrNotFound)
}

// Persistence wraps a database or cache failure of op. The cause stays reachable through errors.Is/As.
func Persistence(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrPersistence, op, err)
}
