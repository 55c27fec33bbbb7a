package models

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound        = errors.New("issue not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUnauthenticated = errors.New("authentication required")
	ErrInvalidStatus   = errors.New("invalid status")
	ErrAlreadyVoted    = errors.New("already voted")
	ErrConflict        = errors.New("resource conflict")
	ErrInvalidInput    = errors.New("invalid input")
)

// ValidationError represents a field-level validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// NetworkError wraps a transport failure. The core treats it as opaque.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
