package domain

import (
	"errors"
	"fmt"
)

// Common domain errors
var (
	// ErrNotFound is returned when a requested resource is not found
	ErrNotFound = errors.New("resource not found")
	// ErrAlreadyExists is returned when trying to create a resource that already exists
	ErrAlreadyExists = errors.New("resource already exists")
	// ErrInvalidInput is returned when an argument is out of range, non-finite or malformed
	ErrInvalidInput = errors.New("invalid input")
	// ErrInsufficientBalance is returned when a debit would take a balance below zero
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrConcurrentModification is returned when an optimistic write lost the race
	// and the retry budget is exhausted.
	ErrConcurrentModification = errors.New("concurrent modification")
	// ErrUnauthorized is returned when a caller is not allowed to perform an action
	ErrUnauthorized = errors.New("unauthorized")
	// ErrInvalidTransition is returned when a status change is not permitted
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrAccountFrozen is returned when a frozen account requests a debit
	ErrAccountFrozen = errors.New("account is frozen")
)

// InvalidInputError describes which argument was rejected and why.
// It matches ErrInvalidInput with errors.Is.
type InvalidInputError struct {
	Field  string
	Reason string
}

// NewInvalidInput returns an *InvalidInputError for field.
func NewInvalidInput(field, reason string) error {
	return &InvalidInputError{Field: field, Reason: reason}
}

func (e *InvalidInputError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid input: %s", e.Reason)
	}
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

func (e *InvalidInputError) Unwrap() error {
	return ErrInvalidInput
}
