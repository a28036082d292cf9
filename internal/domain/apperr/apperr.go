// Package apperr defines the error kinds every domain error wraps.
// Callers classify failures with errors.Is against these kinds.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation: malformed input, rejected before any mutation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound: referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidState: operation not valid for the current state; do not retry blindly.
	ErrInvalidState = errors.New("invalid state")
	// ErrPersistence: the transaction did not commit; safe to retry.
	ErrPersistence = errors.New("persistence error")
)

// Persistence wraps a storage error so it classifies as ErrPersistence.
func Persistence(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrPersistence, err)
}

// Validation wraps err so it classifies as ErrValidation.
func Validation(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// Known reports whether err already carries one of the kinds above.
func Known(err error) bool {
	return errors.Is(err, ErrValidation) ||
		errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrInvalidState) ||
		errors.Is(err, ErrPersistence)
}
