// Package apperr defines the error kinds shared by the catalog, ledger and
// report packages. Callers classify failures with errors.Is.
package apperr

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks an empty or malformed required argument.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks a referenced entity that is absent or not owned by the caller.
	ErrNotFound = errors.New("not found")
	// ErrStorage marks any failure of the underlying store.
	ErrStorage = errors.New("storage failure")
)

// Validation returns an ErrValidation-wrapped error with a formatted message.
func Validation(format string, args ...any) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// NotFound returns an ErrNotFound-wrapped error naming the missing entity.
func NotFound(entity string, id any) error {
	return fmt.Errorf("%s %v: %w", entity, id, ErrNotFound)
}

// Storage wraps err with ErrStorage under the given operation name.
// A nil err yields nil.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}

// Kind reports which sentinel err wraps, or nil for an unclassified error.
func Kind(err error) error {
	switch {
	case errors.Is(err, ErrValidation):
		return ErrValidation
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	case errors.Is(err, ErrStorage):
		return ErrStorage
	default:
		return nil
	}
}
