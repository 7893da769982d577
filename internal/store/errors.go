package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// Failure kinds surfaced to flows and handlers. The store never retries
// internally; callers decide whether to offer a retry.
var (
	// ErrNotFound means the referenced record vanished between read and
	// write; no partial update is applied.
	ErrNotFound = errors.New("record not found")

	// ErrStoreUnavailable means the backend could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrWriteRejected means the backend refused the write (constraint
	// violation, malformed document).
	ErrWriteRejected = errors.New("write rejected")

	// ErrIllegalTransition means the requested status change is not in
	// the pending -> In -> Out table.
	ErrIllegalTransition = errors.New("illegal status transition")
)

// classify maps a gorm error onto the store's failure taxonomy while
// keeping the backend's own message for the logs
func classify(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrInvalidData), errors.Is(err, gorm.ErrInvalidValue),
		errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrCheckConstraintViolated),
		errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", ErrWriteRejected, err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
