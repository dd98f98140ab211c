package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means the cache holds nothing for the requested range and no
	// upstream data could be obtained. Surfaced as an absence, never a crash.
	ErrNoData = errors.New("no data for requested range")

	// ErrSourceUnavailable means the upstream source is unreachable or not
	// configured. Not retried internally; the caller decides.
	ErrSourceUnavailable = errors.New("data source unavailable")

	// ErrSourceDisabled means the source exists but is switched off in its
	// descriptor.
	ErrSourceDisabled = errors.New("data source disabled")

	// ErrInvalidRequest means the caller supplied parameters that can never
	// resolve, like an empty ticker or an inverted range.
	ErrInvalidRequest = errors.New("invalid request")
)

// StorageError wraps store connectivity/transaction failures. The whole batch
// the failure occurred in has been rolled back; the operation is retryable.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a retryable storage failure.
func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// IsRetryable reports whether err is a transient storage failure worth
// retrying.
func IsRetryable(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
