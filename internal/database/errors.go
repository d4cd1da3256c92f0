package database

import (
	"errors"
	"fmt"
)

// ErrNegativeWindow is returned by Prune for a window below zero, which
// would put the cutoff in the future.
var ErrNegativeWindow = errors.New("prune window must not be negative")

// StorageError wraps a failure of the backing store.
// Op names the cache operation that failed; Err is the driver error,
// reachable through errors.Is and errors.As.
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying driver error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}
