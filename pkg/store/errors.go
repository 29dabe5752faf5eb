package store

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidCollection is returned for collection names that are empty
	// or contain characters outside [A-Za-z0-9_.-].
	ErrInvalidCollection = errors.New("invalid collection name")

	// ErrInvalidDocument is returned when a document is not a JSON object.
	ErrInvalidDocument = errors.New("document must be a JSON object")

	// ErrNotFound is returned by Get for an unknown record.
	ErrNotFound = errors.New("record not found")
)

// StorageError represents an error from the database.
type StorageError struct {
	Operation string // Operation that failed ("open", "insert", "find", ...)
	Cause     error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error [operation=%s]: %v", e.Operation, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *StorageError) Unwrap() error {
	return e.Cause
}

func storageError(operation string, cause error) error {
	return &StorageError{Operation: operation, Cause: cause}
}
