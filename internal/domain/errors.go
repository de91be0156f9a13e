package domain

import (
	"errors"
	"fmt"
)

var (
	ErrMissingFile  = errors.New("file field is required")
	ErrMissingKey   = errors.New("object key is required")
	ErrFileTooLarge = errors.New("file exceeds maximum allowed size")
)

// Storage failure kinds. A *StorageError matches exactly one of these with errors.Is.
var (
	ErrStorageAccessDenied   = errors.New("storage access denied")
	ErrStorageNotFound       = errors.New("storage object not found")
	ErrStorageInvalidRequest = errors.New("storage rejected request")
	ErrStorageUnavailable    = errors.New("storage backend unavailable")
	ErrStorageFailure        = errors.New("storage operation failed")
)

// StorageError is returned by every ObjectStorage implementation when the
// backend call fails.
type StorageError struct {
	Op   string
	Kind error
	Err  error
}

// NewStorageError wraps err with an operation name and a failure kind.
// A nil kind defaults to ErrStorageFailure.
func NewStorageError(op string, kind, err error) *StorageError {
	if kind == nil {
		kind = ErrStorageFailure
	}
	return &StorageError{Op: op, Kind: kind, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

// Detail returns the raw backend message, without the operation prefix.
func (e *StorageError) Detail() string {
	if e.Err == nil {
		return e.Kind.Error()
	}
	return e.Err.Error()
}

// StorageKind returns the failure kind carried by err, or nil if err is not a
// storage failure.
func StorageKind(err error) error {
	var se *StorageError
	if errors.As(err, &se) {
		return se.Kind
	}
	return nil
}
