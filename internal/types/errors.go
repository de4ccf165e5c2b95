package types

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("inspection record not found")
	ErrUnsupportedFormat = errors.New("unsupported photo format")
	ErrTooLarge          = errors.New("photo file too large")
)

// ValidationError rejects a field value before anything is written.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// StorageError wraps database and filesystem failures so callers can tell
// them apart from validation failures.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func NewStorageError(op string, err error) *StorageError {
	return &StorageError{Op: op, Err: err}
}

// RenderError means PDF production itself failed. A missing photo is not a
// RenderError; rendering degrades to a placeholder instead.
type RenderError struct {
	RecordID uint
	Reason   string
	Err      error
}

func (e *RenderError) Error() string {
	if e.RecordID != 0 {
		return fmt.Sprintf("report rendering failed for record %d: %s: %v", e.RecordID, e.Reason, e.Err)
	}
	return fmt.Sprintf("report rendering failed: %s: %v", e.Reason, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }
