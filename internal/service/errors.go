package service

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound           = errors.New("file not found")
	ErrConflict           = errors.New("file already exists")
	ErrUsernameTaken      = errors.New("username already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrBodyRequired       = errors.New("file content is required")
	// ErrContentMissing means a file record exists but its bytes do not.
	ErrContentMissing = errors.New("stored content missing")
)

// ValidationError reports a malformed input field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// PersistenceError wraps a failure of the database or the storage backend.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// OrphanedBytesError is returned when an upload wrote bytes, failed to record
// them, and then failed to remove them again. The bytes at Path have no
// record until reconciled.
type OrphanedBytesError struct {
	Path       string
	Err        error
	CleanupErr error
}

func (e *OrphanedBytesError) Error() string {
	return fmt.Sprintf("save metadata: %v; orphaned bytes at %s: %v", e.Err, e.Path, e.CleanupErr)
}

func (e *OrphanedBytesError) Unwrap() error { return e.Err }

// PartialDeleteError is returned when a file record was deleted but its
// bytes could not be removed.
type PartialDeleteError struct {
	FileID int64
	Path   string
	Err    error
}

func (e *PartialDeleteError) Error() string {
	return fmt.Sprintf("file %d deleted but bytes at %s remain: %v", e.FileID, e.Path, e.Err)
}

func (e *PartialDeleteError) Unwrap() error { return e.Err }
