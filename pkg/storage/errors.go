package storage

import "errors"

// Sentinel errors for storage operations.
var (
	// ErrNotFound is returned when a record does not exist or has been deleted.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a record with the same ID, or an account
	// with the same email, already exists.
	ErrConflict = errors.New("record already exists")
)
