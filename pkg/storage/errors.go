package storage

import "errors"

// Sentinel errors for store and cursor operations.
var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrConflict is returned when a record with the given ID already exists.
	ErrConflict = errors.New("record already exists")

	// ErrCursorClosed is returned by Cursor.Next after the cursor's backing
	// resource has been released. Pulling from a closed cursor indicates a
	// lifecycle bug in the caller, not a recoverable condition.
	ErrCursorClosed = errors.New("cursor is closed")
)
