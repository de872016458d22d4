package storage

import "errors"

// Storage error constants
var (
	// ErrWarningNotFound is returned when a warning id is not in the store
	ErrWarningNotFound = errors.New("warning not found")

	// ErrDuplicateWarning is returned when inserting an id that already
	// exists. The refresh coordinator treats this as an expected skip;
	// direct callers surface it.
	ErrDuplicateWarning = errors.New("warning already exists")
)
