package repository

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique column would be violated.
	ErrDuplicate = errors.New("duplicate record")
	// ErrStaleVersion is returned when an optimistic write lost a race.
	ErrStaleVersion = errors.New("stale version")
)
