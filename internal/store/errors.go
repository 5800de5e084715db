package store

import "errors"

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the store.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity (e.g. a task with an already-used ID).
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidTransition is returned when a status change violates the
	// task state machine, including any attempt to leave a terminal status
	// other than the explicit failed -> pending reopen.
	ErrInvalidTransition = errors.New("invalid task status transition")
)
