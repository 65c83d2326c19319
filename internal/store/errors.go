package store

import "errors"

// Common store errors.
var (
	// ErrTaskNotFound indicates that the requested task does not exist.
	ErrTaskNotFound = errors.New("task not found")

	// ErrInvalidEntity indicates that the entity data is invalid and
	// cannot be persisted.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTerminalState indicates an attempted update to a task already
	// in a terminal state.
	ErrTerminalState = errors.New("task is in a terminal state")
)
