package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTaskStatus is returned when a task status is not one of
	// the defined TaskStatus values.
	ErrInvalidTaskStatus = errors.New("invalid task status")

	// ErrInvalidTransition is returned when a task status transition
	// would move backwards or out of a terminal state.
	ErrInvalidTransition = errors.New("invalid task status transition")

	// ErrEmptyTaskID is returned when a task ID is the zero UUID.
	ErrEmptyTaskID = errors.New("task ID cannot be empty")

	// ErrEmptyOwnerID is returned when a task owner ID is missing.
	ErrEmptyOwnerID = errors.New("task owner ID cannot be empty")

	// ErrEmptySourceRef is returned when a task has no source document
	// reference.
	ErrEmptySourceRef = errors.New("task source reference cannot be empty")
)
