// Package service provides the application-level orchestration of
// extraction tasks: admission, durable creation, queueing, and the
// read-side query operations.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// Callers check for these with errors.Is(); the API layer maps them to
// HTTP status codes.
var (
	// ErrNotOwned indicates a task is owned by a different user than the
	// one making the request. API layer should map this to HTTP 403.
	ErrNotOwned = errors.New("task is owned by another user")
)
