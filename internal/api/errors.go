package api

import (
	"errors"
	"net/http"

	"github.com/tessellate-ai/extract-api/internal/admission"
	"github.com/tessellate-ai/extract-api/internal/scheduler"
	"github.com/tessellate-ai/extract-api/internal/service"
	"github.com/tessellate-ai/extract-api/internal/service/auth"
	"github.com/tessellate-ai/extract-api/internal/store"
)

// errInvalidPagination marks unparseable page/page_size query values.
var errInvalidPagination = errors.New("invalid pagination parameters")

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	var admErr *admission.Error

	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, service.ErrNotOwned):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrTaskNotFound):
		return http.StatusNotFound

	// Admission rejections
	case errors.As(err, &admErr):
		switch admErr.Kind {
		case admission.KindTooLarge:
			return http.StatusRequestEntityTooLarge
		case admission.KindInvalidKind:
			return http.StatusUnsupportedMediaType
		default:
			return http.StatusBadRequest
		}

	// Queue pressure
	case errors.Is(err, scheduler.ErrQueueFull):
		return http.StatusServiceUnavailable

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity):
		return http.StatusBadRequest

	// Default: internal server error
	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	var admErr *admission.Error

	switch {
	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid):
		return "Invalid token"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Token expired"

	case errors.Is(err, service.ErrNotOwned):
		return "You do not own this task"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	// Admission details describe the caller's own submission and are
	// safe to return verbatim.
	case errors.As(err, &admErr):
		return "Submission rejected: " + admErr.Detail

	case errors.Is(err, scheduler.ErrQueueFull):
		return "Queue is full, try again later"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid task data"

	default:
		return "An unexpected error occurred"
	}
}
