package api

import (
	"errors"
	"net/http"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/store"
	"github.com/reelforge/reelforge-api/internal/task"
)

// mapErrorToStatusCode maps internal errors to HTTP status codes without
// leaking internal detail to clients.
func mapErrorToStatusCode(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	case errors.Is(err, task.ErrNotFailed),
		errors.Is(err, task.ErrNotRunning),
		errors.Is(err, store.ErrInvalidTransition):
		return http.StatusConflict

	case errors.Is(err, task.ErrUnknownKind),
		errors.Is(err, domain.ErrEmptyTaskKind),
		errors.Is(err, domain.ErrEmptyInputRef):
		return http.StatusBadRequest

	case errors.Is(err, task.ErrQueueFull),
		errors.Is(err, task.ErrQueueClosed):
		return http.StatusServiceUnavailable

	default:
		return http.StatusInternalServerError
	}
}

// safeErrorMessage returns the client-facing message for an error.
func safeErrorMessage(err error) string {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return "Task not found"
	case errors.Is(err, task.ErrNotFailed):
		return "Only failed tasks can be retried"
	case errors.Is(err, task.ErrNotRunning):
		return "Only running tasks can be cancelled"
	case errors.Is(err, store.ErrInvalidTransition):
		return "Task changed status concurrently"
	case errors.Is(err, task.ErrUnknownKind):
		return "Unknown task kind"
	case errors.Is(err, domain.ErrEmptyInputRef):
		return "Input reference cannot be empty"
	case errors.Is(err, task.ErrQueueFull):
		return "Task queue is full, try again later"
	case errors.Is(err, task.ErrQueueClosed):
		return "Service is shutting down"
	default:
		return "An unexpected error occurred"
	}
}
