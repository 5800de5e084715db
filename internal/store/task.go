package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
)

// TaskStore defines the interface for persisting tasks. It is the source of
// truth for task state across restarts; the in-process queue only carries
// dispatch descriptors.
//
// All writes are atomic with respect to a single task row, and every status
// mutation is conditional on the current status so the task state machine
// cannot be violated by concurrent writers. Each write bumps the updated_at
// watermark.
type TaskStore interface {
	// Create persists a new pending task. Returns ErrDuplicate if the ID
	// already exists.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task. Returns ErrNotFound if unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByStatus retrieves all tasks with the given status, oldest first.
	ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error)

	// CountByStatus returns the number of tasks per status.
	CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error)

	// MarkRunning transitions pending -> running and records started_at.
	// Returns ErrInvalidTransition if the task is not pending, ErrNotFound
	// if it does not exist.
	MarkRunning(ctx context.Context, id uuid.UUID) error

	// MarkCompleted transitions running -> completed, sets the output
	// reference, progress 1.0 and completed_at. Returns ErrInvalidTransition
	// if the task is not running (in particular if it was cancelled while
	// the pipeline was finishing, so the worker discards the result).
	MarkCompleted(ctx context.Context, id uuid.UUID, outputRef string) error

	// MarkFailed transitions running -> failed with the given error message.
	MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error

	// MarkCancelled transitions running -> cancelled.
	MarkCancelled(ctx context.Context, id uuid.UUID) error

	// Reopen transitions failed -> pending for an explicit retry, clearing
	// the error message, output reference, progress and timing fields.
	Reopen(ctx context.Context, id uuid.UUID) error

	// UpdateProgress records pipeline progress for a running task. Progress
	// is monotonic: values lower than the stored one are ignored.
	UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error
}
