package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
)

// SceneStore persists the storyboard scenes owned by a task.
type SceneStore interface {
	// ReplaceForTask deletes any existing scenes for the task and inserts
	// the given ones. Used when the breakdown stage (re-)runs.
	ReplaceForTask(ctx context.Context, taskID uuid.UUID, scenes []*domain.Scene) error

	// SetAssets records the generated asset references for one scene.
	SetAssets(ctx context.Context, taskID uuid.UUID, number int, audioPath, imagePath, videoPath string, durationSecs float64) error

	// ListByTask returns the task's scenes ordered by scene number.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Scene, error)
}
