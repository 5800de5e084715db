package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/store"
)

// SceneStore implements store.SceneStore on PostgreSQL.
type SceneStore struct {
	db store.DBTX
}

// NewSceneStore creates a SceneStore backed by the given connection or transaction.
func NewSceneStore(db store.DBTX) *SceneStore {
	return &SceneStore{db: db}
}

func (s *SceneStore) ReplaceForTask(ctx context.Context, taskID uuid.UUID, scenes []*domain.Scene) error {
	// A rerun breakdown replaces the whole storyboard, never merges into it.
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM scenes WHERE task_id = $1`, taskID); err != nil {
		return fmt.Errorf("failed to clear existing scenes: %w", mapError(err))
	}

	query := `
		INSERT INTO scenes (id, task_id, scene_number, description, dialogue,
			scene_type, audio_path, image_path, video_path, duration_secs,
			created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	for _, scene := range scenes {
		_, err := s.db.ExecContext(ctx, query,
			scene.ID, scene.TaskID, scene.Number, scene.Description, scene.Dialogue,
			scene.SceneType, scene.AudioPath, scene.ImagePath, scene.VideoPath,
			scene.DurationSecs, scene.CreatedAt, scene.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert scene %d: %w", scene.Number, mapError(err))
		}
	}
	return nil
}

func (s *SceneStore) SetAssets(ctx context.Context, taskID uuid.UUID, number int, audioPath, imagePath, videoPath string, durationSecs float64) error {
	query := `
		UPDATE scenes
		SET audio_path = $1, image_path = $2, video_path = $3,
		    duration_secs = $4, updated_at = $5
		WHERE task_id = $6 AND scene_number = $7
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		audioPath, imagePath, videoPath, durationSecs, now, taskID, number)
	if err != nil {
		return fmt.Errorf("failed to set scene assets: %w", mapError(err))
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: scene %d of task %s", store.ErrNotFound, number, taskID)
	}
	return nil
}

func (s *SceneStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.Scene, error) {
	query := `
		SELECT id, task_id, scene_number, description, dialogue, scene_type,
		       audio_path, image_path, video_path, duration_secs,
		       created_at, updated_at
		FROM scenes
		WHERE task_id = $1
		ORDER BY scene_number ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query scenes: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var scenes []*domain.Scene
	for rows.Next() {
		var scene domain.Scene
		var audioPath, imagePath, videoPath, sceneType sql.NullString
		err := rows.Scan(
			&scene.ID, &scene.TaskID, &scene.Number, &scene.Description,
			&scene.Dialogue, &sceneType, &audioPath, &imagePath, &videoPath,
			&scene.DurationSecs, &scene.CreatedAt, &scene.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan scene row: %w", err)
		}
		scene.SceneType = sceneType.String
		scene.AudioPath = audioPath.String
		scene.ImagePath = imagePath.String
		scene.VideoPath = videoPath.String
		scenes = append(scenes, &scene)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scene rows: %w", err)
	}
	return scenes, nil
}
