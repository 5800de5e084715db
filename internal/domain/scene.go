package domain

import (
	"time"

	"github.com/google/uuid"
)

// Scene is one storyboard unit of a task's document: a single shot with its
// narration text and the generated assets backing it. Scenes are owned by a
// task and are not independently schedulable.
type Scene struct {
	ID           uuid.UUID
	TaskID       uuid.UUID
	Number       int // 1-based, dense, strictly increasing within a task
	Description  string
	Dialogue     string
	SceneType    string
	AudioPath    string
	ImagePath    string
	VideoPath    string
	DurationSecs float64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewScene creates a scene for the given task. Number must be positive and
// the description non-empty.
func NewScene(taskID uuid.UUID, number int, description, dialogue, sceneType string, durationSecs float64) (*Scene, error) {
	if number < 1 {
		return nil, ErrInvalidSceneNumber
	}
	if description == "" {
		return nil, ErrEmptySceneDescription
	}

	now := time.Now().UTC()
	return &Scene{
		ID:           uuid.New(),
		TaskID:       taskID,
		Number:       number,
		Description:  description,
		Dialogue:     dialogue,
		SceneType:    sceneType,
		DurationSecs: durationSecs,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// AssetsComplete reports whether every required generated asset reference is set.
func (s *Scene) AssetsComplete() bool {
	return s.AudioPath != "" && s.ImagePath != "" && s.VideoPath != ""
}
