package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewTask(t *testing.T) {
	task, err := NewTask(TaskKindDocumentToVideo, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	assert.Equal(t, TaskStatusPending, task.Status)
	assert.Equal(t, float64(0), task.Progress)
	assert.Empty(t, task.ErrorMessage)
	assert.Nil(t, task.StartedAt)
	assert.Nil(t, task.CompletedAt)
}

func TestNewTaskValidation(t *testing.T) {
	_, err := NewTask("", "docs/chapter1.txt", nil)
	assert.ErrorIs(t, err, ErrEmptyTaskKind)

	_, err = NewTask(TaskKindDocumentToVideo, "", nil)
	assert.ErrorIs(t, err, ErrEmptyInputRef)
}

func TestCanTransition(t *testing.T) {
	allowed := []struct{ from, to TaskStatus }{
		{TaskStatusPending, TaskStatusRunning},
		{TaskStatusRunning, TaskStatusCompleted},
		{TaskStatusRunning, TaskStatusFailed},
		{TaskStatusRunning, TaskStatusCancelled},
		{TaskStatusFailed, TaskStatusPending},
	}
	for _, tc := range allowed {
		assert.True(t, CanTransition(tc.from, tc.to), "%s -> %s should be allowed", tc.from, tc.to)
	}

	statuses := []TaskStatus{
		TaskStatusPending, TaskStatusRunning, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled,
	}
	allowedSet := map[[2]TaskStatus]bool{}
	for _, tc := range allowed {
		allowedSet[[2]TaskStatus{tc.from, tc.to}] = true
	}
	for _, from := range statuses {
		for _, to := range statuses {
			if allowedSet[[2]TaskStatus{from, to}] {
				continue
			}
			assert.False(t, CanTransition(from, to), "%s -> %s should be rejected", from, to)
		}
	}
}

func TestTerminalStatuses(t *testing.T) {
	assert.True(t, TaskStatusCompleted.IsTerminal())
	assert.True(t, TaskStatusFailed.IsTerminal())
	assert.True(t, TaskStatusCancelled.IsTerminal())
	assert.False(t, TaskStatusPending.IsTerminal())
	assert.False(t, TaskStatusRunning.IsTerminal())
}

func TestSceneAssetsComplete(t *testing.T) {
	task, err := NewTask(TaskKindDocumentToVideo, "docs/chapter1.txt", nil)
	require.NoError(t, err)

	scene, err := NewScene(task.ID, 1, "castle at dusk", "Once upon a time...", "exterior", 15)
	require.NoError(t, err)
	assert.False(t, scene.AssetsComplete())

	scene.AudioPath = "audio.mp3"
	scene.ImagePath = "still.png"
	assert.False(t, scene.AssetsComplete())

	scene.VideoPath = "clip.mp4"
	assert.True(t, scene.AssetsComplete())
}

func TestNewSceneValidation(t *testing.T) {
	task, _ := NewTask(TaskKindDocumentToVideo, "docs/chapter1.txt", nil)

	_, err := NewScene(task.ID, 0, "desc", "", "", 10)
	assert.ErrorIs(t, err, ErrInvalidSceneNumber)

	_, err = NewScene(task.ID, 1, "", "", "", 10)
	assert.ErrorIs(t, err, ErrEmptySceneDescription)
}
