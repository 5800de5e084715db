package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// TaskStatus represents the current state of a task.
type TaskStatus string

// Possible task status values.
const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusRunning   TaskStatus = "running"
	TaskStatusCompleted TaskStatus = "completed"
	TaskStatusFailed    TaskStatus = "failed"
	TaskStatusCancelled TaskStatus = "cancelled"
)

// Task kind identifiers.
const (
	// TaskKindDocumentToVideo is the pipeline that turns a text document
	// into a finished narrated video.
	TaskKindDocumentToVideo = "document_to_video"
)

// Task represents one durable request to run a generation pipeline
// end-to-end for one input document.
type Task struct {
	ID           uuid.UUID
	Kind         string
	Status       TaskStatus
	InputRef     string
	OutputRef    string
	Progress     float64
	ErrorMessage string
	Params       json.RawMessage
	CreatedAt    time.Time
	StartedAt    *time.Time
	CompletedAt  *time.Time
	UpdatedAt    time.Time
}

// NewTask creates a pending task for the given kind and input reference.
// Returns an error if the kind or input is empty.
func NewTask(kind, inputRef string, params json.RawMessage) (*Task, error) {
	if kind == "" {
		return nil, ErrEmptyTaskKind
	}
	if inputRef == "" {
		return nil, ErrEmptyInputRef
	}

	now := time.Now().UTC()
	return &Task{
		ID:        uuid.New(),
		Kind:      kind,
		Status:    TaskStatusPending,
		InputRef:  inputRef,
		Progress:  0,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsTerminal reports whether the status admits no further automatic transition.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskStatusCompleted || s == TaskStatusFailed || s == TaskStatusCancelled
}

// IsValid reports whether the status is one of the known values.
func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusRunning, TaskStatusCompleted,
		TaskStatusFailed, TaskStatusCancelled:
		return true
	}
	return false
}

// CanTransition reports whether a task may move from its current status to
// the target status. The only permitted moves are:
//
//	pending  -> running      (claimed by a worker)
//	running  -> completed    (pipeline success)
//	running  -> failed       (pipeline error or monitor timeout)
//	running  -> cancelled    (operator cancel)
//	failed   -> pending      (explicit retry reopen)
func CanTransition(from, to TaskStatus) bool {
	switch from {
	case TaskStatusPending:
		return to == TaskStatusRunning
	case TaskStatusRunning:
		return to == TaskStatusCompleted || to == TaskStatusFailed || to == TaskStatusCancelled
	case TaskStatusFailed:
		return to == TaskStatusPending
	}
	return false
}
