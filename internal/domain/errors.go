package domain

import "errors"

// Validation errors returned by domain constructors.
var (
	ErrEmptyTaskKind         = errors.New("task kind cannot be empty")
	ErrEmptyInputRef         = errors.New("task input reference cannot be empty")
	ErrInvalidSceneNumber    = errors.New("scene number must be positive")
	ErrEmptySceneDescription = errors.New("scene description cannot be empty")
)

// ErrTaskCancelled is returned by a pipeline that observed its task was
// cancelled and stopped between stages. The worker discards the partial
// result instead of recording a failure; the task is already terminal.
var ErrTaskCancelled = errors.New("task cancelled")
