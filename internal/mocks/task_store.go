package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/store"
)

// MemTaskStore is an in-memory store.TaskStore that enforces the task state
// machine and progress monotonicity.
type MemTaskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*domain.Task

	// Optional error injection, keyed by method name.
	FailWith map[string]error
}

// NewMemTaskStore creates an empty in-memory task store.
func NewMemTaskStore() *MemTaskStore {
	return &MemTaskStore{tasks: make(map[uuid.UUID]*domain.Task)}
}

func (s *MemTaskStore) injected(method string) error {
	if s.FailWith == nil {
		return nil
	}
	return s.FailWith[method]
}

func cloneTask(t *domain.Task) *domain.Task {
	c := *t
	if t.StartedAt != nil {
		v := *t.StartedAt
		c.StartedAt = &v
	}
	if t.CompletedAt != nil {
		v := *t.CompletedAt
		c.CompletedAt = &v
	}
	return &c
}

func (s *MemTaskStore) Create(_ context.Context, t *domain.Task) error {
	if err := s.injected("Create"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[t.ID]; ok {
		return store.ErrDuplicate
	}
	s.tasks[t.ID] = cloneTask(t)
	return nil
}

func (s *MemTaskStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Task, error) {
	if err := s.injected("GetByID"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return cloneTask(t), nil
}

func (s *MemTaskStore) ListByStatus(_ context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	if err := s.injected("ListByStatus"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*domain.Task
	for _, t := range s.tasks {
		if t.Status == status {
			out = append(out, cloneTask(t))
		}
	}
	return out, nil
}

func (s *MemTaskStore) CountByStatus(_ context.Context) (map[domain.TaskStatus]int, error) {
	if err := s.injected("CountByStatus"); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	counts := make(map[domain.TaskStatus]int)
	for _, t := range s.tasks {
		counts[t.Status]++
	}
	return counts, nil
}

func (s *MemTaskStore) transition(id uuid.UUID, to domain.TaskStatus, mutate func(*domain.Task)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	if !domain.CanTransition(t.Status, to) {
		return store.ErrInvalidTransition
	}
	t.Status = to
	t.UpdatedAt = time.Now().UTC()
	if mutate != nil {
		mutate(t)
	}
	return nil
}

func (s *MemTaskStore) MarkRunning(_ context.Context, id uuid.UUID) error {
	if err := s.injected("MarkRunning"); err != nil {
		return err
	}
	return s.transition(id, domain.TaskStatusRunning, func(t *domain.Task) {
		now := time.Now().UTC()
		t.StartedAt = &now
	})
}

func (s *MemTaskStore) MarkCompleted(_ context.Context, id uuid.UUID, outputRef string) error {
	if err := s.injected("MarkCompleted"); err != nil {
		return err
	}
	return s.transition(id, domain.TaskStatusCompleted, func(t *domain.Task) {
		now := time.Now().UTC()
		t.OutputRef = outputRef
		t.Progress = 1
		t.CompletedAt = &now
	})
}

func (s *MemTaskStore) MarkFailed(_ context.Context, id uuid.UUID, errorMessage string) error {
	if err := s.injected("MarkFailed"); err != nil {
		return err
	}
	return s.transition(id, domain.TaskStatusFailed, func(t *domain.Task) {
		now := time.Now().UTC()
		t.ErrorMessage = errorMessage
		t.CompletedAt = &now
	})
}

func (s *MemTaskStore) MarkCancelled(_ context.Context, id uuid.UUID) error {
	if err := s.injected("MarkCancelled"); err != nil {
		return err
	}
	return s.transition(id, domain.TaskStatusCancelled, func(t *domain.Task) {
		now := time.Now().UTC()
		t.CompletedAt = &now
	})
}

func (s *MemTaskStore) Reopen(_ context.Context, id uuid.UUID) error {
	if err := s.injected("Reopen"); err != nil {
		return err
	}
	return s.transition(id, domain.TaskStatusPending, func(t *domain.Task) {
		t.ErrorMessage = ""
		t.OutputRef = ""
		t.Progress = 0
		t.StartedAt = nil
		t.CompletedAt = nil
	})
}

func (s *MemTaskStore) UpdateProgress(_ context.Context, id uuid.UUID, progress float64) error {
	if err := s.injected("UpdateProgress"); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return store.ErrNotFound
	}
	if t.Status != domain.TaskStatusRunning {
		return store.ErrInvalidTransition
	}
	if progress > t.Progress {
		t.Progress = progress
		t.UpdatedAt = time.Now().UTC()
	}
	return nil
}

// SetStartedAt rewrites a task's started_at, letting tests age a running
// task past the monitor's timeout ceiling.
func (s *MemTaskStore) SetStartedAt(id uuid.UUID, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.tasks[id]; ok {
		t.StartedAt = &at
	}
}

// Put inserts a task bypassing state-machine checks, for test setup.
func (s *MemTaskStore) Put(t *domain.Task) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tasks[t.ID] = cloneTask(t)
}
