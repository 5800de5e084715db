package mocks

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/store"
)

// MemSceneStore is an in-memory store.SceneStore.
type MemSceneStore struct {
	mu     sync.RWMutex
	scenes map[uuid.UUID][]*domain.Scene // by task ID, kept sorted by number
}

// NewMemSceneStore creates an empty in-memory scene store.
func NewMemSceneStore() *MemSceneStore {
	return &MemSceneStore{scenes: make(map[uuid.UUID][]*domain.Scene)}
}

func (s *MemSceneStore) ReplaceForTask(_ context.Context, taskID uuid.UUID, scenes []*domain.Scene) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copies := make([]*domain.Scene, len(scenes))
	for i, sc := range scenes {
		c := *sc
		copies[i] = &c
	}
	sort.Slice(copies, func(i, j int) bool { return copies[i].Number < copies[j].Number })
	s.scenes[taskID] = copies
	return nil
}

func (s *MemSceneStore) SetAssets(_ context.Context, taskID uuid.UUID, number int, audioPath, imagePath, videoPath string, durationSecs float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sc := range s.scenes[taskID] {
		if sc.Number == number {
			sc.AudioPath = audioPath
			sc.ImagePath = imagePath
			sc.VideoPath = videoPath
			sc.DurationSecs = durationSecs
			sc.UpdatedAt = time.Now().UTC()
			return nil
		}
	}
	return store.ErrNotFound
}

func (s *MemSceneStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.Scene, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	src := s.scenes[taskID]
	out := make([]*domain.Scene, len(src))
	for i, sc := range src {
		c := *sc
		out[i] = &c
	}
	return out, nil
}
