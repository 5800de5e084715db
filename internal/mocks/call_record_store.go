package mocks

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
)

// MemCallRecordStore is an in-memory store.CallRecordStore.
type MemCallRecordStore struct {
	mu      sync.Mutex
	records []*domain.CallRecord
}

// NewMemCallRecordStore creates an empty in-memory call record store.
func NewMemCallRecordStore() *MemCallRecordStore {
	return &MemCallRecordStore{}
}

func (s *MemCallRecordStore) Append(_ context.Context, rec *domain.CallRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *rec
	s.records = append(s.records, &c)
	return nil
}

func (s *MemCallRecordStore) ListByTask(_ context.Context, taskID uuid.UUID) ([]*domain.CallRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*domain.CallRecord
	for _, r := range s.records {
		if r.TaskID == taskID {
			c := *r
			out = append(out, &c)
		}
	}
	return out, nil
}

// All returns every record appended so far, in order.
func (s *MemCallRecordStore) All() []*domain.CallRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*domain.CallRecord, len(s.records))
	copy(out, s.records)
	return out
}
