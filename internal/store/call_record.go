package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
)

// CallRecordStore persists the append-only audit trail of supervised
// external calls. Records are never updated or consulted for scheduling.
type CallRecordStore interface {
	// Append inserts one audit record.
	Append(ctx context.Context, record *domain.CallRecord) error

	// ListByTask returns a task's call records, oldest first.
	ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.CallRecord, error)
}
