package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/store"
)

// CallRecordStore implements store.CallRecordStore on PostgreSQL. The table
// is append-only: there are no update or delete paths.
type CallRecordStore struct {
	db store.DBTX
}

// NewCallRecordStore creates a CallRecordStore backed by the given connection
// or transaction.
func NewCallRecordStore(db store.DBTX) *CallRecordStore {
	return &CallRecordStore{db: db}
}

func (s *CallRecordStore) Append(ctx context.Context, rec *domain.CallRecord) error {
	query := `
		INSERT INTO call_records (id, task_id, operation, outcome, latency_millis,
			request_snapshot, response_snippet, usage_tokens, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.TaskID, rec.Operation, rec.Outcome, rec.LatencyMillis,
		rec.RequestSnapshot, rec.ResponseSnippet, rec.UsageTokens,
		rec.ErrorMessage, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append call record: %w", mapError(err))
	}
	return nil
}

func (s *CallRecordStore) ListByTask(ctx context.Context, taskID uuid.UUID) ([]*domain.CallRecord, error) {
	query := `
		SELECT id, task_id, operation, outcome, latency_millis,
		       request_snapshot, response_snippet, usage_tokens, error_message, created_at
		FROM call_records
		WHERE task_id = $1
		ORDER BY created_at ASC, id ASC
	`
	rows, err := s.db.QueryContext(ctx, query, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to query call records: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.CallRecord
	for rows.Next() {
		var rec domain.CallRecord
		var request, response, errorMessage sql.NullString
		err := rows.Scan(
			&rec.ID, &rec.TaskID, &rec.Operation, &rec.Outcome, &rec.LatencyMillis,
			&request, &response, &rec.UsageTokens, &errorMessage, &rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan call record row: %w", err)
		}
		rec.RequestSnapshot = request.String
		rec.ResponseSnippet = response.String
		rec.ErrorMessage = errorMessage.String
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating call record rows: %w", err)
	}
	return records, nil
}
