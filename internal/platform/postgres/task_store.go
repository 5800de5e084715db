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

// TaskStore implements store.TaskStore on PostgreSQL.
type TaskStore struct {
	db store.DBTX
}

// NewTaskStore creates a TaskStore backed by the given connection or transaction.
func NewTaskStore(db store.DBTX) *TaskStore {
	return &TaskStore{db: db}
}

const taskColumns = `id, kind, status, input_ref, output_ref, progress,
	error_message, params, created_at, started_at, completed_at, updated_at`

func (s *TaskStore) Create(ctx context.Context, t *domain.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	params := t.Params
	if params == nil {
		params = []byte("null")
	}

	_, err := s.db.ExecContext(ctx, query,
		t.ID, t.Kind, t.Status, t.InputRef, t.OutputRef, t.Progress,
		t.ErrorMessage, params, t.CreatedAt, t.StartedAt, t.CompletedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", mapError(err))
	}
	return nil
}

func (s *TaskStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	t, err := scanTask(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", mapError(err))
	}
	return t, nil
}

func (s *TaskStore) ListByStatus(ctx context.Context, status domain.TaskStatus) ([]*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE status = $1 ORDER BY created_at ASC`

	rows, err := s.db.QueryContext(ctx, query, status)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks by status: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	var tasks []*domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}
	return tasks, nil
}

func (s *TaskStore) CountByStatus(ctx context.Context) (map[domain.TaskStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM tasks GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count tasks: %w", mapError(err))
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status domain.TaskStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count row: %w", err)
		}
		counts[status] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating count rows: %w", err)
	}
	return counts, nil
}

func (s *TaskStore) MarkRunning(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks
		SET status = $1, started_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusRunning, now, id, domain.TaskStatusPending)
	if err != nil {
		return fmt.Errorf("failed to mark task running: %w", mapError(err))
	}
	return s.checkConditionalUpdate(ctx, result, id)
}

func (s *TaskStore) MarkCompleted(ctx context.Context, id uuid.UUID, outputRef string) error {
	query := `
		UPDATE tasks
		SET status = $1, output_ref = $2, progress = 1, completed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusCompleted, outputRef, now, id, domain.TaskStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark task completed: %w", mapError(err))
	}
	return s.checkConditionalUpdate(ctx, result, id)
}

func (s *TaskStore) MarkFailed(ctx context.Context, id uuid.UUID, errorMessage string) error {
	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, completed_at = $3, updated_at = $3
		WHERE id = $4 AND status = $5
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusFailed, errorMessage, now, id, domain.TaskStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark task failed: %w", mapError(err))
	}
	return s.checkConditionalUpdate(ctx, result, id)
}

func (s *TaskStore) MarkCancelled(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks
		SET status = $1, completed_at = $2, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusCancelled, now, id, domain.TaskStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to mark task cancelled: %w", mapError(err))
	}
	return s.checkConditionalUpdate(ctx, result, id)
}

func (s *TaskStore) Reopen(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE tasks
		SET status = $1, error_message = '', output_ref = '', progress = 0,
		    started_at = NULL, completed_at = NULL, updated_at = $2
		WHERE id = $3 AND status = $4
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		domain.TaskStatusPending, now, id, domain.TaskStatusFailed)
	if err != nil {
		return fmt.Errorf("failed to reopen task: %w", mapError(err))
	}
	return s.checkConditionalUpdate(ctx, result, id)
}

func (s *TaskStore) UpdateProgress(ctx context.Context, id uuid.UUID, progress float64) error {
	// GREATEST keeps progress monotonic under out-of-order writers.
	query := `
		UPDATE tasks
		SET progress = GREATEST(progress, $1), updated_at = $2
		WHERE id = $3 AND status = $4
	`
	now := time.Now().UTC()
	result, err := s.db.ExecContext(ctx, query,
		progress, now, id, domain.TaskStatusRunning)
	if err != nil {
		return fmt.Errorf("failed to update task progress: %w", mapError(err))
	}
	return s.checkConditionalUpdate(ctx, result, id)
}

// checkConditionalUpdate distinguishes a missing row from a conditional
// update that matched no row because the task is in a different status.
func (s *TaskStore) checkConditionalUpdate(ctx context.Context, result sql.Result, id uuid.UUID) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	err = s.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM tasks WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("failed to check task existence: %w", err)
	}
	if !exists {
		return store.ErrNotFound
	}
	return store.ErrInvalidTransition
}

// scanner abstracts *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanTask(row scanner) (*domain.Task, error) {
	var t domain.Task
	var outputRef, errorMessage sql.NullString
	var params []byte
	var startedAt, completedAt sql.NullTime

	err := row.Scan(
		&t.ID, &t.Kind, &t.Status, &t.InputRef, &outputRef, &t.Progress,
		&errorMessage, &params, &t.CreatedAt, &startedAt, &completedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.OutputRef = outputRef.String
	t.ErrorMessage = errorMessage.String
	if len(params) > 0 && string(params) != "null" {
		t.Params = params
	}
	if startedAt.Valid {
		v := startedAt.Time
		t.StartedAt = &v
	}
	if completedAt.Valid {
		v := completedAt.Time
		t.CompletedAt = &v
	}
	return &t, nil
}
