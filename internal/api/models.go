package api

import (
	"encoding/json"
	"time"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/task"
)

// SubmitTaskRequest is the payload for task submission. Kind defaults to
// document_to_video when omitted.
type SubmitTaskRequest struct {
	Kind     string          `json:"kind"`
	InputRef string          `json:"input_ref" validate:"required,min=1"`
	Params   json.RawMessage `json:"params,omitempty"`
}

// TaskResponse is the client view of a task.
type TaskResponse struct {
	ID           string          `json:"id"`
	Kind         string          `json:"kind"`
	Status       string          `json:"status"`
	InputRef     string          `json:"input_ref"`
	OutputRef    string          `json:"output_ref,omitempty"`
	Progress     float64         `json:"progress"`
	ErrorMessage string          `json:"error_message,omitempty"`
	Params       json.RawMessage `json:"params,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
	StartedAt    *time.Time      `json:"started_at,omitempty"`
	CompletedAt  *time.Time      `json:"completed_at,omitempty"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

// CallRecordResponse is the client view of one audit record.
type CallRecordResponse struct {
	ID            string    `json:"id"`
	Operation     string    `json:"operation"`
	Outcome       string    `json:"outcome"`
	LatencyMillis int64     `json:"latency_ms"`
	UsageTokens   int       `json:"usage_tokens,omitempty"`
	ErrorMessage  string    `json:"error_message,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// StatsResponse is the operational snapshot of the scheduler.
type StatsResponse struct {
	WorkerCount   int            `json:"worker_count"`
	ActiveWorkers int            `json:"active_workers"`
	QueueDepth    int            `json:"queue_depth"`
	CountByStatus map[string]int `json:"count_by_status"`
}

func taskToResponse(t *domain.Task) TaskResponse {
	return TaskResponse{
		ID:           t.ID.String(),
		Kind:         t.Kind,
		Status:       string(t.Status),
		InputRef:     t.InputRef,
		OutputRef:    t.OutputRef,
		Progress:     t.Progress,
		ErrorMessage: t.ErrorMessage,
		Params:       t.Params,
		CreatedAt:    t.CreatedAt,
		StartedAt:    t.StartedAt,
		CompletedAt:  t.CompletedAt,
		UpdatedAt:    t.UpdatedAt,
	}
}

func callRecordToResponse(rec *domain.CallRecord) CallRecordResponse {
	return CallRecordResponse{
		ID:            rec.ID.String(),
		Operation:     rec.Operation,
		Outcome:       string(rec.Outcome),
		LatencyMillis: rec.LatencyMillis,
		UsageTokens:   rec.UsageTokens,
		ErrorMessage:  rec.ErrorMessage,
		CreatedAt:     rec.CreatedAt,
	}
}

func statsToResponse(s *task.Stats) StatsResponse {
	counts := make(map[string]int, len(s.CountByStatus))
	for status, n := range s.CountByStatus {
		counts[string(status)] = n
	}
	return StatsResponse{
		WorkerCount:   s.WorkerCount,
		ActiveWorkers: s.ActiveWorkers,
		QueueDepth:    s.QueueDepth,
		CountByStatus: counts,
	}
}
