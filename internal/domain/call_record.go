package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallOutcome is the recorded result of one external-operation attempt.
type CallOutcome string

const (
	CallOutcomeSuccess CallOutcome = "success"
	CallOutcomeError   CallOutcome = "error"
)

// CallRecord is an append-only audit entry for a single supervised external
// call attempt. Records are written for post-hoc diagnosis and are never
// read back into scheduling decisions.
type CallRecord struct {
	ID              uuid.UUID
	TaskID          uuid.UUID
	Operation       string
	Outcome         CallOutcome
	LatencyMillis   int64
	RequestSnapshot string
	ResponseSnippet string
	UsageTokens     int
	ErrorMessage    string
	CreatedAt       time.Time
}

// NewCallRecord builds an audit record for one attempt of the named operation.
func NewCallRecord(taskID uuid.UUID, operation string, outcome CallOutcome, latency time.Duration) *CallRecord {
	return &CallRecord{
		ID:            uuid.New(),
		TaskID:        taskID,
		Operation:     operation,
		Outcome:       outcome,
		LatencyMillis: latency.Milliseconds(),
		CreatedAt:     time.Now().UTC(),
	}
}
