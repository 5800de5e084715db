package supervise

import (
	"context"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/generation"
	"github.com/reelforge/reelforge-api/internal/store"
)

// snippetLimit caps stored payload snapshots so audit rows stay small.
const snippetLimit = 2048

// Recorder writes one append-only audit record per supervised-call attempt.
// Recording failures are logged and never fail the call itself; the audit
// trail is for post-hoc diagnosis, not control flow.
type Recorder struct {
	records store.CallRecordStore
	logger  *slog.Logger
}

// NewRecorder creates a Recorder backed by the given store.
func NewRecorder(records store.CallRecordStore, logger *slog.Logger) *Recorder {
	return &Recorder{records: records, logger: logger}
}

func (r *Recorder) record(
	ctx context.Context,
	taskID uuid.UUID,
	operation string,
	outcome domain.CallOutcome,
	latency time.Duration,
	request, response string,
	usage generation.Usage,
	errText string,
) {
	if r == nil || r.records == nil {
		return
	}

	rec := domain.NewCallRecord(taskID, operation, outcome, latency)
	rec.RequestSnapshot = truncate(request, snippetLimit)
	rec.ResponseSnippet = truncate(response, snippetLimit)
	rec.UsageTokens = usage.TotalTokens
	rec.ErrorMessage = truncate(errText, snippetLimit)

	if err := r.records.Append(ctx, rec); err != nil {
		r.logger.Warn("failed to append call audit record",
			"task_id", taskID,
			"operation", operation,
			"error", err)
	}
}

// truncate cuts s to at most limit bytes on a rune boundary, so stored
// snippets are always valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
