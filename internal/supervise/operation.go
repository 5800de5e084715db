package supervise

import (
	"context"
	"time"

	"github.com/reelforge/reelforge-api/internal/generation"
)

// Request is the immutable input of one supervised call. A policy retry
// produces a fresh Request via WithPrompt; nothing is mutated in place, so
// no state from a rejected attempt can leak into the next one.
type Request struct {
	// Prompt is the textual content the provider acts on. It is the only
	// field a policy retry may substitute.
	Prompt string

	// SceneNumber gives providers per-scene context (file naming, logging).
	// Zero when the call is not scene-scoped.
	SceneNumber int

	// DurationSecs is the requested artifact duration, where applicable.
	DurationSecs float64

	// ImagePath is the input still for image-to-video operations.
	ImagePath string
}

// WithPrompt returns a copy of the request with only the prompt replaced.
func (r Request) WithPrompt(prompt string) Request {
	r.Prompt = prompt
	return r
}

// Outcome is a provider's answer to Start or Status.
type Outcome struct {
	// State is the operation lifecycle state. Start may return a terminal
	// succeeded outcome directly when the provider answered synchronously.
	State generation.OpState

	// Handle identifies the remote operation for Status polling. Empty when
	// the Start response already carried a terminal payload.
	Handle string

	// Artifact is the result payload, set once State is succeeded.
	Artifact *generation.Artifact

	// Usage is the provider-reported resource consumption, when available.
	Usage generation.Usage

	// Message is a short human-readable provider status note.
	Message string
}

// Operation adapts one external provider operation to the supervised-call
// protocol. Implementations translate provider-reported terminal failures
// into typed errors: a *generation.RejectionError for content-policy blocks,
// generation.ErrTransientFailure for infrastructure faults, and
// generation.ErrProviderFailed for everything else.
type Operation interface {
	// Name is the logical operation name used in audit records and logs.
	Name() string

	// Start issues the call. It returns a terminal outcome, or a non-terminal
	// outcome carrying the handle to poll.
	Start(ctx context.Context, req Request) (*Outcome, error)

	// Status polls a previously started operation.
	Status(ctx context.Context, handle string) (*Outcome, error)
}

// PollPolicy bounds the completion-polling loop for one operation class.
type PollPolicy struct {
	// Interval between polls while the operation is running.
	Interval time.Duration

	// QueuedInterval between polls while the operation is still queued;
	// typically longer than Interval for heavy, backlogged operations.
	QueuedInterval time.Duration

	// MaxAttempts is the hard ceiling on status polls. Exceeding it yields
	// ErrPollTimeout regardless of the operation's remote state.
	MaxAttempts int
}
