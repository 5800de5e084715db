package supervise

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/reelforge/reelforge-api/internal/domain"
	"github.com/reelforge/reelforge-api/internal/generation"
)

// Caller drives supervised calls. One Caller is shared by all pipeline
// stages; per-operation behavior comes from the Operation and PollPolicy
// passed to Do.
type Caller struct {
	logger           *slog.Logger
	recorder         *Recorder
	rewriter         generation.PromptRewriter
	policyRetryLimit int
}

// CallerConfig holds tuning knobs for the Caller.
type CallerConfig struct {
	// PolicyRetryLimit is the maximum number of rewritten retries after the
	// original attempt is policy-rejected. Zero or negative applies the default.
	PolicyRetryLimit int
}

// DefaultPolicyRetryLimit is the bound on rewritten retries per call.
const DefaultPolicyRetryLimit = 3

// NewCaller creates a Caller. The rewriter may be nil, in which case policy
// rejections are surfaced without retry.
func NewCaller(logger *slog.Logger, recorder *Recorder, rewriter generation.PromptRewriter, cfg CallerConfig) *Caller {
	limit := cfg.PolicyRetryLimit
	if limit <= 0 {
		limit = DefaultPolicyRetryLimit
	}
	return &Caller{
		logger:           logger,
		recorder:         recorder,
		rewriter:         rewriter,
		policyRetryLimit: limit,
	}
}

// Do executes one supervised call for the given task: it issues the
// operation, polls it to a terminal state under the poll policy, and on a
// content-policy rejection retries with a rewritten prompt up to the
// configured bound. Only the prompt is substituted between attempts; every
// other request field is preserved unchanged. Non-policy errors propagate
// immediately.
func (c *Caller) Do(ctx context.Context, taskID uuid.UUID, op Operation, req Request, policy PollPolicy) (*generation.Artifact, error) {
	original := req.Prompt
	current := req

	for attempt := 0; ; attempt++ {
		artifact, err := c.attempt(ctx, taskID, op, current, policy)
		if err == nil {
			return artifact, nil
		}

		if !generation.IsPolicyRejection(err) {
			return nil, err
		}

		if attempt >= c.policyRetryLimit {
			c.logger.Warn("content policy retries exhausted",
				"task_id", taskID,
				"operation", op.Name(),
				"attempts", attempt+1)
			return nil, fmt.Errorf("%w: %s rejected after %d attempts: %v",
				ErrPolicyExhausted, op.Name(), attempt+1, err)
		}

		if c.rewriter == nil {
			return nil, err
		}

		// The rewrite always starts from the original content, not the
		// previous rewrite, so attempts cannot drift cumulatively.
		rewritten, rerr := c.rewriter.Rewrite(ctx, original, attempt+1)
		if rerr != nil {
			return nil, fmt.Errorf("%w: %v", ErrRewriteUnavailable, rerr)
		}

		c.logger.Info("retrying with rewritten prompt after policy rejection",
			"task_id", taskID,
			"operation", op.Name(),
			"attempt", attempt+1,
			"rewritten_length", len(rewritten))

		current = req.WithPrompt(rewritten)
	}
}

// attempt runs a single start-and-poll cycle and writes one audit record
// for it, whatever the outcome.
func (c *Caller) attempt(ctx context.Context, taskID uuid.UUID, op Operation, req Request, policy PollPolicy) (*generation.Artifact, error) {
	started := time.Now()

	artifact, usage, response, err := c.run(ctx, op, req, policy)
	latency := time.Since(started)

	if err != nil {
		c.recorder.record(ctx, taskID, op.Name(), domain.CallOutcomeError,
			latency, req.Prompt, response, usage, err.Error())
		return nil, err
	}

	c.recorder.record(ctx, taskID, op.Name(), domain.CallOutcomeSuccess,
		latency, req.Prompt, response, usage, "")
	return artifact, nil
}

// run issues the operation and polls it to a terminal state.
func (c *Caller) run(ctx context.Context, op Operation, req Request, policy PollPolicy) (*generation.Artifact, generation.Usage, string, error) {
	outcome, err := op.Start(ctx, req)
	if err != nil {
		return nil, generation.Usage{}, "", err
	}

	if outcome.State == generation.OpStateSucceeded {
		return outcome.Artifact, outcome.Usage, outcome.Message, nil
	}
	if outcome.State == generation.OpStateCancelled {
		return nil, outcome.Usage, outcome.Message, ErrOperationCancelled
	}
	if outcome.State == generation.OpStateFailed {
		return nil, outcome.Usage, outcome.Message,
			fmt.Errorf("%w: %s", generation.ErrProviderFailed, outcome.Message)
	}

	state := outcome.State
	handle := outcome.Handle

	for poll := 1; poll <= policy.MaxAttempts; poll++ {
		interval := policy.Interval
		if state == generation.OpStateQueued && policy.QueuedInterval > 0 {
			interval = policy.QueuedInterval
		}

		select {
		case <-ctx.Done():
			return nil, generation.Usage{}, "", ctx.Err()
		case <-time.After(interval):
		}

		outcome, err = op.Status(ctx, handle)
		if err != nil {
			return nil, generation.Usage{}, "", err
		}

		switch outcome.State {
		case generation.OpStateSucceeded:
			return outcome.Artifact, outcome.Usage, outcome.Message, nil
		case generation.OpStateCancelled:
			return nil, outcome.Usage, outcome.Message, ErrOperationCancelled
		case generation.OpStateFailed:
			return nil, outcome.Usage, outcome.Message,
				fmt.Errorf("%w: %s", generation.ErrProviderFailed, outcome.Message)
		default:
			state = outcome.State
		}
	}

	return nil, generation.Usage{}, "",
		fmt.Errorf("%w: %s after %d polls", ErrPollTimeout, op.Name(), policy.MaxAttempts)
}
