package supervise

import "errors"

// Errors surfaced by the supervised-call protocol. They are deliberately
// distinct from provider-reported failures so operators can tell "the
// system gave up waiting" apart from "the provider rejected the request".
var (
	// ErrPollTimeout is returned when an operation never reached a terminal
	// state within the polling attempt ceiling.
	ErrPollTimeout = errors.New("operation polling attempt ceiling exceeded")

	// ErrPolicyExhausted is returned when a request was still policy-rejected
	// after the configured number of rewritten retries.
	ErrPolicyExhausted = errors.New("content policy retries exhausted")

	// ErrRewriteUnavailable is returned when the rewrite collaborator itself
	// failed, so no further policy retry could be attempted.
	ErrRewriteUnavailable = errors.New("prompt rewrite unavailable")

	// ErrOperationCancelled is returned when the provider reports the
	// operation was cancelled on its side.
	ErrOperationCancelled = errors.New("operation cancelled by provider")
)
