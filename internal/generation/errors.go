package generation

import (
	"errors"
	"fmt"
)

// Common errors returned by generation providers.
var (
	// ErrContentBlocked is returned when a provider rejects a request for a
	// recoverable content-policy reason. Calls failing this way may be
	// retried with a rewritten prompt; nothing else should be.
	ErrContentBlocked = errors.New("content blocked by provider safety filters")

	// ErrTransientFailure is returned for temporary faults (network errors,
	// 5xx responses, provider-side timeouts) that might resolve on retry.
	ErrTransientFailure = errors.New("transient provider failure")

	// ErrInvalidResponse is returned when a provider response cannot be
	// parsed or is missing required fields.
	ErrInvalidResponse = errors.New("invalid response from provider")

	// ErrProviderFailed is returned when a provider reports a terminal
	// failure for an operation it accepted.
	ErrProviderFailed = errors.New("provider reported operation failure")

	// ErrInvalidConfig is returned when a provider client is constructed
	// with invalid configuration.
	ErrInvalidConfig = errors.New("invalid provider configuration")
)

// RejectionError carries the structured rejection code a provider returned
// alongside a policy block, so classification never depends on matching
// message strings. It wraps ErrContentBlocked.
type RejectionError struct {
	Code    string
	Message string
}

func (e *RejectionError) Error() string {
	return fmt.Sprintf("policy rejection %s: %s", e.Code, e.Message)
}

func (e *RejectionError) Unwrap() error {
	return ErrContentBlocked
}

// IsPolicyRejection reports whether err classifies as a recoverable
// content-policy rejection.
func IsPolicyRejection(err error) bool {
	return errors.Is(err, ErrContentBlocked)
}

// IsTransient reports whether err classifies as a transient fault.
func IsTransient(err error) bool {
	return errors.Is(err, ErrTransientFailure)
}
