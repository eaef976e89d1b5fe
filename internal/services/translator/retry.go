package translator

import (
	"math/rand"
	"time"
)

// RetryPolicy computes backoff delays for transient translator
// failures. One policy instance is shared by every external-call path
// so backoff behavior is consistent across the fleet.
//
// Call-level retries governed by this policy happen within a single
// job claim; they are distinct from the job-level attempt counter,
// which only advances when a claim ends in failure.
type RetryPolicy struct {
	// MaxRetries is the maximum number of transient retries per call
	MaxRetries int

	// InitialBackoff is the wait before the first retry
	InitialBackoff time.Duration

	// MaxBackoff caps the delay between retries
	MaxBackoff time.Duration

	// Multiplier is applied to the backoff on each retry
	Multiplier float64

	// JitterFraction adds up to this fraction of random extra delay,
	// spreading a worker fleet's retries to avoid a thundering herd
	JitterFraction float64
}

// Default retry constants, sized for LLM API rate-limit windows.
const (
	DefaultMaxRetries     = 5
	DefaultInitialBackoff = 2 * time.Second
	DefaultMaxBackoff     = 60 * time.Second
	DefaultMultiplier     = 2.0
	DefaultJitterFraction = 0.25
)

// NewDefaultRetryPolicy returns a RetryPolicy with sensible defaults.
func NewDefaultRetryPolicy() *RetryPolicy {
	return &RetryPolicy{
		MaxRetries:     DefaultMaxRetries,
		InitialBackoff: DefaultInitialBackoff,
		MaxBackoff:     DefaultMaxBackoff,
		Multiplier:     DefaultMultiplier,
		JitterFraction: DefaultJitterFraction,
	}
}

// NextDelay computes the backoff for a given zero-based retry attempt:
// capped exponential growth plus jitter. The returned delay is always
// in [base, base*(1+JitterFraction)] where base is the capped
// exponential term, so tests can assert exact bounds.
func (p *RetryPolicy) NextDelay(attempt int) time.Duration {
	backoff := float64(p.InitialBackoff)
	for i := 0; i < attempt; i++ {
		backoff *= p.Multiplier
	}
	if capped := float64(p.MaxBackoff); backoff > capped {
		backoff = capped
	}

	if p.JitterFraction > 0 {
		backoff += backoff * p.JitterFraction * rand.Float64()
	}

	return time.Duration(backoff)
}

// IsTransient reports whether err should be retried under this policy.
func (p *RetryPolicy) IsTransient(err error) bool {
	return IsTransient(err)
}
