package extract

import (
	"math"
	"math/rand"
	"time"
)

// Retry defaults.
const (
	DefaultMaxAttempts = 3
	DefaultBaseDelay   = 2 * time.Second
)

// RetryPolicy is the explicit retry budget and backoff schedule applied
// by the worker around model invocations.
type RetryPolicy struct {
	// MaxAttempts is the total number of invocation attempts, including
	// the first one.
	MaxAttempts int

	// BaseDelay is the delay before the first retry. Subsequent retries
	// back off exponentially from it.
	BaseDelay time.Duration

	// rng adds jitter to the backoff. Nil means no jitter, which keeps
	// delays deterministic in tests.
	rng *rand.Rand
}

// DefaultRetryPolicy returns the production retry policy: 3 attempts
// with exponential backoff and jitter from a 2s base delay.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: DefaultMaxAttempts,
		BaseDelay:   DefaultBaseDelay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// NewRetryPolicy builds a policy from configuration, falling back to
// defaults for out-of-range values.
func NewRetryPolicy(maxAttempts int, baseDelay time.Duration) RetryPolicy {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Delay returns the backoff delay to wait after the given 1-based
// attempt number, using exponential backoff with jitter:
// delay = base * 2^(attempt-1) * (0.5 + rand(0, 0.5)).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}

	backoff := float64(p.BaseDelay) * math.Pow(2, float64(attempt-1))
	if p.rng != nil {
		jitter := 0.5 + p.rng.Float64()*0.5
		backoff *= jitter
	}
	return time.Duration(backoff)
}
