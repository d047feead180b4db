package driverfuture

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// RetryPolicy configures Retry's bounded exponential backoff.
type RetryPolicy struct {
	MaxAttempts     int           // total attempts, including the first; 0 means DefaultRetryPolicy's 5
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Multiplier      float64

	// Retryable reports whether err should be retried. Nil means retry
	// unconditionally. A caller wanting to restrict retries to transient
	// error kinds sets this explicitly.
	Retryable func(error) bool
}

// DefaultRetryPolicy returns a conservative default: up to 5 attempts.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:     5,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     5 * time.Second,
		Multiplier:      2.0,
	}
}

// Retry calls op, retrying on failure per policy, and returns the first
// successful result or the last error once attempts are exhausted (or
// Retryable rejects the error). Cancellation exhaustion does not evict
// anything from a cache: callers that also populate a cache on success are
// responsible for doing so themselves, exactly as the source has no
// eviction path on retry failure.
func Retry[T any](ctx context.Context, policy RetryPolicy, op func() (T, error)) (T, error) {
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultRetryPolicy().MaxAttempts
	}

	eb := backoff.NewExponentialBackOff()
	if policy.InitialInterval > 0 {
		eb.InitialInterval = policy.InitialInterval
	}
	if policy.MaxInterval > 0 {
		eb.MaxInterval = policy.MaxInterval
	}
	if policy.Multiplier > 0 {
		eb.Multiplier = policy.Multiplier
	}
	eb.MaxElapsedTime = 0 // bounded by MaxAttempts, not wall-clock time

	bo := backoff.WithContext(backoff.WithMaxRetries(eb, uint64(maxAttempts-1)), ctx)

	var result T
	err := backoff.Retry(func() error {
		v, opErr := op()
		if opErr != nil {
			if policy.Retryable != nil && !policy.Retryable(opErr) {
				return backoff.Permanent(opErr)
			}
			return opErr
		}
		result = v
		return nil
	}, bo)

	if permanent, ok := err.(*backoff.PermanentError); ok {
		return result, permanent.Err
	}
	return result, err
}
