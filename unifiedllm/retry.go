package unifiedllm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryPolicy configures how the client retries failed completions before
// an error reaches the tool loop.
type RetryPolicy struct {
	MaxRetries        int     // retries after the initial attempt
	BaseDelay         float64 // first backoff in seconds
	MaxDelay          float64 // backoff ceiling in seconds
	BackoffMultiplier float64 // growth factor between attempts
	Jitter            bool    // randomize delays to spread concurrent runs
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// DefaultRetryPolicy returns the policy the client uses when none is set
// explicitly.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxRetries:        2,
		BaseDelay:         1.0,
		MaxDelay:          60.0,
		BackoffMultiplier: 2.0,
		Jitter:            true,
	}
}

// Delay returns the backoff before retry attempt n (0-indexed).
func (p RetryPolicy) Delay(attempt int) time.Duration {
	delay := math.Min(p.BaseDelay*math.Pow(p.BackoffMultiplier, float64(attempt)), p.MaxDelay)
	if p.Jitter {
		// +/- 50% jitter
		delay = delay * (0.5 + rand.Float64())
	}
	return time.Duration(delay * float64(time.Second))
}

// Retry runs fn until it succeeds, a non-retryable error occurs, or the
// policy's budget is spent. Retryability is decided by IsRetryable, so only
// transient provider failures are re-attempted.
func Retry[T any](ctx context.Context, policy RetryPolicy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	for attempt := 0; ; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		if attempt >= policy.MaxRetries || !IsRetryable(err) {
			return zero, err
		}

		delay := policy.Delay(attempt)
		if rl, ok := err.(*RateLimitError); ok && rl.RetryAfter != nil {
			// The provider named its own delay. Waiting longer than the
			// policy allows is not worth it, so give up instead.
			retryDelay := time.Duration(*rl.RetryAfter * float64(time.Second))
			if retryDelay > time.Duration(policy.MaxDelay*float64(time.Second)) {
				return zero, err
			}
			delay = retryDelay
		}

		if policy.OnRetry != nil {
			policy.OnRetry(err, attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			return zero, &AbortError{SDKError: SDKError{Message: "request cancelled during retry", Cause: ctx.Err()}}
		case <-time.After(delay):
		}
	}
}
