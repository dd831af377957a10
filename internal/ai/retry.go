package ai

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/mrz1836/testmo/internal/constants"
	testmoerrors "github.com/mrz1836/testmo/internal/errors"
)

// timeSleep is overridable so tests never wait for backoff.
//
//nolint:gochecknoglobals // test seam
var timeSleep = time.After

// RetryPolicy controls how transient AI failures are retried.
type RetryPolicy struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64

	// Jitter is the upper bound of the random delay added to each wait.
	Jitter time.Duration
}

// DefaultRetryPolicy returns five attempts starting at four seconds, doubling.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:  constants.MaxRetryAttempts,
		InitialDelay: constants.InitialBackoff,
		MaxDelay:     constants.MaxBackoff,
		Multiplier:   constants.BackoffMultiplier,
		Jitter:       constants.BackoffJitter,
	}
}

// Delay returns the wait before retry i (0-based):
// min(initial * multiplier^i, max) plus up to Jitter.
func (p RetryPolicy) Delay(i int) time.Duration {
	d := float64(p.InitialDelay) * math.Pow(p.Multiplier, float64(i))
	if p.MaxDelay > 0 && d > float64(p.MaxDelay) {
		d = float64(p.MaxDelay)
	}
	delay := time.Duration(d)
	if p.Jitter > 0 {
		delay += rand.N(p.Jitter) //nolint:gosec // jitter does not need a secure source
	}
	return delay
}

// Retry runs fn until it succeeds, returns a non-retryable error, or the
// policy's attempts are used up. onRetry, if set, is called before each wait.
func Retry[T any](
	ctx context.Context,
	policy RetryPolicy,
	onRetry func(attempt int, delay time.Duration, err error),
	fn func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	attempts := max(policy.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !IsRetryable(err) {
			return zero, err
		}
		if attempt == attempts {
			break
		}

		delay := policy.Delay(attempt - 1)
		if onRetry != nil {
			onRetry(attempt, delay, err)
		}
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timeSleep(delay):
		}
	}

	return zero, fmt.Errorf("%w after %d attempts: %w", testmoerrors.ErrMaxRetriesExceeded, attempts, lastErr)
}
