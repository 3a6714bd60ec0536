// Package retry runs an operation under a bounded attempt budget with a
// growing delay between attempts.
package retry

import (
	"context"
	"time"
)

// Policy bounds how often and how patiently an operation is retried.
type Policy struct {
	// MaxAttempts is the total number of calls, including the first.
	MaxAttempts int
	// BaseDelay is multiplied by the attempt number to get the wait before the next call.
	BaseDelay time.Duration
	// MaxDelay caps the wait between calls. Zero means uncapped.
	MaxDelay time.Duration
	// Retryable reports whether an error may be retried. Nil retries everything.
	Retryable func(error) bool
	// OnRetry is invoked before waiting for the next attempt.
	OnRetry func(attempt int, delay time.Duration, err error)
}

// Delay returns the wait after the given (1-based) failed attempt.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	delay := p.BaseDelay * time.Duration(attempt)
	if p.MaxDelay > 0 && delay > p.MaxDelay {
		delay = p.MaxDelay
	}
	return delay
}

// Do calls op until it succeeds, returns a non-retryable error, or the attempt
// budget is spent. It returns the attempts made and the last error. A cancelled
// context stops the wait and returns the context error.
func (p Policy) Do(ctx context.Context, op func(ctx context.Context, attempt int) error) (int, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return attempt, nil
		}
		if p.Retryable != nil && !p.Retryable(lastErr) {
			return attempt, lastErr
		}
		if attempt == attempts {
			return attempt, lastErr
		}
		delay := p.Delay(attempt)
		if p.OnRetry != nil {
			p.OnRetry(attempt, delay, lastErr)
		}
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return attempt, ctx.Err()
		}
	}
	return attempts, lastErr
}
