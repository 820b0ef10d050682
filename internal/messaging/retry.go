package messaging

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Retryer retries an operation with exponential backoff. It is layered
// outside the circuit breaker: the breaker decides whether a call may
// happen at all, the retryer decides how often to ask.
type Retryer struct {
	maxRetries int
	baseDelay  time.Duration
	maxDelay   time.Duration
}

// NewRetryer builds a retryer. Non-positive arguments fall back to
// 3 retries, a one-second base delay and a thirty-second cap.
func NewRetryer(maxRetries int, baseDelay, maxDelay time.Duration) *Retryer {
	if maxRetries < 0 {
		maxRetries = 3
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	if maxDelay <= 0 {
		maxDelay = 30 * time.Second
	}
	return &Retryer{maxRetries: maxRetries, baseDelay: baseDelay, maxDelay: maxDelay}
}

// Execute runs op until it succeeds, the attempts are exhausted, or the
// context ends. An open circuit is returned immediately: retrying into a
// breaker that has already refused cannot succeed within the backoff
// horizon.
func (r *Retryer) Execute(ctx context.Context, op func() error) error {
	var lastErr error
	for attempt := 0; attempt <= r.maxRetries; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, ErrCircuitOpen) || errors.Is(lastErr, context.Canceled) {
			return lastErr
		}
		if attempt == r.maxRetries {
			break
		}
		if err := r.sleep(ctx, attempt); err != nil {
			return err
		}
	}
	return fmt.Errorf("messaging: operation failed after %d retries: %w", r.maxRetries, lastErr)
}

func (r *Retryer) sleep(ctx context.Context, attempt int) error {
	delay := r.baseDelay * time.Duration(1<<attempt)
	if delay > r.maxDelay {
		delay = r.maxDelay
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
