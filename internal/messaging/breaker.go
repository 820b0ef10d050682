// Package messaging carries outbound patient messages to the WhatsApp
// provider, isolating the rest of the system from provider failures with
// a circuit breaker and a bounded retry policy.
package messaging

import (
	"errors"
	"sync"
	"time"
)

// ErrCircuitOpen is returned when the breaker refuses a call without
// invoking the wrapped operation.
var ErrCircuitOpen = errors.New("messaging: circuit breaker is open")

// BreakerState is the circuit breaker position.
type BreakerState string

const (
	BreakerClosed   BreakerState = "closed"
	BreakerOpen     BreakerState = "open"
	BreakerHalfOpen BreakerState = "half_open"
)

// CircuitBreaker guards calls to a failing downstream dependency.
// After failureThreshold consecutive failures it rejects calls outright
// until recoveryTimeout has elapsed since the last failure, then lets a
// single probe through. State is process-local and resets to closed on
// restart; the half-open position is evaluated lazily per call, there is
// no background timer.
type CircuitBreaker struct {
	mu               sync.Mutex
	state            BreakerState
	failureCount     int
	lastFailureTime  time.Time
	failureThreshold int
	recoveryTimeout  time.Duration
	now              func() time.Time
}

// NewCircuitBreaker creates a closed breaker. Non-positive arguments
// fall back to the defaults of 5 failures and a one-minute recovery.
func NewCircuitBreaker(failureThreshold int, recoveryTimeout time.Duration) *CircuitBreaker {
	if failureThreshold <= 0 {
		failureThreshold = 5
	}
	if recoveryTimeout <= 0 {
		recoveryTimeout = time.Minute
	}
	return &CircuitBreaker{
		state:            BreakerClosed,
		failureThreshold: failureThreshold,
		recoveryTimeout:  recoveryTimeout,
		now:              time.Now,
	}
}

// Execute runs op through the breaker. While open and inside the
// recovery window it returns ErrCircuitOpen without invoking op; once
// the window has elapsed a single probe call is attempted. The
// operation's own error is propagated unchanged after the counters are
// updated.
func (cb *CircuitBreaker) Execute(op func() error) error {
	cb.mu.Lock()
	if cb.state == BreakerOpen {
		if cb.now().Sub(cb.lastFailureTime) > cb.recoveryTimeout {
			cb.state = BreakerHalfOpen
		} else {
			cb.mu.Unlock()
			return ErrCircuitOpen
		}
	}
	cb.mu.Unlock()

	err := op()

	cb.mu.Lock()
	defer cb.mu.Unlock()
	if err != nil {
		cb.onFailure()
		return err
	}
	cb.onSuccess()
	return nil
}

func (cb *CircuitBreaker) onSuccess() {
	cb.failureCount = 0
	cb.state = BreakerClosed
}

func (cb *CircuitBreaker) onFailure() {
	cb.failureCount++
	cb.lastFailureTime = cb.now()
	if cb.failureCount >= cb.failureThreshold {
		cb.state = BreakerOpen
	}
}

// State returns the current breaker position.
func (cb *CircuitBreaker) State() BreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}
