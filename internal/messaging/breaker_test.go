package messaging

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	boom := errors.New("provider down")

	for i := 0; i < 2; i++ {
		err := cb.Execute(func() error { return boom })
		require.ErrorIs(t, err, boom)
		require.Equal(t, BreakerClosed, cb.State())
	}

	err := cb.Execute(func() error { return boom })
	require.ErrorIs(t, err, boom)
	require.Equal(t, BreakerOpen, cb.State())
	require.Equal(t, 3, cb.FailureCount())
}

func TestBreakerRejectsWhileOpen(t *testing.T) {
	cb := NewCircuitBreaker(1, time.Minute)
	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	require.Equal(t, BreakerOpen, cb.State())

	invoked := false
	err := cb.Execute(func() error {
		invoked = true
		return nil
	})
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.False(t, invoked)
}

func TestBreakerHalfOpenProbeSuccessCloses(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Minute)
	cb.now = func() time.Time { return now }

	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	require.Equal(t, BreakerOpen, cb.State())

	now = now.Add(61 * time.Second)
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Equal(t, BreakerClosed, cb.State())
	require.Equal(t, 0, cb.FailureCount())
}

func TestBreakerHalfOpenProbeFailureReopens(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	cb := NewCircuitBreaker(1, time.Minute)
	cb.now = func() time.Time { return now }

	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))

	now = now.Add(61 * time.Second)
	probeErr := errors.New("still down")
	err := cb.Execute(func() error { return probeErr })
	require.ErrorIs(t, err, probeErr)
	require.Equal(t, BreakerOpen, cb.State())

	// The failed probe restarts the recovery window.
	now = now.Add(30 * time.Second)
	require.ErrorIs(t, cb.Execute(func() error { return nil }), ErrCircuitOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	cb := NewCircuitBreaker(3, time.Minute)
	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	require.Error(t, cb.Execute(func() error { return errors.New("boom") }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	require.Equal(t, 0, cb.FailureCount())
	require.Equal(t, BreakerClosed, cb.State())
}
