package http

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCircuitBreaker_TripsOpenAfterErrorThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		ErrorThreshold: 0.5, VolumeThreshold: 4, SleepWindow: time.Hour, HalfOpenTrials: 2, WindowSize: time.Minute,
	})
	failing := errors.New("boom")
	for i := 0; i < 4; i++ {
		_ = cb.Execute(func() error { return failing })
	}
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_RejectsWhileOpen(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		ErrorThreshold: 0.1, VolumeThreshold: 1, SleepWindow: time.Hour, HalfOpenTrials: 2, WindowSize: time.Minute,
	})
	_ = cb.Execute(func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Execute(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestCircuitBreaker_ClosesAfterSuccessfulHalfOpenTrials(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		ErrorThreshold: 0.1, VolumeThreshold: 1, SleepWindow: time.Millisecond, HalfOpenTrials: 2, WindowSize: time.Minute,
	})
	_ = cb.Execute(func() error { return errors.New("boom") })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(5 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	require.NoError(t, cb.Execute(func() error { return nil }))
	require.NoError(t, cb.Execute(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreaker_ReopensOnHalfOpenFailure(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		ErrorThreshold: 0.1, VolumeThreshold: 1, SleepWindow: time.Millisecond, HalfOpenTrials: 1, WindowSize: time.Minute,
	})
	_ = cb.Execute(func() error { return errors.New("boom") })
	time.Sleep(5 * time.Millisecond)
	require.Equal(t, StateHalfOpen, cb.State())

	_ = cb.Execute(func() error { return errors.New("still broken") })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreaker_StaysClosedBelowVolumeThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		ErrorThreshold: 0.5, VolumeThreshold: 100, SleepWindow: time.Hour, HalfOpenTrials: 2, WindowSize: time.Minute,
	})
	for i := 0; i < 5; i++ {
		_ = cb.Execute(func() error { return errors.New("boom") })
	}
	assert.Equal(t, StateClosed, cb.State())
}
