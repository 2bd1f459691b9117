// Package http is the StepHttp/StepNetwork tool: outbound HTTP calls
// guarded by a circuit breaker. The breaker's shape (closed/open/
// half-open, error-rate-over-a-window threshold, sleep window, bounded
// half-open trial count) is adapted from the teacher's sibling module
// itsneelabh-gomind/resilience's CircuitBreaker — that package lives in
// its own go.mod (module github.com/itsneelabh/gomind/resilience) and
// cannot be required into this single-module repo without a forbidden
// replace directive, so its state machine is reimplemented natively
// here rather than imported. See DESIGN.md.
package http

import (
	"errors"
	"sync"
	"time"
)

// CircuitState is one of closed, open, or half-open.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrCircuitOpen is returned by Execute when the breaker is rejecting
// calls outright.
var ErrCircuitOpen = errors.New("circuit breaker is open")

// CircuitBreakerConfig configures a CircuitBreaker.
type CircuitBreakerConfig struct {
	// Name identifies the breaker in logs.
	Name string
	// ErrorThreshold is the error rate (0.0-1.0) within WindowSize that
	// trips the breaker open.
	ErrorThreshold float64
	// VolumeThreshold is the minimum number of calls in the window
	// before the error rate is evaluated at all.
	VolumeThreshold int
	// SleepWindow is how long the breaker stays open before allowing a
	// half-open trial.
	SleepWindow time.Duration
	// HalfOpenTrials is how many calls are allowed through while
	// half-open before deciding to close or re-open.
	HalfOpenTrials int
	// WindowSize bounds how far back failed/total counts are tracked;
	// older calls age out.
	WindowSize time.Duration
}

// DefaultCircuitBreakerConfig mirrors the teacher's DefaultConfig
// values (50% error rate, 10-call volume floor, 30s sleep window).
func DefaultCircuitBreakerConfig(name string) CircuitBreakerConfig {
	return CircuitBreakerConfig{
		Name:            name,
		ErrorThreshold:  0.5,
		VolumeThreshold: 10,
		SleepWindow:     30 * time.Second,
		HalfOpenTrials:  5,
		WindowSize:      60 * time.Second,
	}
}

type callRecord struct {
	at      time.Time
	success bool
}

// CircuitBreaker wraps arbitrary work with failure-rate tripping,
// matching the teacher's closed -> open -> half-open -> closed/open
// cycle in spirit, trimmed to what tools/http needs.
type CircuitBreaker struct {
	cfg CircuitBreakerConfig

	mu             sync.Mutex
	state          CircuitState
	openedAt       time.Time
	calls          []callRecord
	halfOpenInFlt  int
	halfOpenOK     int
	halfOpenFailed int
}

// NewCircuitBreaker constructs a breaker starting closed.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.ErrorThreshold <= 0 {
		cfg.ErrorThreshold = 0.5
	}
	if cfg.VolumeThreshold <= 0 {
		cfg.VolumeThreshold = 10
	}
	if cfg.SleepWindow <= 0 {
		cfg.SleepWindow = 30 * time.Second
	}
	if cfg.HalfOpenTrials <= 0 {
		cfg.HalfOpenTrials = 5
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = 60 * time.Second
	}
	return &CircuitBreaker{cfg: cfg, state: StateClosed}
}

// State reports the breaker's current state, evaluating an open ->
// half-open transition if the sleep window has elapsed.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.maybeTransitionToHalfOpen(time.Now())
	return cb.state
}

func (cb *CircuitBreaker) maybeTransitionToHalfOpen(now time.Time) {
	if cb.state == StateOpen && now.Sub(cb.openedAt) >= cb.cfg.SleepWindow {
		cb.state = StateHalfOpen
		cb.halfOpenInFlt, cb.halfOpenOK, cb.halfOpenFailed = 0, 0, 0
	}
}

// Execute runs fn under the breaker's admission control. It returns
// ErrCircuitOpen without calling fn if the breaker is open (or the
// half-open trial quota is exhausted).
func (cb *CircuitBreaker) Execute(fn func() error) error {
	if !cb.admit() {
		return ErrCircuitOpen
	}
	err := fn()
	cb.record(err == nil)
	return err
}

func (cb *CircuitBreaker) admit() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	now := time.Now()
	cb.maybeTransitionToHalfOpen(now)
	switch cb.state {
	case StateOpen:
		return false
	case StateHalfOpen:
		if cb.halfOpenInFlt >= cb.cfg.HalfOpenTrials {
			return false
		}
		cb.halfOpenInFlt++
		return true
	default:
		return true
	}
}

func (cb *CircuitBreaker) record(success bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	now := time.Now()

	switch cb.state {
	case StateHalfOpen:
		if success {
			cb.halfOpenOK++
		} else {
			cb.halfOpenFailed++
		}
		if cb.halfOpenOK+cb.halfOpenFailed >= cb.cfg.HalfOpenTrials {
			if cb.halfOpenFailed == 0 {
				cb.state = StateClosed
				cb.calls = nil
			} else {
				cb.state = StateOpen
				cb.openedAt = now
			}
		}
		return
	case StateOpen:
		return
	}

	cb.calls = append(cb.calls, callRecord{at: now, success: success})
	cb.pruneLocked(now)

	if len(cb.calls) < cb.cfg.VolumeThreshold {
		return
	}
	failed := 0
	for _, c := range cb.calls {
		if !c.success {
			failed++
		}
	}
	if float64(failed)/float64(len(cb.calls)) >= cb.cfg.ErrorThreshold {
		cb.state = StateOpen
		cb.openedAt = now
	}
}

func (cb *CircuitBreaker) pruneLocked(now time.Time) {
	cutoff := now.Add(-cb.cfg.WindowSize)
	kept := cb.calls[:0]
	for _, c := range cb.calls {
		if c.at.After(cutoff) {
			kept = append(kept, c)
		}
	}
	cb.calls = kept
}
