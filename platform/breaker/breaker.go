// Package breaker provides a circuit breaker for calls to external services.
// This is part of the platform layer and contains no business logic.
package breaker

import (
	"context"
	"errors"
	"sync"
	"time"
)

// State is the current circuit state.
type State int

const (
	// StateClosed allows calls through and counts failures.
	StateClosed State = iota
	// StateOpen rejects calls until the recovery timeout elapses.
	StateOpen
	// StateHalfOpen allows a trial call after the recovery timeout.
	StateHalfOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// ErrOpen is returned when the circuit is open and no fallback is provided.
var ErrOpen = errors.New("circuit breaker is open")

// Breaker is a thread-safe circuit breaker. The zero value is not usable;
// construct with New.
type Breaker struct {
	mu        sync.Mutex
	state     State
	failures  int
	threshold int
	timeout   time.Duration
	openedAt  time.Time

	now func() time.Time
}

// New creates a breaker that opens after threshold consecutive failures and
// allows a trial call once timeout has elapsed.
func New(threshold int, timeout time.Duration) *Breaker {
	return &Breaker{
		state:     StateClosed,
		threshold: threshold,
		timeout:   timeout,
		now:       time.Now,
	}
}

// State returns the current circuit state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Failures returns the current consecutive failure count.
func (b *Breaker) Failures() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.failures
}

// allow reports whether a call may proceed, transitioning open to half-open
// when the recovery timeout has elapsed.
func (b *Breaker) allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state != StateOpen {
		return true
	}
	if b.now().Sub(b.openedAt) >= b.timeout {
		b.state = StateHalfOpen
		return true
	}
	return false
}

// recordSuccess closes the circuit and resets the failure count.
func (b *Breaker) recordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = StateClosed
	b.failures = 0
}

// recordFailure counts a failure. A half-open trial failure reopens the
// circuit immediately without touching the failure count.
func (b *Breaker) recordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.state = StateOpen
		b.openedAt = b.now()
		return
	}

	b.failures++
	if b.failures >= b.threshold {
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// Result carries the outcome of Execute and whether it came from the fallback.
type Result[T any] struct {
	Value        T
	FromFallback bool
}

// Execute runs primary through the breaker. When the circuit is open, or the
// primary fails, the fallback runs instead and its error (if any) is the one
// returned; a primary error is never surfaced while a fallback exists.
func Execute[T any](ctx context.Context, b *Breaker, primary, fallback func(context.Context) (T, error)) (Result[T], error) {
	var zero Result[T]

	if !b.allow() {
		if fallback == nil {
			return zero, ErrOpen
		}
		value, err := fallback(ctx)
		if err != nil {
			return zero, err
		}
		return Result[T]{Value: value, FromFallback: true}, nil
	}

	value, err := primary(ctx)
	if err == nil {
		b.recordSuccess()
		return Result[T]{Value: value}, nil
	}

	b.recordFailure()
	if fallback == nil {
		return zero, err
	}

	value, err = fallback(ctx)
	if err != nil {
		return zero, err
	}
	return Result[T]{Value: value, FromFallback: true}, nil
}
