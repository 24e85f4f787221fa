package breaker

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failing(err error) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return "", err }
}

func returning(value string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return value, nil }
}

func TestExecuteReturnsPrimaryResult(t *testing.T) {
	b := New(5, 30*time.Second)

	res, err := Execute(context.Background(), b, returning("primary"), returning("fallback"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Value != "primary" {
		t.Errorf("expected primary result, got %q", res.Value)
	}
	if res.FromFallback {
		t.Error("expected result not to come from fallback")
	}
	if got := b.State(); got != StateClosed {
		t.Errorf("expected closed state, got %v", got)
	}
}

func TestExecuteUsesFallbackOnPrimaryFailure(t *testing.T) {
	b := New(5, 30*time.Second)
	primaryErr := errors.New("upstream down")

	res, err := Execute(context.Background(), b, failing(primaryErr), returning("fallback"))
	if err != nil {
		t.Fatalf("primary error must not surface when a fallback exists: %v", err)
	}
	if res.Value != "fallback" || !res.FromFallback {
		t.Errorf("expected fallback result, got %+v", res)
	}
	if got := b.Failures(); got != 1 {
		t.Errorf("expected 1 recorded failure, got %d", got)
	}
}

func TestExecutePropagatesFallbackError(t *testing.T) {
	b := New(5, 30*time.Second)
	fallbackErr := errors.New("fallback broken")

	_, err := Execute(context.Background(), b, failing(errors.New("primary")), failing(fallbackErr))
	if !errors.Is(err, fallbackErr) {
		t.Fatalf("expected fallback error, got %v", err)
	}
}

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := New(3, 30*time.Second)

	for i := 0; i < 3; i++ {
		if _, err := Execute(context.Background(), b, failing(errors.New("boom")), returning("fb")); err != nil {
			t.Fatalf("unexpected error on attempt %d: %v", i, err)
		}
	}

	if got := b.State(); got != StateOpen {
		t.Fatalf("expected open state after threshold failures, got %v", got)
	}

	// Open circuit with no fallback rejects immediately.
	_, err := Execute[string](context.Background(), b, failing(errors.New("boom")), nil)
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("expected ErrOpen, got %v", err)
	}
}

func TestOpenCircuitShortCircuitsToFallback(t *testing.T) {
	b := New(1, 30*time.Second)

	if _, err := Execute(context.Background(), b, failing(errors.New("boom")), returning("fb")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	called := false
	primary := func(context.Context) (string, error) {
		called = true
		return "primary", nil
	}

	res, err := Execute(context.Background(), b, primary, returning("fb"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("primary must not run while the circuit is open")
	}
	if !res.FromFallback {
		t.Error("expected fallback result while open")
	}
}

func TestHalfOpenTrialSuccessClosesCircuit(t *testing.T) {
	b := New(1, 30*time.Second)
	clock := time.Now()
	b.now = func() time.Time { return clock }

	if _, err := Execute(context.Background(), b, failing(errors.New("boom")), returning("fb")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if b.State() != StateOpen {
		t.Fatal("expected open state")
	}

	clock = clock.Add(31 * time.Second)

	res, err := Execute(context.Background(), b, returning("recovered"), returning("fb"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.FromFallback || res.Value != "recovered" {
		t.Errorf("expected trial call to run primary, got %+v", res)
	}
	if b.State() != StateClosed {
		t.Errorf("expected closed state after trial success, got %v", b.State())
	}
	if b.Failures() != 0 {
		t.Errorf("expected failure count reset, got %d", b.Failures())
	}
}

func TestHalfOpenTrialFailureReopensWithoutCounting(t *testing.T) {
	b := New(3, 30*time.Second)
	clock := time.Now()
	b.now = func() time.Time { return clock }

	for i := 0; i < 3; i++ {
		if _, err := Execute(context.Background(), b, failing(errors.New("boom")), returning("fb")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	failuresBefore := b.Failures()

	clock = clock.Add(31 * time.Second)

	res, err := Execute(context.Background(), b, failing(errors.New("still down")), returning("fb"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.FromFallback {
		t.Error("expected fallback result on trial failure")
	}
	if b.State() != StateOpen {
		t.Errorf("expected reopened circuit, got %v", b.State())
	}
	if b.Failures() != failuresBefore {
		t.Errorf("half-open failure must not change the count: got %d, want %d", b.Failures(), failuresBefore)
	}
}
