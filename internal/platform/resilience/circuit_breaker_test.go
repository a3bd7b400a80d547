package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestCircuitBreaker_BasicTransitions(t *testing.T) {
	b := NewCircuitBreaker(2, 5*time.Second, 1)

	now := time.Date(2026, 2, 11, 12, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected allow in closed state: %v", err)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after first failure, got %s", state)
	}

	b.RecordFailure()
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after threshold failures, got %s", state)
	}

	if err := b.Allow(); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}

	now = now.Add(6 * time.Second)
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass, got %v", err)
	}
	if state := b.State(); state != CircuitStateHalfOpen {
		t.Fatalf("expected half-open state, got %s", state)
	}

	b.RecordSuccess()
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after successful half-open probe, got %s", state)
	}
}

func TestCircuitBreaker_ExecuteIgnoresNonFailures(t *testing.T) {
	b := NewCircuitBreaker(1, time.Minute, 1)
	notFound := errors.New("not found")

	err := b.Execute(func() error { return notFound }, func(err error) bool { return !errors.Is(err, notFound) })
	if !errors.Is(err, notFound) {
		t.Fatalf("expected passthrough error, got %v", err)
	}
	if state := b.State(); state != CircuitStateClosed {
		t.Fatalf("expected closed after ignored error, got %s", state)
	}

	_ = b.Execute(func() error { return errors.New("boom") }, nil)
	if state := b.State(); state != CircuitStateOpen {
		t.Fatalf("expected open after counted failure, got %s", state)
	}
	if err := b.Execute(func() error { return nil }, nil); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected circuit open error, got %v", err)
	}
}

func TestNewCircuitBreakerFromConfig_Disabled(t *testing.T) {
	b := NewCircuitBreakerFromConfig(CircuitBreakerConfig{Enabled: false})
	if b != nil {
		t.Fatalf("expected nil breaker when disabled")
	}
	called := false
	if err := b.Execute(func() error { called = true; return nil }, nil); err != nil {
		t.Fatalf("nil breaker execute: %v", err)
	}
	if !called {
		t.Fatalf("expected fn to run through nil breaker")
	}
}

func TestCircuitBreaker_ReportsTransitions(t *testing.T) {
	type transition struct{ from, to CircuitState }
	var seen []transition

	b := NewCircuitBreakerFromConfig(CircuitBreakerConfig{
		Name:             "directory",
		Enabled:          true,
		FailureThreshold: 1,
		OpenTimeout:      time.Second,
		HalfOpenMaxReq:   1,
	}.WithStateChange(func(name string, from, to CircuitState) {
		if name != "directory" {
			t.Errorf("unexpected breaker name %q", name)
		}
		seen = append(seen, transition{from, to})
	}))

	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }

	_ = b.Execute(func() error { return errors.New("boom") }, nil)
	now = now.Add(2 * time.Second)
	_ = b.Execute(func() error { return nil }, nil)

	want := []transition{
		{CircuitStateClosed, CircuitStateOpen},
		{CircuitStateOpen, CircuitStateHalfOpen},
		{CircuitStateHalfOpen, CircuitStateClosed},
	}
	if len(seen) != len(want) {
		t.Fatalf("expected %d transitions, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("transition %d: expected %v, got %v", i, want[i], seen[i])
		}
	}
	if b.Name() != "directory" {
		t.Fatalf("unexpected name %q", b.Name())
	}
}

func TestCircuitBreakerConfig_NormalizeKeepsIdentity(t *testing.T) {
	cfg := CircuitBreakerConfig{Name: "qstash"}.Normalize()
	defaults := DefaultCircuitBreakerConfig()

	if cfg.Name != "qstash" {
		t.Fatalf("expected name to survive normalize, got %q", cfg.Name)
	}
	if cfg.FailureThreshold != defaults.FailureThreshold || cfg.OpenTimeout != defaults.OpenTimeout || cfg.HalfOpenMaxReq != defaults.HalfOpenMaxReq {
		t.Fatalf("expected defaults, got %+v", cfg)
	}
}
