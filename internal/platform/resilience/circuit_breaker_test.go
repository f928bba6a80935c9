package resilience

import (
	"testing"
	"time"
)

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(2, time.Minute, 1)
	if err := b.Allow(); err != nil {
		t.Fatalf("closed breaker should allow: %v", err)
	}

	b.RecordFailure()
	if err := b.Allow(); err != nil {
		t.Fatalf("one failure should not open breaker: %v", err)
	}
	b.RecordFailure()
	if err := b.Allow(); err == nil {
		t.Fatalf("expected open breaker to reject")
	}
	if b.State() != CircuitStateOpen {
		t.Fatalf("expected open state, got=%s", b.State())
	}
}

func TestCircuitBreaker_HalfOpenRecovery(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(1, 10*time.Millisecond, 1)
	base := time.Now()
	b.now = func() time.Time { return base }

	b.RecordFailure()
	if err := b.Allow(); err == nil {
		t.Fatalf("expected rejection while open")
	}

	b.now = func() time.Time { return base.Add(20 * time.Millisecond) }
	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass: %v", err)
	}
	b.RecordSuccess()
	if b.State() != CircuitStateClosed {
		t.Fatalf("expected closed after successful probe, got=%s", b.State())
	}
}

func TestCircuitBreaker_HalfOpenProbeLimit(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(1, 10*time.Millisecond, 2)
	base := time.Now()
	b.now = func() time.Time { return base }

	b.RecordFailure()
	b.now = func() time.Time { return base.Add(20 * time.Millisecond) }

	if err := b.Allow(); err != nil {
		t.Fatalf("first probe should pass: %v", err)
	}
	if err := b.Allow(); err != nil {
		t.Fatalf("second probe should pass: %v", err)
	}
	if err := b.Allow(); err == nil {
		t.Fatalf("expected rejection once probe slots are taken")
	}

	// One success frees a slot but does not close the breaker yet.
	b.RecordSuccess()
	if b.State() != CircuitStateHalfOpen {
		t.Fatalf("expected half-open until all probes succeed, got=%s", b.State())
	}
	b.RecordSuccess()
	if b.State() != CircuitStateClosed {
		t.Fatalf("expected closed after both probes succeed, got=%s", b.State())
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	t.Parallel()

	b := NewCircuitBreaker(1, 10*time.Millisecond, 1)
	base := time.Now()
	b.now = func() time.Time { return base }

	b.RecordFailure()
	b.now = func() time.Time { return base.Add(20 * time.Millisecond) }

	if err := b.Allow(); err != nil {
		t.Fatalf("expected half-open probe to pass: %v", err)
	}
	b.RecordFailure()
	if b.State() != CircuitStateOpen {
		t.Fatalf("expected failed probe to reopen, got=%s", b.State())
	}
	if err := b.Allow(); err == nil {
		t.Fatalf("expected rejection after reopening")
	}
}
