package retry

import (
	"testing"
	"time"
)

func TestFixedBackoff_ConstantDelay(t *testing.T) {
	b := NewFixedBackoff(5, 1*time.Second)

	if b.MaxAttempts() != 5 {
		t.Errorf("Expected MaxAttempts 5, got %d", b.MaxAttempts())
	}

	for attempt := 1; attempt <= 5; attempt++ {
		if d := b.NextDelay(attempt); d != 1*time.Second {
			t.Errorf("Attempt %d: expected 1s delay, got %v", attempt, d)
		}
	}
}

func TestExponentialBackoff_Defaults(t *testing.T) {
	b := NewExponentialBackoff(5)

	if b.MaxAttempts() != 5 {
		t.Errorf("Expected MaxAttempts 5, got %d", b.MaxAttempts())
	}
	if b.InitialDelay() != 100*time.Millisecond {
		t.Errorf("Expected 100ms initial delay, got %v", b.InitialDelay())
	}
	if b.Multiplier() != 2.0 {
		t.Errorf("Expected multiplier 2.0, got %f", b.Multiplier())
	}
}

func TestExponentialBackoff_Growth(t *testing.T) {
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithMultiplier(2.0),
		WithJitter(0),
	)

	expected := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}

	for i, want := range expected {
		attempt := i + 1
		if got := b.NextDelay(attempt); got != want {
			t.Errorf("Attempt %d: expected %v, got %v", attempt, want, got)
		}
	}
}

func TestExponentialBackoff_MaxDelayCap(t *testing.T) {
	b := NewExponentialBackoff(10,
		WithInitialDelay(1*time.Second),
		WithMultiplier(10.0),
		WithMaxDelay(5*time.Second),
		WithJitter(0),
	)

	if got := b.NextDelay(4); got != 5*time.Second {
		t.Errorf("Expected delay capped at 5s, got %v", got)
	}
}

func TestExponentialBackoff_DeterministicJitter(t *testing.T) {
	// jitterFunc returning 1.0 pushes the delay to the upper jitter bound:
	// delay * (1 + jitter).
	b := NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithJitter(0.1),
		WithJitterFunc(func() float64 { return 1.0 }),
	)

	if got := b.NextDelay(1); got != 110*time.Millisecond {
		t.Errorf("Expected 110ms at upper jitter bound, got %v", got)
	}

	// jitterFunc returning 0.5 is the midpoint: no offset at all.
	b = NewExponentialBackoff(5,
		WithInitialDelay(100*time.Millisecond),
		WithJitter(0.1),
		WithJitterFunc(func() float64 { return 0.5 }),
	)

	if got := b.NextDelay(1); got != 100*time.Millisecond {
		t.Errorf("Expected 100ms at jitter midpoint, got %v", got)
	}
}
