package translator

import (
	"testing"
	"time"
)

func TestNextDelayGrowsAndCaps(t *testing.T) {
	policy := &RetryPolicy{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
		MaxBackoff:     8 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0, // deterministic for the test
	}

	expected := []time.Duration{
		1 * time.Second,
		2 * time.Second,
		4 * time.Second,
		8 * time.Second,
		8 * time.Second, // capped
		8 * time.Second,
	}

	for attempt, want := range expected {
		if got := policy.NextDelay(attempt); got != want {
			t.Errorf("NextDelay(%d) = %v, want %v", attempt, got, want)
		}
	}
}

func TestNextDelayJitterBounds(t *testing.T) {
	policy := &RetryPolicy{
		InitialBackoff: 2 * time.Second,
		MaxBackoff:     60 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.25,
	}

	base := 4 * time.Second
	upper := base + time.Duration(float64(base)*0.25)
	for i := 0; i < 100; i++ {
		got := policy.NextDelay(1)
		if got < base || got > upper {
			t.Fatalf("NextDelay(1) = %v, want in [%v, %v]", got, base, upper)
		}
	}
}
