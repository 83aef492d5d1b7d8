package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

var errTransient = errors.New("transient")
var errFatal = errors.New("fatal")

func fastPolicy(maxAttempts int) Policy {
	return Policy{MaxAttempts: maxAttempts, BaseDelay: time.Millisecond, JitterFraction: 0.3}
}

func isTransient(err error) bool { return errors.Is(err, errTransient) }

func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	const failFirst = 2

	calls := 0
	err := Do(context.Background(), fastPolicy(5), isTransient, func(context.Context) error {
		calls++
		if calls <= failFirst {
			return errTransient
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != failFirst+1 {
		t.Fatalf("expected %d attempts, got %d", failFirst+1, calls)
	}
}

func TestDoExhaustsAttempts(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(3), isTransient, func(context.Context) error {
		calls++
		return errTransient
	})
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
}

func TestDoDoesNotRetryFatalErrors(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastPolicy(5), isTransient, func(context.Context) error {
		calls++
		return errFatal
	})
	if !errors.Is(err, errFatal) {
		t.Fatalf("expected fatal error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("fatal error should not be retried, got %d attempts", calls)
	}
}

func TestDoStopsOnContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	err := Do(ctx, Policy{MaxAttempts: 5, BaseDelay: time.Hour}, isTransient, func(context.Context) error {
		calls++
		cancel()
		return errTransient
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
	if !errors.Is(err, errTransient) {
		t.Fatalf("expected last failure joined into error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected no retry after cancellation, got %d attempts", calls)
	}
}

func TestDelayGrowsExponentially(t *testing.T) {
	p := Policy{MaxAttempts: 4, BaseDelay: 100 * time.Millisecond, JitterFraction: 0.3}

	for attempt := 1; attempt <= 3; attempt++ {
		base := p.BaseDelay << (attempt - 1)
		maxJitter := time.Duration(float64(p.BaseDelay) * p.JitterFraction)
		for i := 0; i < 50; i++ {
			d := p.delay(attempt)
			if d < base || d > base+maxJitter {
				t.Fatalf("attempt %d: delay %v outside [%v, %v]", attempt, d, base, base+maxJitter)
			}
		}
	}
}
