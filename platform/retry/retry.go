// Package retry provides a bounded retry policy with exponential backoff
// and jitter. The classifier is caller-supplied so retry semantics stay
// visible at the call site: only errors the classifier reports as
// transient are retried, everything else propagates immediately.
package retry

import (
	"context"
	"errors"
	"math/rand"
	"time"
)

const (
	// DefaultMaxAttempts bounds the number of attempts per operation.
	DefaultMaxAttempts = 3
	// DefaultBaseDelay is the backoff delay for the first retry.
	DefaultBaseDelay = 500 * time.Millisecond
	// DefaultJitterFraction bounds the random jitter added to each delay,
	// as a fraction of the base delay. Jitter avoids synchronized retry
	// storms across concurrent invocations.
	DefaultJitterFraction = 0.3
)

// Policy describes how an operation is retried.
type Policy struct {
	MaxAttempts    int
	BaseDelay      time.Duration
	JitterFraction float64
}

// DefaultPolicy returns a policy with the recommended bounds.
func DefaultPolicy() Policy {
	return Policy{
		MaxAttempts:    DefaultMaxAttempts,
		BaseDelay:      DefaultBaseDelay,
		JitterFraction: DefaultJitterFraction,
	}
}

func (p Policy) normalized() Policy {
	if p.MaxAttempts < 1 {
		p.MaxAttempts = DefaultMaxAttempts
	}
	if p.BaseDelay <= 0 {
		p.BaseDelay = DefaultBaseDelay
	}
	if p.JitterFraction < 0 {
		p.JitterFraction = DefaultJitterFraction
	}
	return p
}

// delay returns the backoff delay before retrying after attempt n (1-indexed):
// base * 2^(n-1) plus jitter drawn uniformly from [0, JitterFraction*base).
func (p Policy) delay(attempt int) time.Duration {
	backoff := p.BaseDelay << (attempt - 1)
	jitterBound := float64(p.BaseDelay) * p.JitterFraction
	if jitterBound > 0 {
		backoff += time.Duration(rand.Float64() * jitterBound)
	}
	return backoff
}

// Classifier reports whether an error is transient and worth retrying.
type Classifier func(error) bool

// Do runs op until it succeeds, fails with a non-transient error, runs out
// of attempts, or the context is cancelled. The last underlying error is
// returned on exhaustion. A cancelled context aborts the loop before the
// next attempt rather than starting work that cannot complete.
func Do(ctx context.Context, policy Policy, transient Classifier, op func(ctx context.Context) error) error {
	policy = policy.normalized()

	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, lastErr)
		}

		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if transient == nil || !transient(lastErr) {
			return lastErr
		}
		if attempt == policy.MaxAttempts {
			break
		}

		timer := time.NewTimer(policy.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return errors.Join(ctx.Err(), lastErr)
		case <-timer.C:
		}
	}
	return lastErr
}
