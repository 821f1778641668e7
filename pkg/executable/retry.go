package executable

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/oxy-run/oxy/pkg/execctx"
	"github.com/oxy-run/oxy/pkg/kerr"
)

// BackoffPolicy computes the delay before attempt N (1-indexed) and the
// maximum number of attempts (spec §4.1 "Retry").
type BackoffPolicy interface {
	MaxAttempts() int
	Delay(attempt int) time.Duration
}

// ExponentialBackoff is a capped exponential-with-jitter policy: delay
// doubles each attempt up to Cap, and the returned delay is drawn
// uniformly from [0, delay).
type ExponentialBackoff struct {
	Base        time.Duration
	Cap         time.Duration
	Attempts    int
}

func NewExponentialBackoff(base, cap time.Duration, maxAttempts int) ExponentialBackoff {
	return ExponentialBackoff{Base: base, Cap: cap, Attempts: maxAttempts}
}

func (e ExponentialBackoff) MaxAttempts() int { return e.Attempts }

func (e ExponentialBackoff) Delay(attempt int) time.Duration {
	d := e.Base << uint(attempt-1)
	if e.Cap > 0 && d > e.Cap {
		d = e.Cap
	}
	if d <= 0 {
		return 0
	}
	return time.Duration(rand.Int63n(int64(d)))
}

// Retry wraps Inner, making at most Policy.MaxAttempts() attempts in total
// and retrying only errors kerr.Retriable reports as retriable, delaying between attempts per Policy.Delay, and emitting a retry
// notification event between attempts (spec §4.1). A policy whose
// MaxAttempts is 0 behaves as Inner with no retry (spec §8 boundary
// behavior).
type Retry[I, R any] struct {
	Inner  Executable[I, R]
	Policy BackoffPolicy
}

func NewRetry[I, R any](inner Executable[I, R], policy BackoffPolicy) *Retry[I, R] {
	return &Retry[I, R]{Inner: inner, Policy: policy}
}

func (r *Retry[I, R]) Execute(ctx context.Context, ectx execctx.ExecutionContext, input I) (R, error) {
	maxAttempts := r.Policy.MaxAttempts()
	if maxAttempts <= 0 {
		return r.Inner.Execute(ctx, ectx, input)
	}

	var lastErr error
	var zero R
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		value, err := r.Inner.Execute(ctx, ectx, input)
		if err == nil {
			return value, nil
		}
		lastErr = err
		if !kerr.Retriable(err) || attempt == maxAttempts {
			break
		}

		delay := r.Policy.Delay(attempt)
		_ = ectx.WriteKind(ctx, execctx.EventMessage, execctx.Event{
			Message: fmt.Sprintf("retry %d/%d after %s: %v", attempt, maxAttempts, delay, err),
		})

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}
