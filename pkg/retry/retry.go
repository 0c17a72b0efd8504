package retry

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
)

// Policy describes how many times an operation runs and how long to wait
// between runs. Attempts are numbered from 1.
type Policy struct {
	MaxAttempts int
	// Backoff returns the delay after the given failed attempt.
	Backoff func(attempt int) time.Duration
}

// Delay returns the wait after the given failed attempt, zero when Backoff is nil.
func (p Policy) Delay(attempt int) time.Duration {
	if p.Backoff == nil || attempt < 1 {
		return 0
	}
	return p.Backoff(attempt)
}

// Exhausted reports whether no attempts remain after the given one.
func (p Policy) Exhausted(attempt int) bool {
	return attempt >= p.MaxAttempts
}

// Constant waits the same delay after every attempt.
func Constant(maxAttempts int, delay time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff:     func(int) time.Duration { return delay },
	}
}

// Exponential waits base·2ⁿ after attempt n+1: base, 2·base, 4·base...
func Exponential(maxAttempts int, base time.Duration) Policy {
	return Policy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			if attempt < 1 {
				attempt = 1
			}
			return base << (attempt - 1)
		},
	}
}

// Func is an operation run by Do. attempt starts at 1.
type Func func(ctx context.Context, attempt int) error

type stopError struct{ err error }

func (e *stopError) Error() string { return e.err.Error() }
func (e *stopError) Unwrap() error { return e.err }

// Stop wraps err so Do returns it immediately without further attempts.
func Stop(err error) error {
	if err == nil {
		return nil
	}
	return &stopError{err: err}
}

// Do runs fn until it succeeds, returns a Stop error, the policy is exhausted
// or ctx is done. On exhaustion the last error is returned joined with ErrExhausted.
func Do(ctx context.Context, c clock.Clock, p Policy, fn Func) error {
	if p.MaxAttempts < 1 {
		return ErrInvalidPolicy
	}
	if c == nil {
		c = clock.Real()
	}

	var lastErr error
	for attempt := 1; attempt <= p.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return errors.Join(err, lastErr)
		}

		lastErr = fn(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		var stop *stopError
		if errors.As(lastErr, &stop) {
			return stop.err
		}

		if p.Exhausted(attempt) {
			break
		}
		if err := c.Sleep(ctx, p.Delay(attempt)); err != nil {
			return errors.Join(err, lastErr)
		}
	}

	return errors.Join(ErrExhausted, lastErr)
}
