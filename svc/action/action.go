package action

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/logger"
)

// Func is one way of performing a step.
type Func func(ctx context.Context) error

type finalError struct{ err error }

func (e *finalError) Error() string { return e.err.Error() }
func (e *finalError) Unwrap() error { return e.err }

// Final marks a primary error that the fallback cannot fix, such as a canceled job context.
// Run returns the wrapped error without running the fallback.
func Final(err error) error {
	if err == nil {
		return nil
	}
	return &finalError{err: err}
}

// Executor runs a deterministic primary path and falls back to a second path when it errors.
type Executor struct {
	log *slog.Logger
}

// Option configures an Executor.
type Option func(*Executor)

func WithLogger(l *slog.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.log = l
		}
	}
}

func New(opts ...Option) *Executor {
	e := &Executor{log: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes primary and, only if it fails, fallback. The fallback error is returned
// unchanged. Without a fallback the primary error is returned.
func (e *Executor) Run(ctx context.Context, label string, primary, fallback Func) error {
	start := time.Now()
	err := primary(ctx)
	if err == nil {
		return nil
	}
	var final *finalError
	if errors.As(err, &final) {
		return final.err
	}
	if fallback == nil {
		return err
	}

	e.log.WarnContext(ctx, "primary path failed, running fallback",
		logger.Step(label),
		logger.Error(err),
		logger.Duration(time.Since(start)),
	)
	return fallback(ctx)
}
