package async

import (
	"context"
	"time"
)

// Future holds the result of a function running in its own goroutine.
type Future[U any] struct {
	done   chan struct{}
	result U
	err    error
}

// Async runs fn(ctx, param) in a goroutine. A context that is already done is
// reported without calling fn.
func Async[T any, U any](ctx context.Context, param T, fn func(context.Context, T) (U, error)) *Future[U] {
	f := &Future[U]{done: make(chan struct{})}
	go func() {
		defer close(f.done)
		if f.err = ctx.Err(); f.err != nil {
			return
		}
		f.result, f.err = fn(ctx, param)
	}()
	return f
}

// Await blocks until the function returns.
func (f *Future[U]) Await() (U, error) {
	<-f.done
	return f.result, f.err
}

// AwaitWithTimeout returns ErrTimeout when the function is still running after timeout.
func (f *Future[U]) AwaitWithTimeout(timeout time.Duration) (U, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	return f.wait(nil, timer.C)
}

// AwaitContext returns ctx.Err() when ctx ends first.
func (f *Future[U]) AwaitContext(ctx context.Context) (U, error) {
	return f.wait(ctx, nil)
}

// IsComplete reports without blocking whether the function has returned.
func (f *Future[U]) IsComplete() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// wait treats a nil ctx or expiry channel as never firing.
func (f *Future[U]) wait(ctx context.Context, expired <-chan time.Time) (U, error) {
	var cancelled <-chan struct{}
	if ctx != nil {
		cancelled = ctx.Done()
	}
	var zero U
	select {
	case <-f.done:
		return f.result, f.err
	case <-expired:
		return zero, ErrTimeout
	case <-cancelled:
		return zero, ctx.Err()
	}
}

// Guard runs fn under a hard timeout and returns ErrTimeout once it elapses, even when
// fn ignores its context. The context passed to fn is canceled when Guard returns.
func Guard[U any](ctx context.Context, timeout time.Duration, fn func(context.Context) (U, error)) (U, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	f := Async(ctx, struct{}{}, func(ctx context.Context, _ struct{}) (U, error) { return fn(ctx) })
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	return f.wait(ctx, timer.C)
}

// WaitAll awaits every future in order and returns all results with the first error.
func WaitAll[U any](futures ...*Future[U]) ([]U, error) {
	results := make([]U, len(futures))
	var first error
	for i, f := range futures {
		var err error
		results[i], err = f.Await()
		if first == nil {
			first = err
		}
	}
	return results, first
}
