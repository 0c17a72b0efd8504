// Package async provides small generic helpers for running computations in their own
// goroutine and waiting for them with a bound.
//
// Async starts a function and returns a *Future; callers wait with Await, AwaitWithTimeout
// or AwaitContext, or poll with IsComplete. WaitAll collects several futures.
//
// Guard is the helper used for hard deadlines around browser automation: the callback gets
// a cancelable context, and Guard returns ErrTimeout when the deadline passes even if the
// callback is stuck in a call that does not honor cancellation.
//
//	_, err := async.Guard(ctx, 95*time.Second, func(ctx context.Context) (struct{}, error) {
//		return struct{}{}, pollMailbox(ctx)
//	})
//	if errors.Is(err, async.ErrTimeout) {
//		// the poll loop overran its budget
//	}
package async
