// Package retry runs operations under an explicit Policy value.
//
// A Policy carries the attempt budget and a backoff function; Do executes an
// operation against it using a clock.Clock, so the timing of retry loops can
// be driven by a fake clock in tests.
//
//	p := retry.Exponential(3, 30*time.Second) // waits 30s, then 60s
//	err := retry.Do(ctx, clock.Real(), p, func(ctx context.Context, attempt int) error {
//		return submit(ctx)
//	})
//
// Wrap an error with Stop to end the loop early.
package retry
