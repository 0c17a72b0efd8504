// Package clock abstracts the wall clock for code that sleeps or polls.
//
// Production code uses Real. Tests use Fake, whose Sleep advances time
// instantly and records the requested durations:
//
//	c := clock.NewFake(time.Unix(0, 0))
//	_ = c.Sleep(ctx, 30*time.Second)
//	c.Now() // 1970-01-01 00:00:30
package clock
