// Package redis wraps go-redis with a retrying Connect, a readiness
// Healthcheck and a small distributed Locker.
//
//	client, err := redis.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	locker := redis.NewLocker(client, cfg.LockPrefix)
//
//	unlock, err := locker.Lock(ctx, "context:gmail:chromium", 30*time.Second)
//	if err != nil {
//		return err
//	}
//	defer unlock(context.WithoutCancel(ctx))
//
// Sentinel errors (ErrRedisNotReady, ErrLockNotAcquired...) are joined with
// the underlying go-redis error and can be matched with errors.Is.
package redis
