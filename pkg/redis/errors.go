package redis

import "errors"

var (
	ErrFailedToParseRedisConnString = errors.New("redis: invalid connection url")
	ErrRedisNotReady                = errors.New("redis: not ready before the retry budget ran out")
	ErrHealthcheckFailed            = errors.New("redis: ping failed")
	// ErrLockNotAcquired means another process holds the key; callers wait and re-read.
	ErrLockNotAcquired = errors.New("redis: lock held elsewhere")
	ErrLockNotHeld     = errors.New("redis: lock expired or taken over")
)
