package retry

import "errors"

var (
	ErrExhausted     = errors.New("retry attempts exhausted")
	ErrInvalidPolicy = errors.New("retry policy must allow at least one attempt")
)
