package totp

import "errors"

var (
	ErrMissingSecret = errors.New("missing TOTP secret")
	ErrInvalidSecret = errors.New("invalid TOTP secret")
)
