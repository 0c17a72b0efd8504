package login

import (
	"context"
	"errors"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/sms"
	"github.com/dmitrymomot/inboxshot/pkg/totp"
)

// CodeSource yields second-factor codes.
type CodeSource interface {
	Code(ctx context.Context) (string, error)
}

// Marker is implemented by code sources that must note existing messages before a
// code is requested, so a stale code is never submitted.
type Marker interface {
	Mark(ctx context.Context) error
}

// CodeSourceFactory returns the code source for one login attempt.
type CodeSourceFactory func() (CodeSource, error)

// TOTPCodes returns a factory sharing one generator across attempts.
func TOTPCodes(secret string, c clock.Clock) (CodeSourceFactory, error) {
	gen, err := totp.NewGenerator(secret, c)
	if err != nil {
		return nil, err
	}
	return func() (CodeSource, error) { return gen, nil }, nil
}

// SMSCodes returns a factory building a fresh poller per attempt.
func SMSCodes(lister sms.Lister, phone string, opts ...sms.PollerOption) (CodeSourceFactory, error) {
	if lister == nil {
		return nil, errors.New("sms lister is required")
	}
	if phone == "" {
		return nil, sms.ErrMissingNumber
	}
	return func() (CodeSource, error) {
		return sms.NewPoller(lister, phone, opts...)
	}, nil
}
