package sms

import (
	"errors"
	"time"
)

// Config holds Twilio credentials and code polling bounds.
type Config struct {
	AccountSID   string        `env:"TWILIO_ACCOUNT_SID"`
	AuthToken    string        `env:"TWILIO_AUTH_TOKEN"`
	PollInterval time.Duration `env:"SMS_POLL_INTERVAL" envDefault:"3s"`
	PollTimeout  time.Duration `env:"SMS_POLL_TIMEOUT" envDefault:"60s"`
}

// validate reports missing credentials. It runs in NewTwilio, not at config load.
func (c Config) validate() error {
	var errs []error
	if c.AccountSID == "" {
		errs = append(errs, ErrMissingAccount)
	}
	if c.AuthToken == "" {
		errs = append(errs, ErrMissingToken)
	}
	return errors.Join(errs...)
}
