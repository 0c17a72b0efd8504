package login

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// Credentials are the secrets of one provider account.
type Credentials struct {
	Username   string `env:"USERNAME"`
	Password   string `env:"PASSWORD"`
	TOTPSecret string `env:"TOTP_SECRET"`
	// Phone receives SMS codes for providers without TOTP.
	Phone string `env:"PHONE"`
}

// Config holds per-provider credentials and login timing.
type Config struct {
	Gmail   Credentials `envPrefix:"GMAIL_"`
	Outlook Credentials `envPrefix:"OUTLOOK_"`
	Yahoo   Credentials `envPrefix:"YAHOO_"`
	AOL     Credentials `envPrefix:"AOL_"`
	ICloud  Credentials `envPrefix:"ICLOUD_"`

	CheckTimeout  time.Duration `env:"LOGIN_CHECK_TIMEOUT" envDefault:"5s"`
	StepTimeout   time.Duration `env:"LOGIN_STEP_TIMEOUT" envDefault:"15s"`
	MarkerTimeout time.Duration `env:"LOGIN_MARKER_TIMEOUT" envDefault:"25s"`
	MFAAttempts   int           `env:"LOGIN_MFA_ATTEMPTS" envDefault:"3"`
	// MFARetryDelay pushes the next TOTP attempt into a fresh code window.
	MFARetryDelay time.Duration `env:"LOGIN_MFA_RETRY_DELAY" envDefault:"30s"`
}

// For returns the credentials of a provider.
func (c Config) For(client mailbox.Client) (Credentials, error) {
	switch client {
	case mailbox.Gmail:
		return c.Gmail, nil
	case mailbox.Outlook:
		return c.Outlook, nil
	case mailbox.Yahoo:
		return c.Yahoo, nil
	case mailbox.AOL:
		return c.AOL, nil
	case mailbox.ICloud:
		return c.ICloud, nil
	}
	return Credentials{}, fmt.Errorf("%w: %q", mailbox.ErrUnknownClient, client)
}

// Validate reports every missing secret at once.
func (c Config) Validate() error {
	var errs []error
	for _, client := range mailbox.Clients() {
		creds, _ := c.For(client)
		profile, err := mailbox.ProfileFor(client)
		if err != nil {
			return err
		}
		if creds.Username == "" {
			errs = append(errs, fmt.Errorf("%s: username is required", client))
		}
		if creds.Password == "" {
			errs = append(errs, fmt.Errorf("%s: password is required", client))
		}
		switch profile.MFA {
		case mailbox.MFATOTP:
			if creds.TOTPSecret == "" {
				errs = append(errs, fmt.Errorf("%s: totp secret is required", client))
			}
		case mailbox.MFASMS:
			if creds.Phone == "" {
				errs = append(errs, fmt.Errorf("%s: phone number is required", client))
			}
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{mailbox.ErrConfiguration}, errs...)...)
}
