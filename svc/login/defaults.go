package login

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/retry"
	"github.com/dmitrymomot/inboxshot/pkg/sms"
	"github.com/dmitrymomot/inboxshot/pkg/totp"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// Deps are the collaborators of the built-in strategies.
type Deps struct {
	Clock clock.Clock
	// SMS receives codes for providers without TOTP.
	SMS       sms.Lister
	SMSConfig sms.Config
	Log       *slog.Logger
}

// NewDefaultRegistry registers a form strategy for every provider and closes the
// registry. Missing secrets fail here, at startup, wrapped in mailbox.ErrConfiguration.
func NewDefaultRegistry(cfg Config, deps Deps) (*Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if deps.Clock == nil {
		deps.Clock = clock.Real()
	}
	if deps.Log == nil {
		deps.Log = slog.Default()
	}

	attempts := cfg.MFAAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.MFARetryDelay
	if delay <= 0 {
		delay = totp.Period
	}
	policy := retry.Constant(attempts, delay)

	reg := NewRegistry()
	for _, client := range mailbox.Clients() {
		profile, err := mailbox.ProfileFor(client)
		if err != nil {
			return nil, err
		}
		creds, err := cfg.For(client)
		if err != nil {
			return nil, err
		}

		var codes CodeSourceFactory
		switch profile.MFA {
		case mailbox.MFASMS:
			codes, err = SMSCodes(deps.SMS, creds.Phone,
				sms.WithClock(deps.Clock),
				sms.WithInterval(deps.SMSConfig.PollInterval),
				sms.WithTimeout(deps.SMSConfig.PollTimeout),
				sms.WithLogger(deps.Log),
			)
		default:
			codes, err = TOTPCodes(creds.TOTPSecret, deps.Clock)
		}
		if err != nil {
			return nil, errors.Join(mailbox.ErrConfiguration, fmt.Errorf("%s: %w", client, err))
		}

		strategy := NewFormStrategy(profile, creds, codes,
			WithClock(deps.Clock),
			WithMFAPolicy(policy),
			WithStepTimeout(cfg.StepTimeout),
			WithStrategyLogger(deps.Log),
		)
		if err := reg.Register(client, strategy); err != nil {
			return nil, err
		}
	}
	reg.Close()
	return reg, nil
}
