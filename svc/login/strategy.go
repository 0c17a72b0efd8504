package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/retry"
	"github.com/dmitrymomot/inboxshot/pkg/sms"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

const (
	rejectionCheck = 3 * time.Second
	keystrokeDelay = 80 * time.Millisecond
)

var (
	errCodeRejected = errors.New("login: code rejected")
	errNoMFAPrompt  = errors.New("login: no code prompt")
)

// FormStrategy logs in by filling the provider's identity, password and code forms.
type FormStrategy struct {
	profile     mailbox.Profile
	creds       Credentials
	codes       CodeSourceFactory
	clock       clock.Clock
	mfa         retry.Policy
	stepTimeout time.Duration
	log         *slog.Logger
}

var _ Strategy = (*FormStrategy)(nil)

type FormOption func(*FormStrategy)

func WithClock(c clock.Clock) FormOption {
	return func(s *FormStrategy) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithMFAPolicy sets how code submission is retried after a rejection.
func WithMFAPolicy(p retry.Policy) FormOption {
	return func(s *FormStrategy) { s.mfa = p }
}

func WithStepTimeout(d time.Duration) FormOption {
	return func(s *FormStrategy) {
		if d > 0 {
			s.stepTimeout = d
		}
	}
}

func WithStrategyLogger(l *slog.Logger) FormOption {
	return func(s *FormStrategy) {
		if l != nil {
			s.log = l
		}
	}
}

// NewFormStrategy builds the strategy of profile's provider.
func NewFormStrategy(profile mailbox.Profile, creds Credentials, codes CodeSourceFactory, opts ...FormOption) *FormStrategy {
	s := &FormStrategy{
		profile:     profile,
		creds:       creds,
		codes:       codes,
		clock:       clock.Real(),
		mfa:         retry.Constant(3, 30*time.Second),
		stepTimeout: 15 * time.Second,
		log:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *FormStrategy) Login(ctx context.Context, page browser.Page) error {
	sel := s.profile.Selectors
	log := s.log.With(logger.Client(string(s.profile.Client)))

	if err := page.Goto(ctx, s.profile.LoginURL); err != nil {
		return err
	}
	if err := s.fill(ctx, page, sel.Identity, s.creds.Username); err != nil {
		return fmt.Errorf("identity: %w", err)
	}
	if err := page.Click(ctx, sel.IdentityNext, s.stepTimeout); err != nil {
		return fmt.Errorf("identity submit: %w", err)
	}

	if err := page.WaitVisible(ctx, sel.Password, s.stepTimeout); err != nil {
		if sel.PasskeyBypass == "" || !errors.Is(err, browser.ErrTimeout) {
			return fmt.Errorf("password field: %w", err)
		}
		log.InfoContext(ctx, "password form hidden behind passkey prompt, bypassing")
		if err := page.Click(ctx, sel.PasskeyBypass, s.stepTimeout); err != nil {
			return fmt.Errorf("passkey bypass: %w", err)
		}
		if err := page.WaitVisible(ctx, sel.Password, s.stepTimeout); err != nil {
			return fmt.Errorf("password field: %w", err)
		}
	}

	codes, err := s.codes()
	if err != nil {
		return errors.Join(mailbox.ErrConfiguration, err)
	}
	if m, ok := codes.(Marker); ok {
		if err := m.Mark(ctx); err != nil {
			log.WarnContext(ctx, "failed to note existing codes", logger.Error(err))
		}
	}

	if err := page.Fill(ctx, sel.Password, s.creds.Password, s.stepTimeout); err != nil {
		return fmt.Errorf("password: %w", err)
	}
	if err := page.Click(ctx, sel.PasswordNext, s.stepTimeout); err != nil {
		return fmt.Errorf("password submit: %w", err)
	}
	advance(ctx, EventCredentialsSubmitted)

	if err := s.submitCode(ctx, page, codes, log); err != nil {
		return err
	}

	if s.profile.MailboxURL != s.profile.LoginURL {
		return page.Goto(ctx, s.profile.MailboxURL)
	}
	return nil
}

// submitCode runs the second-factor loop. A missing code prompt on the first attempt
// means the provider did not ask for one.
func (s *FormStrategy) submitCode(ctx context.Context, page browser.Page, codes CodeSource, log *slog.Logger) error {
	sel := s.profile.Selectors

	err := retry.Do(ctx, s.clock, s.mfa, func(ctx context.Context, attempt int) error {
		if attempt > 1 {
			advance(ctx, EventCodeRetry)
		}
		if err := page.WaitVisible(ctx, sel.MFACode, s.stepTimeout); err != nil {
			if attempt == 1 && errors.Is(err, browser.ErrTimeout) {
				return retry.Stop(errNoMFAPrompt)
			}
			return retry.Stop(fmt.Errorf("code field: %w", err))
		}
		if attempt == 1 {
			advance(ctx, EventMFAPrompted)
		}

		code, err := codes.Code(ctx)
		if err != nil {
			if errors.Is(err, sms.ErrNoCode) {
				return retry.Stop(errors.Join(mailbox.ErrManualIntervention, err))
			}
			return retry.Stop(errors.Join(mailbox.ErrUpstreamService, err))
		}

		if err := s.enterCode(ctx, page, code); err != nil {
			return retry.Stop(fmt.Errorf("code submit: %w", err))
		}

		if sel.MFAError != "" && page.WaitVisible(ctx, sel.MFAError, rejectionCheck) == nil {
			log.WarnContext(ctx, "code rejected", logger.Attempt(attempt))
			advance(ctx, EventCodeRejected)
			return errCodeRejected
		}
		return nil
	})

	switch {
	case err == nil, errors.Is(err, errNoMFAPrompt):
		return nil
	case errors.Is(err, retry.ErrExhausted):
		return errors.Join(mailbox.ErrLoginFailed, err)
	}
	return err
}

func (s *FormStrategy) enterCode(ctx context.Context, page browser.Page, code string) error {
	sel := s.profile.Selectors
	if s.profile.CenterClick {
		if err := page.ClickCenter(ctx, sel.MFACode, s.stepTimeout); err != nil {
			return err
		}
		return page.TypeText(ctx, code, keystrokeDelay)
	}
	if err := page.Fill(ctx, sel.MFACode, code, s.stepTimeout); err != nil {
		return err
	}
	if sel.MFASubmit == "" {
		return page.Press(ctx, sel.MFACode, "Enter", s.stepTimeout)
	}
	return page.Click(ctx, sel.MFASubmit, s.stepTimeout)
}

func (s *FormStrategy) fill(ctx context.Context, page browser.Page, selector, value string) error {
	if err := page.WaitVisible(ctx, selector, s.stepTimeout); err != nil {
		return err
	}
	return page.Fill(ctx, selector, value, s.stepTimeout)
}
