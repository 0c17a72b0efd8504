package login

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/agent"
	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/totp"
	"github.com/dmitrymomot/inboxshot/svc/action"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// SessionSource returns cached authenticated state. The session cache satisfies it.
type SessionSource interface {
	Load(ctx context.Context, client mailbox.Client, engine mailbox.Engine) ([]byte, error)
}

// Orchestrator ensures a page is signed in to its provider.
type Orchestrator struct {
	registry *Registry
	executor *action.Executor
	agent    agent.InstructionFollowingAgent
	sessions SessionSource
	cfg      Config
	clock    clock.Clock
	log      *slog.Logger
}

type Option func(*Orchestrator)

// WithAgent sets the fallback used when a strategy fails.
func WithAgent(a agent.InstructionFollowingAgent) Option {
	return func(o *Orchestrator) { o.agent = a }
}

// WithSessions lets the orchestrator restore cached cookies before logging in.
func WithSessions(s SessionSource) Option {
	return func(o *Orchestrator) { o.sessions = s }
}

func WithOrchestratorClock(c clock.Clock) Option {
	return func(o *Orchestrator) {
		if c != nil {
			o.clock = c
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.log = l
		}
	}
}

func NewOrchestrator(registry *Registry, executor *action.Executor, cfg Config, opts ...Option) *Orchestrator {
	if cfg.CheckTimeout <= 0 {
		cfg.CheckTimeout = 5 * time.Second
	}
	if cfg.MarkerTimeout <= 0 {
		cfg.MarkerTimeout = 25 * time.Second
	}
	o := &Orchestrator{
		registry: registry,
		executor: executor,
		cfg:      cfg,
		clock:    clock.Real(),
		log:      slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// EnsureLoggedIn returns AlreadyLoggedIn when the mailbox is reachable as is or with
// cached cookies, Success after a fresh login, or Failed with an error wrapping
// mailbox.ErrLoginFailed.
func (o *Orchestrator) EnsureLoggedIn(ctx context.Context, page browser.Page, client mailbox.Client, engine mailbox.Engine) (State, error) {
	return o.ensure(ctx, page, client, engine, true)
}

// Authenticate logs in from scratch without consulting cached sessions. It backs
// the session cache refresh.
func (o *Orchestrator) Authenticate(ctx context.Context, page browser.Page, client mailbox.Client, engine mailbox.Engine) error {
	_, err := o.ensure(ctx, page, client, engine, false)
	return err
}

func (o *Orchestrator) ensure(ctx context.Context, page browser.Page, client mailbox.Client, engine mailbox.Engine, useCache bool) (State, error) {
	profile, err := mailbox.ProfileFor(client)
	if err != nil {
		return Failed, err
	}
	log := o.log.With(logger.Client(string(client)), logger.Engine(string(engine)))
	m := NewMachine()
	ctx = withMachine(ctx, m)
	marker := profile.Selectors.Marker

	if err := page.Goto(ctx, profile.MailboxURL); err != nil {
		return o.fail(ctx, errors.Join(mailbox.ErrLoginFailed, err))
	}
	if page.WaitVisible(ctx, marker, o.cfg.CheckTimeout) == nil {
		advance(ctx, EventMarkerFound)
		return m.Current(), nil
	}
	advance(ctx, EventMarkerMissing)

	if useCache && o.restore(ctx, page, client, engine, marker, log) {
		advance(ctx, EventSessionRestored)
		log.InfoContext(ctx, "session restored from cache")
		return m.Current(), nil
	}

	strategy, err := o.registry.Get(client)
	if err != nil {
		return o.fail(ctx, errors.Join(mailbox.ErrLoginFailed, err))
	}

	var primaryErr error
	primary := func(ctx context.Context) error {
		primaryErr = strategy.Login(ctx, page)
		return primaryErr
	}
	var fallback action.Func
	if o.agent != nil {
		fallback = func(ctx context.Context) error {
			err := o.agentLogin(ctx, page, profile)
			if err != nil && errors.Is(primaryErr, mailbox.ErrManualIntervention) {
				return errors.Join(primaryErr, err)
			}
			return err
		}
	}

	if err := o.executor.Run(ctx, "login:"+string(client), primary, fallback); err != nil {
		return o.fail(ctx, errors.Join(mailbox.ErrLoginFailed, err))
	}

	if err := page.WaitVisible(ctx, marker, o.cfg.MarkerTimeout); err != nil {
		return o.fail(ctx, errors.Join(mailbox.ErrLoginFailed, fmt.Errorf("mailbox marker not shown after login: %w", err)))
	}
	advance(ctx, EventMarkerFound)
	log.InfoContext(ctx, "logged in", slog.Any("states", m.History()))
	return m.Current(), nil
}

func (o *Orchestrator) restore(ctx context.Context, page browser.Page, client mailbox.Client, engine mailbox.Engine, marker string, log *slog.Logger) bool {
	if o.sessions == nil {
		return false
	}
	state, err := o.sessions.Load(ctx, client, engine)
	if err != nil {
		if !errors.Is(err, mailbox.ErrSessionMissing) {
			log.WarnContext(ctx, "failed to load cached session", logger.Error(err))
		}
		return false
	}
	if err := page.AddCookies(ctx, state); err != nil {
		log.WarnContext(ctx, "failed to apply cached session", logger.Error(err))
		return false
	}
	if err := page.Reload(ctx); err != nil {
		log.WarnContext(ctx, "failed to reload after applying session", logger.Error(err))
		return false
	}
	return page.WaitVisible(ctx, marker, o.cfg.CheckTimeout) == nil
}

// agentLogin asks the agent to log in. Secrets travel as variables so they never
// appear in the instruction text.
func (o *Orchestrator) agentLogin(ctx context.Context, page browser.Page, profile mailbox.Profile) error {
	creds, err := o.cfg.For(profile.Client)
	if err != nil {
		return err
	}
	vars := map[string]string{
		"username": creds.Username,
		"password": creds.Password,
	}
	goal := fmt.Sprintf("Log in to the %s webmail account at %s. Use {{username}} as the account name and {{password}} as the password.",
		profile.Client, profile.LoginURL)
	if profile.MFA == mailbox.MFATOTP && creds.TOTPSecret != "" {
		code, err := totp.GenerateAt(creds.TOTPSecret, o.clock.Now())
		if err == nil {
			vars["code"] = code
			goal += " If asked for a verification code, enter {{code}}."
		}
	}
	goal += " Stop once the inbox is visible."

	if _, err := o.agent.Execute(ctx, agent.Instruction{Page: page, Goal: goal, Variables: vars}); err != nil {
		return errors.Join(mailbox.ErrUpstreamService, err)
	}
	return nil
}

func (o *Orchestrator) fail(ctx context.Context, err error) (State, error) {
	advance(ctx, EventFail)
	return Failed, err
}
