package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/agent"
	"github.com/dmitrymomot/inboxshot/pkg/async"
	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/svc/action"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

const (
	keystrokeDelay = 50 * time.Millisecond
	revealTimeout  = 5 * time.Second
)

// ErrEmptyToken is returned when there is nothing to search for.
var ErrEmptyToken = errors.New("locator: subject token is empty")

// Locator opens test emails in provider mailboxes.
type Locator struct {
	executor *action.Executor
	agent    agent.InstructionFollowingAgent
	clock    clock.Clock
	log      *slog.Logger

	timeout       time.Duration
	guard         time.Duration
	retryDelay    time.Duration
	searchTimeout time.Duration
	resultTimeout time.Duration
	bodyTimeout   time.Duration
}

type Option func(*Locator)

// WithAgent sets the fallback used when the search path breaks.
func WithAgent(a agent.InstructionFollowingAgent) Option {
	return func(l *Locator) { l.agent = a }
}

func WithClock(c clock.Clock) Option {
	return func(l *Locator) {
		if c != nil {
			l.clock = c
		}
	}
}

// WithTimeout sets how long to keep searching. Default is 90s.
func WithTimeout(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.timeout = d
		}
	}
}

// WithGuard sets the wall clock limit of the whole search. It defaults to the search
// timeout plus one worst case attempt.
func WithGuard(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.guard = d
		}
	}
}

// WithRetryDelay sets the pause between search attempts. Default is 5s.
func WithRetryDelay(d time.Duration) Option {
	return func(l *Locator) {
		if d > 0 {
			l.retryDelay = d
		}
	}
}

func WithLogger(log *slog.Logger) Option {
	return func(l *Locator) {
		if log != nil {
			l.log = log
		}
	}
}

func New(executor *action.Executor, opts ...Option) *Locator {
	l := &Locator{
		executor:      executor,
		clock:         clock.Real(),
		log:           slog.Default(),
		timeout:       90 * time.Second,
		retryDelay:    5 * time.Second,
		searchTimeout: 10 * time.Second,
		resultTimeout: 5 * time.Second,
		bodyTimeout:   10 * time.Second,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.guard <= 0 {
		l.guard = l.timeout + l.searchTimeout + l.resultTimeout + l.bodyTimeout
	}
	return l
}

// WaitForEmail opens the message whose subject contains token. It returns an error
// wrapping mailbox.ErrEmailNotFound when the search deadline passes first.
func (l *Locator) WaitForEmail(ctx context.Context, page browser.Page, client mailbox.Client, token string) error {
	if token == "" {
		return ErrEmptyToken
	}
	profile, err := mailbox.ProfileFor(client)
	if err != nil {
		return err
	}
	log := l.log.With(logger.Client(string(client)), logger.Component("locator"))

	primary := func(ctx context.Context) error {
		_, err := async.Guard(ctx, l.guard, func(ctx context.Context) (struct{}, error) {
			return struct{}{}, l.poll(ctx, page, profile, token, log)
		})
		switch {
		case err == nil:
			return nil
		case ctx.Err() != nil:
			// the job is going away; the agent would start on a dead context
			return action.Final(err)
		case errors.Is(err, async.ErrTimeout):
			return errors.Join(mailbox.ErrEmailNotFound, err)
		}
		return err
	}

	var fallback action.Func
	if l.agent != nil {
		fallback = func(ctx context.Context) error {
			return l.agentOpen(ctx, page, profile, token)
		}
	}
	return l.executor.Run(ctx, "locate:"+string(client), primary, fallback)
}

// poll repeats the search until the message body shows or the deadline passes.
func (l *Locator) poll(ctx context.Context, page browser.Page, profile mailbox.Profile, token string, log *slog.Logger) error {
	deadline := l.clock.Now().Add(l.timeout)
	if err := page.Goto(ctx, profile.MailboxURL); err != nil {
		return fmt.Errorf("open mailbox: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err := l.search(ctx, page, profile, token)
		if err == nil {
			log.InfoContext(ctx, "email opened", logger.Attempt(attempt))
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		log.DebugContext(ctx, "email not there yet", logger.Attempt(attempt), logger.Error(err))

		if l.clock.Now().Add(l.retryDelay).After(deadline) {
			return errors.Join(mailbox.ErrEmailNotFound, fmt.Errorf("gave up after %d attempts: %w", attempt, err))
		}
		if err := l.clock.Sleep(ctx, l.retryDelay); err != nil {
			return err
		}
	}
}

func (l *Locator) search(ctx context.Context, page browser.Page, profile mailbox.Profile, token string) error {
	sel := profile.Selectors

	if err := page.WaitVisible(ctx, sel.SearchInput, l.searchTimeout); err != nil {
		return err
	}
	if profile.CenterClick {
		if err := page.ClickCenter(ctx, sel.SearchInput, l.searchTimeout); err != nil {
			return err
		}
		// replace whatever an earlier attempt typed
		if err := page.Press(ctx, sel.SearchInput, "ControlOrMeta+A", l.searchTimeout); err != nil {
			return err
		}
		if err := page.TypeText(ctx, token, keystrokeDelay); err != nil {
			return err
		}
	} else {
		if err := page.Click(ctx, sel.SearchInput, l.searchTimeout); err != nil {
			return err
		}
		if err := page.Fill(ctx, sel.SearchInput, token, l.searchTimeout); err != nil {
			return err
		}
	}
	if err := page.Press(ctx, sel.SearchInput, "Enter", l.searchTimeout); err != nil {
		return err
	}

	if err := page.WaitVisible(ctx, sel.ResultItem, l.resultTimeout); err != nil {
		return err
	}
	open := page.Click
	if profile.CenterClick {
		open = page.ClickCenter
	}
	if err := open(ctx, sel.ResultItem, l.resultTimeout); err != nil {
		return err
	}
	return page.WaitVisible(ctx, sel.MessageBody, l.bodyTimeout)
}

func (l *Locator) agentOpen(ctx context.Context, page browser.Page, profile mailbox.Profile, token string) error {
	goal := fmt.Sprintf("In this %s mailbox, search for the email whose subject contains {{token}} and open it so its body is shown.",
		profile.Client)
	if _, err := l.agent.Execute(ctx, agent.Instruction{
		Page:      page,
		Goal:      goal,
		Variables: map[string]string{"token": token},
	}); err != nil {
		return errors.Join(mailbox.ErrEmailNotFound, mailbox.ErrUpstreamService, err)
	}
	if err := page.WaitVisible(ctx, profile.Selectors.MessageBody, l.bodyTimeout); err != nil {
		return errors.Join(mailbox.ErrEmailNotFound, err)
	}
	return nil
}

// RevealImages asks the provider to load remote images in the open message. Providers
// that load images unprompted, or that already did for this sender, need nothing.
func (l *Locator) RevealImages(ctx context.Context, page browser.Page, client mailbox.Client) error {
	profile, err := mailbox.ProfileFor(client)
	if err != nil {
		return err
	}
	button := profile.Selectors.RevealImages
	if button == "" {
		return nil
	}

	primary := func(ctx context.Context) error {
		if err := page.WaitVisible(ctx, button, revealTimeout); err != nil {
			if errors.Is(err, browser.ErrTimeout) {
				return nil
			}
			return err
		}
		return page.Click(ctx, button, revealTimeout)
	}
	var fallback action.Func
	if l.agent != nil {
		fallback = func(ctx context.Context) error {
			_, err := l.agent.Execute(ctx, agent.Instruction{
				Page: page,
				Goal: "If the open email offers a control to display its images, click it. Otherwise finish.",
			})
			if err != nil {
				return errors.Join(mailbox.ErrUpstreamService, err)
			}
			return nil
		}
	}
	return l.executor.Run(ctx, "reveal:"+string(client), primary, fallback)
}
