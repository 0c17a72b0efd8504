package sessioncache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/pkg/file"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// DefaultProbeTimeout bounds the wait for the mailbox marker during a probe.
const DefaultProbeTimeout = 8 * time.Second

// Authenticator signs a page in to a provider. The login orchestrator satisfies it.
type Authenticator interface {
	Authenticate(ctx context.Context, page browser.Page, client mailbox.Client, engine mailbox.Engine) error
}

// Cache stores authenticated browser state per (environment, client, engine).
type Cache struct {
	storage      file.Storage
	env          environment.Environment
	launcher     browser.Launcher
	auth         Authenticator
	probeTimeout time.Duration
	headless     bool
	concurrency  int
	log          *slog.Logger
}

type Option func(*Cache)

// WithLauncher sets the local browser launcher used by probes and refreshes.
func WithLauncher(l browser.Launcher) Option {
	return func(c *Cache) { c.launcher = l }
}

// WithAuthenticator sets the login used by Refresh and CacheAll.
func WithAuthenticator(a Authenticator) Option {
	return func(c *Cache) { c.auth = a }
}

func WithProbeTimeout(d time.Duration) Option {
	return func(c *Cache) {
		if d > 0 {
			c.probeTimeout = d
		}
	}
}

// WithHeadless controls whether Refresh shows the browser window.
func WithHeadless(headless bool) Option {
	return func(c *Cache) { c.headless = headless }
}

// WithConcurrency bounds parallel probes in Verify.
func WithConcurrency(n int) Option {
	return func(c *Cache) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Cache) {
		if l != nil {
			c.log = l
		}
	}
}

// New returns a cache reading and writing blobs for env in storage.
func New(storage file.Storage, env environment.Environment, opts ...Option) *Cache {
	c := &Cache{
		storage:      storage,
		env:          env,
		probeTimeout: DefaultProbeTimeout,
		headless:     true,
		concurrency:  3,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the object key of a cached session.
func Path(env environment.Environment, client mailbox.Client, engine mailbox.Engine) string {
	return fmt.Sprintf("%s/sessions/%s-%s.json", env.Prefix(), client, engine)
}

// Load returns the cached state blob, or ErrSessionMissing.
func (c *Cache) Load(ctx context.Context, client mailbox.Client, engine mailbox.Engine) ([]byte, error) {
	data, err := c.storage.Get(ctx, Path(c.env, client, engine))
	if err != nil {
		if errors.Is(err, file.ErrFileNotFound) {
			return nil, fmt.Errorf("%w: %s-%s", mailbox.ErrSessionMissing, client, engine)
		}
		return nil, errors.Join(mailbox.ErrUpstreamService, err)
	}
	return data, nil
}

// ProbeValidity reports whether the cached state still opens the mailbox. It launches
// a disposable headless browser and never writes the blob. A missing blob is invalid.
func (c *Cache) ProbeValidity(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (bool, error) {
	profile, err := mailbox.ProfileFor(client)
	if err != nil {
		return false, err
	}
	state, err := c.Load(ctx, client, engine)
	if err != nil {
		if errors.Is(err, mailbox.ErrSessionMissing) {
			return false, nil
		}
		return false, err
	}
	if c.launcher == nil {
		return false, fmt.Errorf("%w: no browser launcher", mailbox.ErrConfiguration)
	}

	sess, err := c.launcher.Launch(ctx, engine, browser.LaunchOptions{Headless: true, State: state})
	if err != nil {
		return false, errors.Join(mailbox.ErrUpstreamService, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			c.log.WarnContext(ctx, "failed to close probe browser", logger.Error(err))
		}
	}()

	if err := sess.Goto(ctx, profile.MailboxURL); err != nil {
		return false, errors.Join(mailbox.ErrUpstreamService, err)
	}
	if err := sess.WaitVisible(ctx, profile.Selectors.Marker, c.probeTimeout); err != nil {
		if errors.Is(err, browser.ErrTimeout) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Check is ProbeValidity for callers that want an error: ErrSessionMissing when no blob
// exists and ErrSessionStale when it no longer signs in. Stale sessions need an operator
// to run Refresh; nothing re-logs in automatically.
func (c *Cache) Check(ctx context.Context, client mailbox.Client, engine mailbox.Engine) error {
	exists, err := c.storage.Exists(ctx, Path(c.env, client, engine))
	if err != nil {
		return errors.Join(mailbox.ErrUpstreamService, err)
	}
	if !exists {
		return fmt.Errorf("%w: %s-%s", mailbox.ErrSessionMissing, client, engine)
	}
	valid, err := c.ProbeValidity(ctx, client, engine)
	if err != nil {
		return err
	}
	if !valid {
		return fmt.Errorf("%w: %s-%s", mailbox.ErrSessionStale, client, engine)
	}
	return nil
}

// Refresh signs in with a fresh local browser and stores the resulting state.
func (c *Cache) Refresh(ctx context.Context, client mailbox.Client, engine mailbox.Engine) error {
	if c.launcher == nil || c.auth == nil {
		return fmt.Errorf("%w: refresh needs a launcher and an authenticator", mailbox.ErrConfiguration)
	}
	log := c.log.With(logger.Client(string(client)), logger.Engine(string(engine)))

	sess, err := c.launcher.Launch(ctx, engine, browser.LaunchOptions{Headless: c.headless})
	if err != nil {
		return errors.Join(mailbox.ErrUpstreamService, err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.WarnContext(ctx, "failed to close refresh browser", logger.Error(err))
		}
	}()

	if err := c.auth.Authenticate(ctx, sess, client, engine); err != nil {
		return err
	}

	state, err := sess.StorageState(ctx)
	if err != nil {
		return errors.Join(mailbox.ErrUpstreamService, err)
	}
	if _, err := browser.ParseState(state); err != nil {
		return err
	}

	path := Path(c.env, client, engine)
	if _, err := c.storage.Put(ctx, path, state, file.ContentTypeJSON); err != nil {
		return errors.Join(mailbox.ErrUpstreamService, err)
	}
	log.InfoContext(ctx, "session cached", slog.String("path", path))
	return nil
}
