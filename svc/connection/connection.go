package connection

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/browserhost"
	"github.com/dmitrymomot/inboxshot/pkg/cache"
	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
	"github.com/dmitrymomot/inboxshot/pkg/redis"
	"github.com/dmitrymomot/inboxshot/pkg/retry"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/store"
)

// Host is the remote browser hosting service.
type Host interface {
	CreateContext(ctx context.Context) (string, error)
	CreateSession(ctx context.Context, contextID string, persist bool) (*browserhost.Session, error)
	ReleaseSession(ctx context.Context, sessionID string) error
}

// ContextStore persists one browser context record per combination.
type ContextStore interface {
	GetBrowserContext(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (*store.BrowserContext, error)
	InsertBrowserContext(ctx context.Context, bc *store.BrowserContext) (*store.BrowserContext, error)
}

// Locker takes a lock shared by every worker process.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (func(context.Context) error, error)
}

// Connection is a live page on a remote browser session.
type Connection struct {
	Page      browser.Page
	SessionID string
	ContextID string

	close func()
	once  sync.Once
}

// Close releases the local driver connection. Errors are logged, never returned, so
// cleanup cannot mask the error of the job that used the connection.
func (c *Connection) Close() {
	if c == nil || c.close == nil {
		return
	}
	c.once.Do(c.close)
}

// Manager hands out pages on remote sessions that share one persisted context per
// (client, engine), so cookies survive across runs.
type Manager struct {
	host     Host
	store    ContextStore
	launcher browser.Launcher
	locker   Locker
	clock    clock.Clock
	log      *slog.Logger

	lockTTL   time.Duration
	waitPoll  retry.Policy
	exclusive bool

	// context ids never change once stored
	ids    *cache.LRU[mailbox.Combination, string]
	group  singleflight.Group
	leaseM sync.Mutex
	leases map[mailbox.Combination]chan struct{}
}

type Option func(*Manager)

// WithLocker guards context creation across processes.
func WithLocker(l Locker) Option {
	return func(m *Manager) { m.locker = l }
}

// WithExclusive makes each connection hold a lease on its (client, engine) context
// until closed, so no two sessions share a context at the same time.
func WithExclusive(exclusive bool) Option {
	return func(m *Manager) { m.exclusive = exclusive }
}

func WithClock(c clock.Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithLockWait sets how a process that lost the creation lock polls for the winner's record.
func WithLockWait(p retry.Policy) Option {
	return func(m *Manager) { m.waitPoll = p }
}

func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.log = l
		}
	}
}

func New(host Host, contexts ContextStore, launcher browser.Launcher, opts ...Option) *Manager {
	m := &Manager{
		host:     host,
		store:    contexts,
		launcher: launcher,
		clock:    clock.Real(),
		log:      slog.Default(),
		lockTTL:  30 * time.Second,
		waitPoll: retry.Constant(20, 500*time.Millisecond),
		leases:   make(map[mailbox.Combination]chan struct{}),
		ids:      cache.NewLRU[mailbox.Combination, string](32),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Connect starts a remote session bound to the combination's context and attaches the
// local driver to it.
func (m *Manager) Connect(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (*Connection, error) {
	combo := mailbox.Combination{Client: client, Engine: engine}
	log := m.log.With(logger.Client(string(client)), logger.Engine(string(engine)))

	release := func() {}
	if m.exclusive {
		var err error
		if release, err = m.lease(ctx, combo); err != nil {
			return nil, err
		}
	}

	contextID, err := m.GetOrCreateBrowserContext(ctx, client, engine)
	if err != nil {
		release()
		return nil, err
	}

	sess, err := m.host.CreateSession(ctx, contextID, true)
	if err != nil {
		release()
		return nil, errors.Join(mailbox.ErrUpstreamService, err)
	}

	bs, err := m.launcher.Connect(ctx, engine, sess.ConnectURL)
	if err != nil {
		if rerr := m.host.ReleaseSession(context.WithoutCancel(ctx), sess.ID); rerr != nil {
			log.WarnContext(ctx, "failed to release remote session", logger.SessionID(sess.ID), logger.Error(rerr))
		}
		release()
		return nil, errors.Join(mailbox.ErrUpstreamService, err)
	}

	log.DebugContext(ctx, "browser connected", logger.SessionID(sess.ID), slog.String("context_id", contextID))

	return &Connection{
		Page:      bs,
		SessionID: sess.ID,
		ContextID: contextID,
		close: func() {
			if err := bs.Close(); err != nil {
				log.WarnContext(ctx, "failed to close browser connection", logger.SessionID(sess.ID), logger.Error(err))
			}
			release()
		},
	}, nil
}

// GetOrCreateBrowserContext returns the context id of the combination, creating the
// remote context on first use. Creation is deduplicated in process, locked across
// processes and finally settled by the store's uniqueness on (client, engine).
func (m *Manager) GetOrCreateBrowserContext(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (string, error) {
	combo := mailbox.Combination{Client: client, Engine: engine}
	if id, ok := m.ids.Get(combo); ok {
		return id, nil
	}
	if bc, err := m.store.GetBrowserContext(ctx, client, engine); err == nil {
		m.ids.Put(combo, bc.ID)
		return bc.ID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	key := combo.String()
	id, err, _ := m.group.Do(key, func() (any, error) {
		return m.createContext(context.WithoutCancel(ctx), client, engine, key)
	})
	if err != nil {
		return "", err
	}
	m.ids.Put(combo, id.(string))
	return id.(string), nil
}

func (m *Manager) createContext(ctx context.Context, client mailbox.Client, engine mailbox.Engine, key string) (string, error) {
	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, "browser-context:"+key, m.lockTTL)
		if errors.Is(err, redis.ErrLockNotAcquired) {
			return m.waitForContext(ctx, client, engine)
		}
		if err != nil {
			return "", err
		}
		defer func() {
			if err := unlock(ctx); err != nil {
				m.log.WarnContext(ctx, "failed to release context lock", slog.String("key", key), logger.Error(err))
			}
		}()
	}

	// another process may have finished while we waited for the lock
	if bc, err := m.store.GetBrowserContext(ctx, client, engine); err == nil {
		return bc.ID, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", err
	}

	id, err := m.host.CreateContext(ctx)
	if err != nil {
		return "", errors.Join(mailbox.ErrUpstreamService, err)
	}

	bc, err := m.store.InsertBrowserContext(ctx, &store.BrowserContext{ID: id, Client: client, Engine: engine})
	if err != nil {
		return "", fmt.Errorf("failed to save browser context: %w", err)
	}
	if bc.ID != id {
		m.log.WarnContext(ctx, "lost browser context race, remote context left unused",
			slog.String("context_id", id), slog.String("winner", bc.ID))
	} else {
		m.log.InfoContext(ctx, "browser context created",
			logger.Client(string(client)), logger.Engine(string(engine)), slog.String("context_id", id))
	}
	return bc.ID, nil
}

func (m *Manager) waitForContext(ctx context.Context, client mailbox.Client, engine mailbox.Engine) (string, error) {
	var id string
	err := retry.Do(ctx, m.clock, m.waitPoll, func(ctx context.Context, _ int) error {
		bc, err := m.store.GetBrowserContext(ctx, client, engine)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return err
			}
			return retry.Stop(err)
		}
		id = bc.ID
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("browser context for %s-%s not created by lock holder: %w", client, engine, err)
	}
	return id, nil
}

func (m *Manager) lease(ctx context.Context, combo mailbox.Combination) (func(), error) {
	m.leaseM.Lock()
	ch, ok := m.leases[combo]
	if !ok {
		ch = make(chan struct{}, 1)
		m.leases[combo] = ch
	}
	m.leaseM.Unlock()

	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	var once sync.Once
	return func() { once.Do(func() { <-ch }) }, nil
}
