package login

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

// Strategy signs a page in to one provider.
type Strategy interface {
	Login(ctx context.Context, page browser.Page) error
}

// StrategyFunc adapts a function to Strategy.
type StrategyFunc func(ctx context.Context, page browser.Page) error

func (f StrategyFunc) Login(ctx context.Context, page browser.Page) error { return f(ctx, page) }

var (
	ErrNoStrategy     = errors.New("login: no strategy registered")
	ErrRegistryClosed = errors.New("login: registry is closed")
)

// Registry maps providers to their login strategy. It is filled at startup and closed
// before use; lookups on a closed registry need no further registration checks.
type Registry struct {
	mu         sync.RWMutex
	strategies map[mailbox.Client]Strategy
	closed     bool
}

func NewRegistry() *Registry {
	return &Registry{strategies: make(map[mailbox.Client]Strategy)}
}

// Register adds or replaces the strategy of a provider.
func (r *Registry) Register(client mailbox.Client, s Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRegistryClosed
	}
	if _, err := mailbox.ProfileFor(client); err != nil {
		return err
	}
	r.strategies[client] = s
	return nil
}

// Close forbids further registration.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.closed = true
}

// Get returns the strategy of a provider.
func (r *Registry) Get(client mailbox.Client) (Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.strategies[client]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoStrategy, client)
	}
	return s, nil
}
