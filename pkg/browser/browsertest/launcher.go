package browsertest

import (
	"context"
	"sync"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
)

// LaunchCall records one Launch or Connect invocation.
type LaunchCall struct {
	Remote bool
	Engine browser.Engine
	WSURL  string
	Opts   browser.LaunchOptions
}

// Launcher is a browser.Launcher returning pages built by NewPage.
type Launcher struct {
	mu      sync.Mutex
	NewPage func(call LaunchCall) (*Page, error)
	calls   []LaunchCall
	closed  int
}

var _ browser.Launcher = (*Launcher)(nil)

// NewLauncher returns a launcher that hands out pages from fn.
func NewLauncher(fn func(call LaunchCall) (*Page, error)) *Launcher {
	return &Launcher{NewPage: fn}
}

func (l *Launcher) open(ctx context.Context, call LaunchCall) (*browser.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.calls = append(l.calls, call)
	l.mu.Unlock()

	page, err := l.NewPage(call)
	if err != nil {
		return nil, err
	}
	return browser.NewSession(page, func() error {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.closed++
		return nil
	}), nil
}

func (l *Launcher) Connect(ctx context.Context, engine browser.Engine, wsURL string) (*browser.Session, error) {
	return l.open(ctx, LaunchCall{Remote: true, Engine: engine, WSURL: wsURL})
}

func (l *Launcher) Launch(ctx context.Context, engine browser.Engine, opts browser.LaunchOptions) (*browser.Session, error) {
	return l.open(ctx, LaunchCall{Engine: engine, Opts: opts})
}

// Calls returns every recorded invocation.
func (l *Launcher) Calls() []LaunchCall {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]LaunchCall(nil), l.calls...)
}

// Closed returns how many sessions were closed.
func (l *Launcher) Closed() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
