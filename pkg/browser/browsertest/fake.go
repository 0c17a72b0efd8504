// Package browsertest provides in-memory fakes of the browser package interfaces.
package browsertest

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
)

// Page is a scriptable browser.Page. Selectors are visible only when marked so; waits on
// invisible selectors fail immediately with browser.ErrTimeout. Hooks keyed by
// "<action>:<target>" run after the action is recorded, which lets a test make the next
// element appear in response to a click or key press.
type Page struct {
	mu      sync.Mutex
	url     string
	html    string
	dark    bool
	visible map[string]bool
	hooks   map[string]func(*Page)
	errs    map[string]error
	actions []string
	state   []byte
	cookies [][]byte
	shots   map[bool][]byte
}

var _ browser.Page = (*Page)(nil)

// NewPage returns a page with nothing visible.
func NewPage() *Page {
	return &Page{
		url:     "about:blank",
		visible: make(map[string]bool),
		hooks:   make(map[string]func(*Page)),
		errs:    make(map[string]error),
		shots: map[bool][]byte{
			false: []byte("png-light"),
			true:  []byte("png-dark"),
		},
		state: []byte(`{"cookies":[],"origins":[]}`),
	}
}

// Show marks selectors visible.
func (p *Page) Show(selectors ...string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		p.visible[s] = true
	}
	return p
}

// Hide marks selectors invisible.
func (p *Page) Hide(selectors ...string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, s := range selectors {
		delete(p.visible, s)
	}
	return p
}

// On registers a hook for "<action>:<target>", e.g. "click:#next" or "goto:https://mail.example".
func (p *Page) On(key string, fn func(*Page)) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.hooks[key] = fn
	return p
}

// Fail makes the action keyed "<action>:<target>" return err.
func (p *Page) Fail(key string, err error) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.errs[key] = err
	return p
}

// SetHTML sets what Content returns.
func (p *Page) SetHTML(html string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.html = html
	return p
}

// SetState sets what StorageState returns.
func (p *Page) SetState(state []byte) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.state = state
	return p
}

// Actions returns the recorded "<action>:<target>" log.
func (p *Page) Actions() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.actions))
	copy(out, p.actions)
	return out
}

// AppliedCookies returns every blob passed to AddCookies.
func (p *Page) AppliedCookies() [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([][]byte(nil), p.cookies...)
}

// Dark reports the emulated color scheme.
func (p *Page) Dark() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.dark
}

func (p *Page) record(key string) error {
	p.mu.Lock()
	p.actions = append(p.actions, key)
	err := p.errs[key]
	hook := p.hooks[key]
	p.mu.Unlock()

	if err != nil {
		return err
	}
	if hook != nil {
		hook(p)
	}
	return nil
}

func (p *Page) isVisible(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.visible[selector]
}

func (p *Page) requireVisible(ctx context.Context, op, selector string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.isVisible(selector) {
		return fmt.Errorf("%w: %s %q", browser.ErrTimeout, op, selector)
	}
	return nil
}

func (p *Page) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return p.record("goto:" + url)
}

func (p *Page) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.record("reload:")
}

func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

func (p *Page) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.html, nil
}

func (p *Page) WaitVisible(ctx context.Context, selector string, _ time.Duration) error {
	if err := p.record("wait:" + selector); err != nil {
		return err
	}
	return p.requireVisible(ctx, "wait", selector)
}

func (p *Page) Click(ctx context.Context, selector string, _ time.Duration) error {
	if err := p.requireVisible(ctx, "click", selector); err != nil {
		return err
	}
	return p.record("click:" + selector)
}

func (p *Page) ClickCenter(ctx context.Context, selector string, _ time.Duration) error {
	if err := p.requireVisible(ctx, "click center", selector); err != nil {
		return err
	}
	return p.record("clickcenter:" + selector)
}

func (p *Page) Fill(ctx context.Context, selector, value string, _ time.Duration) error {
	if err := p.requireVisible(ctx, "fill", selector); err != nil {
		return err
	}
	return p.record("fill:" + selector + "=" + value)
}

func (p *Page) TypeText(ctx context.Context, text string, _ time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return p.record("type:" + text)
}

func (p *Page) Press(ctx context.Context, selector, key string, _ time.Duration) error {
	if err := p.requireVisible(ctx, "press", selector); err != nil {
		return err
	}
	return p.record("press:" + selector + "=" + key)
}

func (p *Page) SetColorScheme(ctx context.Context, dark bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.mu.Lock()
	p.dark = dark
	p.mu.Unlock()
	return p.record(fmt.Sprintf("scheme:dark=%t", dark))
}

func (p *Page) Screenshot(ctx context.Context, selector string, _ time.Duration) ([]byte, error) {
	if err := p.requireVisible(ctx, "screenshot", selector); err != nil {
		return nil, err
	}
	if err := p.record("screenshot:" + selector); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.shots[p.dark], nil
}

func (p *Page) StorageState(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.record("storagestate:"); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state, nil
}

func (p *Page) AddCookies(ctx context.Context, state []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := browser.ParseState(state); err != nil {
		return err
	}
	p.mu.Lock()
	p.cookies = append(p.cookies, state)
	p.mu.Unlock()
	return p.record("addcookies:")
}
