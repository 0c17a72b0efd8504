package browser

import (
	"context"
	"sync"
	"time"
)

// Engine names a browser engine.
type Engine string

const (
	Chromium Engine = "chromium"
	Firefox  Engine = "firefox"
	WebKit   Engine = "webkit"
)

// Page is the subset of a browser tab the capture pipeline drives.
// Every element operation targets the first match of selector and is bounded by timeout.
type Page interface {
	// Goto navigates and waits for DOMContentLoaded.
	Goto(ctx context.Context, url string) error
	Reload(ctx context.Context) error
	URL() string
	// Content returns the current DOM serialized as HTML.
	Content(ctx context.Context) (string, error)

	WaitVisible(ctx context.Context, selector string, timeout time.Duration) error
	Click(ctx context.Context, selector string, timeout time.Duration) error
	// ClickCenter clicks with the mouse at the center of the element's bounding box.
	ClickCenter(ctx context.Context, selector string, timeout time.Duration) error
	Fill(ctx context.Context, selector, value string, timeout time.Duration) error
	// TypeText sends keystrokes to the focused element with delay between them.
	TypeText(ctx context.Context, text string, delay time.Duration) error
	Press(ctx context.Context, selector, key string, timeout time.Duration) error

	SetColorScheme(ctx context.Context, dark bool) error
	// Screenshot captures the element as PNG.
	Screenshot(ctx context.Context, selector string, timeout time.Duration) ([]byte, error)

	// StorageState serializes cookies and local storage of the page's context.
	StorageState(ctx context.Context) ([]byte, error)
	// AddCookies applies the cookies of a serialized storage state to the page's context.
	AddCookies(ctx context.Context, state []byte) error
}

// Session is a live page plus the cleanup that releases it.
type Session struct {
	Page      Page
	closeFunc func() error
	once      sync.Once
	closeErr  error
}

// NewSession binds a page to its cleanup func.
func NewSession(page Page, closeFunc func() error) *Session {
	return &Session{Page: page, closeFunc: closeFunc}
}

// Close releases the session. Only the first call has effect.
func (s *Session) Close() error {
	if s == nil || s.closeFunc == nil {
		return nil
	}
	s.once.Do(func() { s.closeErr = s.closeFunc() })
	return s.closeErr
}

// LaunchOptions configure a local disposable browser.
type LaunchOptions struct {
	Headless bool
	// State is a serialized storage state to preload, optional.
	State []byte
}

// Launcher opens browser sessions.
type Launcher interface {
	// Connect attaches to a remote browser at wsURL and returns its first page.
	Connect(ctx context.Context, engine Engine, wsURL string) (*Session, error)
	// Launch starts a local browser with a fresh context.
	Launch(ctx context.Context, engine Engine, opts LaunchOptions) (*Session, error)
}
