package browser

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/dmitrymomot/inboxshot/pkg/logger"
)

var _ Launcher = (*Driver)(nil)

// Driver owns the Playwright driver process and opens sessions on it.
type Driver struct {
	mu      sync.Mutex
	pw      *playwright.Playwright
	log     *slog.Logger
	timeout time.Duration
	install bool
}

// DriverOption configures a Driver.
type DriverOption func(*Driver)

// WithDriverLogger sets the logger used for cleanup failures.
func WithDriverLogger(l *slog.Logger) DriverOption {
	return func(d *Driver) {
		if l != nil {
			d.log = l
		}
	}
}

// WithDefaultTimeout sets the page-wide default timeout for operations without their own bound.
func WithDefaultTimeout(t time.Duration) DriverOption {
	return func(d *Driver) {
		if t > 0 {
			d.timeout = t
		}
	}
}

// WithInstall downloads the driver and browsers before starting.
func WithInstall() DriverOption {
	return func(d *Driver) { d.install = true }
}

// NewDriver starts Playwright.
func NewDriver(opts ...DriverOption) (*Driver, error) {
	d := &Driver{
		log:     slog.Default(),
		timeout: 30 * time.Second,
	}
	for _, opt := range opts {
		opt(d)
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}
	if d.install {
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}
	d.pw = pw
	return d, nil
}

// Stop shuts the driver down.
func (d *Driver) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pw == nil {
		return nil
	}
	err := d.pw.Stop()
	d.pw = nil
	return err
}

func (d *Driver) browserType(engine Engine) (playwright.BrowserType, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pw == nil {
		return nil, ErrDriverNotRunning
	}
	switch engine {
	case Chromium:
		return d.pw.Chromium, nil
	case Firefox:
		return d.pw.Firefox, nil
	case WebKit:
		return d.pw.WebKit, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEngine, engine)
	}
}

// Connect attaches to a remote browser. Chromium speaks CDP; Firefox and WebKit need the
// Playwright wire protocol.
func (d *Driver) Connect(ctx context.Context, engine Engine, wsURL string) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bt, err := d.browserType(engine)
	if err != nil {
		return nil, err
	}

	var b playwright.Browser
	if engine == Chromium {
		b, err = bt.ConnectOverCDP(wsURL)
	} else {
		b, err = bt.Connect(wsURL)
	}
	if err != nil {
		return nil, fmt.Errorf("browser: connect %s: %w", engine, err)
	}

	var bctx playwright.BrowserContext
	if contexts := b.Contexts(); len(contexts) > 0 {
		bctx = contexts[0]
	} else if bctx, err = b.NewContext(); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("browser: new context: %w", err)
	}

	var page playwright.Page
	if pages := bctx.Pages(); len(pages) > 0 {
		page = pages[0]
	} else if page, err = bctx.NewPage(); err != nil {
		_ = b.Close()
		return nil, fmt.Errorf("browser: new page: %w", err)
	}
	page.SetDefaultTimeout(float64(d.timeout.Milliseconds()))

	return NewSession(WrapPage(page), func() error { return b.Close() }), nil
}

// Launch starts a local browser with an isolated context, optionally preloaded with state.
func (d *Driver) Launch(ctx context.Context, engine Engine, opts LaunchOptions) (*Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bt, err := d.browserType(engine)
	if err != nil {
		return nil, err
	}

	b, err := bt.Launch(playwright.BrowserTypeLaunchOptions{Headless: playwright.Bool(opts.Headless)})
	if err != nil {
		return nil, fmt.Errorf("browser: launch %s: %w", engine, err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{}
	var stateDir string
	if len(opts.State) > 0 {
		if _, err := ParseState(opts.State); err != nil {
			_ = b.Close()
			return nil, err
		}
		stateDir, err = os.MkdirTemp("", "inboxshot-launch-")
		if err != nil {
			_ = b.Close()
			return nil, err
		}
		path := filepath.Join(stateDir, "state.json")
		if err := os.WriteFile(path, opts.State, 0o600); err != nil {
			_ = b.Close()
			_ = os.RemoveAll(stateDir)
			return nil, err
		}
		ctxOpts.StorageStatePath = playwright.String(path)
	}

	cleanup := func() error {
		var errs []error
		if err := b.Close(); err != nil {
			errs = append(errs, err)
		}
		if stateDir != "" {
			if err := os.RemoveAll(stateDir); err != nil {
				d.log.Warn("failed to remove temp state dir", logger.Error(err))
			}
		}
		return errors.Join(errs...)
	}

	bctx, err := b.NewContext(ctxOpts)
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("browser: new context: %w", err)
	}
	page, err := bctx.NewPage()
	if err != nil {
		_ = cleanup()
		return nil, fmt.Errorf("browser: new page: %w", err)
	}
	page.SetDefaultTimeout(float64(d.timeout.Milliseconds()))

	return NewSession(WrapPage(page), cleanup), nil
}

// ParseEngine validates an engine name.
func ParseEngine(s string) (Engine, error) {
	switch e := Engine(s); e {
	case Chromium, Firefox, WebKit:
		return e, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownEngine, s)
	}
}
