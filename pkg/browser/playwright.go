package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/playwright-community/playwright-go"
)

// playwrightPage adapts a playwright.Page to Page. Playwright calls are synchronous and
// not context aware, so ctx is checked before each call and timeouts are passed through.
type playwrightPage struct {
	page playwright.Page
}

// WrapPage adapts a Playwright page.
func WrapPage(p playwright.Page) Page {
	return &playwrightPage{page: p}
}

func ms(d time.Duration) *float64 {
	return playwright.Float(float64(d.Milliseconds()))
}

func wrapErr(op, selector string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, playwright.ErrTimeout) {
		return fmt.Errorf("%w: %s %q: %v", ErrTimeout, op, selector, err)
	}
	return fmt.Errorf("browser: %s %q: %w", op, selector, err)
}

func (p *playwrightPage) first(selector string) playwright.Locator {
	return p.page.Locator(selector).First()
}

func (p *playwrightPage) Goto(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Goto(url, playwright.PageGotoOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return wrapErr("goto", url, err)
}

func (p *playwrightPage) Reload(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := p.page.Reload(playwright.PageReloadOptions{
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	return wrapErr("reload", p.page.URL(), err)
}

func (p *playwrightPage) URL() string { return p.page.URL() }

func (p *playwrightPage) Content(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	html, err := p.page.Content()
	return html, wrapErr("content", "", err)
}

func (p *playwrightPage) WaitVisible(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.first(selector).WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(timeout),
	})
	return wrapErr("wait", selector, err)
}

func (p *playwrightPage) Click(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.first(selector).Click(playwright.LocatorClickOptions{Timeout: ms(timeout)})
	return wrapErr("click", selector, err)
}

func (p *playwrightPage) ClickCenter(ctx context.Context, selector string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	loc := p.first(selector)
	if err := loc.WaitFor(playwright.LocatorWaitForOptions{
		State:   playwright.WaitForSelectorStateVisible,
		Timeout: ms(timeout),
	}); err != nil {
		return wrapErr("click center", selector, err)
	}
	box, err := loc.BoundingBox(playwright.LocatorBoundingBoxOptions{Timeout: ms(timeout)})
	if err != nil {
		return wrapErr("click center", selector, err)
	}
	if box == nil {
		return fmt.Errorf("%w: %q", ErrNoBoundingBox, selector)
	}
	return wrapErr("click center", selector, p.page.Mouse().Click(box.X+box.Width/2, box.Y+box.Height/2))
}

func (p *playwrightPage) Fill(ctx context.Context, selector, value string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.first(selector).Fill(value, playwright.LocatorFillOptions{Timeout: ms(timeout)})
	return wrapErr("fill", selector, err)
}

func (p *playwrightPage) TypeText(ctx context.Context, text string, delay time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.page.Keyboard().Type(text, playwright.KeyboardTypeOptions{Delay: ms(delay)})
	return wrapErr("type", "", err)
}

func (p *playwrightPage) Press(ctx context.Context, selector, key string, timeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := p.first(selector).Press(key, playwright.LocatorPressOptions{Timeout: ms(timeout)})
	return wrapErr("press", selector, err)
}

func (p *playwrightPage) SetColorScheme(ctx context.Context, dark bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	scheme := playwright.ColorSchemeLight
	if dark {
		scheme = playwright.ColorSchemeDark
	}
	err := p.page.EmulateMedia(playwright.PageEmulateMediaOptions{ColorScheme: scheme})
	return wrapErr("emulate media", "", err)
}

func (p *playwrightPage) Screenshot(ctx context.Context, selector string, timeout time.Duration) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	png, err := p.first(selector).Screenshot(playwright.LocatorScreenshotOptions{
		Type:    playwright.ScreenshotTypePng,
		Timeout: ms(timeout),
	})
	return png, wrapErr("screenshot", selector, err)
}

// StorageState writes the context state through a temp file, the one format Playwright
// guarantees to be loadable back via StorageStatePath.
func (p *playwrightPage) StorageState(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dir, err := os.MkdirTemp("", "inboxshot-state-")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "state.json")
	if _, err := p.page.Context().StorageState(path); err != nil {
		return nil, wrapErr("storage state", "", err)
	}
	return os.ReadFile(path)
}

func (p *playwrightPage) AddCookies(ctx context.Context, state []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s, err := ParseState(state)
	if err != nil {
		return err
	}
	if len(s.Cookies) == 0 {
		return nil
	}
	return wrapErr("add cookies", "", p.page.Context().AddCookies(toOptionalCookies(s.Cookies)))
}

func toOptionalCookies(cookies []Cookie) []playwright.OptionalCookie {
	out := make([]playwright.OptionalCookie, 0, len(cookies))
	for _, c := range cookies {
		oc := playwright.OptionalCookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   playwright.String(c.Domain),
			Path:     playwright.String(c.Path),
			HttpOnly: playwright.Bool(c.HTTPOnly),
			Secure:   playwright.Bool(c.Secure),
		}
		// Session cookies carry -1 and must not be sent as an expiry.
		if c.Expires > 0 {
			oc.Expires = playwright.Float(c.Expires)
		}
		if c.SameSite != "" {
			ss := playwright.SameSiteAttribute(c.SameSite)
			oc.SameSite = &ss
		}
		out = append(out, oc)
	}
	return out
}
