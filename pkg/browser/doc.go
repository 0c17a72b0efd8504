// Package browser wraps Playwright behind a small Page interface.
//
// The pipeline never talks to Playwright directly: it receives a Page, which exposes the
// handful of bounded operations webmail automation needs (wait for a selector, click, fill,
// type, emulate a color scheme, screenshot an element, export and import storage state).
// Driver implements Launcher on top of a running Playwright driver:
//
//	d, err := browser.NewDriver(browser.WithDriverLogger(log))
//	if err != nil {
//		return err
//	}
//	defer d.Stop()
//
//	sess, err := d.Connect(ctx, browser.Chromium, connectURL) // remote, CDP
//	sess, err := d.Launch(ctx, browser.Firefox, browser.LaunchOptions{Headless: true, State: blob})
//	defer sess.Close()
//
// Playwright timeouts surface as ErrTimeout so callers can treat them as "not there yet".
// Storage state blobs use the Playwright file format (see State).
//
// Subpackage browsertest provides scriptable fakes for tests.
package browser
