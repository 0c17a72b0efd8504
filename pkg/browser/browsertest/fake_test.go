package browsertest_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/browser/browsertest"
)

func TestPage_HooksRevealElements(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := browsertest.NewPage().Show("#next")
	p.On("click:#next", func(p *browsertest.Page) { p.Show("#password") })

	assert.ErrorIs(t, p.WaitVisible(ctx, "#password", time.Second), browser.ErrTimeout)
	require.NoError(t, p.Click(ctx, "#next", time.Second))
	require.NoError(t, p.WaitVisible(ctx, "#password", time.Second))

	assert.Equal(t, []string{"wait:#password", "click:#next", "wait:#password"}, p.Actions())
}

func TestPage_ScreenshotFollowsScheme(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	p := browsertest.NewPage().Show("body")
	light, err := p.Screenshot(ctx, "body", time.Second)
	require.NoError(t, err)
	require.NoError(t, p.SetColorScheme(ctx, true))
	dark, err := p.Screenshot(ctx, "body", time.Second)
	require.NoError(t, err)

	assert.Equal(t, "png-light", string(light))
	assert.Equal(t, "png-dark", string(dark))
}

func TestLauncher_RecordsCalls(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	l := browsertest.NewLauncher(func(browsertest.LaunchCall) (*browsertest.Page, error) {
		return browsertest.NewPage(), nil
	})

	s, err := l.Connect(ctx, browser.Firefox, "wss://remote")
	require.NoError(t, err)
	require.NoError(t, s.Close())
	require.NoError(t, s.Close())

	calls := l.Calls()
	require.Len(t, calls, 1)
	assert.True(t, calls[0].Remote)
	assert.Equal(t, "wss://remote", calls[0].WSURL)
	assert.Equal(t, 1, l.Closed())
}
