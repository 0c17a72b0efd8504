package locator_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/agent"
	"github.com/dmitrymomot/inboxshot/pkg/async"
	"github.com/dmitrymomot/inboxshot/pkg/browser/browsertest"
	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/svc/action"
	"github.com/dmitrymomot/inboxshot/svc/locator"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

const token = "run-5f1c"

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func selectors(t *testing.T, c mailbox.Client) (mailbox.Profile, mailbox.Selectors) {
	t.Helper()
	p, err := mailbox.ProfileFor(c)
	require.NoError(t, err)
	return p, p.Selectors
}

// inbox returns a page where the searched message shows up on the arrival-th search.
// Zero means it never does.
func inbox(t *testing.T, c mailbox.Client, arrival int) *browsertest.Page {
	_, sel := selectors(t, c)
	page := browsertest.NewPage().Show(sel.SearchInput)

	var (
		mu       sync.Mutex
		searches int
	)
	page.On("press:"+sel.SearchInput+"=Enter", func(p *browsertest.Page) {
		mu.Lock()
		searches++
		n := searches
		mu.Unlock()
		if arrival > 0 && n >= arrival {
			p.Show(sel.ResultItem)
		}
	})
	open := func(p *browsertest.Page) { p.Show(sel.MessageBody) }
	page.On("click:"+sel.ResultItem, open)
	page.On("clickcenter:"+sel.ResultItem, open)
	return page
}

type fakeAgent struct {
	mu    sync.Mutex
	calls []agent.Instruction
	run   func(agent.Instruction) error
}

func (a *fakeAgent) Execute(ctx context.Context, in agent.Instruction) (agent.Result, error) {
	a.mu.Lock()
	a.calls = append(a.calls, in)
	a.mu.Unlock()
	if a.run != nil {
		if err := a.run(in); err != nil {
			return agent.Result{}, err
		}
	}
	return agent.Result{Steps: 2}, nil
}

func (a *fakeAgent) count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.calls)
}

func TestWaitForEmail_FirstAttempt(t *testing.T) {
	t.Parallel()
	p, sel := selectors(t, mailbox.Gmail)
	clk := clock.NewFake(start)
	page := inbox(t, mailbox.Gmail, 1)

	loc := locator.New(action.New(), locator.WithClock(clk))
	require.NoError(t, loc.WaitForEmail(context.Background(), page, mailbox.Gmail, token))

	assert.Equal(t, []string{
		"goto:" + p.MailboxURL,
		"wait:" + sel.SearchInput,
		"click:" + sel.SearchInput,
		"fill:" + sel.SearchInput + "=" + token,
		"press:" + sel.SearchInput + "=Enter",
		"wait:" + sel.ResultItem,
		"click:" + sel.ResultItem,
		"wait:" + sel.MessageBody,
	}, page.Actions())
	assert.Empty(t, clk.Sleeps())
}

func TestWaitForEmail_ArrivesLate(t *testing.T) {
	t.Parallel()
	clk := clock.NewFake(start)
	page := inbox(t, mailbox.Outlook, 3)

	loc := locator.New(action.New(), locator.WithClock(clk))
	require.NoError(t, loc.WaitForEmail(context.Background(), page, mailbox.Outlook, token))
	assert.Equal(t, []time.Duration{5 * time.Second, 5 * time.Second}, clk.Sleeps())
}

func TestWaitForEmail_NeverArrives(t *testing.T) {
	t.Parallel()
	clk := clock.NewFake(start)
	ag := &fakeAgent{run: func(agent.Instruction) error { return agent.ErrAgentFailed }}

	loc := locator.New(action.New(), locator.WithClock(clk), locator.WithAgent(ag))
	err := loc.WaitForEmail(context.Background(), inbox(t, mailbox.Yahoo, 0), mailbox.Yahoo, token)
	require.ErrorIs(t, err, mailbox.ErrEmailNotFound)
	require.ErrorIs(t, err, agent.ErrAgentFailed)

	sleeps := clk.Sleeps()
	assert.Len(t, sleeps, 18)
	for _, d := range sleeps {
		assert.Equal(t, 5*time.Second, d)
	}
	assert.Equal(t, start.Add(90*time.Second), clk.Now())
	require.Equal(t, 1, ag.count(), "the agent gets one try once the search deadline passes")
	assert.Equal(t, token, ag.calls[0].Variables["token"])
}

func TestWaitForEmail_AgentFindsLateEmail(t *testing.T) {
	t.Parallel()
	_, sel := selectors(t, mailbox.Gmail)
	ag := &fakeAgent{run: func(in agent.Instruction) error {
		in.Page.(*browsertest.Page).Show(sel.MessageBody)
		return nil
	}}

	loc := locator.New(action.New(), locator.WithClock(clock.NewFake(start)), locator.WithAgent(ag))
	require.NoError(t, loc.WaitForEmail(context.Background(), inbox(t, mailbox.Gmail, 0), mailbox.Gmail, token))
	assert.Equal(t, 1, ag.count())
}

func TestWaitForEmail_CanceledJobSkipsAgent(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	ag := &fakeAgent{}

	loc := locator.New(action.New(), locator.WithClock(clock.NewFake(start)), locator.WithAgent(ag))
	err := loc.WaitForEmail(ctx, inbox(t, mailbox.Gmail, 1), mailbox.Gmail, token)
	require.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, ag.count())
}

func TestWaitForEmail_ICloudUsesMouseAndKeys(t *testing.T) {
	t.Parallel()
	_, sel := selectors(t, mailbox.ICloud)
	page := inbox(t, mailbox.ICloud, 1)

	loc := locator.New(action.New(), locator.WithClock(clock.NewFake(start)))
	require.NoError(t, loc.WaitForEmail(context.Background(), page, mailbox.ICloud, token))

	actions := page.Actions()
	assert.Contains(t, actions, "clickcenter:"+sel.SearchInput)
	assert.Contains(t, actions, "type:"+token)
	assert.Contains(t, actions, "clickcenter:"+sel.ResultItem)
	assert.NotContains(t, actions, "fill:"+sel.SearchInput+"="+token)
}

func TestWaitForEmail_AgentFallback(t *testing.T) {
	t.Parallel()
	p, sel := selectors(t, mailbox.AOL)
	page := inbox(t, mailbox.AOL, 1).Fail("goto:"+p.MailboxURL, errors.New("net::ERR_ABORTED"))

	ag := &fakeAgent{run: func(in agent.Instruction) error {
		in.Page.(*browsertest.Page).Show(sel.MessageBody)
		return nil
	}}
	loc := locator.New(action.New(), locator.WithClock(clock.NewFake(start)), locator.WithAgent(ag))
	require.NoError(t, loc.WaitForEmail(context.Background(), page, mailbox.AOL, token))

	require.Equal(t, 1, ag.count())
	assert.Equal(t, token, ag.calls[0].Variables["token"])
	assert.NotContains(t, ag.calls[0].Goal, token)
}

func TestWaitForEmail_AgentFallbackFails(t *testing.T) {
	t.Parallel()
	p, _ := selectors(t, mailbox.AOL)
	page := inbox(t, mailbox.AOL, 1).Fail("goto:"+p.MailboxURL, errors.New("net::ERR_ABORTED"))

	ag := &fakeAgent{run: func(agent.Instruction) error { return agent.ErrAgentFailed }}
	loc := locator.New(action.New(), locator.WithClock(clock.NewFake(start)), locator.WithAgent(ag))
	err := loc.WaitForEmail(context.Background(), page, mailbox.AOL, token)
	require.ErrorIs(t, err, mailbox.ErrEmailNotFound)
	require.ErrorIs(t, err, agent.ErrAgentFailed)
}

func TestWaitForEmail_BrokenPathWithoutAgent(t *testing.T) {
	t.Parallel()
	p, _ := selectors(t, mailbox.Gmail)
	boom := errors.New("net::ERR_ABORTED")
	page := inbox(t, mailbox.Gmail, 1).Fail("goto:"+p.MailboxURL, boom)

	err := locator.New(action.New()).WaitForEmail(context.Background(), page, mailbox.Gmail, token)
	require.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, mailbox.ErrEmailNotFound)
}

type hungPage struct {
	*browsertest.Page
}

func (hungPage) Goto(ctx context.Context, _ string) error {
	<-ctx.Done()
	return ctx.Err()
}

func TestWaitForEmail_GuardStopsHungBrowser(t *testing.T) {
	t.Parallel()
	page := hungPage{browsertest.NewPage()}

	loc := locator.New(action.New(), locator.WithGuard(20*time.Millisecond))
	err := loc.WaitForEmail(context.Background(), page, mailbox.Gmail, token)
	require.ErrorIs(t, err, mailbox.ErrEmailNotFound)
	require.ErrorIs(t, err, async.ErrTimeout)
}

func TestWaitForEmail_BadInput(t *testing.T) {
	t.Parallel()
	loc := locator.New(action.New())

	err := loc.WaitForEmail(context.Background(), browsertest.NewPage(), mailbox.Gmail, "")
	assert.ErrorIs(t, err, locator.ErrEmptyToken)

	err = loc.WaitForEmail(context.Background(), browsertest.NewPage(), "hotmail", token)
	assert.ErrorIs(t, err, mailbox.ErrUnknownClient)
}

func TestRevealImages(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("clicks the control", func(t *testing.T) {
		t.Parallel()
		_, sel := selectors(t, mailbox.Yahoo)
		page := browsertest.NewPage().Show(sel.RevealImages)

		require.NoError(t, locator.New(action.New()).RevealImages(ctx, page, mailbox.Yahoo))
		assert.Contains(t, page.Actions(), "click:"+sel.RevealImages)
	})

	t.Run("control absent", func(t *testing.T) {
		t.Parallel()
		_, sel := selectors(t, mailbox.AOL)
		page := browsertest.NewPage()

		require.NoError(t, locator.New(action.New()).RevealImages(ctx, page, mailbox.AOL))
		assert.Equal(t, []string{"wait:" + sel.RevealImages}, page.Actions())
	})

	t.Run("provider without control", func(t *testing.T) {
		t.Parallel()
		page := browsertest.NewPage()

		require.NoError(t, locator.New(action.New()).RevealImages(ctx, page, mailbox.Gmail))
		assert.Empty(t, page.Actions())
	})

	t.Run("click failure goes to the agent", func(t *testing.T) {
		t.Parallel()
		_, sel := selectors(t, mailbox.Yahoo)
		page := browsertest.NewPage().Show(sel.RevealImages).Fail("click:"+sel.RevealImages, errors.New("detached"))
		ag := &fakeAgent{}

		require.NoError(t, locator.New(action.New(), locator.WithAgent(ag)).RevealImages(ctx, page, mailbox.Yahoo))
		assert.Equal(t, 1, ag.count())
	})
}
