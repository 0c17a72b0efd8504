package sms_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/sms"
)

// fakeLister returns the next batch on each call; the last batch repeats.
type fakeLister struct {
	mu      sync.Mutex
	batches [][]sms.Message
	calls   int
	errAt   map[int]error
}

func (f *fakeLister) ListMessages(ctx context.Context, to string, limit int) ([]sms.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	if err := f.errAt[call]; err != nil {
		return nil, err
	}
	if len(f.batches) == 0 {
		return nil, nil
	}
	if call >= len(f.batches) {
		return f.batches[len(f.batches)-1], nil
	}
	return f.batches[call], nil
}

func (f *fakeLister) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestPoller_IgnoresMessagesBeforeMark(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	old := sms.Message{SID: "SM1", Body: "Your code is 111111"}
	fresh := sms.Message{SID: "SM2", Body: "Apple ID Code: 222222. Don't share it."}
	lister := &fakeLister{batches: [][]sms.Message{
		{old},
		{old},
		{fresh, old},
	}}
	clk := clock.NewFake(start)

	p, err := sms.NewPoller(lister, "+15550100", sms.WithClock(clk))
	require.NoError(t, err)
	require.NoError(t, p.Mark(ctx))

	code, err := p.Code(ctx)
	require.NoError(t, err)
	assert.Equal(t, "222222", code)
	assert.Equal(t, []time.Duration{3 * time.Second}, clk.Sleeps())
}

func TestPoller_ConsumedCodeIsNotReturnedTwice(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	lister := &fakeLister{batches: [][]sms.Message{
		{{SID: "SM1", Body: "123456"}},
		{{SID: "SM1", Body: "123456"}},
		{{SID: "SM2", Body: "654321"}, {SID: "SM1", Body: "123456"}},
	}}
	p, err := sms.NewPoller(lister, "+15550100", sms.WithClock(clock.NewFake(start)))
	require.NoError(t, err)

	first, err := p.Code(ctx)
	require.NoError(t, err)
	second, err := p.Code(ctx)
	require.NoError(t, err)
	assert.Equal(t, "123456", first)
	assert.Equal(t, "654321", second)
}

func TestPoller_TimesOut(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	lister := &fakeLister{batches: [][]sms.Message{{{SID: "SM1", Body: "no digits here"}}}}
	clk := clock.NewFake(start)
	p, err := sms.NewPoller(lister, "+15550100", sms.WithClock(clk))
	require.NoError(t, err)

	_, err = p.Code(ctx)
	require.ErrorIs(t, err, sms.ErrNoCode)
	assert.Equal(t, 21, lister.Calls())
	assert.Len(t, clk.Sleeps(), 20)
	assert.Equal(t, start.Add(60*time.Second), clk.Now())
}

func TestPoller_ListErrorsAreRetried(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	lister := &fakeLister{
		batches: [][]sms.Message{nil, {{SID: "SM9", Body: "code 987654"}}},
		errAt:   map[int]error{0: errors.New("503")},
	}
	p, err := sms.NewPoller(lister, "+15550100", sms.WithClock(clock.NewFake(start)))
	require.NoError(t, err)

	code, err := p.Code(ctx)
	require.NoError(t, err)
	assert.Equal(t, "987654", code)
}

func TestPoller_ContextCanceled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p, err := sms.NewPoller(&fakeLister{}, "+15550100", sms.WithClock(clock.NewFake(start)))
	require.NoError(t, err)
	_, err = p.Code(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestNewPoller_RequiresNumber(t *testing.T) {
	t.Parallel()

	_, err := sms.NewPoller(&fakeLister{}, "")
	require.ErrorIs(t, err, sms.ErrMissingNumber)
}

func TestNewTwilio_Validates(t *testing.T) {
	t.Parallel()

	_, err := sms.NewTwilio(sms.Config{})
	require.ErrorIs(t, err, sms.ErrMissingAccount)
	require.ErrorIs(t, err, sms.ErrMissingToken)

	tw, err := sms.NewTwilio(sms.Config{AccountSID: "AC123", AuthToken: "tok"})
	require.NoError(t, err)
	assert.NotNil(t, tw)
}
