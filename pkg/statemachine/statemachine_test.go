package statemachine_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/statemachine"
)

type state string
type event string

const (
	idle    state = "idle"
	running state = "running"
	done    state = "done"
	failed  state = "failed"

	start  event = "start"
	finish event = "finish"
	fail   event = "fail"
)

type sm = statemachine.Machine[state, event]

func newMachine(opts ...statemachine.Option[state, event]) *sm {
	base := []statemachine.Option[state, event]{
		statemachine.WithTransition[state, event](idle, running, start),
		statemachine.WithTransition[state, event](running, done, finish),
		statemachine.WithTransition[state, event](running, failed, fail),
		statemachine.WithFinal[state, event](done, failed),
	}
	return statemachine.New(idle, append(base, opts...)...)
}

func TestMachine_Fire(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newMachine()
	assert.Equal(t, idle, m.Current())
	assert.True(t, m.CanFire(ctx, start, nil))
	assert.False(t, m.CanFire(ctx, finish, nil))

	require.NoError(t, m.Fire(ctx, start, nil))
	require.NoError(t, m.Fire(ctx, finish, nil))

	assert.Equal(t, done, m.Current())
	assert.True(t, m.IsFinal())
	assert.Equal(t, []state{idle, running, done}, m.History())
}

func TestMachine_NoTransition(t *testing.T) {
	t.Parallel()

	m := newMachine()
	err := m.Fire(context.Background(), finish, nil)
	require.Error(t, err)
	assert.True(t, statemachine.IsNoTransitionError(err))
	assert.Equal(t, idle, m.Current())
}

func TestMachine_FinalStateIsSticky(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	m := newMachine()
	require.NoError(t, m.Fire(ctx, start, nil))
	require.NoError(t, m.Fire(ctx, fail, nil))

	assert.ErrorIs(t, m.Fire(ctx, start, nil), statemachine.ErrFinalState)
	assert.False(t, m.CanFire(ctx, start, nil))
	assert.Equal(t, failed, m.Current())
}

func TestMachine_Guards(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	allowed := func(_ context.Context, _ state, _ event, data any) bool {
		ok, _ := data.(bool)
		return ok
	}
	m := statemachine.New(idle,
		statemachine.WithTransition(idle, running, start, statemachine.WithGuard(statemachine.Guard[state, event](allowed))),
	)

	err := m.Fire(ctx, start, false)
	assert.True(t, statemachine.IsRejectedError(err))
	assert.Equal(t, idle, m.Current())

	require.NoError(t, m.Fire(ctx, start, true))
	assert.Equal(t, running, m.Current())
}

func TestMachine_GuardBranching(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	isCode := func(_ context.Context, _ state, _ event, data any) bool { return data == "code" }
	m := statemachine.New(idle,
		statemachine.WithTransition(idle, failed, start, statemachine.WithGuard(statemachine.Guard[state, event](isCode))),
		statemachine.WithTransition[state, event](idle, running, start),
	)

	require.NoError(t, m.Fire(ctx, start, "other"))
	assert.Equal(t, running, m.Current())
}

func TestMachine_ActionErrorAbortsTransition(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	m := statemachine.New(idle,
		statemachine.WithTransition(idle, running, start, statemachine.WithAction(statemachine.Action[state, event](
			func(context.Context, state, state, event, any) error { return boom },
		))),
	)

	err := m.Fire(context.Background(), start, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, idle, m.Current())
}

func TestMachine_ObserverAndReset(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	var (
		mu   sync.Mutex
		seen []string
	)
	m := newMachine(statemachine.WithObserver(statemachine.Observer[state, event](
		func(_ context.Context, from, to state, ev event) {
			mu.Lock()
			defer mu.Unlock()
			seen = append(seen, string(from)+">"+string(to)+":"+string(ev))
		},
	)))

	require.NoError(t, m.Fire(ctx, start, nil))
	require.NoError(t, m.Fire(ctx, finish, nil))
	assert.Equal(t, []string{"idle>running:start", "running>done:finish"}, seen)

	m.Reset()
	assert.Equal(t, idle, m.Current())
	assert.Equal(t, []state{idle}, m.History())
	assert.False(t, m.IsFinal())
}

func TestTransition_String(t *testing.T) {
	t.Parallel()

	tr := statemachine.Transition[state, event]{From: idle, To: running, Event: start}
	assert.Equal(t, "idle -(start)-> running", tr.String())
}
