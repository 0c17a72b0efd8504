package action_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/svc/action"
)

type counter struct {
	calls int
	err   error
}

func (c *counter) run(context.Context) error {
	c.calls++
	return c.err
}

func TestExecutor_Run(t *testing.T) {
	t.Parallel()

	primaryErr := errors.New("selector not found")
	fallbackErr := errors.New("agent gave up")

	tests := []struct {
		name          string
		primaryErr    error
		fallbackErr   error
		wantErr       error
		wantFallbacks int
	}{
		{name: "primary succeeds", wantFallbacks: 0},
		{name: "fallback recovers", primaryErr: primaryErr, wantFallbacks: 1},
		{name: "both fail", primaryErr: primaryErr, fallbackErr: fallbackErr, wantErr: fallbackErr, wantFallbacks: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			primary := &counter{err: tt.primaryErr}
			fallback := &counter{err: tt.fallbackErr}

			err := action.New().Run(context.Background(), "login", primary.run, fallback.run)
			if tt.wantErr != nil {
				assert.Same(t, tt.wantErr, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, 1, primary.calls)
			assert.Equal(t, tt.wantFallbacks, fallback.calls)
		})
	}
}

func TestExecutor_Run_NilFallback(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	err := action.New().Run(context.Background(), "reveal", func(context.Context) error { return boom }, nil)
	assert.Same(t, boom, err)
}

func TestExecutor_Final(t *testing.T) {
	t.Parallel()

	fallback := &counter{}

	err := action.New().Run(context.Background(), "locate", func(context.Context) error {
		return action.Final(context.Canceled)
	}, fallback.run)

	assert.Same(t, context.Canceled, err)
	assert.Zero(t, fallback.calls)
	assert.NoError(t, action.Final(nil))
}
