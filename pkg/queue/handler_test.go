package queue_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/queue"
)

type handlerTestPayload struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

func TestNewTaskHandler(t *testing.T) {
	t.Parallel()

	t.Run("named after payload type", func(t *testing.T) {
		t.Parallel()

		h := queue.NewTaskHandler(func(context.Context, handlerTestPayload) error { return nil })
		assert.Equal(t, "queue_test.handlerTestPayload", h.Name())

		hp := queue.NewTaskHandler(func(context.Context, *handlerTestPayload) error { return nil })
		assert.Equal(t, "queue_test.handlerTestPayload", hp.Name())
	})

	t.Run("decodes payload", func(t *testing.T) {
		t.Parallel()

		var got handlerTestPayload
		h := queue.NewTaskHandler(func(_ context.Context, p handlerTestPayload) error {
			got = p
			return nil
		})

		raw, err := json.Marshal(handlerTestPayload{Message: "hi", Value: 7})
		require.NoError(t, err)
		require.NoError(t, h.Handle(context.Background(), raw))
		assert.Equal(t, handlerTestPayload{Message: "hi", Value: 7}, got)
	})

	t.Run("returns handler error", func(t *testing.T) {
		t.Parallel()

		errBoom := errors.New("boom")
		h := queue.NewTaskHandler(func(context.Context, handlerTestPayload) error { return errBoom })

		err := h.Handle(context.Background(), []byte(`{}`))
		assert.ErrorIs(t, err, errBoom)
		assert.False(t, queue.IsUnrecoverable(err))
	})

	t.Run("bad payload is unrecoverable", func(t *testing.T) {
		t.Parallel()

		h := queue.NewTaskHandler(func(context.Context, handlerTestPayload) error { return nil })

		err := h.Handle(context.Background(), []byte("not json"))
		require.Error(t, err)
		assert.True(t, queue.IsUnrecoverable(err))
	})
}

func TestUnrecoverable(t *testing.T) {
	t.Parallel()

	errBoom := errors.New("boom")
	wrapped := queue.Unrecoverable(errBoom)

	assert.ErrorIs(t, wrapped, errBoom)
	assert.True(t, queue.IsUnrecoverable(wrapped))
	assert.True(t, queue.IsUnrecoverable(errors.Join(errors.New("ctx"), wrapped)))
	assert.Nil(t, queue.Unrecoverable(nil))
}
