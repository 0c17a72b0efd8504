package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
)

func decode(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json by default", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithAttr(logger.Component("worker")))
		log.Info("hello")

		entry := decode(t, buf)
		assert.Equal(t, "INFO", entry["level"])
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "worker", entry["component"])
	})

	t.Run("dev environment is text and debug", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(environment.Development, "inboxshot"))
		log.Debug("details")

		out := buf.String()
		assert.Contains(t, out, "level=DEBUG")
		assert.Contains(t, out, "env=dev")
		assert.Contains(t, out, "service=inboxshot")
	})

	t.Run("prod environment drops debug", func(t *testing.T) {
		t.Parallel()

		buf := &bytes.Buffer{}
		log := logger.New(logger.WithOutput(buf), logger.WithEnvironment(environment.Production, "inboxshot"))
		log.Debug("details")
		assert.Empty(t, buf.String())
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() { logger.WithFormat("xml") })
	})
}

func TestContextAttrs(t *testing.T) {
	t.Parallel()

	buf := &bytes.Buffer{}
	log := logger.New(
		logger.WithOutput(buf),
		logger.WithContextExtractors(environment.LoggerExtractor()),
	)

	ctx := logger.WithAttrs(context.Background(), logger.RunID("run-1"), logger.Client("gmail"))
	ctx = logger.WithAttrs(ctx, logger.Step("login"))
	ctx = environment.WithContext(ctx, environment.Preview)
	log.InfoContext(ctx, "step done", logger.Attempt(2))

	entry := decode(t, buf)
	assert.Equal(t, "run-1", entry["run_id"])
	assert.Equal(t, "gmail", entry["client"])
	assert.Equal(t, "login", entry["step"])
	assert.Equal(t, "preview", entry["env"])
	assert.EqualValues(t, 2, entry["attempt"])
}

func TestError(t *testing.T) {
	t.Parallel()

	assert.Equal(t, slog.Attr{}, logger.Error(nil))
	attr := logger.Error(errors.New("boom"))
	assert.Equal(t, "error", attr.Key)
}

func TestIDAttrs(t *testing.T) {
	t.Parallel()

	for _, attr := range []slog.Attr{
		logger.RunID("0b6c9a3e-8d7f-4e3a-9a55-2f1d7c0e4b21"),
		logger.JobID("5f0c1b2a-7e6d-4c3b-8a9f-1e2d3c4b5a69"),
		logger.SessionID("sess-1"),
	} {
		assert.Equal(t, slog.KindString, attr.Value.Kind(), attr.Key)
	}
	assert.Equal(t, "run_id", logger.RunID("r").Key)
	assert.Equal(t, "job_id", logger.JobID("j").Key)
	assert.Equal(t, "session_id", logger.SessionID("s").Key)
	assert.Equal(t, slog.Int("attempt", 3), logger.Attempt(3))
}
