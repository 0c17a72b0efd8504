package cli_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/internal/cli"
	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/sessioncache"
)

type fakeMaintainer struct {
	force   bool
	source  environment.Environment
	targets []environment.Environment
	clients []mailbox.Client
	engines []mailbox.Engine

	reports       []sessioncache.Report
	err           error
	verifications []sessioncache.Verification
}

func (f *fakeMaintainer) CacheAll(_ context.Context, force bool) ([]sessioncache.Report, error) {
	f.force = force
	return f.reports, f.err
}

func (f *fakeMaintainer) Clone(_ context.Context, source environment.Environment, targets []environment.Environment, force bool) ([]sessioncache.Report, error) {
	f.source, f.targets, f.force = source, targets, force
	return f.reports, f.err
}

func (f *fakeMaintainer) Verify(_ context.Context, clients []mailbox.Client, engines []mailbox.Engine) []sessioncache.Verification {
	f.clients, f.engines = clients, engines
	return f.verifications
}

type harness struct {
	m        *fakeMaintainer
	opts     []cli.Options
	released int
}

func (h *harness) factory(_ context.Context, opts cli.Options) (cli.Maintainer, func(), error) {
	h.opts = append(h.opts, opts)
	return h.m, func() { h.released++ }, nil
}

func run(t *testing.T, h *harness, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	err := cli.Run(context.Background(), args, &out, h.factory)
	return out.String(), err
}

func combo(c mailbox.Client, e mailbox.Engine) mailbox.Combination {
	return mailbox.Combination{Client: c, Engine: e}
}

func TestRun_Usage(t *testing.T) {
	t.Parallel()

	h := &harness{m: &fakeMaintainer{}}
	out, err := run(t, h)
	require.NoError(t, err)
	assert.Contains(t, out, "verify-sessions")

	_, err = run(t, h, "rotate-sessions")
	require.Error(t, err)
	assert.Empty(t, h.opts)
}

func TestRun_Verify(t *testing.T) {
	t.Parallel()

	t.Run("all valid", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{verifications: []sessioncache.Verification{
			{Combination: combo(mailbox.Gmail, mailbox.Chromium), Valid: true},
			{Combination: combo(mailbox.Gmail, mailbox.Firefox), Valid: true},
		}}}

		out, err := run(t, h, "verify-sessions", "--client", "gmail")
		require.NoError(t, err)
		assert.Equal(t, 2, strings.Count(out, "✅"))
		assert.NotContains(t, out, "❌")
		assert.Equal(t, []mailbox.Client{mailbox.Gmail}, h.m.clients)
		assert.Nil(t, h.m.engines)
		assert.Equal(t, 1, h.released)
		assert.False(t, h.opts[0].Login)
	})

	t.Run("failures are counted", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{verifications: []sessioncache.Verification{
			{Combination: combo(mailbox.Yahoo, mailbox.WebKit), Valid: true},
			{Combination: combo(mailbox.AOL, mailbox.WebKit)},
			{Combination: combo(mailbox.ICloud, mailbox.WebKit), Err: mailbox.ErrSessionMissing},
		}}}

		out, err := run(t, h, "verify-sessions", "--engine", "webkit")
		var failed *cli.FailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, 2, failed.Count)
		assert.Equal(t, 1, strings.Count(out, "✅"))
		assert.Equal(t, 3, strings.Count(out, "❌"))
		assert.Contains(t, out, "aol-webkit")
		assert.Contains(t, out, "2 failed")
		assert.Equal(t, []mailbox.Engine{mailbox.WebKit}, h.m.engines)
	})

	t.Run("unknown client", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{}}

		_, err := run(t, h, "verify-sessions", "--client", "hotmail")
		require.ErrorIs(t, err, mailbox.ErrUnknownClient)
		assert.Empty(t, h.opts)
	})
}

func TestRun_CacheAll(t *testing.T) {
	t.Parallel()

	t.Run("passes flags", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{reports: []sessioncache.Report{
			{Combination: combo(mailbox.Gmail, mailbox.Chromium), Outcome: sessioncache.OutcomeRefreshed},
			{Combination: combo(mailbox.Outlook, mailbox.Chromium), Outcome: sessioncache.OutcomeSkipped},
		}}}

		out, err := run(t, h, "cache-all-sessions", "--force", "--debug")
		require.NoError(t, err)
		assert.True(t, h.m.force)
		require.Len(t, h.opts, 1)
		assert.Equal(t, cli.Options{Debug: true, Login: true}, h.opts[0])
		assert.Contains(t, out, "refreshed")
		assert.Contains(t, out, "skipped")
	})

	t.Run("failed logins exit with their count", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{
			reports: []sessioncache.Report{
				{Combination: combo(mailbox.ICloud, mailbox.Chromium), Outcome: sessioncache.OutcomeFailed, Err: mailbox.ErrManualIntervention},
			},
			err: mailbox.ErrManualIntervention,
		}}

		out, err := run(t, h, "cache-all-sessions")
		var failed *cli.FailedError
		require.ErrorAs(t, err, &failed)
		assert.Equal(t, 1, failed.Count)
		assert.Contains(t, out, "❌")
		assert.False(t, h.m.force)
	})

	t.Run("interrupted run", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{err: context.Canceled}}

		_, err := run(t, h, "cache-all-sessions")
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestRun_Clone(t *testing.T) {
	t.Parallel()

	t.Run("parses environments", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{reports: []sessioncache.Report{
			{Combination: combo(mailbox.Gmail, mailbox.Chromium), Target: environment.Preview, Outcome: sessioncache.OutcomeCopied},
		}}}

		out, err := run(t, h, "clone-sessions", "--source", "production", "--targets", "preview, dev", "--force")
		require.NoError(t, err)
		assert.Equal(t, environment.Production, h.m.source)
		assert.Equal(t, []environment.Environment{environment.Preview, environment.Development}, h.m.targets)
		assert.True(t, h.m.force)
		assert.Contains(t, out, "gmail-chromium -> preview")
	})

	t.Run("missing source session is a warning", func(t *testing.T) {
		t.Parallel()
		h := &harness{m: &fakeMaintainer{reports: []sessioncache.Report{
			{Combination: combo(mailbox.Gmail, mailbox.Chromium), Target: environment.Preview, Outcome: sessioncache.OutcomeCopied},
			{Combination: combo(mailbox.Yahoo, mailbox.WebKit), Target: environment.Preview, Outcome: sessioncache.OutcomeMissing},
		}}}

		out, err := run(t, h, "clone-sessions", "--source", "production", "--targets", "preview")
		require.NoError(t, err)
		assert.Equal(t, 1, strings.Count(out, "✅"))
		assert.Equal(t, 1, strings.Count(out, "⚠️"))
		assert.NotContains(t, out, "❌")
		for _, line := range strings.Split(out, "\n") {
			if strings.Contains(line, "yahoo-webkit") {
				assert.Contains(t, line, "⚠️")
				assert.Contains(t, line, "source session missing")
				assert.NotContains(t, line, "✅")
			}
		}
	})

	tests := []struct {
		name string
		args []string
	}{
		{name: "missing source", args: []string{"--targets", "dev"}},
		{name: "unknown target", args: []string{"--source", "prod", "--targets", "qa"}},
		{name: "no targets", args: []string{"--source", "prod"}},
		{name: "source as target", args: []string{"--source", "prod", "--targets", "prod"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			h := &harness{m: &fakeMaintainer{}}

			_, err := run(t, h, append([]string{"clone-sessions"}, tt.args...)...)
			require.Error(t, err)
			var failed *cli.FailedError
			assert.False(t, errors.As(err, &failed))
			assert.Empty(t, h.opts)
		})
	}
}
