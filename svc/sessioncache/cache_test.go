package sessioncache_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
	"github.com/dmitrymomot/inboxshot/pkg/browser/browsertest"
	"github.com/dmitrymomot/inboxshot/pkg/environment"
	"github.com/dmitrymomot/inboxshot/pkg/file"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
	"github.com/dmitrymomot/inboxshot/svc/sessioncache"
)

const stateJSON = `{"cookies":[{"name":"SID","value":"abc","domain":".google.com","path":"/","expires":-1,"httpOnly":true,"secure":true,"sameSite":"Lax"}],"origins":[]}`

func newStorage(t *testing.T) *file.LocalStorage {
	t.Helper()
	s, err := file.NewLocalStorage(t.TempDir(), "/files/")
	require.NoError(t, err)
	return s
}

func marker(t *testing.T, c mailbox.Client) string {
	t.Helper()
	p, err := mailbox.ProfileFor(c)
	require.NoError(t, err)
	return p.Selectors.Marker
}

// signedInLauncher returns pages that show the mailbox marker only when launched with state.
func signedInLauncher(t *testing.T, valid bool) *browsertest.Launcher {
	markers := allMarkers(t)
	return browsertest.NewLauncher(func(call browsertest.LaunchCall) (*browsertest.Page, error) {
		p := browsertest.NewPage()
		if valid && len(call.Opts.State) > 0 {
			p.Show(markers...)
		}
		return p, nil
	})
}

func allMarkers(t *testing.T) []string {
	t.Helper()
	var out []string
	for _, c := range mailbox.Clients() {
		out = append(out, marker(t, c))
	}
	return out
}

type recordingAuth struct {
	mu    sync.Mutex
	calls []mailbox.Combination
	err   error
}

func (a *recordingAuth) Authenticate(ctx context.Context, page browser.Page, client mailbox.Client, engine mailbox.Engine) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.calls = append(a.calls, mailbox.Combination{Client: client, Engine: engine})
	return a.err
}

func (a *recordingAuth) Calls() []mailbox.Combination {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]mailbox.Combination(nil), a.calls...)
}

func TestPath(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "prod/sessions/gmail-chromium.json",
		sessioncache.Path(environment.Production, mailbox.Gmail, mailbox.Chromium))
	assert.Equal(t, "dev/sessions/icloud-webkit.json",
		sessioncache.Path(environment.Development, mailbox.ICloud, mailbox.WebKit))
}

func TestCache_Load(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := newStorage(t)
	cache := sessioncache.New(storage, environment.Development)

	_, err := cache.Load(ctx, mailbox.Gmail, mailbox.Chromium)
	require.ErrorIs(t, err, mailbox.ErrSessionMissing)

	_, err = storage.Put(ctx, "dev/sessions/gmail-chromium.json", []byte(stateJSON), file.ContentTypeJSON)
	require.NoError(t, err)

	data, err := cache.Load(ctx, mailbox.Gmail, mailbox.Chromium)
	require.NoError(t, err)
	assert.JSONEq(t, stateJSON, string(data))
}

func TestCache_ProbeValidity(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("valid", func(t *testing.T) {
		t.Parallel()
		storage := newStorage(t)
		_, err := storage.Put(ctx, "prod/sessions/gmail-chromium.json", []byte(stateJSON), file.ContentTypeJSON)
		require.NoError(t, err)

		launcher := signedInLauncher(t, true)
		cache := sessioncache.New(storage, environment.Production, sessioncache.WithLauncher(launcher))

		valid, err := cache.ProbeValidity(ctx, mailbox.Gmail, mailbox.Chromium)
		require.NoError(t, err)
		assert.True(t, valid)

		calls := launcher.Calls()
		require.Len(t, calls, 1)
		assert.True(t, calls[0].Opts.Headless)
		assert.False(t, calls[0].Remote)
		assert.JSONEq(t, stateJSON, string(calls[0].Opts.State))
		assert.Equal(t, 1, launcher.Closed())
	})

	t.Run("missing blob", func(t *testing.T) {
		t.Parallel()
		launcher := signedInLauncher(t, true)
		cache := sessioncache.New(newStorage(t), environment.Production, sessioncache.WithLauncher(launcher))

		valid, err := cache.ProbeValidity(ctx, mailbox.Outlook, mailbox.Firefox)
		require.NoError(t, err)
		assert.False(t, valid)
		assert.Empty(t, launcher.Calls())
	})

	t.Run("launch failure", func(t *testing.T) {
		t.Parallel()
		storage := newStorage(t)
		_, err := storage.Put(ctx, "prod/sessions/gmail-chromium.json", []byte(stateJSON), file.ContentTypeJSON)
		require.NoError(t, err)

		boom := errors.New("browser crashed")
		launcher := browsertest.NewLauncher(func(browsertest.LaunchCall) (*browsertest.Page, error) { return nil, boom })
		cache := sessioncache.New(storage, environment.Production, sessioncache.WithLauncher(launcher))

		valid, err := cache.ProbeValidity(ctx, mailbox.Gmail, mailbox.Chromium)
		require.ErrorIs(t, err, boom)
		require.ErrorIs(t, err, mailbox.ErrUpstreamService)
		assert.False(t, valid)
	})
}

// A stale blob probes invalid, is reported as needing a recapture and nothing logs in.
func TestCache_StaleSessionIsNotRefreshedAutomatically(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := newStorage(t)
	_, err := storage.Put(ctx, "prod/sessions/yahoo-webkit.json", []byte(stateJSON), file.ContentTypeJSON)
	require.NoError(t, err)

	launcher := signedInLauncher(t, false)
	auth := &recordingAuth{}
	cache := sessioncache.New(storage, environment.Production,
		sessioncache.WithLauncher(launcher),
		sessioncache.WithAuthenticator(auth),
	)

	valid, err := cache.ProbeValidity(ctx, mailbox.Yahoo, mailbox.WebKit)
	require.NoError(t, err)
	assert.False(t, valid)

	err = cache.Check(ctx, mailbox.Yahoo, mailbox.WebKit)
	require.ErrorIs(t, err, mailbox.ErrSessionStale)

	err = cache.Check(ctx, mailbox.AOL, mailbox.WebKit)
	require.ErrorIs(t, err, mailbox.ErrSessionMissing)

	assert.Empty(t, auth.Calls())
	data, err := storage.Get(ctx, "prod/sessions/yahoo-webkit.json")
	require.NoError(t, err)
	assert.JSONEq(t, stateJSON, string(data))
}

func TestCache_Refresh(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := newStorage(t)

	launcher := browsertest.NewLauncher(func(browsertest.LaunchCall) (*browsertest.Page, error) {
		return browsertest.NewPage().SetState([]byte(stateJSON)), nil
	})
	auth := &recordingAuth{}
	cache := sessioncache.New(storage, environment.Preview,
		sessioncache.WithLauncher(launcher),
		sessioncache.WithAuthenticator(auth),
		sessioncache.WithHeadless(false),
	)

	require.NoError(t, cache.Refresh(ctx, mailbox.Outlook, mailbox.Chromium))

	assert.Equal(t, []mailbox.Combination{{Client: mailbox.Outlook, Engine: mailbox.Chromium}}, auth.Calls())
	calls := launcher.Calls()
	require.Len(t, calls, 1)
	assert.False(t, calls[0].Opts.Headless)
	assert.Empty(t, calls[0].Opts.State)

	data, err := storage.Get(ctx, "preview/sessions/outlook-chromium.json")
	require.NoError(t, err)
	assert.JSONEq(t, stateJSON, string(data))
}

func TestCache_Refresh_LoginFailureKeepsOldBlob(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	storage := newStorage(t)
	_, err := storage.Put(ctx, "dev/sessions/aol-firefox.json", []byte(`{"cookies":[],"origins":[]}`), file.ContentTypeJSON)
	require.NoError(t, err)

	auth := &recordingAuth{err: mailbox.ErrLoginFailed}
	cache := sessioncache.New(storage, environment.Development,
		sessioncache.WithLauncher(signedInLauncher(t, false)),
		sessioncache.WithAuthenticator(auth),
	)

	require.ErrorIs(t, cache.Refresh(ctx, mailbox.AOL, mailbox.Firefox), mailbox.ErrLoginFailed)

	data, err := storage.Get(ctx, "dev/sessions/aol-firefox.json")
	require.NoError(t, err)
	assert.JSONEq(t, `{"cookies":[],"origins":[]}`, string(data))
}

func TestCache_Refresh_RequiresCollaborators(t *testing.T) {
	t.Parallel()

	cache := sessioncache.New(newStorage(t), environment.Development)
	err := cache.Refresh(context.Background(), mailbox.Gmail, mailbox.Chromium)
	require.ErrorIs(t, err, mailbox.ErrConfiguration)
}
