package browser_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/browser"
)

func TestParseState(t *testing.T) {
	t.Parallel()

	t.Run("playwright format", func(t *testing.T) {
		t.Parallel()

		s, err := browser.ParseState([]byte(`{
			"cookies": [{"name":"SID","value":"x","domain":".google.com","path":"/","expires":-1,"httpOnly":true,"secure":true,"sameSite":"Lax"}],
			"origins": [{"origin":"https://mail.google.com","localStorage":[{"name":"k","value":"v"}]}]
		}`))
		require.NoError(t, err)
		require.Len(t, s.Cookies, 1)
		assert.Equal(t, "SID", s.Cookies[0].Name)
		assert.True(t, s.Cookies[0].HTTPOnly)
		assert.Equal(t, "Lax", s.Cookies[0].SameSite)
		assert.False(t, s.Empty())
	})

	t.Run("empty blob", func(t *testing.T) {
		t.Parallel()
		_, err := browser.ParseState(nil)
		assert.ErrorIs(t, err, browser.ErrInvalidState)
	})

	t.Run("garbage", func(t *testing.T) {
		t.Parallel()
		_, err := browser.ParseState([]byte("not json"))
		assert.ErrorIs(t, err, browser.ErrInvalidState)
	})
}

func TestState_Encode(t *testing.T) {
	t.Parallel()

	s := &browser.State{}
	assert.True(t, s.Empty())

	data, err := s.Encode()
	require.NoError(t, err)
	assert.JSONEq(t, `{"cookies":[],"origins":[]}`, string(data))

	s.Origins = []browser.Origin{{Origin: "https://x", LocalStorage: []browser.NameValue{{Name: "a", Value: "b"}}}}
	assert.False(t, s.Empty())
}

func TestSession_CloseOnce(t *testing.T) {
	t.Parallel()

	calls := 0
	boom := errors.New("boom")
	s := browser.NewSession(nil, func() error {
		calls++
		return boom
	})

	assert.ErrorIs(t, s.Close(), boom)
	assert.ErrorIs(t, s.Close(), boom)
	assert.Equal(t, 1, calls)

	var nilSession *browser.Session
	assert.NoError(t, nilSession.Close())
}

func TestParseEngine(t *testing.T) {
	t.Parallel()

	for _, name := range []string{"chromium", "firefox", "webkit"} {
		e, err := browser.ParseEngine(name)
		require.NoError(t, err)
		assert.Equal(t, browser.Engine(name), e)
	}

	_, err := browser.ParseEngine("safari")
	assert.ErrorIs(t, err, browser.ErrUnknownEngine)
}
