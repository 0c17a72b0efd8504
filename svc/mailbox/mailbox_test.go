package mailbox_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

func TestParseClient(t *testing.T) {
	t.Parallel()

	c, err := mailbox.ParseClient(" Gmail ")
	require.NoError(t, err)
	assert.Equal(t, mailbox.Gmail, c)

	_, err = mailbox.ParseClient("hotmail")
	require.ErrorIs(t, err, mailbox.ErrUnknownClient)
}

func TestParseEngine(t *testing.T) {
	t.Parallel()

	e, err := mailbox.ParseEngine("WebKit")
	require.NoError(t, err)
	assert.Equal(t, mailbox.WebKit, e)

	_, err = mailbox.ParseEngine("trident")
	require.ErrorIs(t, err, mailbox.ErrUnknownEngine)
}

func TestCombinations(t *testing.T) {
	t.Parallel()

	assert.Len(t, mailbox.Combinations(nil, nil), 15)

	got := mailbox.Combinations([]mailbox.Client{mailbox.Yahoo}, []mailbox.Engine{mailbox.Firefox, mailbox.WebKit})
	assert.Equal(t, []mailbox.Combination{
		{Client: mailbox.Yahoo, Engine: mailbox.Firefox},
		{Client: mailbox.Yahoo, Engine: mailbox.WebKit},
	}, got)
	assert.Equal(t, "yahoo-firefox", got[0].String())
}

func TestProfileFor(t *testing.T) {
	t.Parallel()

	for _, c := range mailbox.Clients() {
		p, err := mailbox.ProfileFor(c)
		require.NoError(t, err, c)
		assert.Equal(t, c, p.Client)
		assert.NotEmpty(t, p.LoginURL)
		assert.NotEmpty(t, p.MailboxURL)
		assert.NotEmpty(t, p.Selectors.Marker)
		assert.NotEmpty(t, p.Selectors.SearchInput)
		assert.NotEmpty(t, p.Selectors.MessageBody)
		assert.NotEmpty(t, p.Selectors.MFACode)
	}

	icloud, err := mailbox.ProfileFor(mailbox.ICloud)
	require.NoError(t, err)
	assert.Equal(t, mailbox.MFASMS, icloud.MFA)
	assert.True(t, icloud.CenterClick)

	_, err = mailbox.ProfileFor("hotmail")
	require.ErrorIs(t, err, mailbox.ErrUnknownClient)
}
