package totp_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/totp"
)

// Base32 of the ASCII secret "12345678901234567890" from RFC 6238 appendix B.
const rfcSecret = "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ"

func TestGenerateAt_RFCVectors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		unix int64
		want string
	}{
		{59, "287082"},
		{1111111109, "081804"},
		{1111111111, "050471"},
		{1234567890, "005924"},
		{2000000000, "279037"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			t.Parallel()
			got, err := totp.GenerateAt(rfcSecret, time.Unix(tt.unix, 0))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGenerateAt_Deterministic(t *testing.T) {
	t.Parallel()

	window := time.Unix(1_700_000_010, 0)
	a, err := totp.GenerateAt(rfcSecret, window)
	require.NoError(t, err)
	b, err := totp.GenerateAt(rfcSecret, window.Add(15*time.Second))
	require.NoError(t, err)
	assert.Equal(t, a, b, "same window yields same code")

	c, err := totp.GenerateAt(rfcSecret, window.Add(totp.Period))
	require.NoError(t, err)
	assert.NotEqual(t, a, c, "next window yields a different code")
	assert.Len(t, c, totp.Digits)
}

func TestDecodeSecret(t *testing.T) {
	t.Parallel()

	key, err := totp.DecodeSecret("gezd gnbv gy3t qojq gezd gnbv gy3t qojq")
	require.NoError(t, err)
	assert.Equal(t, []byte("12345678901234567890"), key)

	_, err = totp.DecodeSecret("   ")
	assert.ErrorIs(t, err, totp.ErrMissingSecret)

	_, err = totp.DecodeSecret("not-base32!")
	assert.ErrorIs(t, err, totp.ErrInvalidSecret)
}

func TestGenerator(t *testing.T) {
	t.Parallel()

	c := clock.NewFake(time.Unix(59, 0))
	gen, err := totp.NewGenerator(rfcSecret, c)
	require.NoError(t, err)

	code, err := gen.Code(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "287082", code)

	c.Advance(time.Unix(1111111109, 0).Sub(time.Unix(59, 0)))
	code, err = gen.Code(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "081804", code)

	_, err = totp.NewGenerator("", nil)
	assert.ErrorIs(t, err, totp.ErrMissingSecret)
}
