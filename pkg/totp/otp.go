package totp

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base32"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
)

const (
	Digits = 6
	Period = 30 * time.Second
)

var modulo = uint32(1_000_000)

// DecodeSecret normalises a Base32 secret as shown by providers
// ("abcd efgh ...", with or without padding) and decodes it.
func DecodeSecret(secret string) ([]byte, error) {
	s := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(secret), " ", ""))
	s = strings.TrimRight(s, "=")
	if s == "" {
		return nil, ErrMissingSecret
	}
	key, err := base32.StdEncoding.WithPadding(base32.NoPadding).DecodeString(s)
	if err != nil {
		return nil, errors.Join(ErrInvalidSecret, err)
	}
	return key, nil
}

// GenerateAt returns the 6-digit code of the 30-second window containing t.
func GenerateAt(secret string, t time.Time) (string, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return "", err
	}
	return formatCode(GenerateHOTP(key, uint64(t.Unix())/uint64(Period/time.Second))), nil
}

// GenerateHOTP implements RFC 4226 with HMAC-SHA1 and 6 digits.
func GenerateHOTP(key []byte, counter uint64) uint32 {
	var msg [8]byte
	binary.BigEndian.PutUint64(msg[:], counter)

	mac := hmac.New(sha1.New, key)
	mac.Write(msg[:])
	sum := mac.Sum(nil)

	// dynamic truncation
	offset := sum[len(sum)-1] & 0x0f
	code := binary.BigEndian.Uint32(sum[offset:offset+4]) & 0x7fffffff
	return code % modulo
}

func formatCode(code uint32) string {
	return fmt.Sprintf("%0*d", Digits, code)
}

// Generator produces codes for one stored secret.
type Generator struct {
	key   []byte
	clock clock.Clock
}

// NewGenerator validates secret up front so a bad secret fails at startup.
func NewGenerator(secret string, c clock.Clock) (*Generator, error) {
	key, err := DecodeSecret(secret)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c = clock.Real()
	}
	return &Generator{key: key, clock: c}, nil
}

// Code returns the code for the current window.
func (g *Generator) Code(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	now := g.clock.Now()
	return formatCode(GenerateHOTP(g.key, uint64(now.Unix())/uint64(Period/time.Second))), nil
}
