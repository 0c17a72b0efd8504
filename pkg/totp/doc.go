// Package totp generates RFC 6238 one-time codes (HMAC-SHA1, 6 digits,
// 30-second windows) from the Base32 secrets mailbox providers hand out when
// an authenticator app is enrolled.
//
//	gen, err := totp.NewGenerator(os.Getenv("GMAIL_TOTP_SECRET"), clock.Real())
//	if err != nil {
//		return err
//	}
//	code, _ := gen.Code(ctx)
//
// Codes are deterministic for a (secret, window) pair, so a rejected code is
// only worth retrying once the clock has moved into the next window.
package totp
