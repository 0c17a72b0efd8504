// Package sms receives verification codes sent by text message to a Twilio number.
//
//	lister, err := sms.NewTwilio(cfg)
//	poller, err := sms.NewPoller(lister, "+15550100", sms.WithTimeout(cfg.PollTimeout))
//	_ = poller.Mark(ctx) // ignore codes that arrived before this login
//	// ... trigger the code ...
//	code, err := poller.Code(ctx)
//
// Code returns ErrNoCode when nothing arrives before the timeout.
package sms
