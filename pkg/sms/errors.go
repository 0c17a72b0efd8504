package sms

import "errors"

var (
	ErrNoCode          = errors.New("sms: no verification code received")
	ErrMissingAccount  = errors.New("sms: twilio account sid is required")
	ErrMissingToken    = errors.New("sms: twilio auth token is required")
	ErrMissingNumber   = errors.New("sms: receiving number is required")
	ErrFailedToListSMS = errors.New("sms: failed to list messages")
)
