package sms

import (
	"context"
	"errors"

	"github.com/twilio/twilio-go"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// Message is a received text message.
type Message struct {
	SID  string
	From string
	Body string
}

// Lister returns the most recent messages sent to a number, newest first.
type Lister interface {
	ListMessages(ctx context.Context, to string, limit int) ([]Message, error)
}

// Twilio lists inbound messages through the Twilio REST API.
type Twilio struct {
	client *twilio.RestClient
}

var _ Lister = (*Twilio)(nil)

// NewTwilio returns a Lister for the account in cfg.
func NewTwilio(cfg Config) (*Twilio, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: cfg.AccountSID,
		Password: cfg.AuthToken,
	})
	return &Twilio{client: client}, nil
}

func (t *Twilio) ListMessages(ctx context.Context, to string, limit int) ([]Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	params := &openapi.ListMessageParams{}
	params.SetTo(to)
	params.SetLimit(limit)

	resp, err := t.client.Api.ListMessage(params)
	if err != nil {
		return nil, errors.Join(ErrFailedToListSMS, err)
	}

	out := make([]Message, 0, len(resp))
	for _, m := range resp {
		out = append(out, Message{
			SID:  deref(m.Sid),
			From: deref(m.From),
			Body: deref(m.Body),
		})
	}
	return out, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
