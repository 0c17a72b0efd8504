package sms

import (
	"context"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/dmitrymomot/inboxshot/pkg/clock"
	"github.com/dmitrymomot/inboxshot/pkg/logger"
)

const listLimit = 20

// DefaultPattern matches a standalone six digit code.
var DefaultPattern = regexp.MustCompile(`\b\d{6}\b`)

// Poller waits for a verification code to arrive at a phone number.
// Messages present when Mark is called are never treated as new codes.
type Poller struct {
	lister   Lister
	to       string
	clock    clock.Clock
	interval time.Duration
	timeout  time.Duration
	pattern  *regexp.Regexp
	log      *slog.Logger

	mu   sync.Mutex
	seen map[string]bool
}

// PollerOption configures a Poller.
type PollerOption func(*Poller)

func WithClock(c clock.Clock) PollerOption {
	return func(p *Poller) {
		if c != nil {
			p.clock = c
		}
	}
}

func WithInterval(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.interval = d
		}
	}
}

func WithTimeout(d time.Duration) PollerOption {
	return func(p *Poller) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func WithPattern(re *regexp.Regexp) PollerOption {
	return func(p *Poller) {
		if re != nil {
			p.pattern = re
		}
	}
}

func WithLogger(l *slog.Logger) PollerOption {
	return func(p *Poller) {
		if l != nil {
			p.log = l
		}
	}
}

// NewPoller returns a Poller for messages sent to the number to.
func NewPoller(lister Lister, to string, opts ...PollerOption) (*Poller, error) {
	if to == "" {
		return nil, ErrMissingNumber
	}
	p := &Poller{
		lister:   lister,
		to:       to,
		clock:    clock.Real(),
		interval: 3 * time.Second,
		timeout:  60 * time.Second,
		pattern:  DefaultPattern,
		log:      slog.Default(),
		seen:     make(map[string]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Mark records the messages already in the inbox. Call it before triggering a code.
func (p *Poller) Mark(ctx context.Context) error {
	msgs, err := p.lister.ListMessages(ctx, p.to, listLimit)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		p.seen[m.SID] = true
	}
	return nil
}

// Code polls until a new message containing a code arrives or the timeout passes.
// A consumed message is marked seen so the next call waits for a fresh one.
func (p *Poller) Code(ctx context.Context) (string, error) {
	deadline := p.clock.Now().Add(p.timeout)
	for {
		msgs, err := p.lister.ListMessages(ctx, p.to, listLimit)
		if err != nil {
			// Transient API failures are retried until the deadline.
			p.log.WarnContext(ctx, "failed to list sms", logger.Error(err))
		}
		if code, ok := p.take(msgs); ok {
			return code, nil
		}

		if p.clock.Now().Add(p.interval).After(deadline) {
			return "", ErrNoCode
		}
		if err := p.clock.Sleep(ctx, p.interval); err != nil {
			return "", err
		}
	}
}

func (p *Poller) take(msgs []Message) (string, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, m := range msgs {
		if p.seen[m.SID] {
			continue
		}
		p.seen[m.SID] = true
		if code := p.pattern.FindString(m.Body); code != "" {
			return code, true
		}
	}
	return "", false
}
