package login_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/inboxshot/pkg/agent"
	"github.com/dmitrymomot/inboxshot/pkg/browser/browsertest"
	"github.com/dmitrymomot/inboxshot/pkg/sms"
	"github.com/dmitrymomot/inboxshot/svc/login"
	"github.com/dmitrymomot/inboxshot/svc/mailbox"
)

const testSecret = "JBSWY3DPEHPK3PXP"

var start = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func profile(t *testing.T, c mailbox.Client) mailbox.Profile {
	t.Helper()
	p, err := mailbox.ProfileFor(c)
	require.NoError(t, err)
	return p
}

func creds(c mailbox.Client) login.Credentials {
	return login.Credentials{
		Username:   string(c) + "@example.com",
		Password:   "pw-" + string(c),
		TOTPSecret: testSecret,
		Phone:      "+15550100",
	}
}

func fullConfig() login.Config {
	return login.Config{
		Gmail:         creds(mailbox.Gmail),
		Outlook:       creds(mailbox.Outlook),
		Yahoo:         creds(mailbox.Yahoo),
		AOL:           creds(mailbox.AOL),
		ICloud:        creds(mailbox.ICloud),
		CheckTimeout:  time.Second,
		StepTimeout:   time.Second,
		MarkerTimeout: time.Second,
		MFAAttempts:   3,
		MFARetryDelay: 30 * time.Second,
	}
}

// loginPage scripts the provider's form flow. rejections is how many codes are refused
// before one is accepted.
func loginPage(t *testing.T, c mailbox.Client, rejections int) *browsertest.Page {
	sel := profile(t, c).Selectors
	page := browsertest.NewPage().Show(sel.Identity, sel.IdentityNext)

	var (
		mu      sync.Mutex
		submits int
		codes   int
	)
	onIdentityOrPassword := func(p *browsertest.Page) {
		mu.Lock()
		submits++
		n := submits
		mu.Unlock()
		if n == 1 {
			p.Show(sel.Password, sel.PasswordNext)
			return
		}
		p.Show(sel.MFACode)
		if sel.MFASubmit != "" {
			p.Show(sel.MFASubmit)
		}
	}
	// some providers reuse one button for both steps, so the hooks share a counter
	page.On("click:"+sel.IdentityNext, onIdentityOrPassword)
	page.On("click:"+sel.PasswordNext, onIdentityOrPassword)

	onCode := func(p *browsertest.Page) {
		mu.Lock()
		codes++
		n := codes
		mu.Unlock()
		if n <= rejections {
			p.Show(sel.MFAError)
			return
		}
		p.Hide(sel.MFAError, sel.MFACode).Show(sel.Marker)
	}
	if sel.MFASubmit != "" {
		page.On("click:"+sel.MFASubmit, onCode)
	}
	return page
}

func actionsWithPrefix(p *browsertest.Page, prefix string) []string {
	var out []string
	for _, a := range p.Actions() {
		if strings.HasPrefix(a, prefix) {
			out = append(out, a)
		}
	}
	return out
}

type smsInbox struct {
	mu    sync.Mutex
	calls int
	// arrives is the list call from which the fresh code is visible; zero never.
	arrives int
	body    string
}

func (s *smsInbox) ListMessages(ctx context.Context, to string, limit int) ([]sms.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	msgs := []sms.Message{{SID: "SM-old", Body: "Your Apple ID Code is: 111111"}}
	if s.arrives > 0 && s.calls >= s.arrives {
		msgs = append([]sms.Message{{SID: "SM-new", Body: s.body}}, msgs...)
	}
	return msgs, nil
}

type fakeAgent struct {
	mu    sync.Mutex
	calls []agent.Instruction
	run   func(in agent.Instruction) error
}

func (a *fakeAgent) Execute(ctx context.Context, in agent.Instruction) (agent.Result, error) {
	a.mu.Lock()
	a.calls = append(a.calls, in)
	a.mu.Unlock()
	if a.run != nil {
		if err := a.run(in); err != nil {
			return agent.Result{}, err
		}
	}
	return agent.Result{Steps: 1}, nil
}

func (a *fakeAgent) Calls() []agent.Instruction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]agent.Instruction(nil), a.calls...)
}
