package login

import (
	"context"

	"github.com/dmitrymomot/inboxshot/pkg/statemachine"
)

// State is a step of one login attempt.
type State string

const (
	NotChecked           State = "not_checked"
	AlreadyLoggedIn      State = "already_logged_in"
	NeedsLogin           State = "needs_login"
	CredentialsSubmitted State = "credentials_submitted"
	MFARequired          State = "mfa_required"
	CodeRejected         State = "code_rejected"
	Success              State = "success"
	Failed               State = "failed"
)

// Event moves a login attempt between states.
type Event string

const (
	EventMarkerFound          Event = "marker_found"
	EventMarkerMissing        Event = "marker_missing"
	EventSessionRestored      Event = "session_restored"
	EventCredentialsSubmitted Event = "credentials_submitted"
	EventMFAPrompted          Event = "mfa_prompted"
	EventCodeRejected         Event = "code_rejected"
	EventCodeRetry            Event = "code_retry"
	EventFail                 Event = "fail"
)

// Machine tracks one login attempt.
type Machine = statemachine.Machine[State, Event]

// NewMachine returns a machine in NotChecked. A strategy that gives up midway leaves the
// machine wherever it stopped; the final marker check then moves it to Success or Failed.
func NewMachine(opts ...statemachine.Option[State, Event]) *Machine {
	base := []statemachine.Option[State, Event]{
		statemachine.WithTransition[State, Event](NotChecked, AlreadyLoggedIn, EventMarkerFound),
		statemachine.WithTransition[State, Event](NotChecked, NeedsLogin, EventMarkerMissing),
		statemachine.WithTransition[State, Event](NeedsLogin, AlreadyLoggedIn, EventSessionRestored),
		statemachine.WithTransition[State, Event](NeedsLogin, CredentialsSubmitted, EventCredentialsSubmitted),
		statemachine.WithTransition[State, Event](CredentialsSubmitted, MFARequired, EventMFAPrompted),
		statemachine.WithTransition[State, Event](MFARequired, CodeRejected, EventCodeRejected),
		statemachine.WithTransition[State, Event](CodeRejected, MFARequired, EventCodeRetry),
		statemachine.WithFinal[State, Event](AlreadyLoggedIn, Success, Failed),
	}
	for _, s := range []State{NeedsLogin, CredentialsSubmitted, MFARequired, CodeRejected} {
		base = append(base,
			statemachine.WithTransition[State, Event](s, Success, EventMarkerFound),
			statemachine.WithTransition[State, Event](s, Failed, EventFail),
		)
	}
	base = append(base, statemachine.WithTransition[State, Event](NotChecked, Failed, EventFail))
	return statemachine.New[State, Event](NotChecked, append(base, opts...)...)
}

type machineKey struct{}

func withMachine(ctx context.Context, m *Machine) context.Context {
	return context.WithValue(ctx, machineKey{}, m)
}

// advance fires event on the attempt's machine when the event applies to its current
// state. Strategies run outside an orchestrator too, so a missing machine is fine.
func advance(ctx context.Context, event Event) {
	m, ok := ctx.Value(machineKey{}).(*Machine)
	if !ok || m == nil {
		return
	}
	if m.CanFire(ctx, event, nil) {
		_ = m.Fire(ctx, event, nil)
	}
}
