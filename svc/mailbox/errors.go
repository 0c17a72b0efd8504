package mailbox

import "errors"

// Pipeline error taxonomy. Steps wrap causes with these so callers can use errors.Is.
var (
	// ErrConfiguration is a missing secret or credential. Fatal at startup.
	ErrConfiguration = errors.New("mailbox: configuration error")
	// ErrSessionMissing means no cached state exists for the combination.
	ErrSessionMissing = errors.New("mailbox: cached session missing")
	// ErrSessionStale means the cached state no longer reaches the mailbox.
	ErrSessionStale = errors.New("mailbox: cached session stale")
	ErrLoginFailed  = errors.New("mailbox: login failed")
	// ErrEmailNotFound means the locate loop ran out of time.
	ErrEmailNotFound = errors.New("mailbox: email not found")
	ErrCapture       = errors.New("mailbox: capture failed")
	// ErrUpstreamService wraps failures of the browser host, the agent or the SMS provider.
	ErrUpstreamService = errors.New("mailbox: upstream service error")
	// ErrManualIntervention means an operator has to finish the login.
	ErrManualIntervention = errors.New("mailbox: manual intervention required")
	ErrUnknownClient      = errors.New("mailbox: unknown client")
	ErrUnknownEngine      = errors.New("mailbox: unknown engine")
)
