// Package login signs browser pages in to webmail providers.
//
// Orchestrator.EnsureLoggedIn first looks for the provider's mailbox marker, then tries
// cookies from the session cache, and only then runs the provider's Strategy from the
// Registry. A failing strategy falls back to the instruction-following agent when one
// is configured. Each attempt is tracked by a state machine:
//
//	not_checked -> already_logged_in
//	not_checked -> needs_login -> credentials_submitted -> mfa_required <-> code_rejected
//	any of the above -> success | failed
//
// FormStrategy submits up to three codes, waiting 30 seconds after a rejection so the
// next TOTP code comes from a new window. SMS providers poll Twilio for the code and
// report mailbox.ErrManualIntervention when none arrives.
package login
