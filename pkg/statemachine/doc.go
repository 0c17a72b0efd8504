// Package statemachine implements a small generic finite state machine.
//
// States and events are any comparable types, typically string enums:
//
//	type State string
//	type Event string
//
//	m := statemachine.New[State, Event]("not_checked",
//		statemachine.WithTransition[State, Event]("not_checked", "needs_login", "marker_missing"),
//		statemachine.WithFinal[State, Event]("success", "failed"),
//	)
//	if err := m.Fire(ctx, "marker_missing", nil); err != nil {
//		// statemachine.IsNoTransitionError(err) or IsRejectedError(err)
//	}
//
// Transitions for the same (from, event) pair are tried in registration order and the first
// one whose guards all pass is taken. Actions run before the state changes and abort the
// transition on error. Observers run after the change, outside the lock.
//
// Final states are sticky: Fire returns ErrFinalState. History records every visited state,
// which makes the machine convenient for asserting flows in tests.
package statemachine
