package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Guard evaluates whether a transition should be allowed based on runtime conditions.
type Guard[S, E comparable] func(ctx context.Context, from S, event E, data any) bool

// Action executes side effects during a transition. Returning an error prevents the transition.
type Action[S, E comparable] func(ctx context.Context, from, to S, event E, data any) error

// Observer is notified after every committed transition.
type Observer[S, E comparable] func(ctx context.Context, from, to S, event E)

// Transition defines a state change triggered by an event, with optional guards and actions.
type Transition[S, E comparable] struct {
	From    S
	To      S
	Event   E
	Guards  []Guard[S, E]  // All must pass for transition to proceed
	Actions []Action[S, E] // Executed in order before state change
}

// Machine is a thread-safe in-memory finite state machine.
// Transitions are stored as [from][event][]Transition; the first one whose guards pass wins.
type Machine[S, E comparable] struct {
	mu          sync.RWMutex
	initial     S
	current     S
	transitions map[S]map[E][]Transition[S, E]
	final       map[S]struct{}
	observers   []Observer[S, E]
	history     []S
}

// Current returns the state the machine is in.
func (m *Machine[S, E]) Current() S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// IsFinal reports whether the current state is terminal.
func (m *Machine[S, E]) IsFinal() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.final[m.current]
	return ok
}

// History returns every state visited, starting with the initial one.
func (m *Machine[S, E]) History() []S {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]S, len(m.history))
	copy(out, m.history)
	return out
}

func (m *Machine[S, E]) addTransition(t Transition[S, E]) {
	if _, ok := m.transitions[t.From]; !ok {
		m.transitions[t.From] = make(map[E][]Transition[S, E])
	}
	// Multiple transitions allowed for same from/event to support guard-based branching
	m.transitions[t.From][t.Event] = append(m.transitions[t.From][t.Event], t)
}

// Fire applies event to the current state.
func (m *Machine[S, E]) Fire(ctx context.Context, event E, data any) error {
	m.mu.Lock()

	from := m.current
	if _, ok := m.final[from]; ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %v", ErrFinalState, from)
	}

	t, err := m.match(ctx, from, event, data)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	for _, action := range t.Actions {
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.current = t.To
	m.history = append(m.history, t.To)
	observers := m.observers
	m.mu.Unlock()

	for _, o := range observers {
		o(ctx, from, t.To, event)
	}
	return nil
}

// CanFire reports whether event would be accepted in the current state.
func (m *Machine[S, E]) CanFire(ctx context.Context, event E, data any) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if _, ok := m.final[m.current]; ok {
		return false
	}
	_, err := m.match(ctx, m.current, event, data)
	return err == nil
}

// Reset returns the machine to its initial state and clears the history.
func (m *Machine[S, E]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.initial
	m.history = []S{m.initial}
}

func (m *Machine[S, E]) match(ctx context.Context, from S, event E, data any) (*Transition[S, E], error) {
	transitions := m.transitions[from][event]
	if len(transitions) == 0 {
		return nil, &NoTransitionError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
	}

	for i, t := range transitions {
		passed := true
		for _, guard := range t.Guards {
			if !guard(ctx, from, event, data) {
				passed = false
				break
			}
		}
		if passed {
			return &transitions[i], nil
		}
	}

	return nil, &RejectedError{State: fmt.Sprint(from), Event: fmt.Sprint(event)}
}
