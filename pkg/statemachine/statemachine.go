package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// State is a named state.
type State string

func (s State) Name() string { return string(s) }

// Event triggers a transition between states.
type Event string

func (e Event) Name() string { return string(e) }

// Guard evaluates whether a transition is allowed under runtime conditions.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Action runs side effects during a transition. An error aborts the
// transition before the target state is reported.
type Action func(ctx context.Context, from, to State, event Event, data any) error

type transition struct {
	to      State
	guards  []Guard
	actions []Action
}

// Machine is a transition table shared by many entities: callers pass the
// entity's current state on every Fire instead of the machine tracking one
// current state. This fits lifecycle governance over database rows, where
// thousands of tenants share one set of rules.
type Machine struct {
	mu          sync.RWMutex
	transitions map[State]map[Event][]transition
}

// New creates an empty machine.
func New() *Machine {
	return &Machine{transitions: make(map[State]map[Event][]transition)}
}

// AddTransition registers a transition from -> to on event, with optional
// guards and actions. Multiple transitions for the same from/event pair are
// tried in registration order; the first one whose guards all pass wins.
func (m *Machine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == "" || to == "" || event == "" {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.transitions[from]; !ok {
		m.transitions[from] = make(map[Event][]transition)
	}
	m.transitions[from][event] = append(m.transitions[from][event], transition{to: to, guards: guards, actions: actions})
	return nil
}

// Fire attempts the transition for event starting at from and returns the
// resulting state. Actions run before the new state is reported; an action
// error aborts the transition.
func (m *Machine) Fire(ctx context.Context, from State, event Event, data any) (State, error) {
	if event == "" {
		return from, ErrInvalidEvent
	}

	m.mu.RLock()
	candidates := m.transitions[from][event]
	m.mu.RUnlock()

	if len(candidates) == 0 {
		return from, NewErrNoTransitionAvailable(from.Name(), event.Name())
	}

	var chosen *transition
	for i := range candidates {
		if guardsPass(ctx, candidates[i].guards, from, event, data) {
			chosen = &candidates[i]
			break
		}
	}
	if chosen == nil {
		return from, NewErrTransitionRejected(from.Name(), event.Name())
	}

	for _, action := range chosen.actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, chosen.to, event, data); err != nil {
			return from, fmt.Errorf("transition action: %w", err)
		}
	}
	return chosen.to, nil
}

// CanFire reports whether Fire would succeed for event starting at from,
// without running any actions.
func (m *Machine) CanFire(ctx context.Context, from State, event Event, data any) bool {
	if event == "" {
		return false
	}

	m.mu.RLock()
	candidates := m.transitions[from][event]
	m.mu.RUnlock()

	for i := range candidates {
		if guardsPass(ctx, candidates[i].guards, from, event, data) {
			return true
		}
	}
	return false
}

func guardsPass(ctx context.Context, guards []Guard, from State, event Event, data any) bool {
	for _, guard := range guards {
		if guard != nil && !guard(ctx, from, event, data) {
			return false
		}
	}
	return true
}
