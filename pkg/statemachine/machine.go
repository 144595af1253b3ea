package statemachine

import (
	"context"
	"fmt"
	"sync"
)

// Machine is a thread-safe in-memory state machine.
// Transitions are indexed as [fromState][event][]Transition.
type Machine struct {
	initialState State
	currentState State
	transitions  map[string]map[string][]Transition
	observers    []Observer
	mu           sync.RWMutex
}

func newMachine(initialState State) *Machine {
	return &Machine{
		initialState: initialState,
		currentState: initialState,
		transitions:  make(map[string]map[string][]Transition),
	}
}

func (m *Machine) Current() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentState
}

func (m *Machine) AddTransition(from, to State, event Event, guards []Guard, actions []Action) error {
	if from == nil || to == nil || event == nil {
		return ErrInvalidTransition
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	byEvent, ok := m.transitions[from.Name()]
	if !ok {
		byEvent = make(map[string][]Transition)
		m.transitions[from.Name()] = byEvent
	}

	// Several transitions per from/event pair allow guard-based branching; the first passing one wins.
	byEvent[event.Name()] = append(byEvent[event.Name()], Transition{
		From:    from,
		To:      to,
		Event:   event,
		Guards:  guards,
		Actions: actions,
	})
	return nil
}

// Observe registers fn to run after every completed transition.
func (m *Machine) Observe(fn Observer) {
	if fn == nil {
		return
	}
	m.mu.Lock()
	m.observers = append(m.observers, fn)
	m.mu.Unlock()
}

func (m *Machine) Fire(ctx context.Context, event Event, data any) error {
	if event == nil {
		return ErrInvalidEvent
	}

	m.mu.Lock()
	from := m.currentState
	candidates := m.candidates(from, event)
	if len(candidates) == 0 {
		m.mu.Unlock()
		return NewErrNoTransitionAvailable(from.Name(), event.Name())
	}

	t := m.firstAllowed(ctx, candidates, from, event, data)
	if t == nil {
		m.mu.Unlock()
		return NewErrTransitionRejected(from.Name(), event.Name())
	}

	for _, action := range t.Actions {
		if action == nil {
			continue
		}
		if err := action(ctx, from, t.To, event, data); err != nil {
			m.mu.Unlock()
			return fmt.Errorf("action failed: %w", err)
		}
	}

	m.currentState = t.To
	observers := m.observers
	m.mu.Unlock()

	for _, fn := range observers {
		fn(ctx, from, t.To, event)
	}
	return nil
}

func (m *Machine) CanFire(ctx context.Context, event Event, data any) bool {
	if event == nil {
		return false
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	candidates := m.candidates(m.currentState, event)
	return m.firstAllowed(ctx, candidates, m.currentState, event, data) != nil
}

func (m *Machine) Reset() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.currentState = m.initialState
	return nil
}

// candidates must be called with m.mu held.
func (m *Machine) candidates(from State, event Event) []Transition {
	if ts := m.transitions[from.Name()][event.Name()]; len(ts) > 0 {
		return ts
	}
	return m.transitions[AnyState.Name()][event.Name()]
}

func (m *Machine) firstAllowed(ctx context.Context, ts []Transition, from State, event Event, data any) *Transition {
	for i := range ts {
		allowed := true
		for _, guard := range ts[i].Guards {
			if guard != nil && !guard(ctx, from, event, data) {
				allowed = false
				break
			}
		}
		if allowed {
			return &ts[i]
		}
	}
	return nil
}
