package statemachine

import (
	"context"
)

// State represents a state in the state machine.
type State interface {
	Name() string
}

// Event represents an event that can trigger a state transition.
type Event interface {
	Name() string
}

// Action executes side effects during a transition. Returning an error aborts the transition.
type Action func(ctx context.Context, from, to State, event Event, data any) error

// Guard decides whether a transition may proceed.
type Guard func(ctx context.Context, from State, event Event, data any) bool

// Observer is notified after a transition completed. It runs outside the machine lock
// and may read Current, but must not call Fire synchronously.
type Observer func(ctx context.Context, from, to State, event Event)

// Transition defines a state change triggered by an event.
type Transition struct {
	From    State
	To      State
	Event   Event
	Guards  []Guard  // All must pass for transition to proceed
	Actions []Action // Executed in order before state change
}

// StateMachine defines the core finite state machine operations.
type StateMachine interface {
	Current() State
	AddTransition(from, to State, event Event, guards []Guard, actions []Action) error
	Fire(ctx context.Context, event Event, data any) error
	CanFire(ctx context.Context, event Event, data any) bool
	Observe(fn Observer)
	Reset() error
}

// AnyState matches every current state. Transitions registered from it are
// consulted only when the current state has no transition for the event.
const AnyState = StringState("*")

// StringState is a string-based State.
type StringState string

func (s StringState) Name() string {
	return string(s)
}

// StringEvent is a string-based Event.
type StringEvent string

func (e StringEvent) Name() string {
	return string(e)
}
