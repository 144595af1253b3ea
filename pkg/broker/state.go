package broker

import (
	"github.com/dmitrymomot/fanout/pkg/statemachine"
)

// Connection states.
const (
	StateDisabled     = statemachine.StringState("disabled")
	StateDisconnected = statemachine.StringState("disconnected")
	StateConnecting   = statemachine.StringState("connecting")
	StateConnected    = statemachine.StringState("connected")
	StateError        = statemachine.StringState("error")
	StateClosed       = statemachine.StringState("closed")
	StateReconnecting = statemachine.StringState("reconnecting")
)

// Lifecycle signals driving the connection state.
const (
	eventConnect         = statemachine.StringEvent("connect")
	eventConnected       = statemachine.StringEvent("connected")
	eventConnectFailed   = statemachine.StringEvent("connect_failed")
	eventSubscribeFailed = statemachine.StringEvent("subscribe_failed")
	eventLinkError       = statemachine.StringEvent("link_error")
	eventLinkClosed      = statemachine.StringEvent("link_closed")
	eventRetry           = statemachine.StringEvent("retry")
	eventShutdown        = statemachine.StringEvent("shutdown")
)

var transitions = []statemachine.TransitionDef{
	{From: StateDisconnected, To: StateConnecting, Event: eventConnect},
	{From: StateReconnecting, To: StateConnecting, Event: eventConnect},
	{From: StateConnecting, To: StateConnected, Event: eventConnected},
	{From: StateConnecting, To: StateError, Event: eventConnectFailed},
	{From: StateConnected, To: StateDisconnected, Event: eventSubscribeFailed},
	{From: StateConnected, To: StateError, Event: eventLinkError},
	{From: StateConnected, To: StateClosed, Event: eventLinkClosed},
	{From: StateError, To: StateReconnecting, Event: eventRetry},
	{From: StateClosed, To: StateReconnecting, Event: eventRetry},
	{From: StateDisconnected, To: StateReconnecting, Event: eventRetry},
	{From: statemachine.AnyState, To: StateClosed, Event: eventShutdown},
}

// newConnectionFSM builds the connection state machine. A disabled adapter
// gets a machine with no transitions, so it can never leave StateDisabled.
func newConnectionFSM(disabled bool, observer statemachine.Observer) statemachine.StateMachine {
	if disabled {
		return statemachine.MustNew(StateDisabled, statemachine.WithObserver(observer))
	}
	return statemachine.MustNew(StateDisconnected,
		statemachine.WithTransitions(transitions),
		statemachine.WithObserver(observer),
	)
}
