// Package statemachine implements a small, concurrency-safe finite state machine.
//
// States and events are anything with a Name method; StringState and
// StringEvent cover the common case. Transitions may carry guards (all must
// pass) and actions (run in order before the state changes; an error aborts
// the transition). Observers run after a transition completes, outside the
// machine lock, which makes them the place to mirror the state into an
// atomic or to log it.
//
// Transitions registered from AnyState act as a fallback for events the
// current state does not handle itself, e.g. "shutdown from anywhere".
//
// # Usage
//
//	const (
//	    Idle    = statemachine.StringState("idle")
//	    Running = statemachine.StringState("running")
//	    Stopped = statemachine.StringState("stopped")
//
//	    Start = statemachine.StringEvent("start")
//	    Stop  = statemachine.StringEvent("stop")
//	)
//
//	sm := statemachine.MustNew(Idle,
//	    statemachine.WithTransition(Idle, Running, Start),
//	    statemachine.WithTransition(statemachine.AnyState, Stopped, Stop),
//	    statemachine.WithObserver(func(ctx context.Context, from, to statemachine.State, ev statemachine.Event) {
//	        log.Printf("%s -> %s on %s", from.Name(), to.Name(), ev.Name())
//	    }),
//	)
//
//	if err := sm.Fire(ctx, Start, nil); err != nil {
//	    if statemachine.IsNoTransitionAvailableError(err) {
//	        // event not valid in current state
//	    }
//	}
package statemachine
