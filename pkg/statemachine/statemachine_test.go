package statemachine_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrymomot/fanout/pkg/statemachine"
)

const (
	Disconnected = statemachine.StringState("disconnected")
	Connecting   = statemachine.StringState("connecting")
	Connected    = statemachine.StringState("connected")
	Failed       = statemachine.StringState("error")
	Closed       = statemachine.StringState("closed")

	Dial     = statemachine.StringEvent("dial")
	Up       = statemachine.StringEvent("up")
	Fail     = statemachine.StringEvent("fail")
	Shutdown = statemachine.StringEvent("shutdown")
)

func TestStateMachine(t *testing.T) {
	t.Parallel()

	t.Run("Basic Transitions", func(t *testing.T) {
		t.Parallel()
		sm := statemachine.MustNew(Disconnected,
			statemachine.WithTransition(Disconnected, Connecting, Dial),
			statemachine.WithTransition(Connecting, Connected, Up),
		)
		ctx := context.Background()

		if sm.Current() != Disconnected {
			t.Fatalf("Expected initial state %s, got %s", Disconnected, sm.Current())
		}
		if !sm.CanFire(ctx, Dial, nil) {
			t.Fatal("Expected CanFire(Dial) in Disconnected")
		}
		if sm.CanFire(ctx, Up, nil) {
			t.Fatal("Expected CanFire(Up) to be false in Disconnected")
		}
		if err := sm.Fire(ctx, Dial, nil); err != nil {
			t.Fatalf("Fire(Dial): %v", err)
		}
		if err := sm.Fire(ctx, Up, nil); err != nil {
			t.Fatalf("Fire(Up): %v", err)
		}
		if sm.Current() != Connected {
			t.Fatalf("Expected %s, got %s", Connected, sm.Current())
		}
		if err := sm.Reset(); err != nil {
			t.Fatalf("Reset: %v", err)
		}
		if sm.Current() != Disconnected {
			t.Fatalf("Expected %s after reset, got %s", Disconnected, sm.Current())
		}
	})

	t.Run("No Transition", func(t *testing.T) {
		t.Parallel()
		sm := statemachine.MustNew(Disconnected)

		err := sm.Fire(context.Background(), Up, nil)
		if !statemachine.IsNoTransitionAvailableError(err) {
			t.Fatalf("Expected ErrNoTransitionAvailable, got %v", err)
		}
		if !strings.Contains(err.Error(), "disconnected") {
			t.Fatalf("Expected state name in error, got %q", err.Error())
		}
		if err := sm.Fire(context.Background(), nil, nil); !errors.Is(err, statemachine.ErrInvalidEvent) {
			t.Fatalf("Expected ErrInvalidEvent, got %v", err)
		}
	})

	t.Run("Guards", func(t *testing.T) {
		t.Parallel()
		allowed := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
			ok, _ := data.(bool)
			return ok
		}
		sm := statemachine.MustNew(Disconnected,
			statemachine.WithTransition(Disconnected, Connecting, Dial, statemachine.WithGuard(allowed)),
		)
		ctx := context.Background()

		err := sm.Fire(ctx, Dial, false)
		if !statemachine.IsTransitionRejectedError(err) {
			t.Fatalf("Expected ErrTransitionRejected, got %v", err)
		}
		if sm.CanFire(ctx, Dial, false) {
			t.Fatal("Expected CanFire to honour guard")
		}
		if err := sm.Fire(ctx, Dial, true); err != nil {
			t.Fatalf("Fire with passing guard: %v", err)
		}
	})

	t.Run("Guard Branching", func(t *testing.T) {
		t.Parallel()
		isUp := func(_ context.Context, _ statemachine.State, _ statemachine.Event, data any) bool {
			return data == "up"
		}
		sm := statemachine.MustNew(Connecting,
			statemachine.WithTransition(Connecting, Connected, Up, statemachine.WithGuard(isUp)),
			statemachine.WithTransition(Connecting, Failed, Up),
		)
		if err := sm.Fire(context.Background(), Up, "down"); err != nil {
			t.Fatalf("Fire: %v", err)
		}
		if sm.Current() != Failed {
			t.Fatalf("Expected fallback branch %s, got %s", Failed, sm.Current())
		}
	})

	t.Run("Action Failure Aborts", func(t *testing.T) {
		t.Parallel()
		boom := errors.New("boom")
		sm := statemachine.MustNew(Disconnected,
			statemachine.WithTransition(Disconnected, Connecting, Dial,
				statemachine.WithAction(func(context.Context, statemachine.State, statemachine.State, statemachine.Event, any) error {
					return boom
				}),
			),
		)
		err := sm.Fire(context.Background(), Dial, nil)
		if !errors.Is(err, boom) {
			t.Fatalf("Expected wrapped action error, got %v", err)
		}
		if sm.Current() != Disconnected {
			t.Fatalf("State must not change when an action fails, got %s", sm.Current())
		}
	})

	t.Run("Any State Fallback", func(t *testing.T) {
		t.Parallel()
		sm := statemachine.MustNew(Connected,
			statemachine.WithTransition(Connected, Failed, Fail),
			statemachine.WithTransition(statemachine.AnyState, Closed, Shutdown),
			statemachine.WithTransition(statemachine.AnyState, Disconnected, Fail),
		)
		ctx := context.Background()

		if err := sm.Fire(ctx, Fail, nil); err != nil {
			t.Fatalf("Fire(Fail): %v", err)
		}
		if sm.Current() != Failed {
			t.Fatalf("Specific transition must win over AnyState, got %s", sm.Current())
		}
		if err := sm.Fire(ctx, Shutdown, nil); err != nil {
			t.Fatalf("Fire(Shutdown): %v", err)
		}
		if sm.Current() != Closed {
			t.Fatalf("Expected %s, got %s", Closed, sm.Current())
		}
	})

	t.Run("Observers", func(t *testing.T) {
		t.Parallel()
		var seen []string
		var sm statemachine.StateMachine
		sm = statemachine.MustNew(Disconnected,
			statemachine.WithTransition(Disconnected, Connecting, Dial),
			statemachine.WithObserver(func(_ context.Context, from, to statemachine.State, ev statemachine.Event) {
				// Reading Current from an observer must not deadlock.
				seen = append(seen, from.Name()+">"+to.Name()+":"+ev.Name()+"="+sm.Current().Name())
			}),
		)
		if err := sm.Fire(context.Background(), Dial, nil); err != nil {
			t.Fatalf("Fire: %v", err)
		}
		_ = sm.Fire(context.Background(), Up, nil)

		if len(seen) != 1 || seen[0] != "disconnected>connecting:dial=connecting" {
			t.Fatalf("Unexpected observer calls: %v", seen)
		}
	})

	t.Run("Invalid Construction", func(t *testing.T) {
		t.Parallel()
		if _, err := statemachine.New(nil); !errors.Is(err, statemachine.ErrNilInitialState) {
			t.Fatalf("Expected ErrNilInitialState, got %v", err)
		}
		_, err := statemachine.New(Disconnected, statemachine.WithTransitions([]statemachine.TransitionDef{
			{From: Disconnected, To: Connecting, Event: Dial},
			{From: Connecting, Event: Up},
		}))
		if !errors.Is(err, statemachine.ErrInvalidTransition) {
			t.Fatalf("Expected ErrInvalidTransition, got %v", err)
		}
		if !strings.Contains(err.Error(), "transition[1] connecting-><nil> on up") {
			t.Fatalf("Unexpected error text: %q", err.Error())
		}
		defer func() {
			if recover() == nil {
				t.Fatal("Expected MustNew to panic")
			}
		}()
		statemachine.MustNew(nil)
	})

	t.Run("Concurrent Fire", func(t *testing.T) {
		t.Parallel()
		sm := statemachine.MustNew(Disconnected,
			statemachine.WithTransition(Disconnected, Connecting, Dial),
		)
		var wg sync.WaitGroup
		var mu sync.Mutex
		wins := 0
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if err := sm.Fire(context.Background(), Dial, nil); err == nil {
					mu.Lock()
					wins++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()
		if wins != 1 {
			t.Fatalf("Expected exactly one winning Fire, got %d", wins)
		}
	})
}
