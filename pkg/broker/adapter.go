package broker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/dmitrymomot/fanout/pkg/event"
	"github.com/dmitrymomot/fanout/pkg/logger"
	"github.com/dmitrymomot/fanout/pkg/redis"
	"github.com/dmitrymomot/fanout/pkg/statemachine"
)

// Handler receives every well-formed inbound event, one at a time, in the
// order the relay delivered them.
type Handler func(ctx context.Context, ev event.Event) error

// Status is a point-in-time view of the adapter for health reporting.
type Status struct {
	State  string `json:"state"`
	Usable bool   `json:"usable"`
	Reason string `json:"reason,omitempty"`
}

// Adapter relays events through an optional external broker.
//
// It never blocks or fails its callers because of the link: when the broker
// is not connected Publish returns ErrUnavailable immediately, and every link
// failure is absorbed by the supervisor started with Start.
type Adapter struct {
	settings     Settings
	endpoint     redis.Config
	configErr    error
	dial         Dialer
	logger       *slog.Logger
	pingInterval time.Duration

	fsm   statemachine.StateMachine
	state atomic.Value // string

	mu      sync.RWMutex
	link    Link
	handler Handler

	failures chan error
	started  atomic.Bool
}

// Option configures an Adapter.
type Option func(*Adapter)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(a *Adapter) {
		if l != nil {
			a.logger = l
		}
	}
}

// WithDialer replaces the redis dialer, mostly for tests.
func WithDialer(d Dialer) Option {
	return func(a *Adapter) {
		if d != nil {
			a.dial = d
		}
	}
}

// WithPingInterval sets how often a connected link is probed. Defaults to 15s.
func WithPingInterval(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.pingInterval = d
		}
	}
}

// WithHandler sets the inbound event handler.
func WithHandler(h Handler) Option {
	return func(a *Adapter) {
		a.handler = h
	}
}

// New validates settings once. Invalid or disabled settings produce an
// adapter that stays in StateDisabled for its whole life.
func New(settings Settings, opts ...Option) *Adapter {
	a := &Adapter{
		settings:     settings.withDefaults(),
		dial:         DialRedis,
		logger:       slog.Default(),
		pingInterval: 15 * time.Second,
		failures:     make(chan error, 1),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With(logger.Component("broker"))
	a.endpoint, a.configErr = settings.Endpoint()

	disabled := a.configErr != nil
	if disabled {
		a.state.Store(StateDisabled.Name())
	} else {
		a.state.Store(StateDisconnected.Name())
	}
	a.fsm = newConnectionFSM(disabled, a.observe)

	switch {
	case errors.Is(a.configErr, ErrDisabled):
		a.logger.Info("broker relay disabled, running without cross-process fan-out")
	case a.configErr != nil:
		a.logger.Warn("broker relay not configured, running without cross-process fan-out",
			logger.Error(a.configErr))
	}
	return a
}

// OnEvent sets the inbound event handler. It may be called before or after Start.
func (a *Adapter) OnEvent(h Handler) {
	a.mu.Lock()
	a.handler = h
	a.mu.Unlock()
}

// State returns the current connection state name.
func (a *Adapter) State() string {
	return a.state.Load().(string)
}

// IsUsable reports whether events can be relayed right now.
func (a *Adapter) IsUsable() bool {
	return a.State() == StateConnected.Name()
}

// Status returns the state, usability and, for a disabled adapter, the reason.
func (a *Adapter) Status() Status {
	st := Status{State: a.State(), Usable: a.IsUsable()}
	if a.configErr != nil {
		st.Reason = a.configErr.Error()
	}
	return st
}

// Publish relays ev to every process subscribed to its channel, this one included.
//
// It returns ErrUnavailable without any I/O when the broker is not connected,
// and is bounded by the command timeout otherwise. A failed publish makes
// the supervisor drop and re-establish the link.
func (a *Adapter) Publish(ctx context.Context, ev event.Event) error {
	link := a.currentLink()
	if link == nil || !a.IsUsable() {
		return ErrUnavailable
	}

	channel, payload, err := event.Encode(ev)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.settings.CommandTimeout)
	defer cancel()

	if err := link.Publish(ctx, channel, payload); err != nil {
		a.reportFailure(err)
		return errors.Join(ErrPublishFailed, err)
	}
	return nil
}

// Start runs the connection supervisor until ctx is cancelled. It returns
// immediately with nil for a disabled adapter, without touching the network.
func (a *Adapter) Start(ctx context.Context) error {
	if a.configErr != nil {
		return nil
	}
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	defer a.fire(context.WithoutCancel(ctx), eventShutdown)

	bo := a.newBackOff()
	failures := 0
	for {
		connected, err := a.connectAndServe(ctx)
		if ctx.Err() != nil {
			return nil
		}
		if connected {
			bo.Reset()
			failures = 0
		}
		failures++

		delay := bo.NextBackOff()
		a.logger.WarnContext(ctx, "broker link unavailable, retrying",
			logger.Error(err),
			logger.RetryCount(failures),
			logger.Duration(delay),
		)
		if !sleep(ctx, delay) {
			return nil
		}
		a.fire(ctx, eventRetry)
	}
}

// connectAndServe performs one connection lifecycle and reports whether the
// link reached a subscribed state before it ended.
func (a *Adapter) connectAndServe(ctx context.Context) (bool, error) {
	a.fire(ctx, eventConnect)

	link, err := a.dial(ctx, a.endpoint)
	if err != nil {
		a.fire(ctx, eventConnectFailed)
		return false, err
	}
	defer func() {
		if err := link.Close(); err != nil {
			a.logger.DebugContext(ctx, "closing broker link", logger.Error(err))
		}
	}()

	a.setLink(link)
	defer a.setLink(nil)
	a.fire(ctx, eventConnected)

	subCtx, cancel := context.WithTimeout(ctx, a.settings.CommandTimeout)
	sub, err := link.Subscribe(subCtx, event.Channels()...)
	cancel()
	if err != nil {
		a.fire(ctx, eventSubscribeFailed)
		return false, errors.Join(ErrSubscribeFailed, err)
	}
	defer func() { _ = sub.Close() }()
	a.logger.InfoContext(ctx, "subscribed to broker channels", slog.Any("channels", event.Channels()))

	err = a.serve(ctx, link, sub)
	switch {
	case ctx.Err() != nil:
	case errors.Is(err, ErrLinkClosed):
		a.fire(ctx, eventLinkClosed)
	default:
		a.fire(ctx, eventLinkError)
	}
	return true, err
}

// serve dispatches inbound messages until the link fails or ctx ends.
func (a *Adapter) serve(ctx context.Context, link Link, sub Subscription) error {
	ticker := time.NewTicker(a.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-sub.Messages():
			if !ok {
				return ErrLinkClosed
			}
			a.dispatch(ctx, msg)
		case err := <-a.failures:
			return err
		case <-ticker.C:
			pingCtx, cancel := context.WithTimeout(ctx, a.settings.CommandTimeout)
			err := link.Ping(pingCtx)
			cancel()
			if err != nil {
				return err
			}
		}
	}
}

func (a *Adapter) dispatch(ctx context.Context, msg Message) {
	ev, err := event.Decode(msg.Channel, msg.Payload)
	if err != nil {
		a.logger.WarnContext(ctx, "dropping malformed broker message",
			logger.Channel(msg.Channel),
			logger.Error(err),
		)
		return
	}

	a.mu.RLock()
	h := a.handler
	a.mu.RUnlock()
	if h == nil {
		return
	}
	if err := h(ctx, ev); err != nil {
		a.logger.WarnContext(ctx, "handling broker event",
			logger.Channel(msg.Channel),
			logger.Error(err),
		)
	}
}

func (a *Adapter) currentLink() Link {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.link
}

func (a *Adapter) setLink(l Link) {
	a.mu.Lock()
	a.link = l
	a.mu.Unlock()

	// A failure reported against the previous link must not tear down the next one.
	select {
	case <-a.failures:
	default:
	}
}

func (a *Adapter) reportFailure(err error) {
	select {
	case a.failures <- err:
	default:
	}
}

func (a *Adapter) fire(ctx context.Context, ev statemachine.StringEvent) {
	if !a.fsm.CanFire(ctx, ev, nil) {
		a.logger.DebugContext(ctx, "broker event ignored in current state",
			logger.Event(ev.Name()),
			logger.BrokerState(a.State()),
		)
		return
	}
	if err := a.fsm.Fire(ctx, ev, nil); err != nil {
		a.logger.ErrorContext(ctx, "broker state transition",
			logger.Event(ev.Name()),
			logger.BrokerState(a.State()),
			logger.Error(err),
		)
	}
}

func (a *Adapter) observe(ctx context.Context, from, to statemachine.State, ev statemachine.Event) {
	a.state.Store(to.Name())
	a.logger.DebugContext(ctx, "broker state changed",
		slog.String("from", from.Name()),
		logger.BrokerState(to.Name()),
		logger.Event(ev.Name()),
	)
}

func (a *Adapter) newBackOff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = a.settings.RetryMinInterval
	bo.MaxInterval = a.settings.RetryMaxInterval
	bo.Reset()
	return bo
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
