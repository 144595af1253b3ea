package gateway

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dmitrymomot/fanout/pkg/async"
	"github.com/dmitrymomot/fanout/pkg/event"
	"github.com/dmitrymomot/fanout/pkg/logger"
	"github.com/dmitrymomot/fanout/pkg/multicast"
	"github.com/dmitrymomot/fanout/pkg/protocol"
	"github.com/dmitrymomot/fanout/pkg/session"
)

// Relay is the cross-process event relay, usually *broker.Adapter.
type Relay interface {
	Publish(ctx context.Context, ev event.Event) error
	IsUsable() bool
}

// Gateway routes client frames, published events and relayed events.
type Gateway struct {
	registry  *session.Registry
	multicast *multicast.Multicast
	relay     Relay
	logger    *slog.Logger
	now       func() time.Time

	localFallback    bool
	feedRequiresAuth bool

	// inbound events are routed one at a time so a room sees them in order
	dispatchMu sync.Mutex
	// published events leave in call order
	publishes async.Queue
}

// Option configures a Gateway.
type Option func(*Gateway)

func WithLogger(l *slog.Logger) Option {
	return func(g *Gateway) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithClock overrides the time source used for notification timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) {
		if now != nil {
			g.now = now
		}
	}
}

// WithLocalFallback delivers published events to local sessions directly
// whenever the relay is unusable. Without it such events are dropped.
func WithLocalFallback(enabled bool) Option {
	return func(g *Gateway) {
		g.localFallback = enabled
	}
}

// WithFeedRequiresAuth rejects join_feed from sessions that have not authenticated.
func WithFeedRequiresAuth(enabled bool) Option {
	return func(g *Gateway) {
		g.feedRequiresAuth = enabled
	}
}

// New creates a Gateway. relay may be nil, which behaves as a relay that is never usable.
func New(registry *session.Registry, relay Relay, opts ...Option) *Gateway {
	g := &Gateway{
		registry: registry,
		relay:    relay,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.relay == nil {
		g.relay = noRelay{}
	}
	g.multicast = multicast.New(registry, multicast.WithLogger(g.logger))
	g.logger = g.logger.With(logger.Component("gateway"))
	return g
}

// Registry exposes the session registry, mainly for introspection.
func (g *Gateway) Registry() *session.Registry {
	return g.registry
}

// Connect registers a new anonymous session and returns its outbox.
func (g *Gateway) Connect(ctx context.Context) (session.ID, *session.Outbox) {
	id := g.registry.Register()
	// Register always creates the entry, so the lookup cannot miss.
	outbox, _ := g.registry.Outbox(id)

	g.logger.InfoContext(logger.WithSessionID(ctx, id.String()), "session connected")
	return id, outbox
}

// Disconnect removes the session from every room. Safe to call more than once.
func (g *Gateway) Disconnect(ctx context.Context, id session.ID) {
	identity, err := g.registry.Identity(id)
	if err != nil {
		return
	}
	g.registry.RemoveAll(id)

	ctx = logger.WithSessionID(ctx, id.String())
	if identity != "" {
		g.logger.InfoContext(ctx, "session disconnected", logger.Identity(identity))
		return
	}
	g.logger.InfoContext(ctx, "session disconnected")
}

// HandleMessage processes one client frame. Frames that cannot be understood
// are answered with an error frame and the session stays open.
func (g *Gateway) HandleMessage(ctx context.Context, id session.ID, frame []byte) {
	ctx = logger.WithSessionID(ctx, id.String())

	env, err := protocol.Decode(frame)
	if err != nil {
		g.logger.DebugContext(ctx, "rejecting client frame", logger.Error(err))
		g.reply(ctx, id, protocol.TypeError, protocol.ErrorPayload{Message: errorMessage(err)})
		return
	}

	payload, err := protocol.DecodePayload[protocol.IdentityPayload](env)
	if err != nil {
		g.reply(ctx, id, protocol.TypeError, protocol.ErrorPayload{Message: errorMessage(err)})
		return
	}

	switch env.Type {
	case protocol.TypeAuthenticate:
		err = g.Authenticate(ctx, id, payload.Identity)
	case protocol.TypeJoinFeed:
		err = g.JoinFeed(ctx, id, payload.Identity)
	}
	if err != nil && !errors.Is(err, session.ErrUnknownSession) {
		g.logger.DebugContext(ctx, "client request refused",
			logger.MessageType(string(env.Type)),
			logger.Error(err),
		)
	}
}

// Authenticate binds identity to the session and joins its personal room.
// An empty identity is answered with auth_error and leaves the session unchanged.
// Authenticating again with another identity joins that personal room too;
// earlier personal rooms are kept.
func (g *Gateway) Authenticate(ctx context.Context, id session.ID, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		g.reply(ctx, id, protocol.TypeAuthError, protocol.AuthErrorPayload{Message: "Identity required"})
		return ErrIdentityRequired
	}

	if err := g.registry.SetIdentity(id, identity); err != nil {
		return err
	}
	if err := g.registry.Join(id, session.UserRoom(identity)); err != nil {
		return err
	}

	g.logger.InfoContext(ctx, "session authenticated", logger.Identity(identity))
	g.reply(ctx, id, protocol.TypeAuthenticated, protocol.AuthenticatedPayload{
		Status:       protocol.StatusSuccess,
		BrokerUsable: g.relay.IsUsable(),
	})
	return nil
}

// JoinFeed subscribes the session to the feed room of identity. Unless the
// gateway was built WithFeedRequiresAuth, no prior authentication is needed
// and identity need not match the session's own.
func (g *Gateway) JoinFeed(ctx context.Context, id session.ID, identity string) error {
	identity = strings.TrimSpace(identity)
	if identity == "" {
		g.reply(ctx, id, protocol.TypeError, protocol.ErrorPayload{Message: "Identity required"})
		return ErrIdentityRequired
	}

	if g.feedRequiresAuth {
		current, err := g.registry.Identity(id)
		if err != nil {
			return err
		}
		if current == "" {
			g.reply(ctx, id, protocol.TypeAuthError, protocol.AuthErrorPayload{Message: "Authentication required"})
			return ErrAuthRequired
		}
	}

	room := session.FeedRoom(identity)
	if err := g.registry.Join(id, room); err != nil {
		return err
	}

	g.logger.InfoContext(ctx, "session joined feed", logger.Room(room))
	g.reply(ctx, id, protocol.TypeFeedJoined, protocol.FeedJoinedPayload{Status: protocol.StatusSuccess})
	return nil
}

// Close stops accepting publishes and waits for the queued ones, or for ctx.
// Live sessions are then removed, which closes their outboxes and lets the
// transport send a close frame.
func (g *Gateway) Close(ctx context.Context) error {
	err := g.publishes.Close(ctx)
	for _, id := range g.registry.IDs() {
		g.Disconnect(ctx, id)
	}
	return err
}

func (g *Gateway) reply(ctx context.Context, id session.ID, t protocol.MessageType, payload any) {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		g.logger.ErrorContext(ctx, "encoding reply", logger.MessageType(string(t)), logger.Error(err))
		return
	}

	outbox, err := g.registry.Outbox(id)
	if err != nil {
		return
	}
	if !outbox.Enqueue(frame) && !outbox.Closed() {
		g.logger.WarnContext(ctx, "outbox full, reply dropped", logger.MessageType(string(t)))
	}
}

func errorMessage(err error) string {
	if errors.Is(err, protocol.ErrUnknownMessageType) {
		return "Unknown message type"
	}
	return "Malformed message"
}

type noRelay struct{}

func (noRelay) Publish(context.Context, event.Event) error { return errRelayMissing }
func (noRelay) IsUsable() bool                             { return false }

var errRelayMissing = errors.New("no relay configured")
