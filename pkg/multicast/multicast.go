package multicast

import (
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/fanout/pkg/logger"
	"github.com/dmitrymomot/fanout/pkg/protocol"
	"github.com/dmitrymomot/fanout/pkg/session"
)

// Report counts what happened to one delivery.
type Report struct {
	Delivered int // frames accepted by an outbox
	Gone      int // members removed between snapshot and send
	Dropped   int // members whose outbox was full
}

// Multicast fans frames out to rooms of a session registry.
type Multicast struct {
	registry *session.Registry
	logger   *slog.Logger
}

// Option configures a Multicast.
type Option func(*Multicast)

// WithLogger sets the logger used to report dropped frames.
func WithLogger(l *slog.Logger) Option {
	return func(m *Multicast) {
		if l != nil {
			m.logger = l
		}
	}
}

// New creates a Multicast over registry.
func New(registry *session.Registry, opts ...Option) *Multicast {
	m := &Multicast{registry: registry, logger: slog.Default()}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = m.logger.With(logger.Component("multicast"))
	return m
}

// Deliver enqueues one frame of type t on every session currently in room.
// It fails only when the payload cannot be encoded, in which case nothing is
// sent, or when ctx is done part way through.
func (m *Multicast) Deliver(ctx context.Context, room string, t protocol.MessageType, payload any) (Report, error) {
	frame, err := protocol.Encode(t, payload)
	if err != nil {
		return Report{}, err
	}

	var r Report
	for _, id := range m.registry.MembersOf(room) {
		if ctx.Err() != nil {
			return r, ctx.Err()
		}

		outbox, err := m.registry.Outbox(id)
		if errors.Is(err, session.ErrUnknownSession) {
			r.Gone++
			continue
		}

		if !outbox.Enqueue(frame) {
			// A closed outbox means the session is being torn down.
			if outbox.Closed() {
				r.Gone++
				continue
			}
			r.Dropped++
			m.logger.WarnContext(ctx, "outbox full, frame dropped",
				logger.SessionID(id.String()),
				logger.Room(room),
				logger.MessageType(string(t)),
			)
			continue
		}
		r.Delivered++
	}

	m.logger.DebugContext(ctx, "frame delivered",
		logger.Room(room),
		logger.MessageType(string(t)),
		logger.Recipients(r.Delivered),
	)
	return r, nil
}
