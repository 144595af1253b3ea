package broker

import (
	"context"

	"github.com/dmitrymomot/fanout/pkg/redis"
)

// Link is one established connection to the external publish/subscribe relay.
type Link interface {
	Ping(ctx context.Context) error
	Publish(ctx context.Context, channel string, payload []byte) error
	// Subscribe returns once the relay confirmed the subscription.
	Subscribe(ctx context.Context, channels ...string) (Subscription, error)
	Close() error
}

// Subscription streams inbound messages. Messages is closed when the
// subscription ends, either by Close or because the link went away.
type Subscription interface {
	Messages() <-chan Message
	Close() error
}

// Message is a raw inbound payload as received from the relay.
type Message struct {
	Channel string
	Payload []byte
}

// Dialer establishes a Link. It is called by the supervisor for every
// connection attempt and must honour ctx.
type Dialer func(ctx context.Context, cfg redis.Config) (Link, error)
