package broker

import (
	"context"
	"errors"
	"sync"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/fanout/pkg/redis"
)

// DialRedis opens two connections to the same server: one for PUBLISH and
// PING, one dedicated to SUBSCRIBE, because a subscribed redis connection
// cannot issue other commands.
func DialRedis(ctx context.Context, cfg redis.Config) (Link, error) {
	cmd, err := redis.Connect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	sub, err := redis.Connect(ctx, cfg)
	if err != nil {
		_ = cmd.Close()
		return nil, err
	}
	return &redisLink{cmd: cmd, sub: sub}, nil
}

type redisLink struct {
	cmd *goredis.Client
	sub *goredis.Client
}

func (l *redisLink) Ping(ctx context.Context) error {
	return redis.Healthcheck(l.cmd)(ctx)
}

func (l *redisLink) Publish(ctx context.Context, channel string, payload []byte) error {
	return l.cmd.Publish(ctx, channel, payload).Err()
}

// Subscribe waits for the server to confirm the subscription, bounded by ctx.
func (l *redisLink) Subscribe(ctx context.Context, channels ...string) (Subscription, error) {
	ps := l.sub.Subscribe(ctx, channels...)
	// The first reply is the subscription confirmation; anything else is a failure.
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, err
	}
	return newRedisSubscription(ps), nil
}

func (l *redisLink) Close() error {
	return errors.Join(l.sub.Close(), l.cmd.Close())
}

type redisSubscription struct {
	ps   *goredis.PubSub
	out  chan Message
	done chan struct{}
	once sync.Once
}

func newRedisSubscription(ps *goredis.PubSub) *redisSubscription {
	s := &redisSubscription{
		ps:   ps,
		out:  make(chan Message, 64),
		done: make(chan struct{}),
	}
	go s.pump()
	return s
}

func (s *redisSubscription) pump() {
	defer close(s.out)
	for m := range s.ps.Channel() {
		select {
		case s.out <- Message{Channel: m.Channel, Payload: []byte(m.Payload)}:
		case <-s.done:
			return
		}
	}
}

func (s *redisSubscription) Messages() <-chan Message {
	return s.out
}

func (s *redisSubscription) Close() error {
	var err error
	s.once.Do(func() {
		close(s.done)
		err = s.ps.Close()
	})
	return err
}
