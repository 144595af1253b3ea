package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Connect opens a client and waits for a PING reply, bounded by cfg.ConnectTimeout.
//
// It makes exactly one attempt. Reconnection policy belongs to the caller,
// which knows whether it should back off, give up or keep serving degraded.
// On failure the client is closed before returning.
func Connect(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Host == "" {
		return nil, ErrEmptyHost
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}

	client := redis.NewClient(Options(cfg))
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Join(ErrRedisNotReady, err)
	}
	return client, nil
}
