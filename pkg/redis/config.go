package redis

import (
	"context"
	"crypto/tls"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config describes a single redis endpoint.
type Config struct {
	Host           string
	Port           int
	Password       string
	ConnectTimeout time.Duration // dial timeout and bound for the readiness ping
	CommandTimeout time.Duration // read/write timeout for every command
	TLS            bool
}

// Addr returns host:port.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// NeedsTLS reports whether the host is a managed endpoint that only accepts TLS.
func NeedsTLS(host string) bool {
	return strings.HasSuffix(strings.ToLower(host), "upstash.io")
}

// Options translates Config into go-redis client options.
//
// Commands are retried at most once and the pool does not wait for a free
// connection longer than the command timeout, so a dead server surfaces as an
// error quickly instead of stalling callers.
func Options(cfg Config) *redis.Options {
	return &redis.Options{
		Addr:         cfg.Addr(),
		Password:     cfg.Password,
		DialTimeout:  cfg.ConnectTimeout,
		ReadTimeout:  cfg.CommandTimeout,
		WriteTimeout: cfg.CommandTimeout,
		PoolTimeout:  cfg.CommandTimeout,
		MaxRetries:   1,
		Dialer:       dialer(cfg),
	}
}

// dialer prefers IPv4, since several managed providers publish AAAA records
// they do not serve, and wraps the connection in TLS when asked to. A custom
// Dialer replaces go-redis' own TLS handling, hence the wrapping here.
func dialer(cfg Config) func(ctx context.Context, network, addr string) (net.Conn, error) {
	base := &net.Dialer{Timeout: cfg.ConnectTimeout, KeepAlive: 30 * time.Second}
	if !cfg.TLS {
		return func(ctx context.Context, _, addr string) (net.Conn, error) {
			return base.DialContext(ctx, "tcp4", addr)
		}
	}

	tlsDialer := &tls.Dialer{
		NetDialer: base,
		Config: &tls.Config{
			MinVersion: tls.VersionTLS12,
			ServerName: cfg.Host,
		},
	}
	return func(ctx context.Context, _, addr string) (net.Conn, error) {
		return tlsDialer.DialContext(ctx, "tcp4", addr)
	}
}
