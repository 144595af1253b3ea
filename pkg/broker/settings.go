package broker

import (
	"strconv"
	"strings"
	"time"

	"github.com/dmitrymomot/fanout/pkg/redis"
)

// Settings is the broker configuration surface. Port is kept as a string so
// that a malformed value is a configuration outcome rather than a load error.
type Settings struct {
	Enabled          string        `env:"REDIS_ENABLED" envDefault:"false"`
	Host             string        `env:"REDIS_HOST"`
	Port             string        `env:"REDIS_PORT"`
	Password         string        `env:"REDIS_PASSWORD"`
	ConnectTimeout   time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"5s"`
	CommandTimeout   time.Duration `env:"REDIS_COMMAND_TIMEOUT" envDefault:"5s"`
	RetryMinInterval time.Duration `env:"REDIS_RETRY_MIN_INTERVAL" envDefault:"500ms"`
	RetryMaxInterval time.Duration `env:"REDIS_RETRY_MAX_INTERVAL" envDefault:"30s"`
}

const (
	defaultConnectTimeout   = 5 * time.Second
	defaultCommandTimeout   = 5 * time.Second
	defaultRetryMinInterval = 500 * time.Millisecond
	defaultRetryMaxInterval = 30 * time.Second
)

// Validate reports why the settings cannot be used to reach a broker, or nil.
func (s Settings) Validate() error {
	_, err := s.endpoint()
	return err
}

// Endpoint returns the redis connection config described by the settings.
func (s Settings) Endpoint() (redis.Config, error) {
	return s.endpoint()
}

func (s Settings) endpoint() (redis.Config, error) {
	switch strings.ToLower(strings.TrimSpace(s.Enabled)) {
	case "", "false", "0", "disabled":
		return redis.Config{}, ErrDisabled
	}

	host, port := strings.TrimSpace(s.Host), strings.TrimSpace(s.Port)
	if host == "" || port == "" {
		return redis.Config{}, ErrMissingHost
	}
	if isPlaceholder(host) || isPlaceholder(port) {
		return redis.Config{}, ErrPlaceholderValue
	}

	n, err := strconv.Atoi(port)
	if err != nil || n <= 0 || n > 65535 {
		return redis.Config{}, ErrInvalidPort
	}

	s = s.withDefaults()
	return redis.Config{
		Host:           host,
		Port:           n,
		Password:       s.Password,
		ConnectTimeout: s.ConnectTimeout,
		CommandTimeout: s.CommandTimeout,
		TLS:            redis.NeedsTLS(host),
	}, nil
}

func (s Settings) withDefaults() Settings {
	if s.ConnectTimeout <= 0 {
		s.ConnectTimeout = defaultConnectTimeout
	}
	if s.CommandTimeout <= 0 {
		s.CommandTimeout = defaultCommandTimeout
	}
	if s.RetryMinInterval <= 0 {
		s.RetryMinInterval = defaultRetryMinInterval
	}
	if s.RetryMaxInterval < s.RetryMinInterval {
		s.RetryMaxInterval = max(defaultRetryMaxInterval, s.RetryMinInterval)
	}
	return s
}

// isPlaceholder matches values copied verbatim from an example env file.
func isPlaceholder(v string) bool {
	return strings.Contains(v, "your-") || v == "undefined"
}
