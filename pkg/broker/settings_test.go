package broker_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/pkg/broker"
)

func TestSettings_Validate(t *testing.T) {
	t.Parallel()

	valid := broker.Settings{Enabled: "true", Host: "localhost", Port: "6379"}

	tests := []struct {
		name   string
		mutate func(*broker.Settings)
		want   error
	}{
		{"valid", func(*broker.Settings) {}, nil},
		{"enabled with any other word", func(s *broker.Settings) { s.Enabled = "yes" }, nil},
		{"disabled false", func(s *broker.Settings) { s.Enabled = "false" }, broker.ErrDisabled},
		{"disabled upper case", func(s *broker.Settings) { s.Enabled = "FALSE" }, broker.ErrDisabled},
		{"disabled zero", func(s *broker.Settings) { s.Enabled = "0" }, broker.ErrDisabled},
		{"disabled word", func(s *broker.Settings) { s.Enabled = "Disabled" }, broker.ErrDisabled},
		{"unset flag", func(s *broker.Settings) { s.Enabled = "" }, broker.ErrDisabled},
		{"missing host", func(s *broker.Settings) { s.Host = "" }, broker.ErrMissingHost},
		{"blank host", func(s *broker.Settings) { s.Host = "   " }, broker.ErrMissingHost},
		{"missing port", func(s *broker.Settings) { s.Port = "" }, broker.ErrMissingHost},
		{"placeholder host", func(s *broker.Settings) { s.Host = "your-redis-host" }, broker.ErrPlaceholderValue},
		{"placeholder port", func(s *broker.Settings) { s.Port = "your-redis-port" }, broker.ErrPlaceholderValue},
		{"undefined host", func(s *broker.Settings) { s.Host = "undefined" }, broker.ErrPlaceholderValue},
		{"non numeric port", func(s *broker.Settings) { s.Port = "redis" }, broker.ErrInvalidPort},
		{"zero port", func(s *broker.Settings) { s.Port = "0" }, broker.ErrInvalidPort},
		{"port too large", func(s *broker.Settings) { s.Port = "65536" }, broker.ErrInvalidPort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)

			err := s.Validate()
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSettings_Endpoint(t *testing.T) {
	t.Parallel()

	t.Run("applies defaults", func(t *testing.T) {
		cfg, err := broker.Settings{Enabled: "true", Host: " cache ", Port: "6380", Password: "pw"}.Endpoint()
		require.NoError(t, err)

		assert.Equal(t, "cache", cfg.Host)
		assert.Equal(t, 6380, cfg.Port)
		assert.Equal(t, "pw", cfg.Password)
		assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
		assert.Equal(t, 5*time.Second, cfg.CommandTimeout)
		assert.False(t, cfg.TLS)
	})

	t.Run("managed host enables TLS", func(t *testing.T) {
		cfg, err := broker.Settings{
			Enabled:        "1",
			Host:           "eu1-demo.upstash.io",
			Port:           "6379",
			ConnectTimeout: time.Second,
		}.Endpoint()
		require.NoError(t, err)

		assert.True(t, cfg.TLS)
		assert.Equal(t, time.Second, cfg.ConnectTimeout)
	})
}
