package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/fanout/pkg/apikey"
	"github.com/dmitrymomot/fanout/pkg/broker"
	"github.com/dmitrymomot/fanout/pkg/config"
	"github.com/dmitrymomot/fanout/pkg/httpserver"
	"github.com/dmitrymomot/fanout/pkg/logger"
)

type appConfig struct {
	Env      string `env:"APP_ENV" envDefault:"development"`
	Name     string `env:"APP_NAME" envDefault:"fanout"`
	LogLevel string `env:"LOG_LEVEL"`

	HTTP httpserver.Config

	AllowedOrigins []string      `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	PingInterval   time.Duration `env:"WS_PING_INTERVAL" envDefault:"30s"`
	OutboxSize     int           `env:"WS_OUTBOX_SIZE" envDefault:"256"`

	Broker broker.Settings
	APIKey apikey.Config

	LocalFallback    bool `env:"NOTIFY_LOCAL_FALLBACK" envDefault:"false"`
	FeedRequiresAuth bool `env:"FEED_REQUIRES_AUTH" envDefault:"false"`
}

func loadConfig() (appConfig, error) {
	var cfg appConfig
	err := config.Load(&cfg)
	return cfg, err
}

func newLogger(cfg appConfig) *slog.Logger {
	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Name),
		logger.WithContextExtractors(requestIDExtractor),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	return logger.New(opts...)
}

func requestIDExtractor(ctx context.Context) (slog.Attr, bool) {
	if id := middleware.GetReqID(ctx); id != "" {
		return slog.String("request_id", id), true
	}
	return slog.Attr{}, false
}
