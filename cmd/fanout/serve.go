package main

import (
	"context"
	"sync/atomic"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/fanout/pkg/broker"
	"github.com/dmitrymomot/fanout/pkg/gateway"
	"github.com/dmitrymomot/fanout/pkg/httpserver"
	"github.com/dmitrymomot/fanout/pkg/logger"
	"github.com/dmitrymomot/fanout/pkg/session"
	"github.com/dmitrymomot/fanout/pkg/ws"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve websocket sessions and the notify API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}
}

func serve(ctx context.Context, cfg appConfig) error {
	log := newLogger(cfg)
	logger.SetAsDefault(log)

	registry := session.NewRegistry(session.WithOutboxSize(cfg.OutboxSize))
	adapter := broker.New(cfg.Broker, broker.WithLogger(log))
	gw := gateway.New(registry, adapter,
		gateway.WithLogger(log),
		gateway.WithLocalFallback(cfg.LocalFallback),
		gateway.WithFeedRequiresAuth(cfg.FeedRequiresAuth),
	)
	adapter.OnEvent(gw.HandleEvent)

	var draining atomic.Bool
	router := newRouter(routerDeps{
		log:     log,
		gateway: gw,
		ws: ws.NewHandler(gw,
			ws.WithAllowedOrigins(cfg.AllowedOrigins...),
			ws.WithPingInterval(cfg.PingInterval),
			ws.WithLogger(log),
		),
		broker:   adapter,
		apiKeys:  cfg.APIKey.Keys(cfg.Env),
		draining: &draining,
	})

	srv := httpserver.NewFromConfig(cfg.HTTP,
		httpserver.WithLogger(log),
		// Websocket connections are hijacked and not tracked by the server;
		// closing the gateway ends them.
		httpserver.WithOnShutdown(func() {
			draining.Store(true)
			if err := gw.Close(context.WithoutCancel(ctx)); err != nil {
				log.Warn("gateway close", logger.Error(err))
			}
		}),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return adapter.Start(ctx) })
	g.Go(func() error { return srv.Run(ctx, router) })

	err := g.Wait()
	if closeErr := gw.Close(context.WithoutCancel(ctx)); closeErr != nil {
		log.Warn("gateway close", logger.Error(closeErr))
	}
	log.Info("fanout stopped", logger.Error(err))
	return err
}
