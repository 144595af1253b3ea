package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/fanout/pkg/apikey"
	"github.com/dmitrymomot/fanout/pkg/broker"
	"github.com/dmitrymomot/fanout/pkg/gateway"
	"github.com/dmitrymomot/fanout/pkg/httpserver"
)

var errDraining = errors.New("server is shutting down")

type routerDeps struct {
	log      *slog.Logger
	gateway  *gateway.Gateway
	ws       http.Handler
	broker   *broker.Adapter
	apiKeys  []string
	draining *atomic.Bool
}

// newRouter mounts the websocket endpoint, the health probes and the
// key-protected notify API. The broker is not a readiness dependency:
// running without it is a supported degraded mode.
func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)

	r.Handle("/ws", d.ws)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", httpserver.HealthCheckHandler(d.log))
		r.Get("/ready", httpserver.HealthCheckHandler(d.log, func(context.Context) error {
			if d.draining.Load() {
				return errDraining
			}
			return nil
		}))
		r.Get("/broker", httpserver.StatusHandler(d.broker.Status))
	})

	r.With(apikey.Middleware(d.apiKeys...)).Mount("/notify", gateway.NotifyRouter(d.gateway))
	return r
}
