// Package httpserver runs an http.Handler until a context is cancelled and
// then shuts it down gracefully.
//
//	srv := httpserver.NewFromConfig(cfg.HTTP, httpserver.WithLogger(log))
//	if err := srv.Run(ctx, router); err != nil {
//	    // errors.Is(err, httpserver.ErrStart) or httpserver.ErrShutdown
//	}
//
// Signal handling is left to the caller (see signal.NotifyContext), so Run
// composes with errgroup alongside other long-running components.
//
// HealthCheckHandler serves liveness and readiness probes and StatusHandler
// exposes a JSON status document.
package httpserver
