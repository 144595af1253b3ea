// Package logger builds the service's *slog.Logger and keeps attribute naming
// consistent across packages.
//
// New assembles a text or JSON handler from functional options and wraps it in
// LogHandlerDecorator, which runs ContextExtractor callbacks on every record.
// The session id placed in a context with WithSessionID is always extracted,
// so a handler deep in the gateway can log with the caller's context and the
// record is tagged without threading ids through every call.
//
// Attribute helpers (Error, SessionID, Room, Channel, BrokerState, ...) return
// slog.Attr values with fixed keys.
//
// # Usage
//
//	log := logger.New(
//	    logger.WithEnvironment(cfg.Env, "fanout"),
//	    logger.WithLevelName(cfg.LogLevel),
//	)
//	logger.SetAsDefault(log)
//
//	ctx = logger.WithSessionID(ctx, string(id))
//	log.InfoContext(ctx, "joined room", logger.Room("feed:0xabc"))
package logger
