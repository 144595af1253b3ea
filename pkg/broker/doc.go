// Package broker relays notification events between processes through an
// optional redis publish/subscribe channel.
//
// The Adapter validates its Settings once. When the relay is disabled, or the
// host, port or credentials are missing or still hold placeholder values, it
// stays in StateDisabled, never dials and reports itself unusable. Otherwise
// Start runs a supervisor that connects, subscribes to every event channel
// and keeps the link alive, reconnecting with exponential backoff after any
// failure. Connection state is tracked by a statemachine:
//
//	disconnected -> connecting -> connected -> (error | closed) -> reconnecting -> connecting ...
//
// Publish never blocks on a missing link: it returns ErrUnavailable right
// away unless the adapter is connected. Inbound messages are decoded into
// event.Event values and passed to the Handler sequentially; malformed
// payloads are logged and dropped.
//
//	adapter := broker.New(settings, broker.WithLogger(log))
//	adapter.OnEvent(gw.HandleEvent)
//	go adapter.Start(ctx)
package broker
