// Package ws carries gateway sessions over websocket connections.
//
// Handler upgrades the request, registers a session with the gateway and
// then runs two loops per connection: a read loop that feeds client frames
// to gateway.HandleMessage, and a write pump that drains the session outbox
// and sends keepalive pings. When either side fails the session is
// disconnected, which removes it from every room.
package ws
