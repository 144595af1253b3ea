// Package gateway is the entry point of the notification service.
//
// It owns the per-session handshake (authenticate, join_feed), the publish
// API used by collaborators (NotifyNewPost, NotifyUserFollow, NotifyPostLike)
// and the routing of relayed events to rooms:
//
//	new_post     -> feed:<follower> for every follower
//	user_follow  -> user:<followed>
//	post_like    -> user:<post author>
//
// Publishing goes through a Relay, normally the broker adapter, and local
// sessions receive an event only when it comes back through the relay's
// subscription. When the relay is unusable the event is dropped, unless the
// gateway was built WithLocalFallback.
//
// Transports drive sessions through Connect, HandleMessage and Disconnect and
// drain the returned outbox; see package ws.
package gateway
