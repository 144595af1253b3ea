// Package event defines the notification events fanned out to live sessions.
//
// An Event is a closed tagged variant: NewPost, NewFollower and PostLiked are
// the only implementations. Each kind travels over its own fixed broker
// channel, so the channel name doubles as the discriminator on the wire and
// the payload is a compact JSON record:
//
//	new_post     {"postId","authorIdentity","followerIdentities","post"}
//	user_follow  {"followerIdentity","followingIdentity"}
//	post_like    {"postId","likerIdentity","postAuthorIdentity"}
//
// Decode is the single place where a raw channel name is turned into a typed
// value. Everything past the relay boundary switches on the Go type instead of
// comparing strings:
//
//	ev, err := event.Decode(channel, payload)
//	if err != nil {
//	    // malformed or unknown, drop it
//	}
//	switch e := ev.(type) {
//	case event.NewPost:
//	    ...
//	}
package event
