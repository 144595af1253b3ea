package gateway

import (
	"context"
	"encoding/json"

	"github.com/dmitrymomot/fanout/pkg/async"
	"github.com/dmitrymomot/fanout/pkg/event"
	"github.com/dmitrymomot/fanout/pkg/logger"
)

// Outcome says what became of one published event.
type Outcome int

const (
	// Relayed: handed to the broker; local sessions get it when it comes back.
	Relayed Outcome = iota + 1
	// Skipped: the broker was unusable or the publish failed, nothing was delivered.
	Skipped
	// DeliveredLocally: the broker was unusable and the local fallback delivered it.
	DeliveredLocally
)

func (o Outcome) String() string {
	switch o {
	case Relayed:
		return "relayed"
	case Skipped:
		return "skipped"
	case DeliveredLocally:
		return "delivered_locally"
	default:
		return "unknown"
	}
}

// NotifyNewPost announces a post to the feeds of followerIdentities.
func (g *Gateway) NotifyNewPost(ctx context.Context, postID, authorIdentity string, followerIdentities []string, post json.RawMessage) *async.Future[Outcome] {
	return g.Publish(ctx, event.NewPost{
		PostID:             postID,
		AuthorIdentity:     authorIdentity,
		FollowerIdentities: followerIdentities,
		Post:               post,
	})
}

// NotifyUserFollow tells followingIdentity that followerIdentity follows them.
func (g *Gateway) NotifyUserFollow(ctx context.Context, followerIdentity, followingIdentity string) *async.Future[Outcome] {
	return g.Publish(ctx, event.NewFollower{
		FollowerIdentity:  followerIdentity,
		FollowingIdentity: followingIdentity,
	})
}

// NotifyPostLike tells postAuthorIdentity that likerIdentity liked postID.
func (g *Gateway) NotifyPostLike(ctx context.Context, postID, likerIdentity, postAuthorIdentity string) *async.Future[Outcome] {
	return g.Publish(ctx, event.PostLiked{
		PostID:             postID,
		LikerIdentity:      likerIdentity,
		PostAuthorIdentity: postAuthorIdentity,
	})
}

// Publish queues ev for relaying and returns at once. Events are relayed
// one at a time in the order Publish was called. Failures are logged here
// and reflected in the future; callers are free to ignore it. Cancelling ctx
// after Publish returns does not abort the relay.
func (g *Gateway) Publish(ctx context.Context, ev event.Event) *async.Future[Outcome] {
	return async.Submit(&g.publishes, context.WithoutCancel(ctx), ev, g.publish)
}

func (g *Gateway) publish(ctx context.Context, ev event.Event) (Outcome, error) {
	if err := event.Validate(ev); err != nil {
		g.logger.WarnContext(ctx, "refusing to publish invalid event", logger.Error(err))
		return Skipped, err
	}
	log := g.logger.With(logger.Event(ev.Kind().String()))

	if !g.relay.IsUsable() {
		if g.localFallback {
			log.DebugContext(ctx, "broker unavailable, delivering locally")
			return DeliveredLocally, g.HandleEvent(ctx, ev)
		}
		log.WarnContext(ctx, "broker unavailable, notification skipped")
		return Skipped, nil
	}

	if err := g.relay.Publish(ctx, ev); err != nil {
		log.ErrorContext(ctx, "publishing notification", logger.Error(err))
		return Skipped, err
	}
	return Relayed, nil
}
