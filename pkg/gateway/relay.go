package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrymomot/fanout/pkg/event"
	"github.com/dmitrymomot/fanout/pkg/protocol"
	"github.com/dmitrymomot/fanout/pkg/session"
)

// timestampLayout matches JavaScript's Date.toISOString, which clients parse.
const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

// HandleEvent routes a relayed event to the rooms interested in it. It has
// the signature of broker.Handler. Calls are serialised.
func (g *Gateway) HandleEvent(ctx context.Context, ev event.Event) error {
	g.dispatchMu.Lock()
	defer g.dispatchMu.Unlock()

	ts := g.now().UTC().Format(timestampLayout)

	switch e := ev.(type) {
	case event.NewPost:
		var errs []error
		for _, follower := range uniq(e.FollowerIdentities) {
			errs = append(errs, g.deliver(ctx, session.FeedRoom(follower), protocol.TypeNewPost, protocol.NewPostPayload{
				Type:      protocol.TypeNewPost,
				Post:      e.Post,
				Author:    e.AuthorIdentity,
				Timestamp: ts,
			}))
		}
		return errors.Join(errs...)

	case event.NewFollower:
		return g.deliver(ctx, session.UserRoom(e.FollowingIdentity), protocol.TypeNewFollower, protocol.NewFollowerPayload{
			Type:      protocol.TypeNewFollower,
			Follower:  e.FollowerIdentity,
			Timestamp: ts,
		})

	case event.PostLiked:
		return g.deliver(ctx, session.UserRoom(e.PostAuthorIdentity), protocol.TypePostLiked, protocol.PostLikedPayload{
			Type:      protocol.TypePostLiked,
			PostID:    e.PostID,
			Liker:     e.LikerIdentity,
			Timestamp: ts,
		})

	default:
		return fmt.Errorf("%w: %T", ErrUnknownEvent, ev)
	}
}

func (g *Gateway) deliver(ctx context.Context, room string, t protocol.MessageType, payload any) error {
	if _, err := g.multicast.Deliver(ctx, room, t, payload); err != nil {
		return fmt.Errorf("deliver %s to %s: %w", t, room, err)
	}
	return nil
}

// uniq drops empty and repeated identities, keeping first-seen order.
func uniq(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
