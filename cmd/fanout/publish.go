package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/fanout/pkg/broker"
	"github.com/dmitrymomot/fanout/pkg/event"
	"github.com/dmitrymomot/fanout/pkg/gateway"
	"github.com/dmitrymomot/fanout/pkg/logger"
	"github.com/dmitrymomot/fanout/pkg/session"
)

var (
	errBrokerNotReady = errors.New("broker did not become usable in time")
	errNotRelayed     = errors.New("event was not relayed")
)

type publishFlags struct {
	kind      string
	postID    string
	author    string
	followers []string
	post      string
	follower  string
	following string
	liker     string
	wait      time.Duration
}

func newPublishCommand() *cobra.Command {
	var f publishFlags

	cmd := &cobra.Command{
		Use:   "publish",
		Short: "Publish one event through the broker",
		Long: `publish connects to the configured broker, waits until the link is usable
and relays a single event to every subscribed fanout process.

  fanout publish --kind like --post-id p1 --liker U2 --author U1
  fanout publish --kind follow --follower U1 --following U2
  fanout publish --kind new-post --post-id p1 --author U1 --followers U2,U3 --post '{"id":"p1"}'`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ev, err := f.event()
			if err != nil {
				return err
			}
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if err := publishOnce(cmd.Context(), cfg, ev, f.wait); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "published %s\n", ev.Kind())
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.kind, "kind", "", "event kind: new-post, follow or like")
	fl.StringVar(&f.postID, "post-id", "", "post id (new-post, like)")
	fl.StringVar(&f.author, "author", "", "post author identity (new-post, like)")
	fl.StringSliceVar(&f.followers, "followers", nil, "follower identities to notify (new-post)")
	fl.StringVar(&f.post, "post", "{}", "post body as JSON (new-post)")
	fl.StringVar(&f.follower, "follower", "", "follower identity (follow)")
	fl.StringVar(&f.following, "following", "", "followed identity (follow)")
	fl.StringVar(&f.liker, "liker", "", "liker identity (like)")
	fl.DurationVar(&f.wait, "wait", 10*time.Second, "how long to wait for the broker link")
	_ = cmd.MarkFlagRequired("kind")

	return cmd
}

func (f publishFlags) event() (event.Event, error) {
	var ev event.Event
	switch f.kind {
	case "new-post":
		if !json.Valid([]byte(f.post)) {
			return nil, errors.New("--post is not valid JSON")
		}
		ev = event.NewPost{
			PostID:             f.postID,
			AuthorIdentity:     f.author,
			FollowerIdentities: f.followers,
			Post:               json.RawMessage(f.post),
		}
	case "follow":
		ev = event.NewFollower{FollowerIdentity: f.follower, FollowingIdentity: f.following}
	case "like":
		ev = event.PostLiked{PostID: f.postID, LikerIdentity: f.liker, PostAuthorIdentity: f.author}
	default:
		return nil, fmt.Errorf("unknown --kind %q", f.kind)
	}
	if err := event.Validate(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func publishOnce(ctx context.Context, cfg appConfig, ev event.Event, wait time.Duration, opts ...broker.Option) error {
	if err := cfg.Broker.Validate(); err != nil {
		return err
	}
	log := newLogger(cfg)

	adapter := broker.New(cfg.Broker, append([]broker.Option{broker.WithLogger(log)}, opts...)...)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	stopped := make(chan error, 1)
	go func() { stopped <- adapter.Start(ctx) }()
	defer func() {
		cancel()
		<-stopped
	}()

	if err := waitUsable(ctx, adapter, wait); err != nil {
		log.Error("broker unavailable", logger.BrokerState(adapter.State()))
		return err
	}

	gw := gateway.New(session.NewRegistry(), adapter, gateway.WithLogger(log))
	defer func() { _ = gw.Close(context.WithoutCancel(ctx)) }()

	awaitCtx, cancelAwait := context.WithTimeout(ctx, wait)
	defer cancelAwait()

	outcome, err := gw.Publish(ctx, ev).AwaitContext(awaitCtx)
	if err != nil {
		return err
	}
	if outcome != gateway.Relayed {
		return fmt.Errorf("%w: %s", errNotRelayed, outcome)
	}
	return nil
}

func waitUsable(ctx context.Context, adapter *broker.Adapter, wait time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, wait)
	defer cancel()

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for !adapter.IsUsable() {
		select {
		case <-ctx.Done():
			return errBrokerNotReady
		case <-ticker.C:
		}
	}
	return nil
}
