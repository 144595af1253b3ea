package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/fanout/pkg/apikey"
	"github.com/dmitrymomot/fanout/pkg/broker"
	"github.com/dmitrymomot/fanout/pkg/event"
	"github.com/dmitrymomot/fanout/pkg/gateway"
	"github.com/dmitrymomot/fanout/pkg/logger"
	"github.com/dmitrymomot/fanout/pkg/redis"
	"github.com/dmitrymomot/fanout/pkg/session"
	"github.com/dmitrymomot/fanout/pkg/ws"
)

func testRouter(t *testing.T, draining *atomic.Bool) http.Handler {
	t.Helper()

	log := logger.Discard()
	adapter := broker.New(broker.Settings{Enabled: "false"}, broker.WithLogger(log))
	gw := gateway.New(session.NewRegistry(), adapter, gateway.WithLogger(log))
	t.Cleanup(func() { _ = gw.Close(context.Background()) })

	return newRouter(routerDeps{
		log:      log,
		gateway:  gw,
		ws:       ws.NewHandler(gw, ws.WithLogger(log)),
		broker:   adapter,
		apiKeys:  []string{"secret"},
		draining: draining,
	})
}

func TestRouter_Health(t *testing.T) {
	t.Parallel()

	var draining atomic.Bool
	r := testRouter(t, &draining)

	get := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	rec := get("/health/live")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())

	rec = get("/health/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "READY", rec.Body.String())

	rec = get("/health/broker")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"state":"disabled","usable":false,"reason":"`+broker.ErrDisabled.Error()+`"}`, rec.Body.String())

	draining.Store(true)
	rec = get("/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_NotifyRequiresKey(t *testing.T) {
	t.Parallel()

	r := testRouter(t, new(atomic.Bool))
	body := `{"followerIdentity":"U1","followingIdentity":"U2"}`

	tests := []struct {
		name   string
		key    string
		status int
	}{
		{"missing key", "", http.StatusUnauthorized},
		{"wrong key", "nope", http.StatusUnauthorized},
		{"valid key", "secret", http.StatusAccepted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/notify/follow", strings.NewReader(body))
			if tt.key != "" {
				req.Header.Set(apikey.Header, tt.key)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestPublishFlags_Event(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		flags   publishFlags
		want    event.Event
		wantErr bool
	}{
		{
			name:  "like",
			flags: publishFlags{kind: "like", postID: "p1", liker: "U2", author: "U1"},
			want:  event.PostLiked{PostID: "p1", LikerIdentity: "U2", PostAuthorIdentity: "U1"},
		},
		{
			name:  "follow",
			flags: publishFlags{kind: "follow", follower: "U1", following: "U2"},
			want:  event.NewFollower{FollowerIdentity: "U1", FollowingIdentity: "U2"},
		},
		{
			name:  "new post",
			flags: publishFlags{kind: "new-post", postID: "p1", author: "U1", followers: []string{"U2"}, post: `{"id":"p1"}`},
			want: event.NewPost{
				PostID:             "p1",
				AuthorIdentity:     "U1",
				FollowerIdentities: []string{"U2"},
				Post:               []byte(`{"id":"p1"}`),
			},
		},
		{name: "invalid post json", flags: publishFlags{kind: "new-post", postID: "p1", author: "U1", post: "{"}, wantErr: true},
		{name: "missing field", flags: publishFlags{kind: "follow", follower: "U1"}, wantErr: true},
		{name: "unknown kind", flags: publishFlags{kind: "share"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ev, err := tt.flags.event()
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, ev)
		})
	}
}

func TestPublishOnce_DisabledBroker(t *testing.T) {
	t.Parallel()

	cfg := appConfig{Env: "development", Name: "fanout", Broker: broker.Settings{Enabled: "false"}}
	err := publishOnce(t.Context(), cfg, event.NewFollower{FollowerIdentity: "U1", FollowingIdentity: "U2"}, 0)
	assert.ErrorIs(t, err, broker.ErrDisabled)
}

type fakeLink struct {
	mu        sync.Mutex
	published []string
	messages  chan broker.Message
}

func (l *fakeLink) Ping(context.Context) error { return nil }

func (l *fakeLink) Publish(_ context.Context, channel string, _ []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.published = append(l.published, channel)
	return nil
}

func (l *fakeLink) Subscribe(context.Context, ...string) (broker.Subscription, error) {
	return l, nil
}

func (l *fakeLink) Messages() <-chan broker.Message { return l.messages }
func (l *fakeLink) Close() error                    { return nil }

func TestPublishOnce_Relays(t *testing.T) {
	t.Parallel()

	link := &fakeLink{messages: make(chan broker.Message)}
	dial := func(context.Context, redis.Config) (broker.Link, error) { return link, nil }

	cfg := appConfig{
		Env:  "production",
		Name: "fanout",
		Broker: broker.Settings{
			Enabled: "true",
			Host:    "localhost",
			Port:    "6379",
		},
	}
	err := publishOnce(t.Context(), cfg,
		event.NewFollower{FollowerIdentity: "U1", FollowingIdentity: "U2"},
		time.Second,
		broker.WithLogger(logger.Discard()),
		broker.WithDialer(dial),
	)
	require.NoError(t, err)

	link.mu.Lock()
	defer link.mu.Unlock()
	assert.Equal(t, []string{event.ChannelUserFollow}, link.published)
}
