package ws

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dmitrymomot/fanout/pkg/gateway"
	"github.com/dmitrymomot/fanout/pkg/logger"
	"github.com/dmitrymomot/fanout/pkg/session"
)

// Handler is the websocket endpoint for notification sessions.
type Handler struct {
	gw             *gateway.Gateway
	upgrader       websocket.Upgrader
	allowedOrigins map[string]bool
	allowedHosts   map[string]bool
	pingInterval   time.Duration
	writeTimeout   time.Duration
	maxMessageSize int64
	logger         *slog.Logger
}

// Option configures a Handler.
type Option func(*Handler)

// WithAllowedOrigins restricts which browser origins may connect. Entries
// may be full origins ("https://app.example.com") or bare hosts. An empty
// list allows every origin.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Handler) {
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o == "" {
				continue
			}
			if u, err := url.Parse(o); err == nil && u.Host != "" {
				h.allowedOrigins[strings.TrimRight(o, "/")] = true
				h.allowedHosts[u.Host] = true
				continue
			}
			h.allowedHosts[o] = true
		}
	}
}

// WithPingInterval sets how often the server pings an idle client.
func WithPingInterval(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.pingInterval = d
		}
	}
}

// WithWriteTimeout bounds a single frame write.
func WithWriteTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.writeTimeout = d
		}
	}
}

// WithMaxMessageSize limits the size of client frames. Larger frames close the connection.
func WithMaxMessageSize(n int64) Option {
	return func(h *Handler) {
		if n > 0 {
			h.maxMessageSize = n
		}
	}
}

func WithLogger(l *slog.Logger) Option {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}

// NewHandler creates a websocket handler bound to gw.
func NewHandler(gw *gateway.Gateway, opts ...Option) *Handler {
	h := &Handler{
		gw:             gw,
		allowedOrigins: make(map[string]bool),
		allowedHosts:   make(map[string]bool),
		pingInterval:   30 * time.Second,
		writeTimeout:   10 * time.Second,
		maxMessageSize: 64 << 10,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	h.logger = h.logger.With(logger.Component("ws"))
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already replied with an HTTP error.
		h.logger.DebugContext(r.Context(), "websocket upgrade failed", logger.Error(err))
		return
	}

	ctx := context.WithoutCancel(r.Context())
	id, outbox := h.gw.Connect(ctx)
	ctx = logger.WithSessionID(ctx, id.String())

	done := make(chan struct{})
	go h.writePump(ctx, conn, outbox, done)

	h.readLoop(ctx, conn, id)
	h.gw.Disconnect(ctx, id)
	<-done
}

// pongWait is how long a connection may stay silent, pongs included.
func (h *Handler) pongWait() time.Duration {
	return h.pingInterval * 10 / 9
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, id session.ID) {
	conn.SetReadLimit(h.maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait()))
	})

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.DebugContext(ctx, "websocket read failed", logger.Error(err))
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(h.pongWait()))
		h.gw.HandleMessage(ctx, id, data)
	}
}

// writePump is the only writer on conn. It exits when the outbox is closed
// by Disconnect or when a write fails, and closes the connection either way.
func (h *Handler) writePump(ctx context.Context, conn *websocket.Conn, outbox *session.Outbox, done chan<- struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
		close(done)
	}()

	for {
		select {
		case frame, ok := <-outbox.Frames():
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				h.logger.DebugContext(ctx, "websocket write failed", logger.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || (len(h.allowedOrigins) == 0 && len(h.allowedHosts) == 0) {
		return true
	}
	if h.allowedOrigins[origin] {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return h.allowedHosts[u.Host]
}
