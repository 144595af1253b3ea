package gateway

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/fanout/pkg/async"
	"github.com/dmitrymomot/fanout/pkg/event"
)

const maxNotifyBody = 1 << 20

// NotifyRouter exposes the publish API over HTTP for collaborators running
// in other processes. Bodies use the broker payload field names. Every
// route answers 202 once the event is accepted for publishing, or 503 once
// the gateway is closed; the outcome of the publish itself is not reported.
//
//	r.With(apikey.Middleware(keys)).Mount("/notify", gateway.NotifyRouter(gw))
func NotifyRouter(g *Gateway) chi.Router {
	r := chi.NewRouter()
	r.Post("/new-post", notifyHandler[event.NewPost](g))
	r.Post("/follow", notifyHandler[event.NewFollower](g))
	r.Post("/like", notifyHandler[event.PostLiked](g))
	return r
}

func notifyHandler[E event.Event](g *Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var ev E
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxNotifyBody))
		if err := dec.Decode(&ev); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := event.Validate(ev); err != nil {
			writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": err.Error()})
			return
		}

		f := g.Publish(r.Context(), ev)
		select {
		case <-f.Done():
			if _, err := f.Await(); errors.Is(err, async.ErrQueueClosed) {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "shutting down"})
				return
			}
		default:
		}
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
