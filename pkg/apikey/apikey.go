package apikey

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dmitrymomot/fanout/pkg/environment"
)

// Header carries the key. Header lookup is case-insensitive.
const Header = "cb-api-key"

// Config holds the accepted keys.
type Config struct {
	Key    string `env:"API_KEY"`
	DevKey string `env:"API_KEY_DEV"`
}

// Keys returns the keys accepted in env. The development key is honoured
// only in the development environment. Empty keys are never accepted.
func (c Config) Keys(env string) []string {
	var keys []string
	if k := strings.TrimSpace(c.Key); k != "" {
		keys = append(keys, k)
	}
	if environment.Parse(env).IsDevelopment() {
		if k := strings.TrimSpace(c.DevKey); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// Middleware rejects requests whose Header does not hold one of keys.
// With no keys configured every request is rejected.
func Middleware(keys ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(Header)
			if got == "" {
				unauthorized(w, ErrMissingKey)
				return
			}
			if !valid(got, keys) {
				unauthorized(w, ErrInvalidKey)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func valid(got string, keys []string) bool {
	ok := false
	for _, k := range keys {
		if subtle.ConstantTimeCompare([]byte(got), []byte(k)) == 1 {
			ok = true
		}
	}
	return ok
}

func unauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
