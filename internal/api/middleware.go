// Package api implements the task REST API using chi.
package api

import (
	"net/http"
	"strings"
)

// SessionHeader carries the caller's session key. Listings and the display
// indexes they assign are scoped to it.
const SessionHeader = "X-Session-Key"

// DefaultSession is used when SessionHeader is absent.
const DefaultSession = "default"

// AuthMiddleware returns middleware that validates a Bearer token.
// If enabled is false, all requests pass through (disabled mode).
// If enabled is true, requests must carry a valid "Authorization: Bearer <token>" header.
func AuthMiddleware(enabled bool, token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !enabled {
				next.ServeHTTP(w, r)
				return
			}
			auth := r.Header.Get("Authorization")
			if !strings.HasPrefix(auth, "Bearer ") || strings.TrimPrefix(auth, "Bearer ") != token {
				writeJSON(w, http.StatusUnauthorized, errorBody("unauthorized"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func sessionKey(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(SessionHeader)); k != "" {
		return k
	}
	return DefaultSession
}
