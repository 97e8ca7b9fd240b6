package middleware

import (
	"context"
	"net/http"

	"github.com/oraig/impactguard/internal/session"
)

type contextKey string

const SessionKey contextKey = "session"

// SessionHeader carries the session ID both ways; the middleware mints a
// fresh one when the client sends none.
const SessionHeader = "X-Session-ID"

// SessionMiddleware resolves (or creates) the caller's session state and
// re-runs its defaulting, which is idempotent and safe on every request.
func SessionMiddleware(store *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			st := store.GetOrCreate(r.Header.Get(SessionHeader))
			st.EnsureDefaults()
			w.Header().Set(SessionHeader, st.ID)

			ctx := context.WithValue(r.Context(), SessionKey, st)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetSessionFromContext extracts the session state placed by the middleware.
func GetSessionFromContext(ctx context.Context) *session.State {
	if st, ok := ctx.Value(SessionKey).(*session.State); ok {
		return st
	}
	return nil
}
