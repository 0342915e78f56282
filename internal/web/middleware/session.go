package middleware

import (
	"net/http"

	"github.com/JonMunkholm/sweeper/internal/logging"
)

// Session copies the session ID from the named cookie into the request
// context, where handlers and loggers pick it up. Requests without the
// cookie pass through unchanged.
func Session(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if c, err := r.Cookie(cookieName); err == nil && c.Value != "" {
				r = r.WithContext(logging.ContextWithSessionID(r.Context(), c.Value))
			}
			next.ServeHTTP(w, r)
		})
	}
}
