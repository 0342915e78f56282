package web

import (
	"net/http"

	"github.com/JonMunkholm/sweeper/internal/core"
	"github.com/JonMunkholm/sweeper/internal/logging"
)

// sessionID returns the session ID loaded from the cookie by the session
// middleware, or ErrSessionNotFound.
func sessionID(r *http.Request) (string, error) {
	id := logging.SessionIDFromContext(r.Context())
	if id == "" {
		return "", core.ErrSessionNotFound
	}
	return id, nil
}

func (s *Server) setSessionCookie(w http.ResponseWriter, id string) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    id,
		Path:     "/",
		MaxAge:   int(s.cfg.Session.TTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.cfg.Session.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.Session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

// replaceSession discards the session the request already had, if any. A new
// upload always starts a fresh session.
func (s *Server) replaceSession(r *http.Request) {
	if id, err := sessionID(r); err == nil {
		if s.service.Discard(id) == nil {
			logging.FromContext(r.Context()).Debug("previous session replaced")
		}
	}
}
