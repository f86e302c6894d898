package api

import (
	"net/http"
	"time"

	"paper-trading-go/internal/models"
	"paper-trading-go/internal/store"
)

const sessionCookieName = "session_token"

// currentUser resolves the session cookie to an authenticated user. A missing
// cookie, an unknown token and an expired token all resolve to
// store.ErrSessionNotFound.
func (s *Server) currentUser(r *http.Request) (*models.User, error) {
	cookie, err := r.Cookie(sessionCookieName)
	if err != nil {
		return nil, store.ErrSessionNotFound
	}

	return s.ledger.GetUserBySession(r.Context(), cookie.Value)
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
