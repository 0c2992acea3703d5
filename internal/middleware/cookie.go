package middleware

import (
	"net/http"
	"time"

	"github.com/healthtracker/backend/internal/models"
)

// SessionCookies writes and reads the session cookie.
// The cookie only ever carries the raw token; the store keeps its hash.
type SessionCookies struct {
	name   string
	secure bool
}

// NewSessionCookies creates a session cookie helper
func NewSessionCookies(name string, secure bool) *SessionCookies {
	return &SessionCookies{
		name:   name,
		secure: secure,
	}
}

// Token returns the raw session token sent by the browser, or an empty string
func (c *SessionCookies) Token(r *http.Request) string {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return ""
	}
	return cookie.Value
}

// Set writes the cookie for a freshly created session.
// It expires together with the session row.
func (c *SessionCookies) Set(w http.ResponseWriter, session *models.Session) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear tells the browser to drop the session cookie
func (c *SessionCookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
