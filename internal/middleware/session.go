package middleware

import (
	"context"
	"net/http"

	"github.com/healthtracker/backend/internal/models"
	"go.uber.org/zap"
)

type contextKey string

const sessionKey contextKey = "session"

// LoginPath is where unauthenticated visitors are sent
const LoginPath = "/auth/login"

// LoginRequiredMessage is flashed to visitors stopped by RequireAuthenticated
const LoginRequiredMessage = "You must be logged in to view that page."

// SessionManager is the interface that wraps the session operations the gate relies on.
type SessionManager interface {
	// Method Resolve finds the live session of a raw token.
	//
	// "token" parameter is the raw cookie value.
	//
	// If the token is unknown or expired, nil is returned together with nil error.
	// If the store fails, the error is returned.
	Resolve(ctx context.Context, token string) (*models.Session, error)
	// Method AddFlash stores a flash on the current session or on a new guest session.
	//
	// "current" parameter is the session of the request, nil for anonymous visitors.
	// "flash" parameter is the message to show on the next rendered page.
	//
	// The returned flag reports whether a new session was created and its cookie must be set.
	AddFlash(ctx context.Context, current *models.Session, flash models.Flash) (*models.Session, bool, error)
}

// ErrorPages renders the pages the gate answers with when it stops a request
type ErrorPages interface {
	Forbidden(w http.ResponseWriter, r *http.Request)
	InternalError(w http.ResponseWriter, r *http.Request, err error)
}

// Gate is the access control gate. It holds no state of its own and only reads sessions.
type Gate struct {
	sessions SessionManager
	cookies  *SessionCookies
	pages    ErrorPages
	logger   *zap.Logger
}

// NewGate creates a new access control gate
func NewGate(sessions SessionManager, cookies *SessionCookies, pages ErrorPages, logger *zap.Logger) *Gate {
	return &Gate{
		sessions: sessions,
		cookies:  cookies,
		pages:    pages,
		logger:   logger,
	}
}

// LoadSession resolves the session cookie once per request and attaches the result to the context.
// A stale cookie is cleared. A store failure stops the request with the error page.
func (g *Gate) LoadSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := g.cookies.Token(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		session, err := g.sessions.Resolve(r.Context(), token)
		if err != nil {
			g.pages.InternalError(w, r, err)
			return
		}
		if session == nil {
			g.cookies.Clear(w)
			next.ServeHTTP(w, r)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithSession(r.Context(), session)))
	})
}

// RequireAuthenticated stops anonymous and guest visitors with a flash and a redirect to the login page
func (g *Gate) RequireAuthenticated(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		session := SessionFromContext(r.Context())
		if session.Authenticated() {
			next.ServeHTTP(w, r)
			return
		}

		flash := models.Flash{Kind: models.FlashError, Message: LoginRequiredMessage}
		updated, created, err := g.sessions.AddFlash(r.Context(), session, flash)
		if err != nil {
			g.pages.InternalError(w, r, err)
			return
		}
		if created {
			g.cookies.Set(w, updated)
		}

		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
	})
}

// RequireRole runs RequireAuthenticated and then answers 403 with the forbidden page
// when the session role does not satisfy the required one
func (g *Gate) RequireRole(role models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return g.RequireAuthenticated(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			session := SessionFromContext(r.Context())
			if !session.HasRole(role) {
				g.logger.Warn("access denied",
					zap.Int("userID", session.User.ID),
					zap.String("role", string(session.User.Role)),
					zap.String("required", string(role)),
					zap.String("path", r.URL.Path),
				)
				g.pages.Forbidden(w, r)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// SessionFromContext returns the session attached by LoadSession, or nil
func SessionFromContext(ctx context.Context) *models.Session {
	session, _ := ctx.Value(sessionKey).(*models.Session)
	return session
}

// WithSession attaches a session to the context
func WithSession(ctx context.Context, session *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey, session)
}
