package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const cookieName = "health_app_sid"

// mockSessionManager is a mock implementation of SessionManager
type mockSessionManager struct {
	sessions   map[string]*models.Session
	resolveErr error
	flashErr   error
	flashes    []models.Flash
	created    int
}

func newMockSessionManager() *mockSessionManager {
	return &mockSessionManager{sessions: map[string]*models.Session{}}
}

func (m *mockSessionManager) Resolve(ctx context.Context, token string) (*models.Session, error) {
	if m.resolveErr != nil {
		return nil, m.resolveErr
	}
	return m.sessions[token], nil
}

func (m *mockSessionManager) AddFlash(ctx context.Context, current *models.Session, flash models.Flash) (*models.Session, bool, error) {
	if m.flashErr != nil {
		return nil, false, m.flashErr
	}
	m.flashes = append(m.flashes, flash)
	if current != nil {
		current.Flash = &flash
		return current, false, nil
	}
	m.created++
	guest := &models.Session{Token: "guest-token", Flash: &flash, ExpiresAt: time.Now().Add(time.Hour)}
	m.sessions[guest.Token] = guest
	return guest, true, nil
}

// mockErrorPages is a mock implementation of ErrorPages
type mockErrorPages struct {
	internalErr error
}

func (p *mockErrorPages) Forbidden(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusForbidden)
	w.Write([]byte("forbidden page"))
}

func (p *mockErrorPages) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	p.internalErr = err
	w.WriteHeader(http.StatusInternalServerError)
	w.Write([]byte("error page"))
}

func setupGate() (*Gate, *mockSessionManager, *mockErrorPages) {
	sessions := newMockSessionManager()
	pages := &mockErrorPages{}
	gate := NewGate(sessions, NewSessionCookies(cookieName, false), pages, zap.NewNop())
	return gate, sessions, pages
}

// setupRouter mirrors the production layout: LoadSession globally, guards per group
func setupRouter(gate *Gate) chi.Router {
	ok := func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok:" + SessionFromContext(r.Context()).User.Username))
	}

	r := chi.NewRouter()
	r.Use(gate.LoadSession)
	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		if s := SessionFromContext(r.Context()); s.Authenticated() {
			w.Write([]byte("hello " + s.User.Username))
			return
		}
		w.Write([]byte("hello guest"))
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireAuthenticated)
		r.Get("/dashboard", ok)
	})
	r.Group(func(r chi.Router) {
		r.Use(gate.RequireRole(models.RoleAdmin))
		r.Get("/admin", ok)
	})
	return r
}

func userSession(token string, id int, role models.Role) *models.Session {
	return &models.Session{
		Token:     token,
		User:      &models.UserSnapshot{ID: id, Username: "user" + string(role), Role: role},
		ExpiresAt: time.Now().Add(time.Hour),
	}
}

func doRequest(router http.Handler, path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: token})
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGate_Access(t *testing.T) {
	gate, sessions, _ := setupGate()
	sessions.sessions["user-token"] = userSession("user-token", 1, models.RoleUser)
	sessions.sessions["admin-token"] = userSession("admin-token", 2, models.RoleAdmin)
	sessions.sessions["guest"] = &models.Session{Token: "guest", ExpiresAt: time.Now().Add(time.Hour)}
	router := setupRouter(gate)

	tests := []struct {
		name             string
		path             string
		token            string
		expectedStatus   int
		expectedLocation string
		expectedBody     string
	}{
		{name: "public page anonymous", path: "/", expectedStatus: http.StatusOK, expectedBody: "hello guest"},
		{name: "public page logged in", path: "/", token: "user-token", expectedStatus: http.StatusOK, expectedBody: "hello useruser"},
		{name: "protected page anonymous", path: "/dashboard", expectedStatus: http.StatusSeeOther, expectedLocation: LoginPath},
		{name: "protected page guest session", path: "/dashboard", token: "guest", expectedStatus: http.StatusSeeOther, expectedLocation: LoginPath},
		{name: "protected page unknown token", path: "/dashboard", token: "stale", expectedStatus: http.StatusSeeOther, expectedLocation: LoginPath},
		{name: "protected page user", path: "/dashboard", token: "user-token", expectedStatus: http.StatusOK, expectedBody: "ok:useruser"},
		{name: "admin page anonymous", path: "/admin", expectedStatus: http.StatusSeeOther, expectedLocation: LoginPath},
		{name: "admin page user", path: "/admin", token: "user-token", expectedStatus: http.StatusForbidden, expectedBody: "forbidden page"},
		{name: "admin page admin", path: "/admin", token: "admin-token", expectedStatus: http.StatusOK, expectedBody: "ok:useradmin"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, tt.path, tt.token)

			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedLocation != "" {
				assert.Equal(t, tt.expectedLocation, w.Header().Get("Location"))
			}
			if tt.expectedBody != "" {
				assert.Equal(t, tt.expectedBody, w.Body.String())
			}
		})
	}
}

func TestGate_RequireAuthenticated_FlashOnNewGuestSession(t *testing.T) {
	gate, sessions, _ := setupGate()
	router := setupRouter(gate)

	w := doRequest(router, "/dashboard", "")

	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Len(t, sessions.flashes, 1)
	assert.Equal(t, models.Flash{Kind: models.FlashError, Message: LoginRequiredMessage}, sessions.flashes[0])
	assert.Equal(t, 1, sessions.created)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, cookieName, cookies[0].Name)
	assert.Equal(t, "guest-token", cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteLaxMode, cookies[0].SameSite)
}

func TestGate_RequireAuthenticated_FlashOnExistingGuestSession(t *testing.T) {
	gate, sessions, _ := setupGate()
	guest := &models.Session{Token: "guest", ExpiresAt: time.Now().Add(time.Hour)}
	sessions.sessions["guest"] = guest
	router := setupRouter(gate)

	w := doRequest(router, "/dashboard", "guest")

	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, 0, sessions.created)
	assert.Empty(t, w.Result().Cookies())
	require.NotNil(t, guest.Flash)
	assert.Equal(t, LoginRequiredMessage, guest.Flash.Message)
}

func TestGate_LoadSession_StaleCookieCleared(t *testing.T) {
	gate, _, _ := setupGate()
	router := setupRouter(gate)

	w := doRequest(router, "/", "stale")

	assert.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "", cookies[0].Value)
	assert.True(t, cookies[0].MaxAge < 0)
}

func TestGate_StoreFailures(t *testing.T) {
	t.Run("resolve failure is an error page, not a logout", func(t *testing.T) {
		gate, sessions, pages := setupGate()
		sessions.resolveErr = errors.New("db down")
		router := setupRouter(gate)

		w := doRequest(router, "/dashboard", "user-token")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Empty(t, w.Header().Get("Location"))
		assert.EqualError(t, pages.internalErr, "db down")
	})

	t.Run("flash failure is an error page", func(t *testing.T) {
		gate, sessions, pages := setupGate()
		sessions.flashErr = errors.New("db down")
		router := setupRouter(gate)

		w := doRequest(router, "/dashboard", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Error(t, pages.internalErr)
	})
}

func TestSessionCookies(t *testing.T) {
	cookies := NewSessionCookies(cookieName, true)
	expires := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)

	w := httptest.NewRecorder()
	cookies.Set(w, &models.Session{Token: "raw-token", ExpiresAt: expires})

	set := w.Result().Cookies()
	require.Len(t, set, 1)
	assert.Equal(t, "raw-token", set[0].Value)
	assert.Equal(t, "/", set[0].Path)
	assert.True(t, set[0].HttpOnly)
	assert.True(t, set[0].Secure)
	assert.True(t, expires.Equal(set[0].Expires))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(set[0])
	assert.Equal(t, "raw-token", cookies.Token(req))
	assert.Equal(t, "", cookies.Token(httptest.NewRequest(http.MethodGet, "/", nil)))
}

func TestAPIKeyMiddleware(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	tests := []struct {
		name           string
		configured     string
		provided       string
		expectedStatus int
	}{
		{name: "valid key", configured: "secret", provided: "secret", expectedStatus: http.StatusOK},
		{name: "wrong key", configured: "secret", provided: "nope", expectedStatus: http.StatusUnauthorized},
		{name: "missing key", configured: "secret", provided: "", expectedStatus: http.StatusUnauthorized},
		{name: "nothing configured", configured: "", provided: "", expectedStatus: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/internal/sessions/cleanup", nil)
			if tt.provided != "" {
				req.Header.Set("X-API-Key", tt.provided)
			}
			w := httptest.NewRecorder()

			APIKeyMiddleware(tt.configured)(ok).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}
