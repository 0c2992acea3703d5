package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/middleware"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/views"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register validates the registration form and creates an active user with the user role.
	//
	// "req" parameter contains username, email, password and its confirmation.
	//
	// If the form is invalid or the username or email is taken, models.ValidationErrors will be returned.
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	// Method Login checks the credentials, records the attempt and creates a new session.
	//
	// "req" parameter contains the username or email and the password.
	// "meta" parameter describes the caller for the audit log.
	// "current" parameter is the session of the request, it is destroyed on success.
	//
	// If the form is empty, models.ValidationErrors will be returned.
	// If the credentials do not match an active account, models.ErrInvalidCredentials will be returned.
	Login(ctx context.Context, req *models.LoginRequest, meta models.LoginMeta, current *models.Session) (*models.Session, error)
	// Method Logout destroys the current session. Logging out twice is not an error.
	Logout(ctx context.Context, current *models.Session) error
	// Method DeleteAccount re-checks the password and deletes the user with everything the user owns.
	//
	// If the password is wrong, models.ValidationErrors will be returned.
	DeleteAccount(ctx context.Context, current *models.Session, password string) error
}

// AuthHandler handles registration, login, logout and account deletion
type AuthHandler struct {
	BaseHandler
	authService AuthService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(base BaseHandler, authService AuthService) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		authService: authService,
	}
}

// RegisterRoutes registers all auth handler routes.
// Login and registration sit behind rateLimit, account deletion behind requireAuth.
func (h *AuthHandler) RegisterRoutes(r chi.Router, requireAuth, rateLimit func(http.Handler) http.Handler) {
	r.Route("/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimit)
			r.Get("/register", h.RegisterForm)
			r.Post("/register", h.Register)
			r.Get("/login", h.LoginForm)
			r.Post("/login", h.Login)
		})

		r.Get("/logout", h.Logout)
		r.Post("/logout", h.Logout)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/delete-account", h.DeleteAccountForm)
			r.Post("/delete-account", h.DeleteAccount)
		})
	})
}

// RegisterForm handles GET /auth/register
func (h *AuthHandler) RegisterForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", views.Page{Title: "Register", Data: views.RegisterData{}})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	req := &models.RegisterRequest{
		Username:        r.PostFormValue("username"),
		Email:           r.PostFormValue("email"),
		Password:        r.PostFormValue("password"),
		ConfirmPassword: r.PostFormValue("confirm_password"),
	}

	user, err := h.authService.Register(r.Context(), req)
	if err != nil {
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			page := views.Page{
				Title: "Register",
				Data:  views.RegisterData{Username: req.Username, Email: req.Email},
			}
			h.renderForm(w, r, "register", page, errs)
		})
		return
	}

	h.Logger.Info("user registered", zap.Int("userID", user.ID), zap.String("username", user.Username))
	h.redirectWithFlash(w, r, middleware.LoginPath, models.FlashSuccess, "Registration successful. Please log in.")
}

// LoginForm handles GET /auth/login
func (h *AuthHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", views.Page{Title: "Login", Data: views.LoginData{}})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	req := &models.LoginRequest{
		Identifier: r.PostFormValue("identifier"),
		Password:   r.PostFormValue("password"),
	}
	meta := models.LoginMeta{IP: clientIP(r), UserAgent: r.UserAgent()}
	page := views.Page{Title: "Login", Data: views.LoginData{Identifier: req.Identifier}}

	session, err := h.authService.Login(r.Context(), req, meta, middleware.SessionFromContext(r.Context()))
	if err != nil {
		if errors.Is(err, models.ErrInvalidCredentials) {
			page.Errors = models.ValidationErrors{"form": "Invalid username or password."}
			h.render(w, r, http.StatusUnauthorized, "login", page)
			return
		}
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			h.renderForm(w, r, "login", page, errs)
		})
		return
	}

	h.Cookies.Set(w, session)
	if err := h.Flashes.SetFlash(r.Context(), session.Token, models.Flash{Kind: models.FlashSuccess, Message: "Welcome back!"}); err != nil {
		h.Logger.Warn("failed to set welcome flash", zap.Error(err))
	}

	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// Logout handles GET and POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.authService.Logout(r.Context(), middleware.SessionFromContext(r.Context())); err != nil {
		h.InternalError(w, r, err)
		return
	}

	h.Cookies.Clear(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// DeleteAccountForm handles GET /auth/delete-account
func (h *AuthHandler) DeleteAccountForm(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "delete_account", views.Page{Title: "Delete account"})
}

// DeleteAccount handles POST /auth/delete-account
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	session := middleware.SessionFromContext(r.Context())

	err := h.authService.DeleteAccount(r.Context(), session, r.PostFormValue("password"))
	if err != nil {
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			h.renderForm(w, r, "delete_account", views.Page{Title: "Delete account"}, errs)
		})
		return
	}

	// the old session is gone, the goodbye message rides on a fresh guest session
	h.redirectWithFlashOn(w, r, nil, "/", models.FlashSuccess, "Your account has been deleted.")
}
