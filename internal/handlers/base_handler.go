package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/middleware"
	"github.com/healthtracker/backend/internal/middlewares"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/views"
	"go.uber.org/zap"
)

const adminPath = "/admin"

// FlashStore is the interface that wraps the flash operations of the session manager.
type FlashStore interface {
	// Method SetFlash overwrites the flash slot of a session.
	//
	// "token" parameter is the raw session token.
	//
	// If the session does not exist, models.ErrNotFound will be returned.
	SetFlash(ctx context.Context, token string, flash models.Flash) error
	// Method TakeFlash reads and clears the flash slot of a session in one step.
	//
	// If the slot is empty, nil is returned together with nil error.
	TakeFlash(ctx context.Context, token string) (*models.Flash, error)
	// Method AddFlash stores a flash on the current session or on a new guest session.
	//
	// The returned flag reports whether a new session was created and its cookie must be set.
	AddFlash(ctx context.Context, current *models.Session, flash models.Flash) (*models.Session, bool, error)
}

// BaseHandler provides common handler functionality: page rendering,
// flash handling and translation of service errors into responses
type BaseHandler struct {
	Logger  *zap.Logger
	Views   *views.Renderer
	Flashes FlashStore
	Cookies *middleware.SessionCookies
}

// NewBaseHandler creates the handler base shared by every page handler
func NewBaseHandler(renderer *views.Renderer, flashes FlashStore, cookies *middleware.SessionCookies, logger *zap.Logger) BaseHandler {
	return BaseHandler{
		Logger:  logger,
		Views:   renderer,
		Flashes: flashes,
		Cookies: cookies,
	}
}

// render shows a page to the current visitor and consumes the pending flash
func (h *BaseHandler) render(w http.ResponseWriter, r *http.Request, status int, name string, page views.Page) {
	session := middleware.SessionFromContext(r.Context())
	if session.Authenticated() {
		page.User = session.User
	}

	if session != nil && session.Flash != nil && page.Flash == nil {
		flash, err := h.Flashes.TakeFlash(r.Context(), session.Token)
		if err != nil {
			h.InternalError(w, r, err)
			return
		}
		page.Flash = flash
	}

	h.write(w, r, status, name, page)
}

// renderForm re-renders a form with its validation messages
func (h *BaseHandler) renderForm(w http.ResponseWriter, r *http.Request, name string, page views.Page, errs models.ValidationErrors) {
	page.Errors = errs
	h.render(w, r, http.StatusUnprocessableEntity, name, page)
}

func (h *BaseHandler) write(w http.ResponseWriter, r *http.Request, status int, name string, page views.Page) {
	if err := h.Views.Render(w, status, name, page); err != nil {
		middlewares.RequestLogger(r.Context(), h.Logger).Error("failed to render page",
			zap.Error(err),
			zap.String("page", name),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// errorPage renders an error page without consuming the flash, so it survives to the next page
func (h *BaseHandler) errorPage(w http.ResponseWriter, r *http.Request, status int, name, title string) {
	page := views.Page{Title: title}
	if session := middleware.SessionFromContext(r.Context()); session.Authenticated() {
		page.User = session.User
	}
	h.write(w, r, status, name, page)
}

// NotFound renders the 404 page
func (h *BaseHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusNotFound, "error_404", "Not found")
}

// Forbidden renders the 403 page
func (h *BaseHandler) Forbidden(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusForbidden, "error_403", "Forbidden")
}

// RequestTooLarge renders the 413 page
func (h *BaseHandler) RequestTooLarge(w http.ResponseWriter, r *http.Request) {
	h.errorPage(w, r, http.StatusRequestEntityTooLarge, "error_413", "Request too large")
}

// InternalError logs the full error and renders the generic 500 page
func (h *BaseHandler) InternalError(w http.ResponseWriter, r *http.Request, err error) {
	middlewares.RequestLogger(r.Context(), h.Logger).Error("request failed",
		zap.Error(err),
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	)
	h.errorPage(w, r, http.StatusInternalServerError, "error_500", "Error")
}

// handleError translates a service error into a response.
// Validation errors go to invalid when the caller can re-render a form.
func (h *BaseHandler) handleError(w http.ResponseWriter, r *http.Request, err error, invalid func(models.ValidationErrors)) {
	if errs, ok := models.AsValidationErrors(err); ok && invalid != nil {
		invalid(errs)
		return
	}

	switch {
	case errors.Is(err, models.ErrNotFound):
		h.NotFound(w, r)
	case errors.Is(err, models.ErrSelfModification):
		h.redirectWithFlash(w, r, adminPath, models.FlashError, "You cannot demote or deactivate your own account.")
	case errors.Is(err, models.ErrInvalidRole):
		h.redirectWithFlash(w, r, adminPath, models.FlashError, "Invalid role.")
	default:
		h.InternalError(w, r, err)
	}
}

// redirectWithFlash stores a flash for the next page and answers 303 See Other
func (h *BaseHandler) redirectWithFlash(w http.ResponseWriter, r *http.Request, location string, kind models.FlashKind, message string) {
	h.redirectWithFlashOn(w, r, middleware.SessionFromContext(r.Context()), location, kind, message)
}

// redirectWithFlashOn is redirectWithFlash for an explicit session, nil meaning a new guest session
func (h *BaseHandler) redirectWithFlashOn(w http.ResponseWriter, r *http.Request, session *models.Session, location string, kind models.FlashKind, message string) {
	updated, created, err := h.Flashes.AddFlash(r.Context(), session, models.Flash{Kind: kind, Message: message})
	if err != nil {
		h.InternalError(w, r, err)
		return
	}
	if created {
		h.Cookies.Set(w, updated)
	}
	http.Redirect(w, r, location, http.StatusSeeOther)
}

// RespondJSON sends a JSON response
func (h *BaseHandler) RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.Logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// RespondError sends an error JSON response
func (h *BaseHandler) RespondError(w http.ResponseWriter, status int, message string) {
	h.RespondJSON(w, status, map[string]string{"error": message})
}

// currentUser returns the identity of the session. Only valid behind RequireAuthenticated.
func currentUser(r *http.Request) *models.UserSnapshot {
	return middleware.SessionFromContext(r.Context()).User
}

// urlID parses the {id} URL parameter. Anything but a positive integer is reported as not ok.
func urlID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

// pageParam parses the ?page query parameter, defaulting to the first page
func pageParam(r *http.Request) int {
	page, err := strconv.Atoi(r.URL.Query().Get("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// clientIP returns the caller address without its port.
// RemoteAddr only reflects proxy headers when the router trusts them.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
