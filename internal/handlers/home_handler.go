package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/middleware"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/views"
)

// StatsService is the interface that wraps the per user aggregates.
type StatsService interface {
	// Method HomeStats returns the owner's workout count and minutes over the last 7 days.
	HomeStats(ctx context.Context, userID int) (*models.WeeklyWorkoutStats, error)
	// Method Dashboard returns the owner's workout and metric aggregates over the last 7 days.
	Dashboard(ctx context.Context, userID int) (*models.Dashboard, error)
}

// HomeHandler handles the home, about and dashboard pages
type HomeHandler struct {
	BaseHandler
	statsService StatsService
}

// NewHomeHandler creates a new home handler
func NewHomeHandler(base BaseHandler, statsService StatsService) *HomeHandler {
	return &HomeHandler{
		BaseHandler:  base,
		statsService: statsService,
	}
}

// RegisterRoutes registers the public pages and the dashboard behind requireAuth
func (h *HomeHandler) RegisterRoutes(r chi.Router, requireAuth func(http.Handler) http.Handler) {
	r.Get("/", h.Home)
	r.Get("/about", h.About)
	r.With(requireAuth).Get("/dashboard", h.Dashboard)
}

// Home handles GET /
func (h *HomeHandler) Home(w http.ResponseWriter, r *http.Request) {
	data := views.HomeData{}

	if session := middleware.SessionFromContext(r.Context()); session.Authenticated() {
		stats, err := h.statsService.HomeStats(r.Context(), session.User.ID)
		if err != nil {
			h.InternalError(w, r, err)
			return
		}
		data.Stats = stats
	}

	h.render(w, r, http.StatusOK, "home", views.Page{Title: "Home", Data: data})
}

// About handles GET /about
func (h *HomeHandler) About(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "about", views.Page{Title: "About"})
}

// Dashboard handles GET /dashboard
func (h *HomeHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	dashboard, err := h.statsService.Dashboard(r.Context(), currentUser(r).ID)
	if err != nil {
		h.InternalError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "dashboard", views.Page{Title: "Dashboard", Data: dashboard})
}
