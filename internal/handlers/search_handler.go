package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/views"
)

// WorkoutSearcher is the interface that wraps the workout search.
type WorkoutSearcher interface {
	// Method Search returns the owner's workouts matching the form, newest first.
	//
	// "form" parameter holds the raw query values; empty values mean no constraint.
	//
	// If a date or the minimum duration is malformed, models.ValidationErrors will be returned.
	Search(ctx context.Context, userID int, form models.WorkoutSearchForm) ([]models.Workout, error)
}

// SearchHandler handles the workout search pages
type SearchHandler struct {
	BaseHandler
	searcher WorkoutSearcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(base BaseHandler, searcher WorkoutSearcher) *SearchHandler {
	return &SearchHandler{
		BaseHandler: base,
		searcher:    searcher,
	}
}

// RegisterRoutes registers the search routes.
// The router is expected to be behind RequireAuthenticated.
func (h *SearchHandler) RegisterRoutes(r chi.Router) {
	r.Get("/search", h.Form)
	r.Get("/search/results", h.Results)
}

// Form handles GET /search
func (h *SearchHandler) Form(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "search", views.Page{Title: "Search", Data: views.SearchData{}})
}

// Results handles GET /search/results
func (h *SearchHandler) Results(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	form := models.WorkoutSearchForm{
		Query:       q.Get("q"),
		DateFrom:    q.Get("date_from"),
		DateTo:      q.Get("date_to"),
		MinDuration: q.Get("min_duration"),
	}

	results, err := h.searcher.Search(r.Context(), currentUser(r).ID, form)
	if err != nil {
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			h.renderForm(w, r, "search_results", views.Page{Title: "Search results", Data: views.SearchData{Form: form}}, errs)
		})
		return
	}

	h.render(w, r, http.StatusOK, "search_results", views.Page{
		Title: "Search results",
		Data:  views.SearchData{Form: form, Results: results},
	})
}
