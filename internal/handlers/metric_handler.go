package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/views"
)

// MetricService is the interface that wraps methods for body metric business logic.
// Every method is scoped to "userID", the owner taken from the session.
type MetricService interface {
	// Method List returns all of the owner's metrics, newest first.
	List(ctx context.Context, userID int) ([]models.Metric, error)
	// Method Get returns one metric of the owner.
	//
	// If the metric does not exist or belongs to someone else, models.ErrNotFound will be returned.
	Get(ctx context.Context, userID, id int) (*models.Metric, error)
	// Method Create validates the form and stores a new metric.
	//
	// If the form is invalid, models.ValidationErrors will be returned.
	Create(ctx context.Context, userID int, form models.MetricForm) (*models.Metric, error)
	// Method Update validates the form and overwrites one metric of the owner.
	//
	// If the form is invalid, models.ValidationErrors will be returned.
	// If the metric does not exist or belongs to someone else, models.ErrNotFound will be returned.
	Update(ctx context.Context, userID, id int, form models.MetricForm) (*models.Metric, error)
	// Method Delete removes one metric of the owner.
	//
	// If the metric does not exist or belongs to someone else, models.ErrNotFound will be returned.
	Delete(ctx context.Context, userID, id int) error
}

// MetricHandler handles the body metric pages
type MetricHandler struct {
	BaseHandler
	metricService MetricService
	now           func() time.Time
}

// NewMetricHandler creates a new metric handler
func NewMetricHandler(base BaseHandler, metricService MetricService) *MetricHandler {
	return &MetricHandler{
		BaseHandler:   base,
		metricService: metricService,
		now:           time.Now,
	}
}

// RegisterRoutes registers all metric routes.
// The router is expected to be behind RequireAuthenticated.
func (h *MetricHandler) RegisterRoutes(r chi.Router) {
	r.Route("/metrics", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/add", h.AddForm)
		r.Post("/add", h.Add)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Edit)
		r.Post("/{id}/delete", h.Delete)
	})
}

func metricFormFromRequest(r *http.Request) models.MetricForm {
	return models.MetricForm{
		Date:        r.PostFormValue("date"),
		WeightKg:    r.PostFormValue("weight_kg"),
		Steps:       r.PostFormValue("steps"),
		BPSystolic:  r.PostFormValue("bp_systolic"),
		BPDiastolic: r.PostFormValue("bp_diastolic"),
		Notes:       r.PostFormValue("notes"),
	}
}

func addMetricPage(form models.MetricForm) views.Page {
	return views.Page{
		Title: "Add Metric",
		Data:  views.MetricFormData{Action: "/metrics/add", Submit: "Add Metric", Form: form},
	}
}

func editMetricPage(id int, form models.MetricForm) views.Page {
	return views.Page{
		Title: "Edit Metric",
		Data:  views.MetricFormData{Action: fmt.Sprintf("/metrics/%d/edit", id), Submit: "Save changes", Form: form},
	}
}

// List handles GET /metrics
func (h *MetricHandler) List(w http.ResponseWriter, r *http.Request) {
	metrics, err := h.metricService.List(r.Context(), currentUser(r).ID)
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.render(w, r, http.StatusOK, "metrics_list", views.Page{
		Title: "My Metrics",
		Data:  views.MetricListData{Metrics: metrics},
	})
}

// AddForm handles GET /metrics/add
func (h *MetricHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	form := models.MetricForm{Date: h.now().Format(models.DateLayout)}
	h.render(w, r, http.StatusOK, "metric_form", addMetricPage(form))
}

// Add handles POST /metrics/add
func (h *MetricHandler) Add(w http.ResponseWriter, r *http.Request) {
	form := metricFormFromRequest(r)

	if _, err := h.metricService.Create(r.Context(), currentUser(r).ID, form); err != nil {
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			h.renderForm(w, r, "metric_form", addMetricPage(form), errs)
		})
		return
	}

	h.redirectWithFlash(w, r, "/metrics", models.FlashSuccess, "Metric added.")
}

// Show handles GET /metrics/{id}
func (h *MetricHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	metric, err := h.metricService.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.render(w, r, http.StatusOK, "metric_detail", views.Page{Title: "Metric Details", Data: metric})
}

// EditForm handles GET /metrics/{id}/edit
func (h *MetricHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	metric, err := h.metricService.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.render(w, r, http.StatusOK, "metric_form", editMetricPage(id, models.FormFromMetric(metric)))
}

// Edit handles POST /metrics/{id}/edit
func (h *MetricHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	form := metricFormFromRequest(r)

	if _, err := h.metricService.Update(r.Context(), currentUser(r).ID, id, form); err != nil {
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			h.renderForm(w, r, "metric_form", editMetricPage(id, form), errs)
		})
		return
	}

	h.redirectWithFlash(w, r, "/metrics", models.FlashSuccess, "Metric updated.")
}

// Delete handles POST /metrics/{id}/delete
func (h *MetricHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	if err := h.metricService.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.redirectWithFlash(w, r, "/metrics", models.FlashSuccess, "Metric deleted.")
}
