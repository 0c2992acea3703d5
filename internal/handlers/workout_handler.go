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

// WorkoutService is the interface that wraps methods for workout business logic.
// Every method is scoped to "userID", the owner taken from the session.
type WorkoutService interface {
	// Method List returns one page of the owner's workouts, newest first.
	//
	// "page" parameter is the 1-based page number; out of range pages are empty.
	List(ctx context.Context, userID, page int) ([]models.Workout, models.Page, error)
	// Method Get returns one workout of the owner.
	//
	// If the workout does not exist or belongs to someone else, models.ErrNotFound will be returned.
	Get(ctx context.Context, userID, id int) (*models.Workout, error)
	// Method Create validates the form and stores a new workout.
	//
	// If the form is invalid, models.ValidationErrors will be returned.
	Create(ctx context.Context, userID int, form models.WorkoutForm) (*models.Workout, error)
	// Method Update validates the form and overwrites one workout of the owner.
	//
	// If the form is invalid, models.ValidationErrors will be returned.
	// If the workout does not exist or belongs to someone else, models.ErrNotFound will be returned.
	Update(ctx context.Context, userID, id int, form models.WorkoutForm) (*models.Workout, error)
	// Method Delete removes one workout of the owner.
	//
	// If the workout does not exist or belongs to someone else, models.ErrNotFound will be returned.
	Delete(ctx context.Context, userID, id int) error
}

// WorkoutHandler handles the workout pages
type WorkoutHandler struct {
	BaseHandler
	workoutService WorkoutService
	now            func() time.Time
}

// NewWorkoutHandler creates a new workout handler
func NewWorkoutHandler(base BaseHandler, workoutService WorkoutService) *WorkoutHandler {
	return &WorkoutHandler{
		BaseHandler:    base,
		workoutService: workoutService,
		now:            time.Now,
	}
}

// RegisterRoutes registers all workout routes.
// The router is expected to be behind RequireAuthenticated.
func (h *WorkoutHandler) RegisterRoutes(r chi.Router) {
	r.Route("/workouts", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/add", h.AddForm)
		r.Post("/add", h.Add)
		r.Get("/{id}", h.Show)
		r.Get("/{id}/edit", h.EditForm)
		r.Post("/{id}/edit", h.Edit)
		r.Post("/{id}/delete", h.Delete)
	})
}

func workoutFormFromRequest(r *http.Request) models.WorkoutForm {
	return models.WorkoutForm{
		Date:        r.PostFormValue("date"),
		Type:        r.PostFormValue("type"),
		DurationMin: r.PostFormValue("duration_min"),
		Intensity:   r.PostFormValue("intensity"),
		Calories:    r.PostFormValue("calories"),
		Notes:       r.PostFormValue("notes"),
	}
}

func addWorkoutPage(form models.WorkoutForm) views.Page {
	return views.Page{
		Title: "Add Workout",
		Data:  views.WorkoutFormData{Action: "/workouts/add", Submit: "Add Workout", Form: form},
	}
}

func editWorkoutPage(id int, form models.WorkoutForm) views.Page {
	return views.Page{
		Title: "Edit Workout",
		Data:  views.WorkoutFormData{Action: fmt.Sprintf("/workouts/%d/edit", id), Submit: "Save changes", Form: form},
	}
}

// List handles GET /workouts
func (h *WorkoutHandler) List(w http.ResponseWriter, r *http.Request) {
	workouts, page, err := h.workoutService.List(r.Context(), currentUser(r).ID, pageParam(r))
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.render(w, r, http.StatusOK, "workouts_list", views.Page{
		Title: "My Workouts",
		Data:  views.WorkoutListData{Workouts: workouts, Page: page},
	})
}

// AddForm handles GET /workouts/add
func (h *WorkoutHandler) AddForm(w http.ResponseWriter, r *http.Request) {
	form := models.WorkoutForm{Date: h.now().Format(models.DateLayout), Intensity: "1"}
	h.render(w, r, http.StatusOK, "workout_form", addWorkoutPage(form))
}

// Add handles POST /workouts/add
func (h *WorkoutHandler) Add(w http.ResponseWriter, r *http.Request) {
	form := workoutFormFromRequest(r)

	if _, err := h.workoutService.Create(r.Context(), currentUser(r).ID, form); err != nil {
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			h.renderForm(w, r, "workout_form", addWorkoutPage(form), errs)
		})
		return
	}

	h.redirectWithFlash(w, r, "/workouts", models.FlashSuccess, "Workout added.")
}

// Show handles GET /workouts/{id}
func (h *WorkoutHandler) Show(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	workout, err := h.workoutService.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.render(w, r, http.StatusOK, "workout_detail", views.Page{Title: "Workout Details", Data: workout})
}

// EditForm handles GET /workouts/{id}/edit
func (h *WorkoutHandler) EditForm(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	workout, err := h.workoutService.Get(r.Context(), currentUser(r).ID, id)
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.render(w, r, http.StatusOK, "workout_form", editWorkoutPage(id, models.FormFromWorkout(workout)))
}

// Edit handles POST /workouts/{id}/edit
func (h *WorkoutHandler) Edit(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}
	form := workoutFormFromRequest(r)

	if _, err := h.workoutService.Update(r.Context(), currentUser(r).ID, id, form); err != nil {
		h.handleError(w, r, err, func(errs models.ValidationErrors) {
			h.renderForm(w, r, "workout_form", editWorkoutPage(id, form), errs)
		})
		return
	}

	h.redirectWithFlash(w, r, "/workouts", models.FlashSuccess, "Workout updated.")
}

// Delete handles POST /workouts/{id}/delete
func (h *WorkoutHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	if err := h.workoutService.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.redirectWithFlash(w, r, "/workouts", models.FlashSuccess, "Workout deleted.")
}
