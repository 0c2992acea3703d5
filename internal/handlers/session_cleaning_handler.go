package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/metrics"
	"go.uber.org/zap"
)

// SessionPurger is the interface that wraps the expired session purge.
type SessionPurger interface {
	// Method DeleteExpired removes every session whose expiry has passed and returns how many were removed.
	DeleteExpired(ctx context.Context) (int, error)
}

// SessionCleaningHandler handles session cleaning requests from an external scheduler
type SessionCleaningHandler struct {
	BaseHandler
	purger SessionPurger
}

// NewSessionCleaningHandler creates a new session cleaning handler
func NewSessionCleaningHandler(purger SessionPurger, logger *zap.Logger) *SessionCleaningHandler {
	return &SessionCleaningHandler{
		BaseHandler: BaseHandler{Logger: logger},
		purger:      purger,
	}
}

// RegisterRoutes registers session cleaning handler routes.
// The router is expected to be behind the API key middleware.
func (h *SessionCleaningHandler) RegisterRoutes(r chi.Router) {
	r.Post("/sessions/cleanup", h.CleanSessions)
}

// CleanSessions handles POST /internal/sessions/cleanup
func (h *SessionCleaningHandler) CleanSessions(w http.ResponseWriter, r *http.Request) {
	deletedCount, err := h.purger.DeleteExpired(r.Context())
	if err != nil {
		h.Logger.Error("failed to delete expired sessions", zap.Error(err))
		h.RespondError(w, http.StatusInternalServerError, "failed to delete expired sessions")
		return
	}

	// 0 deleted rows is not an error
	metrics.RecordSessionsPurged(deletedCount)
	h.RespondJSON(w, http.StatusOK, map[string]any{
		"message":      "session cleaning completed successfully",
		"deletedCount": deletedCount,
	})
}
