package handlers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/healthtracker/backend/internal/models"
	"github.com/healthtracker/backend/internal/views"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for admin operations
type AdminService interface {
	// Method Overview returns the totals, the top users by workout count and the user list.
	Overview(ctx context.Context) (*models.AdminOverview, error)
	// Method ChangeRole sets the role of a user.
	//
	// "actor" parameter is the admin performing the change.
	// "rawRole" parameter is the submitted role, checked against the role enumeration.
	//
	// If the role is unknown, models.ErrInvalidRole will be returned.
	// If the actor demotes themself, models.ErrSelfModification will be returned.
	// If the user does not exist, models.ErrNotFound will be returned.
	ChangeRole(ctx context.Context, actor *models.UserSnapshot, targetID int, rawRole string) (*models.User, error)
	// Method ToggleActive flips the active flag of a user. Deactivation revokes the user's sessions.
	//
	// If the actor targets themself, models.ErrSelfModification will be returned.
	// If the user does not exist, models.ErrNotFound will be returned.
	ToggleActive(ctx context.Context, actor *models.UserSnapshot, targetID int) (*models.User, error)
}

// LoginAuditService is the interface that wraps reading the login audit log
type LoginAuditService interface {
	// Method ListRecent returns one page of login attempts, newest first.
	ListRecent(ctx context.Context, page int) ([]models.LoginAttempt, models.Page, error)
}

// AdminHandler handles the admin pages
type AdminHandler struct {
	BaseHandler
	adminService AdminService
	auditService LoginAuditService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(base BaseHandler, adminService AdminService, auditService LoginAuditService) *AdminHandler {
	return &AdminHandler{
		BaseHandler:  base,
		adminService: adminService,
		auditService: auditService,
	}
}

// RegisterRoutes registers all admin routes.
// The router is expected to be behind RequireRole(models.RoleAdmin).
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Route(adminPath, func(r chi.Router) {
		r.Get("/", h.Overview)
		r.Get("/login-audit", h.LoginAudit)
		r.Post("/users/{id}/role", h.ChangeRole)
		r.Post("/users/{id}/toggle-active", h.ToggleActive)
	})
}

// Overview handles GET /admin
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	overview, err := h.adminService.Overview(r.Context())
	if err != nil {
		h.InternalError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "admin", views.Page{Title: "Admin Overview", Data: overview})
}

// LoginAudit handles GET /admin/login-audit
func (h *AdminHandler) LoginAudit(w http.ResponseWriter, r *http.Request) {
	attempts, page, err := h.auditService.ListRecent(r.Context(), pageParam(r))
	if err != nil {
		h.InternalError(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "admin_login_audit", views.Page{
		Title: "Login audit",
		Data:  views.LoginAuditData{Attempts: attempts, Page: page},
	})
}

// ChangeRole handles POST /admin/users/{id}/role
func (h *AdminHandler) ChangeRole(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	actor := currentUser(r)
	user, err := h.adminService.ChangeRole(r.Context(), actor, id, r.PostFormValue("role"))
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	h.Logger.Info("role changed",
		zap.Int("actorID", actor.ID),
		zap.Int("userID", user.ID),
		zap.String("role", string(user.Role)),
	)
	h.redirectWithFlash(w, r, adminPath, models.FlashSuccess,
		fmt.Sprintf("%s is now %s.", user.Username, user.Role.Label()))
}

// ToggleActive handles POST /admin/users/{id}/toggle-active
func (h *AdminHandler) ToggleActive(w http.ResponseWriter, r *http.Request) {
	id, ok := urlID(r)
	if !ok {
		h.NotFound(w, r)
		return
	}

	actor := currentUser(r)
	user, err := h.adminService.ToggleActive(r.Context(), actor, id)
	if err != nil {
		h.handleError(w, r, err, nil)
		return
	}

	state := "deactivated"
	if user.IsActive {
		state = "activated"
	}
	h.Logger.Info("user "+state, zap.Int("actorID", actor.ID), zap.Int("userID", user.ID))
	h.redirectWithFlash(w, r, adminPath, models.FlashSuccess, fmt.Sprintf("%s has been %s.", user.Username, state))
}
