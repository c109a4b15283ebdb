package handlers

import (
	"context"
	"net/http"

	"github.com/anicore/backend/internal/middleware"
	"github.com/anicore/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AdminService is the interface that wraps methods for admin dashboard and user management logic.
type AdminService interface {
	// Method Stats aggregates the counters shown on the admin dashboard.
	Stats(ctx context.Context) (*models.DashboardStats, error)
	// Method ListUsers retrieves every account, newest first.
	ListUsers(ctx context.Context) ([]models.UserListItem, error)
	// Method UpdateUserRole changes another account's role.
	//
	// A Forbidden error is returned when the actor targets their own account.
	UpdateUserRole(ctx context.Context, actorID, userID int, role string) error
	// Method DeleteUser removes another account.
	//
	// A Forbidden error is returned when the actor targets their own account.
	DeleteUser(ctx context.Context, actorID, userID int) error
}

// AdminHandler handles HTTP requests for the admin dashboard and user management
type AdminHandler struct {
	BaseHandler
	service AdminService
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(svc AdminService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers the admin dashboard and user management routes
func (h *AdminHandler) RegisterRoutes(r chi.Router) {
	r.Get("/stats", h.Stats)
	r.Route("/users", func(r chi.Router) {
		r.Get("/", h.ListUsers)
		r.Post("/role", h.UpdateUserRole)
		r.Post("/delete", h.DeleteUser)
	})
}

const adminUsersPage = "/admin/users"

// Stats handles GET /api/v1/admin/stats
// @Summary Get dashboard statistics
// @Description Get user, catalog, watchlist and inbox counters (admin only)
// @Tags admin
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Router /api/v1/admin/stats [get]
func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondError(w, r, err, "/admin")
		return
	}

	h.respondJSON(w, http.StatusOK, "", stats)
}

// ListUsers handles GET /api/v1/admin/users
// @Summary List users
// @Description Get every account for the user management table (admin only)
// @Tags admin
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Router /api/v1/admin/users [get]
func (h *AdminHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, r, err, adminUsersPage)
		return
	}

	h.respondJSON(w, http.StatusOK, "", users)
}

// UpdateUserRole handles POST /api/v1/admin/users/role
// @Summary Change a user's role
// @Description Promote or demote another account; admins cannot change their own role (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.UpdateRoleRequest true "User and new role"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/admin/users/role [post]
func (h *AdminHandler) UpdateUserRole(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserID(r.Context())

	var req models.UpdateRoleRequest
	if isFormRequest(r) {
		userID, err := formInt(r, "user_id")
		if err != nil {
			h.respondError(w, r, err, adminUsersPage)
			return
		}
		if userID != nil {
			req.UserID = *userID
		}
		req.Role = r.FormValue("role")
	} else if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, adminUsersPage)
		return
	}

	if err := h.service.UpdateUserRole(r.Context(), actorID, req.UserID, req.Role); err != nil {
		h.respondError(w, r, err, adminUsersPage)
		return
	}

	h.respondSuccess(w, r, "user role updated", nil, adminUsersPage)
}

// DeleteUser handles POST /api/v1/admin/users/delete
// @Summary Delete a user
// @Description Remove another account; admins cannot delete themselves (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.UpdateRoleRequest true "User to delete (only user_id is read)"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/admin/users/delete [post]
func (h *AdminHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	actorID, _ := middleware.GetUserID(r.Context())

	var req models.UpdateRoleRequest
	if isFormRequest(r) {
		userID, err := formInt(r, "user_id")
		if err != nil {
			h.respondError(w, r, err, adminUsersPage)
			return
		}
		if userID != nil {
			req.UserID = *userID
		}
	} else if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, adminUsersPage)
		return
	}

	if err := h.service.DeleteUser(r.Context(), actorID, req.UserID); err != nil {
		h.respondError(w, r, err, adminUsersPage)
		return
	}

	h.respondSuccess(w, r, "user deleted", nil, adminUsersPage)
}
