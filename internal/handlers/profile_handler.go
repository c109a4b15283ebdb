package handlers

import (
	"context"
	"net/http"

	"github.com/anicore/backend/internal/middleware"
	"github.com/anicore/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProfileService is the interface that wraps methods for profile business logic.
type ProfileService interface {
	// Method Get retrieves the caller's own account.
	Get(ctx context.Context, userID int) (*models.User, error)
	// Method Update applies email, password and picture changes to the
	// caller's own account.
	//
	// Changing the password requires the current password to verify.
	Update(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error)
}

// ProfileHandler handles HTTP requests for the user's own profile
type ProfileHandler struct {
	BaseHandler
	service ProfileService
}

// NewProfileHandler creates a new profile handler
func NewProfileHandler(svc ProfileService, logger *zap.Logger) *ProfileHandler {
	return &ProfileHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all profile handler routes
func (h *ProfileHandler) RegisterRoutes(r chi.Router) {
	r.Route("/profile", func(r chi.Router) {
		r.Get("/", h.Get)
		r.Post("/", h.Update)
	})
}

const profilePage = "/profile"

// Get handles GET /api/v1/profile
// @Summary Get the profile
// @Description Get the caller's own account
// @Tags profile
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/v1/profile [get]
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	user, err := h.service.Get(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err, profilePage)
		return
	}

	h.respondJSON(w, http.StatusOK, "", user)
}

// Update handles POST /api/v1/profile
// @Summary Update the profile
// @Description Change the caller's email, password or profile picture
// @Tags profile
// @Accept json
// @Produce json
// @Param request body models.UpdateProfileRequest true "Fields to change"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 409 {object} envelope
// @Router /api/v1/profile [post]
func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.UpdateProfileRequest
	if isFormRequest(r) {
		req.Email = r.FormValue("email")
		req.CurrentPassword = r.FormValue("current_password")
		req.NewPassword = r.FormValue("new_password")
		req.ConfirmPassword = r.FormValue("confirm_password")
		req.ProfilePicture = r.FormValue("profile_picture")
	} else if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, profilePage)
		return
	}

	user, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		h.respondError(w, r, err, profilePage)
		return
	}

	h.respondSuccess(w, r, "profile updated", user, profilePage)
}
