package handlers

import (
	"context"
	"net/http"

	"github.com/anicore/backend/internal/auth"
	"github.com/anicore/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// AuthService is the interface that wraps methods for authentication business logic.
type AuthService interface {
	// Method Register creates a new account with the "user" role.
	//
	// Validation errors cover the username, email and password rules; a
	// Conflict error is returned when the username or email is taken.
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	// Method Login verifies credentials. The login field accepts either a
	// username or an email address.
	//
	// Unknown accounts and wrong passwords produce the same Unauthorized error.
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	// Method ForgotPassword issues a fresh reset token for the account with
	// the given email. Unknown emails succeed silently.
	ForgotPassword(ctx context.Context, email string) error
	// Method ResetPassword consumes a reset token and replaces the account
	// password.
	ResetPassword(ctx context.Context, token, password, confirm string) error
}

// AuthHandler handles HTTP requests for registration, login and password reset
type AuthHandler struct {
	BaseHandler
	service  AuthService
	sessions *auth.SessionManager
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(svc AuthService, sessions *auth.SessionManager, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		service:     svc,
		sessions:    sessions,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all auth handler routes
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		r.Post("/logout", h.Logout)
		r.Post("/forgot-password", h.ForgotPassword)
		r.Post("/reset-password", h.ResetPassword)
	})
}

const loginPage = "/login"

// Register handles POST /api/v1/auth/register
// @Summary Register an account
// @Description Create a new account and start a session for it
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.RegisterRequest true "Registration fields"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 409 {object} envelope
// @Router /api/v1/auth/register [post]
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req models.RegisterRequest
	if isFormRequest(r) {
		req.Username = r.FormValue("username")
		req.Email = r.FormValue("email")
		req.Password = r.FormValue("password")
		req.ConfirmPassword = r.FormValue("confirm_password")
	} else if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, "/register")
		return
	}

	user, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, "/register")
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.respondError(w, r, err, loginPage)
		return
	}

	h.respondSuccess(w, r, "welcome to AniCore", user, "/")
}

// Login handles POST /api/v1/auth/login
// @Summary Log in
// @Description Verify credentials and start a session
// @Tags auth
// @Accept json
// @Produce json
// @Param request body models.LoginRequest true "Login fields"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/v1/auth/login [post]
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if isFormRequest(r) {
		req.Login = r.FormValue("login")
		req.Password = r.FormValue("password")
	} else if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, loginPage)
		return
	}

	user, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, loginPage)
		return
	}

	if err := h.startSession(w, user); err != nil {
		h.respondError(w, r, err, loginPage)
		return
	}

	h.respondSuccess(w, r, "logged in", user, "/")
}

// Logout handles POST /api/v1/auth/logout
// @Summary Log out
// @Description Clear the session cookie
// @Tags auth
// @Produce json
// @Success 200 {object} envelope
// @Router /api/v1/auth/logout [post]
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.sessions.ClearCookie(w)
	h.respondSuccess(w, r, "logged out", nil, loginPage)
}

// ForgotPassword handles POST /api/v1/auth/forgot-password
// @Summary Request a password reset
// @Description Issue a password reset token for the given email; unknown emails succeed silently
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object true "Email"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Router /api/v1/auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var email string
	if isFormRequest(r) {
		email = r.FormValue("email")
	} else {
		var req struct {
			Email string `json:"email"`
		}
		if err := decodeBody(r, &req); err != nil {
			h.respondError(w, r, err, "/forgot-password")
			return
		}
		email = req.Email
	}

	if err := h.service.ForgotPassword(r.Context(), email); err != nil {
		h.respondError(w, r, err, "/forgot-password")
		return
	}

	h.respondSuccess(w, r, "if the email is registered, a reset link has been sent", nil, loginPage)
}

// ResetPassword handles POST /api/v1/auth/reset-password
// @Summary Reset the password
// @Description Consume a reset token and set a new password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object true "Token and new password"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Router /api/v1/auth/reset-password [post]
func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var token, password, confirm string
	if isFormRequest(r) {
		token = r.FormValue("token")
		password = r.FormValue("password")
		confirm = r.FormValue("confirm_password")
	} else {
		var req struct {
			Token           string `json:"token"`
			Password        string `json:"password"`
			ConfirmPassword string `json:"confirm_password"`
		}
		if err := decodeBody(r, &req); err != nil {
			h.respondError(w, r, err, "/reset-password")
			return
		}
		token, password, confirm = req.Token, req.Password, req.ConfirmPassword
	}

	if err := h.service.ResetPassword(r.Context(), token, password, confirm); err != nil {
		h.respondError(w, r, err, "/reset-password")
		return
	}

	h.respondSuccess(w, r, "password reset, you can now log in", nil, loginPage)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, user *models.User) error {
	token, err := h.sessions.Issue(user.ID, user.Role)
	if err != nil {
		h.logger.Error("failed to issue session token", zap.Error(err), zap.Int("user_id", user.ID))
		return err
	}
	h.sessions.SetCookie(w, token)
	return nil
}
