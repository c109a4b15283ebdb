package handlers

import (
	"context"
	"net/http"

	"github.com/anicore/backend/internal/middleware"
	"github.com/anicore/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ContactService is the interface that wraps methods for contact inbox business logic.
type ContactService interface {
	// Method Submit stores a contact form message as unread. A positive
	// userID links the message to the sender's account.
	Submit(ctx context.Context, userID int, req models.ContactRequest) (*models.ContactMessage, error)
	// Method List retrieves the full inbox, newest first.
	List(ctx context.Context) ([]models.ContactMessage, error)
	// Method MarkRead marks a message as read.
	MarkRead(ctx context.Context, id int) error
	// Method MarkReplied marks a message as replied.
	MarkReplied(ctx context.Context, id int) error
	// Method Reply records an admin reply and marks the message replied.
	Reply(ctx context.Context, id int, req models.ReplyRequest) error
	// Method Delete removes a message from the inbox.
	Delete(ctx context.Context, id int) error
}

// ContactHandler handles HTTP requests for the contact form and admin inbox
type ContactHandler struct {
	BaseHandler
	service ContactService
}

// NewContactHandler creates a new contact handler
func NewContactHandler(svc ContactService, logger *zap.Logger) *ContactHandler {
	return &ContactHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers the public contact form route
func (h *ContactHandler) RegisterRoutes(r chi.Router) {
	r.Post("/contact", h.Submit)
}

// RegisterAdminRoutes registers the admin inbox routes
func (h *ContactHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/messages", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/{id}/read", h.MarkRead)
		r.Post("/{id}/replied", h.MarkReplied)
		r.Post("/{id}/reply", h.Reply)
		r.Delete("/{id}", h.Delete)
	})
}

const (
	contactPage  = "/contact"
	messagesPage = "/admin/messages"
)

// Submit handles POST /api/v1/contact
// @Summary Submit a contact message
// @Description Store a contact form message; works for visitors and logged-in users alike
// @Tags contact
// @Accept json
// @Produce json
// @Param request body models.ContactRequest true "Contact form fields"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Router /api/v1/contact [post]
func (h *ContactHandler) Submit(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.ContactRequest
	if isFormRequest(r) {
		req.Name = r.FormValue("name")
		req.Email = r.FormValue("email")
		req.Subject = r.FormValue("subject")
		req.Message = r.FormValue("message")
	} else if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, contactPage)
		return
	}

	msg, err := h.service.Submit(r.Context(), userID, req)
	if err != nil {
		h.respondError(w, r, err, contactPage)
		return
	}

	h.respondSuccess(w, r, "thank you for your message, we will get back to you soon", msg, contactPage)
}

// List handles GET /api/v1/admin/messages
// @Summary List contact messages
// @Description Get the full contact inbox, newest first (admin only)
// @Tags admin
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Router /api/v1/admin/messages [get]
func (h *ContactHandler) List(w http.ResponseWriter, r *http.Request) {
	messages, err := h.service.List(r.Context())
	if err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	h.respondJSON(w, http.StatusOK, "", messages)
}

// MarkRead handles POST /api/v1/admin/messages/{id}/read
// @Summary Mark a message read
// @Description Mark a contact message as read (admin only)
// @Tags admin
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/admin/messages/{id}/read [post]
func (h *ContactHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.MarkRead, "message marked as read")
}

// MarkReplied handles POST /api/v1/admin/messages/{id}/replied
// @Summary Mark a message replied
// @Description Mark a contact message as replied (admin only)
// @Tags admin
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/admin/messages/{id}/replied [post]
func (h *ContactHandler) MarkReplied(w http.ResponseWriter, r *http.Request) {
	h.setStatus(w, r, h.service.MarkReplied, "message marked as replied")
}

func (h *ContactHandler) setStatus(w http.ResponseWriter, r *http.Request, op func(context.Context, int) error, message string) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	if err := op(r.Context(), id); err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	h.respondSuccess(w, r, message, nil, messagesPage)
}

// Reply handles POST /api/v1/admin/messages/{id}/reply
// @Summary Reply to a message
// @Description Record an admin reply to a contact message and mark it replied (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Message ID"
// @Param request body models.ReplyRequest true "Reply fields"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/admin/messages/{id}/reply [post]
func (h *ContactHandler) Reply(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	var req models.ReplyRequest
	if isFormRequest(r) {
		req.ReplyEmail = r.FormValue("reply_email")
		req.ReplyText = r.FormValue("reply_text")
	} else if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	if err := h.service.Reply(r.Context(), id, req); err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	h.respondSuccess(w, r, "reply sent", nil, messagesPage)
}

// Delete handles DELETE /api/v1/admin/messages/{id}
// @Summary Delete a message
// @Description Remove a contact message from the inbox (admin only)
// @Tags admin
// @Produce json
// @Param id path int true "Message ID"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/admin/messages/{id} [delete]
func (h *ContactHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err, messagesPage)
		return
	}

	h.respondSuccess(w, r, "message deleted", nil, messagesPage)
}
