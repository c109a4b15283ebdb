package handlers

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"strconv"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/middleware"
	"go.uber.org/zap"
)

// envelope is the JSON response shape shared by all endpoints.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type BaseHandler struct {
	logger *zap.Logger
}

// respondJSON sends a JSON success envelope
func (h *BaseHandler) respondJSON(w http.ResponseWriter, status int, message string, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(envelope{Success: true, Message: message, Data: data}); err != nil {
		h.logger.Error("failed to encode JSON response", zap.Error(err))
	}
}

// respondErrorJSON sends a JSON failure envelope
func (h *BaseHandler) respondErrorJSON(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(envelope{Success: false, Message: message})
}

// respondError maps a service error to a response. AJAX requests receive the
// JSON envelope; browser form posts get a 303 redirect back to fallback with
// the message in the query string.
func (h *BaseHandler) respondError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	status := statusForError(err)
	message := apperrors.UserMessage(err)

	if middleware.WantsJSON(r) {
		h.respondErrorJSON(w, status, message)
		return
	}
	redirectWithMessage(w, r, fallback, message, true)
}

// respondSuccess delivers an operation result. AJAX requests receive the JSON
// envelope; browser form posts get a 303 redirect to fallback carrying the
// message.
func (h *BaseHandler) respondSuccess(w http.ResponseWriter, r *http.Request, message string, data any, fallback string) {
	if middleware.WantsJSON(r) {
		h.respondJSON(w, http.StatusOK, message, data)
		return
	}
	redirectWithMessage(w, r, fallback, message, false)
}

// statusForError maps the error taxonomy to HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apperrors.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, apperrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// redirectWithMessage sends a 303 redirect carrying the outcome in query
// parameters, the way classic form flows surface flash messages.
func redirectWithMessage(w http.ResponseWriter, r *http.Request, target, message string, isError bool) {
	u, err := url.Parse(target)
	if err != nil {
		u = &url.URL{Path: "/"}
	}

	q := u.Query()
	q.Set("message", message)
	if isError {
		q.Set("error", "1")
	}
	u.RawQuery = q.Encode()

	http.Redirect(w, r, u.String(), http.StatusSeeOther)
}

// decodeBody fills dst from a JSON request body.
func decodeBody(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperrors.Validation("invalid request body")
	}
	return nil
}

// isFormRequest reports whether the request carries URL-encoded or multipart
// form data rather than a JSON body.
func isFormRequest(r *http.Request) bool {
	ct, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return ct == "application/x-www-form-urlencoded" || ct == "multipart/form-data"
}

// formInt parses an optional integer form field. Empty fields come back as
// nil rather than zero so absent and zero stay distinguishable.
func formInt(r *http.Request, name string) (*int, error) {
	raw := r.FormValue(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, apperrors.Validation("invalid " + name)
	}
	return &v, nil
}

// pathID parses a positive integer id out of a URL path segment.
func pathID(raw string) (int, error) {
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.Validation("invalid id")
	}
	return id, nil
}
