package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/anicore/backend/internal/middleware"
	"github.com/anicore/backend/internal/models"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// WatchlistService is the interface that wraps methods for watchlist business logic.
type WatchlistService interface {
	// Method Add puts an anime on the user's watchlist.
	//
	// An unknown status falls back to "Plan to Watch"; a Conflict error is
	// returned when the anime is already listed.
	Add(ctx context.Context, userID int, req models.AddWatchlistRequest) (*models.WatchlistEntry, error)
	// Method Update changes status, rating and episode progress of an entry.
	//
	// Unknown statuses and out-of-range ratings are rejected with a
	// Validation error.
	Update(ctx context.Context, userID int, req models.UpdateWatchlistRequest) (*models.WatchlistEntry, error)
	// Method Remove takes an anime off the user's watchlist.
	//
	// A NotFound error is returned when the anime was not listed.
	Remove(ctx context.Context, userID, animeID int) error
	// Method List retrieves the user's watchlist, optionally restricted to one status.
	List(ctx context.Context, userID int, statusFilter string) ([]models.WatchlistItem, error)
	// Method Stats derives aggregate numbers from the user's full watchlist.
	Stats(ctx context.Context, userID int) (*models.WatchlistStats, error)
}

// WatchlistHandler handles HTTP requests for the user watchlist
type WatchlistHandler struct {
	BaseHandler
	service WatchlistService
}

// NewWatchlistHandler creates a new watchlist handler
func NewWatchlistHandler(svc WatchlistService, logger *zap.Logger) *WatchlistHandler {
	return &WatchlistHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers all watchlist handler routes
func (h *WatchlistHandler) RegisterRoutes(r chi.Router) {
	r.Route("/watchlist", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/stats", h.Stats)
		r.Post("/", h.Add)
		r.Post("/update", h.Update)
		r.Post("/remove", h.Remove)
	})
}

const watchlistPage = "/watchlist"

// List handles GET /api/v1/watchlist
// @Summary Get the watchlist
// @Description Get the caller's watchlist, most recently updated first
// @Tags watchlist
// @Produce json
// @Param status query string false "Filter by status: Watching, Completed, On-Hold, Dropped, Plan to Watch"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/v1/watchlist [get]
func (h *WatchlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	statusFilter := r.URL.Query().Get("status")

	items, err := h.service.List(r.Context(), userID, statusFilter)
	if err != nil {
		h.respondError(w, r, err, watchlistPage)
		return
	}

	h.respondJSON(w, http.StatusOK, "", items)
}

// Stats handles GET /api/v1/watchlist/stats
// @Summary Get watchlist statistics
// @Description Get status counts, episode progress and average rating for the caller's watchlist
// @Tags watchlist
// @Produce json
// @Success 200 {object} envelope
// @Failure 401 {object} envelope
// @Router /api/v1/watchlist/stats [get]
func (h *WatchlistHandler) Stats(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	stats, err := h.service.Stats(r.Context(), userID)
	if err != nil {
		h.respondError(w, r, err, watchlistPage)
		return
	}

	h.respondJSON(w, http.StatusOK, "", stats)
}

// Add handles POST /api/v1/watchlist
// @Summary Add an anime to the watchlist
// @Description Add an anime to the caller's watchlist with an optional status, rating and episode progress
// @Tags watchlist
// @Accept json
// @Produce json
// @Param request body models.AddWatchlistRequest true "Anime to add"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 404 {object} envelope
// @Failure 409 {object} envelope
// @Router /api/v1/watchlist [post]
func (h *WatchlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.AddWatchlistRequest
	if err := h.parseAddRequest(r, &req); err != nil {
		h.respondError(w, r, err, watchlistPage)
		return
	}

	entry, err := h.service.Add(r.Context(), userID, req)
	if err != nil {
		h.respondError(w, r, err, watchlistPage)
		return
	}

	h.respondSuccess(w, r, "anime added to your watchlist", entry, watchlistPage)
}

// Update handles POST /api/v1/watchlist/update
// @Summary Update a watchlist entry
// @Description Change status, rating and episode progress of a watchlist entry
// @Tags watchlist
// @Accept json
// @Produce json
// @Param request body models.UpdateWatchlistRequest true "Fields to set"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/watchlist/update [post]
func (h *WatchlistHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.UpdateWatchlistRequest
	if err := h.parseUpdateRequest(r, &req); err != nil {
		h.respondError(w, r, err, watchlistPage)
		return
	}

	entry, err := h.service.Update(r.Context(), userID, req)
	if err != nil {
		h.respondError(w, r, err, watchlistPage)
		return
	}

	h.respondSuccess(w, r, "watchlist entry updated", entry, watchlistPage)
}

// Remove handles POST /api/v1/watchlist/remove
// @Summary Remove an anime from the watchlist
// @Description Take an anime off the caller's watchlist
// @Tags watchlist
// @Accept json
// @Produce json
// @Param request body models.AddWatchlistRequest true "Anime to remove (only anime_id is read)"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/watchlist/remove [post]
func (h *WatchlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())

	var req models.AddWatchlistRequest
	if err := h.parseAddRequest(r, &req); err != nil {
		h.respondError(w, r, err, h.removeTarget(r))
		return
	}

	if err := h.service.Remove(r.Context(), userID, req.AnimeID); err != nil {
		h.respondError(w, r, err, h.removeTarget(r))
		return
	}

	h.respondSuccess(w, r, "anime removed from your watchlist", nil, h.removeTarget(r))
}

// removeTarget picks the redirect target for form-based removal. Removing
// from an anime detail page goes back there; everywhere else lands on the
// watchlist page.
func (h *WatchlistHandler) removeTarget(r *http.Request) string {
	referer := r.Header.Get("Referer")
	if idx := strings.Index(referer, "/anime/"); idx >= 0 {
		return referer[idx:]
	}
	return watchlistPage
}

func (h *WatchlistHandler) parseAddRequest(r *http.Request, req *models.AddWatchlistRequest) error {
	if !isFormRequest(r) {
		return decodeBody(r, req)
	}

	animeID, err := formInt(r, "anime_id")
	if err != nil {
		return err
	}
	if animeID != nil {
		req.AnimeID = *animeID
	}
	req.Status = r.FormValue("status")
	if req.UserRating, err = formInt(r, "user_rating"); err != nil {
		return err
	}
	if req.EpisodesWatched, err = formInt(r, "episodes_watched"); err != nil {
		return err
	}
	return nil
}

func (h *WatchlistHandler) parseUpdateRequest(r *http.Request, req *models.UpdateWatchlistRequest) error {
	if !isFormRequest(r) {
		return decodeBody(r, req)
	}

	animeID, err := formInt(r, "anime_id")
	if err != nil {
		return err
	}
	if animeID != nil {
		req.AnimeID = *animeID
	}
	req.Status = r.FormValue("status")
	if req.UserRating, err = formInt(r, "user_rating"); err != nil {
		return err
	}
	if req.EpisodesWatched, err = formInt(r, "episodes_watched"); err != nil {
		return err
	}
	return nil
}
