package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/anicore/backend/internal/middleware"
	"github.com/anicore/backend/internal/models"
	"github.com/anicore/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// CatalogService is the interface that wraps methods for anime catalog business logic.
type CatalogService interface {
	// Method List retrieves one page of the catalog matching the search and
	// genre filter. Out-of-range paging values are clamped.
	List(ctx context.Context, params services.ListParams) (*models.AnimePage, error)
	// Method GetDetail retrieves the full view of one anime.
	//
	// When userID is positive the caller's watchlist entry, if any, is
	// attached. A NotFound error is returned for unknown ids.
	GetDetail(ctx context.Context, id, userID int) (*models.AnimeDetail, error)
	// Method ListGenres retrieves every genre for filter dropdowns.
	ListGenres(ctx context.Context) ([]models.Genre, error)
	// Method Create adds a new catalog item with its genre links.
	Create(ctx context.Context, req models.CreateAnimeRequest) (*models.Anime, error)
	// Method Update replaces a catalog item's fields and genre links.
	Update(ctx context.Context, id int, req models.UpdateAnimeRequest) (*models.Anime, error)
	// Method Delete removes a catalog item along with every user's watchlist
	// entry for it.
	Delete(ctx context.Context, id int) error
}

// CatalogHandler handles HTTP requests for catalog browsing and admin catalog management
type CatalogHandler struct {
	BaseHandler
	service CatalogService
}

// NewCatalogHandler creates a new catalog handler
func NewCatalogHandler(svc CatalogService, logger *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service:     svc,
		BaseHandler: BaseHandler{logger: logger},
	}
}

// RegisterRoutes registers the public catalog routes
func (h *CatalogHandler) RegisterRoutes(r chi.Router) {
	r.Route("/anime", func(r chi.Router) {
		r.Get("/", h.List)
		r.Get("/{id}", h.GetDetail)
	})
	r.Get("/genres", h.ListGenres)
}

// RegisterAdminRoutes registers the admin catalog management routes
func (h *CatalogHandler) RegisterAdminRoutes(r chi.Router) {
	r.Route("/anime", func(r chi.Router) {
		r.Post("/", h.Create)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

const adminAnimePage = "/admin/anime"

// List handles GET /api/v1/anime
// @Summary Browse the catalog
// @Description Get one page of the anime catalog, filtered by title search and genre
// @Tags catalog
// @Produce json
// @Param page query int false "Page number, default 1"
// @Param page_size query int false "Items per page, default 20, max 100"
// @Param q query string false "Title search"
// @Param genre query int false "Genre id filter"
// @Success 200 {object} envelope
// @Router /api/v1/anime [get]
func (h *CatalogHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("page_size"))
	genreID, _ := strconv.Atoi(q.Get("genre"))

	result, err := h.service.List(r.Context(), services.ListParams{
		Search:  q.Get("q"),
		GenreID: genreID,
		Page:    page,
		PerPage: pageSize,
	})
	if err != nil {
		h.respondError(w, r, err, "/")
		return
	}

	h.respondJSON(w, http.StatusOK, "", result)
}

// GetDetail handles GET /api/v1/anime/{id}
// @Summary Get anime detail
// @Description Get the full view of one anime, with the caller's watchlist entry when logged in
// @Tags catalog
// @Produce json
// @Param id path int true "Anime ID"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/anime/{id} [get]
func (h *CatalogHandler) GetDetail(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, "/")
		return
	}

	userID, _ := middleware.GetUserID(r.Context())

	detail, err := h.service.GetDetail(r.Context(), id, userID)
	if err != nil {
		h.respondError(w, r, err, "/")
		return
	}

	h.respondJSON(w, http.StatusOK, "", detail)
}

// ListGenres handles GET /api/v1/genres
// @Summary List genres
// @Description Get every genre for catalog filter dropdowns
// @Tags catalog
// @Produce json
// @Success 200 {object} envelope
// @Router /api/v1/genres [get]
func (h *CatalogHandler) ListGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.service.ListGenres(r.Context())
	if err != nil {
		h.respondError(w, r, err, "/")
		return
	}

	h.respondJSON(w, http.StatusOK, "", genres)
}

// Create handles POST /api/v1/admin/anime
// @Summary Create an anime
// @Description Add a new catalog item with its genre links (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Param request body models.CreateAnimeRequest true "Anime to create"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 409 {object} envelope
// @Router /api/v1/admin/anime [post]
func (h *CatalogHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateAnimeRequest
	if err := h.parseCreateRequest(r, &req); err != nil {
		h.respondError(w, r, err, adminAnimePage)
		return
	}

	anime, err := h.service.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, r, err, adminAnimePage)
		return
	}

	h.respondSuccess(w, r, "anime created", anime, adminAnimePage)
}

// Update handles PUT /api/v1/admin/anime/{id}
// @Summary Update an anime
// @Description Replace a catalog item's fields and genre links (admin only)
// @Tags admin
// @Accept json
// @Produce json
// @Param id path int true "Anime ID"
// @Param request body models.UpdateAnimeRequest true "Fields to set"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Failure 409 {object} envelope
// @Router /api/v1/admin/anime/{id} [put]
func (h *CatalogHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, adminAnimePage)
		return
	}

	var req models.UpdateAnimeRequest
	if err := decodeBody(r, &req); err != nil {
		h.respondError(w, r, err, adminAnimePage)
		return
	}

	anime, err := h.service.Update(r.Context(), id, req)
	if err != nil {
		h.respondError(w, r, err, adminAnimePage)
		return
	}

	h.respondSuccess(w, r, "anime updated", anime, adminAnimePage)
}

// Delete handles DELETE /api/v1/admin/anime/{id}
// @Summary Delete an anime
// @Description Remove a catalog item along with every user's watchlist entry for it (admin only)
// @Tags admin
// @Produce json
// @Param id path int true "Anime ID"
// @Success 200 {object} envelope
// @Failure 400 {object} envelope
// @Failure 401 {object} envelope
// @Failure 403 {object} envelope
// @Failure 404 {object} envelope
// @Router /api/v1/admin/anime/{id} [delete]
func (h *CatalogHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, r, err, adminAnimePage)
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, r, err, adminAnimePage)
		return
	}

	h.respondSuccess(w, r, "anime deleted", nil, adminAnimePage)
}

func (h *CatalogHandler) parseCreateRequest(r *http.Request, req *models.CreateAnimeRequest) error {
	if !isFormRequest(r) {
		return decodeBody(r, req)
	}

	req.Title = r.FormValue("title")
	req.Description = r.FormValue("description")
	req.PosterPath = r.FormValue("poster_path")
	req.BannerPath = r.FormValue("banner_path")

	if v, err := formInt(r, "release_year"); err != nil {
		return err
	} else if v != nil {
		req.ReleaseYear = *v
	}
	if v, err := formInt(r, "episode_count"); err != nil {
		return err
	} else if v != nil {
		req.EpisodeCount = *v
	}
	for _, raw := range r.Form["genre_ids"] {
		id, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		req.GenreIDs = append(req.GenreIDs, id)
	}
	return nil
}
