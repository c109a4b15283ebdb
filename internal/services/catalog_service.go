package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
	"github.com/anicore/backend/internal/repositories"
	"go.uber.org/zap"
)

// AnimeRepository is the interface that wraps methods for anime catalog data access
type AnimeRepository interface {
	// Method GetByID retrieves one anime with its genres.
	//
	// A NotFound error is returned together with "nil" value for unknown ids.
	GetByID(ctx context.Context, id int) (*models.Anime, error)
	// Method Exists checks whether an anime exists by id.
	Exists(ctx context.Context, id int) (bool, error)
	// Method List retrieves one page of catalog summaries matching the filter.
	List(ctx context.Context, filter repositories.AnimeFilter) ([]models.AnimeListItem, error)
	// Method CountFiltered returns the number of catalog items matching the filter.
	CountFiltered(ctx context.Context, filter repositories.AnimeFilter) (int, error)
	// Method Create inserts an anime and its genre links in one transaction,
	// filling in the generated ID.
	Create(ctx context.Context, anime *models.Anime, genreIDs []int) error
	// Method Update replaces an anime's fields and atomically resets its genre links.
	Update(ctx context.Context, anime *models.Anime, genreIDs []int) error
	// Method Delete removes an anime with its genre links and watchlist entries.
	Delete(ctx context.Context, id int) error
}

// GenreRepository is the interface that wraps methods for genres table data access
type GenreRepository interface {
	ListAll(ctx context.Context) ([]models.Genre, error)
}

// CatalogWatchlistStore is the subset of watchlist access the catalog service
// needs to decorate detail views for logged-in users
type CatalogWatchlistStore interface {
	GetEntry(ctx context.Context, userID, animeID int) (*models.WatchlistEntry, error)
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

type catalogService struct {
	repo      AnimeRepository
	genres    GenreRepository
	watchlist CatalogWatchlistStore
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(repo AnimeRepository, genres GenreRepository, watchlist CatalogWatchlistStore, logger *zap.Logger) *catalogService {
	return &catalogService{
		repo:      repo,
		genres:    genres,
		watchlist: watchlist,
		logger:    logger,
	}
}

// ListParams narrows and pages the catalog browse view.
type ListParams struct {
	Search  string
	GenreID int
	Page    int
	PerPage int
}

// List retrieves one page of the catalog. Page and per-page values outside
// their bounds are clamped rather than rejected.
func (s *catalogService) List(ctx context.Context, params ListParams) (*models.AnimePage, error) {
	if params.Page < 1 {
		params.Page = 1
	}
	if params.PerPage < 1 {
		params.PerPage = defaultPageSize
	}
	if params.PerPage > maxPageSize {
		params.PerPage = maxPageSize
	}

	filter := repositories.AnimeFilter{
		Search:  strings.TrimSpace(params.Search),
		GenreID: params.GenreID,
		Page:    params.Page,
		PerPage: params.PerPage,
	}

	total, err := s.repo.CountFiltered(ctx, filter)
	if err != nil {
		s.logger.Error("failed to count catalog items", zap.Error(err))
		return nil, err
	}

	items, err := s.repo.List(ctx, filter)
	if err != nil {
		s.logger.Error("failed to list catalog items", zap.Error(err))
		return nil, err
	}
	if items == nil {
		items = []models.AnimeListItem{}
	}

	totalPages := (total + filter.PerPage - 1) / filter.PerPage
	return &models.AnimePage{
		Items:      items,
		Page:       filter.Page,
		PageSize:   filter.PerPage,
		Total:      total,
		TotalPages: totalPages,
	}, nil
}

// GetDetail retrieves the full view of one anime. When userID is positive the
// caller's watchlist entry for it, if any, is attached.
func (s *catalogService) GetDetail(ctx context.Context, id, userID int) (*models.AnimeDetail, error) {
	if id <= 0 {
		return nil, apperrors.Validation("invalid anime id")
	}

	anime, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to get anime", zap.Error(err), zap.Int("anime_id", id))
		}
		return nil, err
	}

	detail := &models.AnimeDetail{Anime: *anime}

	if userID > 0 {
		entry, err := s.watchlist.GetEntry(ctx, userID, id)
		switch {
		case err == nil:
			detail.WatchlistEntry = entry
		case errors.Is(err, apperrors.ErrNotFound):
			// not on the list, leave the detail bare
		default:
			s.logger.Error("failed to get watchlist entry for detail", zap.Error(err), zap.Int("user_id", userID))
			return nil, err
		}
	}

	return detail, nil
}

// ListGenres retrieves every genre for filter dropdowns
func (s *catalogService) ListGenres(ctx context.Context) ([]models.Genre, error) {
	genres, err := s.genres.ListAll(ctx)
	if err != nil {
		s.logger.Error("failed to list genres", zap.Error(err))
		return nil, err
	}
	if genres == nil {
		genres = []models.Genre{}
	}
	return genres, nil
}

// Create adds a new catalog item with its genre links
func (s *catalogService) Create(ctx context.Context, req models.CreateAnimeRequest) (*models.Anime, error) {
	if err := validateAnimeFields(req.Title, req.ReleaseYear, req.EpisodeCount, nil); err != nil {
		return nil, err
	}

	anime := &models.Anime{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		ReleaseYear:  req.ReleaseYear,
		EpisodeCount: req.EpisodeCount,
		PosterPath:   strings.TrimSpace(req.PosterPath),
		BannerPath:   strings.TrimSpace(req.BannerPath),
	}

	if err := s.repo.Create(ctx, anime, req.GenreIDs); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) && !errors.Is(err, apperrors.ErrValidation) {
			s.logger.Error("failed to create anime", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("anime created", zap.Int("anime_id", anime.ID), zap.String("title", anime.Title))
	return s.repo.GetByID(ctx, anime.ID)
}

// Update replaces a catalog item's fields and genre links
func (s *catalogService) Update(ctx context.Context, id int, req models.UpdateAnimeRequest) (*models.Anime, error) {
	if id <= 0 {
		return nil, apperrors.Validation("invalid anime id")
	}
	if err := validateAnimeFields(req.Title, req.ReleaseYear, req.EpisodeCount, req.Rating); err != nil {
		return nil, err
	}

	anime := &models.Anime{
		ID:           id,
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		ReleaseYear:  req.ReleaseYear,
		EpisodeCount: req.EpisodeCount,
		PosterPath:   strings.TrimSpace(req.PosterPath),
		BannerPath:   strings.TrimSpace(req.BannerPath),
		Studio:       strings.TrimSpace(req.Studio),
		Director:     strings.TrimSpace(req.Director),
		Rating:       req.Rating,
	}

	if err := s.repo.Update(ctx, anime, req.GenreIDs); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) && !errors.Is(err, apperrors.ErrConflict) && !errors.Is(err, apperrors.ErrValidation) {
			s.logger.Error("failed to update anime", zap.Error(err), zap.Int("anime_id", id))
		}
		return nil, err
	}

	s.logger.Info("anime updated", zap.Int("anime_id", id))
	return s.repo.GetByID(ctx, id)
}

// Delete removes a catalog item along with every user's watchlist entry for it
func (s *catalogService) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return apperrors.Validation("invalid anime id")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to delete anime", zap.Error(err), zap.Int("anime_id", id))
		}
		return err
	}

	s.logger.Info("anime deleted", zap.Int("anime_id", id))
	return nil
}

// validateAnimeFields checks the bounds shared by create and update. Rating
// is nil on create since only the edit form exposes it.
func validateAnimeFields(title string, releaseYear, episodeCount int, rating *float64) error {
	if strings.TrimSpace(title) == "" {
		return apperrors.Validation("title is required")
	}
	if releaseYear != 0 {
		maxYear := time.Now().Year() + 1
		if releaseYear < 1900 || releaseYear > maxYear {
			return apperrors.Validation("release year is out of range")
		}
	}
	if episodeCount < 0 {
		return apperrors.Validation("episode count cannot be negative")
	}
	if rating != nil && (*rating < 0 || *rating > 10) {
		return apperrors.Validation("rating must be between 0 and 10")
	}
	return nil
}
