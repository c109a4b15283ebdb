package services

import (
	"context"
	"errors"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
	"go.uber.org/zap"
)

// WatchlistRepository is the interface that wraps methods for watchlist table data access
type WatchlistRepository interface {
	// Method GetEntry retrieves the watchlist entry for a (user, anime) pair.
	//
	// If no entry exists a NotFound error is returned together with "nil" value.
	GetEntry(ctx context.Context, userID, animeID int) (*models.WatchlistEntry, error)
	// Method Exists checks whether a watchlist entry exists for a (user, anime) pair.
	Exists(ctx context.Context, userID, animeID int) (bool, error)
	// Method Insert creates a new watchlist entry and fills in its generated ID.
	//
	// A Conflict error is returned when the (user, anime) pair is already present.
	Insert(ctx context.Context, entry *models.WatchlistEntry) error
	// Method Update replaces status, rating and episode progress of an existing entry.
	Update(ctx context.Context, entry *models.WatchlistEntry) error
	// Method Delete removes the entry for a (user, anime) pair.
	//
	// A NotFound error is returned when no entry existed.
	Delete(ctx context.Context, userID, animeID int) error
	// Method ListForUser retrieves a user's watchlist joined with anime summaries,
	// most recently updated first. A non-nil status restricts to that status.
	ListForUser(ctx context.Context, userID int, status *models.WatchStatus) ([]models.WatchlistItem, error)
}

// WatchlistAnimeStore is the subset of catalog access the watchlist service needs
type WatchlistAnimeStore interface {
	Exists(ctx context.Context, id int) (bool, error)
}

type watchlistService struct {
	repo   WatchlistRepository
	anime  WatchlistAnimeStore
	logger *zap.Logger
}

// NewWatchlistService creates a new watchlist service
func NewWatchlistService(repo WatchlistRepository, anime WatchlistAnimeStore, logger *zap.Logger) *watchlistService {
	return &watchlistService{
		repo:   repo,
		anime:  anime,
		logger: logger,
	}
}

// Add puts an anime on the user's watchlist.
//
// An unknown or empty status falls back to "Plan to Watch" rather than
// failing. Rating and episode progress are stored as given; only the update
// path validates them.
func (s *watchlistService) Add(ctx context.Context, userID int, req models.AddWatchlistRequest) (*models.WatchlistEntry, error) {
	if req.AnimeID <= 0 {
		return nil, apperrors.Validation("invalid anime id")
	}

	exists, err := s.anime.Exists(ctx, req.AnimeID)
	if err != nil {
		s.logger.Error("failed to check anime existence", zap.Error(err), zap.Int("anime_id", req.AnimeID))
		return nil, err
	}
	if !exists {
		return nil, apperrors.NotFound("anime not found")
	}

	inList, err := s.repo.Exists(ctx, userID, req.AnimeID)
	if err != nil {
		s.logger.Error("failed to check watchlist entry", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}
	if inList {
		return nil, apperrors.Conflict("this anime is already in your watchlist")
	}

	entry := &models.WatchlistEntry{
		UserID:          userID,
		AnimeID:         req.AnimeID,
		Status:          models.NormalizeStatus(req.Status),
		UserRating:      req.UserRating,
		EpisodesWatched: req.EpisodesWatched,
	}

	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to add watchlist entry", zap.Error(err), zap.Int("user_id", userID), zap.Int("anime_id", req.AnimeID))
		return nil, err
	}

	return entry, nil
}

// Update changes status, rating and episode progress of an existing entry.
//
// Unlike Add, an unknown status and an out-of-range rating are rejected here.
// A negative episode count is clamped to zero.
func (s *watchlistService) Update(ctx context.Context, userID int, req models.UpdateWatchlistRequest) (*models.WatchlistEntry, error) {
	if req.AnimeID <= 0 {
		return nil, apperrors.Validation("invalid anime id")
	}

	status := models.WatchStatus(req.Status)
	if !status.Valid() {
		return nil, apperrors.Validation("invalid status")
	}
	if req.UserRating != nil && (*req.UserRating < 1 || *req.UserRating > 10) {
		return nil, apperrors.Validation("rating must be between 1 and 10")
	}

	entry, err := s.repo.GetEntry(ctx, userID, req.AnimeID)
	if err != nil {
		return nil, err
	}

	entry.Status = status
	entry.UserRating = req.UserRating
	entry.EpisodesWatched = req.EpisodesWatched
	if entry.EpisodesWatched != nil && *entry.EpisodesWatched < 0 {
		zero := 0
		entry.EpisodesWatched = &zero
	}

	if err := s.repo.Update(ctx, entry); err != nil {
		s.logger.Error("failed to update watchlist entry", zap.Error(err), zap.Int("user_id", userID), zap.Int("anime_id", req.AnimeID))
		return nil, err
	}

	return entry, nil
}

// Remove takes an anime off the user's watchlist.
//
// Removing an anime that is not on the list reports NotFound; repeating a
// removal is therefore an error to the caller but changes nothing.
func (s *watchlistService) Remove(ctx context.Context, userID, animeID int) error {
	if animeID <= 0 {
		return apperrors.Validation("invalid anime id")
	}

	if err := s.repo.Delete(ctx, userID, animeID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to remove watchlist entry", zap.Error(err), zap.Int("user_id", userID), zap.Int("anime_id", animeID))
		}
		return err
	}

	return nil
}

// List retrieves the user's watchlist, optionally restricted to one status.
//
// An unknown status filter is rejected rather than coerced; an empty filter
// string means no filtering.
func (s *watchlistService) List(ctx context.Context, userID int, statusFilter string) ([]models.WatchlistItem, error) {
	var status *models.WatchStatus
	if statusFilter != "" {
		st := models.WatchStatus(statusFilter)
		if !st.Valid() {
			return nil, apperrors.Validation("invalid status filter")
		}
		status = &st
	}

	items, err := s.repo.ListForUser(ctx, userID, status)
	if err != nil {
		s.logger.Error("failed to list watchlist", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}

	if items == nil {
		items = []models.WatchlistItem{}
	}
	return items, nil
}

// Stats derives aggregate numbers from the user's full watchlist. Watched
// and total episodes are independent plain sums, so recorded progress counts
// even when the anime has no known episode count, a Completed entry
// contributes only what was actually recorded, and the completion rate can
// exceed 100 when progress outruns the listed episode counts. The average
// rating only covers rated entries.
func (s *watchlistService) Stats(ctx context.Context, userID int) (*models.WatchlistStats, error) {
	items, err := s.repo.ListForUser(ctx, userID, nil)
	if err != nil {
		s.logger.Error("failed to load watchlist for stats", zap.Error(err), zap.Int("user_id", userID))
		return nil, err
	}

	stats := &models.WatchlistStats{
		StatusCounts: make(map[models.WatchStatus]int, len(models.WatchStatuses)),
		TotalEntries: len(items),
	}
	for _, st := range models.WatchStatuses {
		stats.StatusCounts[st] = 0
	}

	ratingSum := 0
	for _, item := range items {
		stats.StatusCounts[item.Status]++

		if item.EpisodeCount > 0 {
			stats.TotalEpisodes += item.EpisodeCount
		}
		if item.EpisodesWatched != nil && *item.EpisodesWatched > 0 {
			stats.WatchedEpisodes += *item.EpisodesWatched
		}

		if item.UserRating != nil {
			stats.RatedCount++
			ratingSum += *item.UserRating
		}
	}

	if stats.TotalEpisodes > 0 {
		stats.CompletionRate = float64(stats.WatchedEpisodes) / float64(stats.TotalEpisodes) * 100
	}
	if stats.RatedCount > 0 {
		avg := float64(ratingSum) / float64(stats.RatedCount)
		stats.AverageRating = &avg
	}

	return stats, nil
}
