package services

import (
	"context"
	"errors"
	"time"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
	"go.uber.org/zap"
)

// AdminUserStore is the subset of user access the admin service needs
type AdminUserStore interface {
	List(ctx context.Context) ([]models.UserListItem, error)
	UpdateRole(ctx context.Context, userID int, role models.Role) error
	Delete(ctx context.Context, userID int) error
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, t time.Time) (int, error)
}

// AdminAnimeStore is the subset of catalog access the admin service needs
type AdminAnimeStore interface {
	Count(ctx context.Context) (int, error)
	CountCreatedSince(ctx context.Context, t time.Time) (int, error)
}

// AdminGenreStore is the subset of genre access the admin service needs
type AdminGenreStore interface {
	Count(ctx context.Context) (int, error)
}

// AdminWatchlistStore is the subset of watchlist access the admin service needs
type AdminWatchlistStore interface {
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context) (map[models.WatchStatus]int, error)
}

// AdminContactStore is the subset of contact inbox access the admin service needs
type AdminContactStore interface {
	CountByStatus(ctx context.Context, status models.MessageStatus) (int, error)
}

type adminService struct {
	users     AdminUserStore
	anime     AdminAnimeStore
	genres    AdminGenreStore
	watchlist AdminWatchlistStore
	contact   AdminContactStore
	logger    *zap.Logger
}

// NewAdminService creates a new admin service
func NewAdminService(users AdminUserStore, anime AdminAnimeStore, genres AdminGenreStore, watchlist AdminWatchlistStore, contact AdminContactStore, logger *zap.Logger) *adminService {
	return &adminService{
		users:     users,
		anime:     anime,
		genres:    genres,
		watchlist: watchlist,
		contact:   contact,
		logger:    logger,
	}
}

// Stats aggregates the counters shown on the admin dashboard
func (s *adminService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	now := time.Now()
	stats := &models.DashboardStats{}

	var err error
	if stats.TotalUsers, err = s.users.Count(ctx); err != nil {
		s.logger.Error("failed to count users", zap.Error(err))
		return nil, err
	}
	if stats.NewUsers7d, err = s.users.CountCreatedSince(ctx, now.AddDate(0, 0, -7)); err != nil {
		s.logger.Error("failed to count recent users", zap.Error(err))
		return nil, err
	}
	if stats.TotalAnime, err = s.anime.Count(ctx); err != nil {
		s.logger.Error("failed to count anime", zap.Error(err))
		return nil, err
	}
	if stats.NewAnime30d, err = s.anime.CountCreatedSince(ctx, now.AddDate(0, 0, -30)); err != nil {
		s.logger.Error("failed to count recent anime", zap.Error(err))
		return nil, err
	}
	if stats.TotalGenres, err = s.genres.Count(ctx); err != nil {
		s.logger.Error("failed to count genres", zap.Error(err))
		return nil, err
	}
	if stats.TotalWatchlistEntries, err = s.watchlist.Count(ctx); err != nil {
		s.logger.Error("failed to count watchlist entries", zap.Error(err))
		return nil, err
	}
	if stats.WatchlistByStatus, err = s.watchlist.CountByStatus(ctx); err != nil {
		s.logger.Error("failed to count watchlist by status", zap.Error(err))
		return nil, err
	}
	if stats.UnreadMessages, err = s.contact.CountByStatus(ctx, models.MessageNew); err != nil {
		s.logger.Error("failed to count unread messages", zap.Error(err))
		return nil, err
	}

	return stats, nil
}

// ListUsers retrieves every account for the admin user management table
func (s *adminService) ListUsers(ctx context.Context) ([]models.UserListItem, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		s.logger.Error("failed to list users", zap.Error(err))
		return nil, err
	}
	if users == nil {
		users = []models.UserListItem{}
	}
	return users, nil
}

// UpdateUserRole changes another account's role. Admins cannot change their
// own role, so the system never locks out its last administrator by accident.
func (s *adminService) UpdateUserRole(ctx context.Context, actorID, userID int, roleStr string) error {
	if userID <= 0 {
		return apperrors.Validation("invalid user id")
	}
	role := models.Role(roleStr)
	if !role.Valid() {
		return apperrors.Validation("invalid role")
	}
	if userID == actorID {
		return apperrors.Forbidden("you cannot change your own role")
	}

	if err := s.users.UpdateRole(ctx, userID, role); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to update user role", zap.Error(err), zap.Int("user_id", userID))
		}
		return err
	}

	s.logger.Info("user role updated",
		zap.Int("actor_id", actorID),
		zap.Int("user_id", userID),
		zap.String("role", roleStr),
	)
	return nil
}

// DeleteUser removes another account. Admins cannot delete themselves.
func (s *adminService) DeleteUser(ctx context.Context, actorID, userID int) error {
	if userID <= 0 {
		return apperrors.Validation("invalid user id")
	}
	if userID == actorID {
		return apperrors.Forbidden("you cannot delete your own account")
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to delete user", zap.Error(err), zap.Int("user_id", userID))
		}
		return err
	}

	s.logger.Info("user deleted", zap.Int("actor_id", actorID), zap.Int("user_id", userID))
	return nil
}
