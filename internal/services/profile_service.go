package services

import (
	"context"
	"errors"
	"net/mail"
	"strings"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
	"github.com/anicore/backend/internal/repositories"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// ProfileUserStore is the subset of user access the profile service needs
type ProfileUserStore interface {
	GetByID(ctx context.Context, userID int) (*models.User, error)
	EmailInUseByOther(ctx context.Context, email string, userID int) (bool, error)
	UpdateProfile(ctx context.Context, userID int, changes repositories.ProfileChanges) error
}

type profileService struct {
	users  ProfileUserStore
	logger *zap.Logger
}

// NewProfileService creates a new profile service
func NewProfileService(users ProfileUserStore, logger *zap.Logger) *profileService {
	return &profileService{
		users:  users,
		logger: logger,
	}
}

// Get retrieves the caller's own account
func (s *profileService) Get(ctx context.Context, userID int) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to get profile", zap.Error(err), zap.Int("user_id", userID))
		}
		return nil, err
	}
	return user, nil
}

// Update applies email, password and picture changes to the caller's own
// account. Changing the password requires the current password to verify
// against the stored hash; all password fields must then be present.
func (s *profileService) Update(ctx context.Context, userID int, req models.UpdateProfileRequest) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			s.logger.Error("failed to get profile for update", zap.Error(err), zap.Int("user_id", userID))
		}
		return nil, err
	}

	changes := repositories.ProfileChanges{}

	email := strings.TrimSpace(req.Email)
	if email != "" && email != user.Email {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperrors.Validation("invalid email address")
		}
		inUse, err := s.users.EmailInUseByOther(ctx, email, userID)
		if err != nil {
			s.logger.Error("failed to check email usage", zap.Error(err), zap.Int("user_id", userID))
			return nil, err
		}
		if inUse {
			return nil, apperrors.Conflict("this email is already in use by another account")
		}
		changes.Email = &email
	}

	wantsPasswordChange := req.CurrentPassword != "" || req.NewPassword != "" || req.ConfirmPassword != ""
	if wantsPasswordChange {
		if req.CurrentPassword == "" || req.NewPassword == "" || req.ConfirmPassword == "" {
			return nil, apperrors.Validation("all password fields are required to change the password")
		}
		if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
			return nil, apperrors.Validation("current password is incorrect")
		}
		if len(req.NewPassword) < 8 {
			return nil, apperrors.Validation("new password must be at least 8 characters")
		}
		if err := validatePassword(req.NewPassword); err != nil {
			return nil, err
		}
		if req.NewPassword != req.ConfirmPassword {
			return nil, apperrors.Validation("passwords do not match")
		}

		hashBytes, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
		if err != nil {
			s.logger.Error("failed to hash password", zap.Error(err), zap.Int("user_id", userID))
			return nil, apperrors.Store("failed to hash password", err)
		}
		hash := string(hashBytes)
		changes.PasswordHash = &hash
	}

	if picture := strings.TrimSpace(req.ProfilePicture); picture != "" && picture != user.ProfilePicture {
		changes.ProfilePicture = &picture
	}

	if changes.Email == nil && changes.PasswordHash == nil && changes.ProfilePicture == nil {
		return user, nil
	}

	if err := s.users.UpdateProfile(ctx, userID, changes); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.logger.Error("failed to update profile", zap.Error(err), zap.Int("user_id", userID))
		}
		return nil, err
	}

	s.logger.Info("profile updated", zap.Int("user_id", userID))
	return s.users.GetByID(ctx, userID)
}
