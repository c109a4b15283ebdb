package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/mail"
	"strings"
	"time"
	"unicode"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository is the interface that wraps methods for users table data access
type UserRepository interface {
	// Method Create stores a new account and fills in its generated ID.
	//
	// A Conflict error is returned when the username or email is taken.
	Create(ctx context.Context, user *models.User) error
	// Method GetByID retrieves an account by id.
	GetByID(ctx context.Context, userID int) (*models.User, error)
	// Method GetByLogin retrieves an account by username or email address.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	// Method ExistsByEmail checks whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	// Method ExistsByUsername checks whether an account with the username exists.
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	// Method UpdatePassword replaces an account's password hash.
	UpdatePassword(ctx context.Context, userID int, passwordHash string) error
}

// ResetTokenRepository is the interface that wraps methods for password reset token data access
type ResetTokenRepository interface {
	// Method Replace discards any previous token for the user and stores the new one.
	Replace(ctx context.Context, userID int, token string, expiry time.Time) error
	// Method GetValid retrieves a token record that has not yet expired.
	//
	// Expired or unknown tokens both come back as NotFound.
	GetValid(ctx context.Context, token string) (*models.ResetToken, error)
	// Method Delete removes a consumed token.
	Delete(ctx context.Context, id int) error
}

const (
	resetTokenBytes = 32
	resetTokenTTL   = time.Hour
	bcryptCost      = bcrypt.DefaultCost
)

type authService struct {
	users  UserRepository
	resets ResetTokenRepository
	logger *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserRepository, resets ResetTokenRepository, logger *zap.Logger) *authService {
	return &authService{
		users:  users,
		resets: resets,
		logger: logger,
	}
}

// Register creates a new account with the "user" role.
//
// Username must be at least 3 characters and email must parse as an address.
// The password must be at least 6 characters and contain an uppercase letter,
// a lowercase letter, a digit and one of !@#$%^&*.
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if len(username) < 3 {
		return nil, apperrors.Validation("username must be at least 3 characters")
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.Validation("invalid email address")
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	if req.Password != req.ConfirmPassword {
		return nil, apperrors.Validation("passwords do not match")
	}

	taken, err := s.users.ExistsByUsername(ctx, username)
	if err != nil {
		s.logger.Error("failed to check username", zap.Error(err))
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict("username is already taken")
	}

	taken, err = s.users.ExistsByEmail(ctx, email)
	if err != nil {
		s.logger.Error("failed to check email", zap.Error(err))
		return nil, err
	}
	if taken {
		return nil, apperrors.Conflict("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, apperrors.Store("failed to hash password", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		if !errors.Is(err, apperrors.ErrConflict) {
			s.logger.Error("failed to create user", zap.Error(err))
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.Int("user_id", user.ID), zap.String("username", username))
	return user, nil
}

// Login verifies credentials against the stored hash. The login field
// accepts either a username or an email address. Unknown accounts and wrong
// passwords produce the same error so logins cannot probe for accounts.
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.User, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, apperrors.Validation("login and password are required")
	}

	user, err := s.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid login or password")
		}
		s.logger.Error("failed to get user by login", zap.Error(err))
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperrors.Unauthorized("invalid login or password")
	}

	s.logger.Info("user logged in", zap.Int("user_id", user.ID))
	return user, nil
}

// ForgotPassword issues a fresh reset token for the account with the given
// email. Unknown emails succeed silently so the endpoint cannot be used to
// probe for accounts; the token email is currently only logged.
func (s *authService) ForgotPassword(ctx context.Context, email string) error {
	email = strings.TrimSpace(email)
	if _, err := mail.ParseAddress(email); err != nil {
		return apperrors.Validation("invalid email address")
	}

	user, err := s.users.GetByLogin(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil
		}
		s.logger.Error("failed to get user for password reset", zap.Error(err))
		return err
	}

	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		s.logger.Error("failed to generate reset token", zap.Error(err))
		return apperrors.Store("failed to generate reset token", err)
	}
	token := hex.EncodeToString(buf)

	if err := s.resets.Replace(ctx, user.ID, token, time.Now().Add(resetTokenTTL)); err != nil {
		s.logger.Error("failed to store reset token", zap.Error(err), zap.Int("user_id", user.ID))
		return err
	}

	// TODO: send the token by email once an SMTP relay is configured
	s.logger.Info("password reset token issued",
		zap.Int("user_id", user.ID),
		zap.String("email", user.Email),
	)
	return nil
}

// ResetPassword consumes a reset token and replaces the account password.
// The token is deleted on success so it cannot be replayed.
func (s *authService) ResetPassword(ctx context.Context, token, password, confirm string) error {
	if token == "" {
		return apperrors.Validation("reset token is required")
	}
	if err := validatePassword(password); err != nil {
		return err
	}
	if password != confirm {
		return apperrors.Validation("passwords do not match")
	}

	rt, err := s.resets.GetValid(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return apperrors.Validation("invalid or expired reset token")
		}
		s.logger.Error("failed to get reset token", zap.Error(err))
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return apperrors.Store("failed to hash password", err)
	}

	if err := s.users.UpdatePassword(ctx, rt.UserID, string(hash)); err != nil {
		s.logger.Error("failed to update password", zap.Error(err), zap.Int("user_id", rt.UserID))
		return err
	}

	if err := s.resets.Delete(ctx, rt.ID); err != nil {
		s.logger.Error("failed to delete consumed reset token", zap.Error(err), zap.Int("user_id", rt.UserID))
		return err
	}

	s.logger.Info("password reset", zap.Int("user_id", rt.UserID))
	return nil
}

// validatePassword enforces the password rules shared by registration,
// profile update and reset
func validatePassword(password string) error {
	if len(password) < 6 {
		return apperrors.Validation("password must be at least 6 characters")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune("!@#$%^&*", r):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return apperrors.Validation("password must contain an uppercase letter, a lowercase letter, a digit and a special character (!@#$%^&*)")
	}
	return nil
}
