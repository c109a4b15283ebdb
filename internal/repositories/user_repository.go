package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
)

// userRepository implements user table data access
type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

// Create inserts a new user into the database
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES (?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query, user.Username, user.Email, user.PasswordHash, user.Role)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.Conflict("username or email already exists")
		}
		return apperrors.Store("failed to create user", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Store("failed to get last insert id", err)
	}

	user.ID = int(id)
	return nil
}

// GetByID retrieves a user by ID
func (r *userRepository) GetByID(ctx context.Context, userID int) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, profile_picture, created_at
		FROM users
		WHERE id = ?
		LIMIT 1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, userID))
}

// GetByLogin retrieves a user by username or email
func (r *userRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	query := `
		SELECT id, username, email, password_hash, role, profile_picture, created_at
		FROM users
		WHERE username = ? OR email = ?
		LIMIT 1
	`

	return r.scanUser(r.db.QueryRowContext(ctx, query, login, login))
}

func (r *userRepository) scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	var picture sql.NullString
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.PasswordHash,
		&user.Role,
		&picture,
		&user.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("user not found")
	}
	if err != nil {
		return nil, apperrors.Store("failed to get user", err)
	}

	user.ProfilePicture = picture.String
	return user, nil
}

// GetRoleByID retrieves the current role of a user from the store. Admin
// gates call this on every request instead of trusting the session claim.
func (r *userRepository) GetRoleByID(ctx context.Context, userID int) (models.Role, error) {
	query := `SELECT role FROM users WHERE id = ? LIMIT 1`

	var role models.Role
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", apperrors.NotFound("user not found")
	}
	if err != nil {
		return "", apperrors.Store("failed to get user role", err)
	}

	return role, nil
}

// ExistsByEmail checks if a user exists with the given email
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE email = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email).Scan(&exists); err != nil {
		return false, apperrors.Store("failed to check email existence", err)
	}

	return exists, nil
}

// ExistsByUsername checks if a user exists with the given username
func (r *userRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE username = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, apperrors.Store("failed to check username existence", err)
	}

	return exists, nil
}

// EmailInUseByOther checks if the email belongs to a different user
func (r *userRepository) EmailInUseByOther(ctx context.Context, email string, userID int) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM users WHERE email = ? AND id != ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, email, userID).Scan(&exists); err != nil {
		return false, apperrors.Store("failed to check email existence", err)
	}

	return exists, nil
}

// List retrieves all users for admin management, newest first
func (r *userRepository) List(ctx context.Context) ([]models.UserListItem, error) {
	query := `
		SELECT id, username, email, role, created_at
		FROM users
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Store("failed to query users", err)
	}
	defer rows.Close()

	var users []models.UserListItem
	for rows.Next() {
		var user models.UserListItem
		if err := rows.Scan(&user.ID, &user.Username, &user.Email, &user.Role, &user.CreatedAt); err != nil {
			return nil, apperrors.Store("failed to scan user", err)
		}
		users = append(users, user)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("error iterating users", err)
	}

	return users, nil
}

// UpdateRole sets a user's role
func (r *userRepository) UpdateRole(ctx context.Context, userID int, role models.Role) error {
	query := `UPDATE users SET role = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, role, userID)
	if err != nil {
		return apperrors.Store("failed to update user role", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		return apperrors.NotFound("user not found")
	}

	return nil
}

// Delete removes a user; dependent rows cascade or null per schema rules
func (r *userRepository) Delete(ctx context.Context, userID int) error {
	query := `DELETE FROM users WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, userID)
	if err != nil {
		return apperrors.Store("failed to delete user", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		return apperrors.NotFound("user not found")
	}

	return nil
}

// UpdatePassword replaces a user's password hash
func (r *userRepository) UpdatePassword(ctx context.Context, userID int, passwordHash string) error {
	query := `UPDATE users SET password_hash = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, passwordHash, userID)
	if err != nil {
		return apperrors.Store("failed to update password", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		return apperrors.NotFound("user not found")
	}

	return nil
}

// ProfileChanges carries the optional field updates applied by UpdateProfile.
// Nil fields are left untouched.
type ProfileChanges struct {
	Email          *string
	PasswordHash   *string
	ProfilePicture *string
}

// UpdateProfile applies the given profile changes in one transaction so a
// failed password update never leaves a half-applied email change behind.
func (r *userRepository) UpdateProfile(ctx context.Context, userID int, changes ProfileChanges) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if changes.Email != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET email = ? WHERE id = ?`, *changes.Email, userID); err != nil {
			if isDuplicateEntry(err) {
				return apperrors.Conflict("this email is already in use by another account")
			}
			return apperrors.Store("failed to update email", err)
		}
	}

	if changes.PasswordHash != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET password_hash = ? WHERE id = ?`, *changes.PasswordHash, userID); err != nil {
			return apperrors.Store("failed to update password", err)
		}
	}

	if changes.ProfilePicture != nil {
		if _, err := tx.ExecContext(ctx, `UPDATE users SET profile_picture = ? WHERE id = ?`, *changes.ProfilePicture, userID); err != nil {
			return apperrors.Store("failed to update profile picture", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("failed to commit profile update", err)
	}

	return nil
}

// Count returns the total number of users
func (r *userRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&count); err != nil {
		return 0, apperrors.Store("failed to count users", err)
	}
	return count, nil
}

// CountCreatedSince returns the number of users registered at or after t
func (r *userRepository) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE created_at >= ?`, t).Scan(&count)
	if err != nil {
		return 0, apperrors.Store(fmt.Sprintf("failed to count users since %s", t.Format(time.DateOnly)), err)
	}
	return count, nil
}
