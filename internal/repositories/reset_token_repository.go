package repositories

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
)

// resetTokenRepository implements reset_tokens table data access
type resetTokenRepository struct {
	db *sql.DB
}

// NewResetTokenRepository creates a new reset token repository
func NewResetTokenRepository(db *sql.DB) *resetTokenRepository {
	return &resetTokenRepository{db: db}
}

// Replace atomically discards any previous token for the user and stores
// the new one, keeping at most one live token per user
func (r *resetTokenRepository) Replace(ctx context.Context, userID int, token string, expiry time.Time) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM reset_tokens WHERE user_id = ?`, userID); err != nil {
		return apperrors.Store("failed to delete previous reset token", err)
	}

	query := `INSERT INTO reset_tokens (user_id, token, expiry) VALUES (?, ?, ?)`
	if _, err := tx.ExecContext(ctx, query, userID, token, expiry); err != nil {
		return apperrors.Store("failed to insert reset token", err)
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("failed to commit transaction", err)
	}

	return nil
}

// GetValid retrieves a token record that has not yet expired. Expired or
// unknown tokens both come back as NotFound.
func (r *resetTokenRepository) GetValid(ctx context.Context, token string) (*models.ResetToken, error) {
	query := `
		SELECT id, user_id, token, expiry, created_at
		FROM reset_tokens
		WHERE token = ? AND expiry > NOW()
	`

	rt := &models.ResetToken{}
	err := r.db.QueryRowContext(ctx, query, token).Scan(
		&rt.ID,
		&rt.UserID,
		&rt.Token,
		&rt.Expiry,
		&rt.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("invalid or expired reset token")
	}
	if err != nil {
		return nil, apperrors.Store("failed to get reset token", err)
	}

	return rt, nil
}

// Delete removes a consumed token
func (r *resetTokenRepository) Delete(ctx context.Context, id int) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM reset_tokens WHERE id = ?`, id); err != nil {
		return apperrors.Store("failed to delete reset token", err)
	}
	return nil
}
