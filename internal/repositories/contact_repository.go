package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
)

// contactRepository implements contact_messages table data access
type contactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new contact repository
func NewContactRepository(db *sql.DB) *contactRepository {
	return &contactRepository{db: db}
}

// Insert stores a newly submitted contact message
func (r *contactRepository) Insert(ctx context.Context, msg *models.ContactMessage) error {
	query := `
		INSERT INTO contact_messages (name, email, subject, message, user_id, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		msg.Name,
		msg.Email,
		msg.Subject,
		msg.Message,
		msg.UserID,
		msg.Status,
	)
	if err != nil {
		return apperrors.Store("failed to insert contact message", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Store("failed to get last insert id", err)
	}

	msg.ID = int(id)
	return nil
}

// List retrieves all contact messages newest first, joined with the sender's
// account username when the message came from a logged-in user
func (r *contactRepository) List(ctx context.Context) ([]models.ContactMessage, error) {
	query := `
		SELECT cm.id, cm.name, cm.email, cm.subject, cm.message,
		       cm.user_id, u.username, cm.status, cm.created_at
		FROM contact_messages cm
		LEFT JOIN users u ON cm.user_id = u.id
		ORDER BY cm.created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Store("failed to query contact messages", err)
	}
	defer rows.Close()

	var messages []models.ContactMessage
	for rows.Next() {
		var msg models.ContactMessage
		var userID sql.NullInt64
		var username sql.NullString
		err := rows.Scan(
			&msg.ID,
			&msg.Name,
			&msg.Email,
			&msg.Subject,
			&msg.Message,
			&userID,
			&username,
			&msg.Status,
			&msg.CreatedAt,
		)
		if err != nil {
			return nil, apperrors.Store("failed to scan contact message", err)
		}

		if userID.Valid {
			v := int(userID.Int64)
			msg.UserID = &v
		}
		msg.Username = username.String
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("error iterating contact messages", err)
	}

	return messages, nil
}

// GetByID retrieves one contact message
func (r *contactRepository) GetByID(ctx context.Context, id int) (*models.ContactMessage, error) {
	query := `
		SELECT cm.id, cm.name, cm.email, cm.subject, cm.message,
		       cm.user_id, u.username, cm.status, cm.created_at
		FROM contact_messages cm
		LEFT JOIN users u ON cm.user_id = u.id
		WHERE cm.id = ?
	`

	msg := &models.ContactMessage{}
	var userID sql.NullInt64
	var username sql.NullString
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&msg.ID,
		&msg.Name,
		&msg.Email,
		&msg.Subject,
		&msg.Message,
		&userID,
		&username,
		&msg.Status,
		&msg.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("message not found")
	}
	if err != nil {
		return nil, apperrors.Store("failed to get contact message", err)
	}

	if userID.Valid {
		v := int(userID.Int64)
		msg.UserID = &v
	}
	msg.Username = username.String
	return msg, nil
}

// UpdateStatus changes a message's handling status
func (r *contactRepository) UpdateStatus(ctx context.Context, id int, status models.MessageStatus) error {
	result, err := r.db.ExecContext(ctx, `UPDATE contact_messages SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return apperrors.Store("failed to update message status", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		return apperrors.NotFound("message not found")
	}

	return nil
}

// Delete removes a contact message
func (r *contactRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, id)
	if err != nil {
		return apperrors.Store("failed to delete contact message", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		return apperrors.NotFound("message not found")
	}

	return nil
}

// CountByStatus returns the number of messages with the given status
func (r *contactRepository) CountByStatus(ctx context.Context, status models.MessageStatus) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages WHERE status = ?`, status).Scan(&count)
	if err != nil {
		return 0, apperrors.Store("failed to count contact messages", err)
	}
	return count, nil
}
