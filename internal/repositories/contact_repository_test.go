package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupContactRepository creates a contact repository with a mock database
func setupContactRepository(t *testing.T) (*contactRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewContactRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func contactRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "name", "email", "subject", "message", "user_id", "username", "status", "created_at",
	})
}

func TestContactRepository_Insert(t *testing.T) {
	t.Run("anonymous visitor message", func(t *testing.T) {
		repo, mock, cleanup := setupContactRepository(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO contact_messages`).
			WithArgs("Alice", "alice@example.com", "Missing episodes", "Episode list for show 7 stops at 12.", nil, models.MessageNew).
			WillReturnResult(sqlmock.NewResult(3, 1))

		msg := &models.ContactMessage{
			Name:    "Alice",
			Email:   "alice@example.com",
			Subject: "Missing episodes",
			Message: "Episode list for show 7 stops at 12.",
			Status:  models.MessageNew,
		}
		err := repo.Insert(context.Background(), msg)

		require.NoError(t, err)
		assert.Equal(t, 3, msg.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("logged-in sender keeps the account link", func(t *testing.T) {
		repo, mock, cleanup := setupContactRepository(t)
		defer cleanup()

		userID := 42
		mock.ExpectExec(`INSERT INTO contact_messages`).
			WithArgs("Alice", "alice@example.com", "Missing episodes", "Episode list for show 7 stops at 12.", &userID, models.MessageNew).
			WillReturnResult(sqlmock.NewResult(4, 1))

		msg := &models.ContactMessage{
			Name:    "Alice",
			Email:   "alice@example.com",
			Subject: "Missing episodes",
			Message: "Episode list for show 7 stops at 12.",
			UserID:  &userID,
			Status:  models.MessageNew,
		}
		err := repo.Insert(context.Background(), msg)

		require.NoError(t, err)
		assert.Equal(t, 4, msg.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("database error", func(t *testing.T) {
		repo, mock, cleanup := setupContactRepository(t)
		defer cleanup()

		mock.ExpectExec(`INSERT INTO contact_messages`).
			WillReturnError(errors.New("database error"))

		err := repo.Insert(context.Background(), &models.ContactMessage{Status: models.MessageNew})

		assert.ErrorIs(t, err, apperrors.ErrStore)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestContactRepository_List(t *testing.T) {
	repo, mock, cleanup := setupContactRepository(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(`FROM contact_messages cm\s+LEFT JOIN users u`).
		WillReturnRows(contactRows().
			AddRow(2, "Bob", "bob@example.com", "Great site", "Keep it up!", 42, "bob42", "read", now).
			AddRow(1, "Guest", "guest@example.com", "Question", "Do you list movies?", nil, nil, "new", now.Add(-time.Hour)))

	messages, err := repo.List(context.Background())

	require.NoError(t, err)
	require.Len(t, messages, 2)

	require.NotNil(t, messages[0].UserID)
	assert.Equal(t, 42, *messages[0].UserID)
	assert.Equal(t, "bob42", messages[0].Username)
	assert.Equal(t, models.MessageRead, messages[0].Status)

	assert.Nil(t, messages[1].UserID)
	assert.Empty(t, messages[1].Username)
	assert.Equal(t, models.MessageNew, messages[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepository_UpdateStatus(t *testing.T) {
	tests := []struct {
		name          string
		id            int
		affected      int64
		expectedError error
	}{
		{name: "success", id: 1, affected: 1},
		{name: "unknown message maps to not found", id: 9999, affected: 0, expectedError: apperrors.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupContactRepository(t)
			defer cleanup()

			mock.ExpectExec(regexp.QuoteMeta(`UPDATE contact_messages SET status = ? WHERE id = ?`)).
				WithArgs(models.MessageReplied, tt.id).
				WillReturnResult(sqlmock.NewResult(0, tt.affected))

			err := repo.UpdateStatus(context.Background(), tt.id, models.MessageReplied)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestContactRepository_CountByStatus(t *testing.T) {
	repo, mock, cleanup := setupContactRepository(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM contact_messages WHERE status = ?`)).
		WithArgs(models.MessageNew).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	count, err := repo.CountByStatus(context.Background(), models.MessageNew)

	require.NoError(t, err)
	assert.Equal(t, 5, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
