package repositories

import (
	"context"
	"database/sql"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
)

// genreRepository implements genres table data access
type genreRepository struct {
	db *sql.DB
}

// NewGenreRepository creates a new genre repository
func NewGenreRepository(db *sql.DB) *genreRepository {
	return &genreRepository{db: db}
}

// ListAll retrieves every genre ordered by name
func (r *genreRepository) ListAll(ctx context.Context) ([]models.Genre, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM genres ORDER BY name ASC`)
	if err != nil {
		return nil, apperrors.Store("failed to query genres", err)
	}
	defer rows.Close()

	var genres []models.Genre
	for rows.Next() {
		var genre models.Genre
		if err := rows.Scan(&genre.ID, &genre.Name); err != nil {
			return nil, apperrors.Store("failed to scan genre", err)
		}
		genres = append(genres, genre)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("error iterating genres", err)
	}

	return genres, nil
}

// Count returns the total number of genres
func (r *genreRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM genres`).Scan(&count); err != nil {
		return 0, apperrors.Store("failed to count genres", err)
	}
	return count, nil
}
