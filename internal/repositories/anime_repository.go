package repositories

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
)

// animeRepository implements anime catalog data access
type animeRepository struct {
	db *sql.DB
}

// NewAnimeRepository creates a new anime repository
func NewAnimeRepository(db *sql.DB) *animeRepository {
	return &animeRepository{db: db}
}

// AnimeFilter narrows the catalog browse query.
type AnimeFilter struct {
	Search  string
	GenreID int
	Page    int
	PerPage int
}

// GetByID retrieves one anime with its genres
func (r *animeRepository) GetByID(ctx context.Context, id int) (*models.Anime, error) {
	query := `
		SELECT id, title, description, release_year, episode_count,
		       poster_path, banner_path, studio, director, rating, created_at
		FROM anime
		WHERE id = ?
	`

	anime := &models.Anime{}
	var description, poster, banner, studio, director sql.NullString
	var releaseYear, episodeCount sql.NullInt64
	var rating sql.NullFloat64
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&anime.ID,
		&anime.Title,
		&description,
		&releaseYear,
		&episodeCount,
		&poster,
		&banner,
		&studio,
		&director,
		&rating,
		&anime.CreatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("anime not found")
	}
	if err != nil {
		return nil, apperrors.Store("failed to get anime", err)
	}

	anime.Description = description.String
	anime.ReleaseYear = int(releaseYear.Int64)
	anime.EpisodeCount = int(episodeCount.Int64)
	anime.PosterPath = poster.String
	anime.BannerPath = banner.String
	anime.Studio = studio.String
	anime.Director = director.String
	if rating.Valid {
		anime.Rating = &rating.Float64
	}

	genres, err := r.genresForAnime(ctx, id)
	if err != nil {
		return nil, err
	}
	anime.Genres = genres

	return anime, nil
}

// Exists checks if an anime exists by id
func (r *animeRepository) Exists(ctx context.Context, id int) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM anime WHERE id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, id).Scan(&exists); err != nil {
		return false, apperrors.Store("failed to check anime existence", err)
	}

	return exists, nil
}

// List retrieves one page of catalog summaries matching the filter,
// alphabetically by title.
func (r *animeRepository) List(ctx context.Context, filter AnimeFilter) ([]models.AnimeListItem, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT a.id, a.title, a.release_year, a.episode_count, a.poster_path
		FROM anime a
	`)
	args := []any{}

	if filter.GenreID > 0 {
		sb.WriteString(` JOIN anime_genres ag ON a.id = ag.anime_id AND ag.genre_id = ?`)
		args = append(args, filter.GenreID)
	}
	if filter.Search != "" {
		sb.WriteString(` WHERE a.title LIKE ?`)
		args = append(args, "%"+filter.Search+"%")
	}

	sb.WriteString(` ORDER BY a.title ASC LIMIT ? OFFSET ?`)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.db.QueryContext(ctx, sb.String(), args...)
	if err != nil {
		return nil, apperrors.Store("failed to query anime list", err)
	}
	defer rows.Close()

	var items []models.AnimeListItem
	for rows.Next() {
		var item models.AnimeListItem
		var releaseYear, episodeCount sql.NullInt64
		var poster sql.NullString
		if err := rows.Scan(&item.ID, &item.Title, &releaseYear, &episodeCount, &poster); err != nil {
			return nil, apperrors.Store("failed to scan anime list item", err)
		}
		item.ReleaseYear = int(releaseYear.Int64)
		item.EpisodeCount = int(episodeCount.Int64)
		item.PosterPath = poster.String
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("error iterating anime list", err)
	}

	return items, nil
}

// CountFiltered returns the number of catalog items matching the filter
func (r *animeRepository) CountFiltered(ctx context.Context, filter AnimeFilter) (int, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT COUNT(*) FROM anime a`)
	args := []any{}

	if filter.GenreID > 0 {
		sb.WriteString(` JOIN anime_genres ag ON a.id = ag.anime_id AND ag.genre_id = ?`)
		args = append(args, filter.GenreID)
	}
	if filter.Search != "" {
		sb.WriteString(` WHERE a.title LIKE ?`)
		args = append(args, "%"+filter.Search+"%")
	}

	var count int
	if err := r.db.QueryRowContext(ctx, sb.String(), args...).Scan(&count); err != nil {
		return 0, apperrors.Store("failed to count anime", err)
	}

	return count, nil
}

// Create inserts an anime and its genre links in one transaction
func (r *animeRepository) Create(ctx context.Context, anime *models.Anime, genreIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO anime (title, description, release_year, episode_count,
		                   poster_path, banner_path, studio, director, rating)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	result, err := tx.ExecContext(ctx, query,
		anime.Title,
		nullableString(anime.Description),
		nullableIntValue(anime.ReleaseYear),
		nullableIntValue(anime.EpisodeCount),
		nullableString(anime.PosterPath),
		nullableString(anime.BannerPath),
		nullableString(anime.Studio),
		nullableString(anime.Director),
		anime.Rating,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.Conflict("an anime with this title already exists")
		}
		return apperrors.Store("failed to insert anime", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Store("failed to get last insert id", err)
	}
	anime.ID = int(id)

	if err := insertGenreLinks(ctx, tx, anime.ID, genreIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("failed to commit transaction", err)
	}

	return nil
}

// Update replaces an anime's fields and atomically resets its genre links
func (r *animeRepository) Update(ctx context.Context, anime *models.Anime, genreIDs []int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	query := `
		UPDATE anime
		SET title = ?, description = ?, release_year = ?, episode_count = ?,
		    poster_path = ?, banner_path = ?, studio = ?, director = ?, rating = ?
		WHERE id = ?
	`
	result, err := tx.ExecContext(ctx, query,
		anime.Title,
		nullableString(anime.Description),
		nullableIntValue(anime.ReleaseYear),
		nullableIntValue(anime.EpisodeCount),
		nullableString(anime.PosterPath),
		nullableString(anime.BannerPath),
		nullableString(anime.Studio),
		nullableString(anime.Director),
		anime.Rating,
		anime.ID,
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.Conflict("an anime with this title already exists")
		}
		return apperrors.Store("failed to update anime", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		// the title update may be a no-op; require the row to exist
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT * FROM anime WHERE id = ?)`, anime.ID).Scan(&exists); err != nil {
			return apperrors.Store("failed to check anime existence", err)
		}
		if !exists {
			return apperrors.NotFound("anime not found")
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM anime_genres WHERE anime_id = ?`, anime.ID); err != nil {
		return apperrors.Store("failed to clear genre links", err)
	}
	if err := insertGenreLinks(ctx, tx, anime.ID, genreIDs); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("failed to commit transaction", err)
	}

	return nil
}

// Delete removes an anime along with its genre links and every user's
// watchlist entry for it, in one transaction
func (r *animeRepository) Delete(ctx context.Context, id int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.Store("failed to begin transaction", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM anime_genres WHERE anime_id = ?`, id); err != nil {
		return apperrors.Store("failed to delete genre links", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_anime_watchlist WHERE anime_id = ?`, id); err != nil {
		return apperrors.Store("failed to delete watchlist entries", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM anime WHERE id = ?`, id)
	if err != nil {
		return apperrors.Store("failed to delete anime", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		return apperrors.NotFound("anime not found")
	}

	if err := tx.Commit(); err != nil {
		return apperrors.Store("failed to commit transaction", err)
	}

	return nil
}

// Count returns the total number of catalog items
func (r *animeRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM anime`).Scan(&count); err != nil {
		return 0, apperrors.Store("failed to count anime", err)
	}
	return count, nil
}

// CountCreatedSince returns the number of catalog items added at or after t
func (r *animeRepository) CountCreatedSince(ctx context.Context, t time.Time) (int, error) {
	query := `SELECT COUNT(*) FROM anime WHERE created_at >= ?`

	var count int
	if err := r.db.QueryRowContext(ctx, query, t).Scan(&count); err != nil {
		return 0, apperrors.Store("failed to count recent anime", err)
	}
	return count, nil
}

func (r *animeRepository) genresForAnime(ctx context.Context, animeID int) ([]models.Genre, error) {
	query := `
		SELECT g.id, g.name
		FROM genres g
		JOIN anime_genres ag ON g.id = ag.genre_id
		WHERE ag.anime_id = ?
		ORDER BY g.name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, animeID)
	if err != nil {
		return nil, apperrors.Store("failed to query anime genres", err)
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

func insertGenreLinks(ctx context.Context, tx *sql.Tx, animeID int, genreIDs []int) error {
	for _, genreID := range genreIDs {
		_, err := tx.ExecContext(ctx, `INSERT INTO anime_genres (anime_id, genre_id) VALUES (?, ?)`, animeID, genreID)
		if err != nil {
			if isForeignKeyViolation(err) {
				return apperrors.Validation("unknown genre selected")
			}
			if isDuplicateEntry(err) {
				continue
			}
			return apperrors.Store("failed to insert genre link", err)
		}
	}
	return nil
}

func nullableString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableIntValue(v int) any {
	if v == 0 {
		return nil
	}
	return v
}
