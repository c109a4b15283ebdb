package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/anicore/backend/internal/apperrors"
	"github.com/anicore/backend/internal/models"
)

// watchlistRepository implements user_anime_watchlist table data access
type watchlistRepository struct {
	db *sql.DB
}

// NewWatchlistRepository creates a new watchlist repository
func NewWatchlistRepository(db *sql.DB) *watchlistRepository {
	return &watchlistRepository{db: db}
}

const watchlistEntryColumns = `id, user_id, anime_id, status, user_rating, episodes_watched, date_added, date_status_updated`

// GetEntry retrieves the watchlist entry for a (user, anime) pair
func (r *watchlistRepository) GetEntry(ctx context.Context, userID, animeID int) (*models.WatchlistEntry, error) {
	query := `
		SELECT ` + watchlistEntryColumns + `
		FROM user_anime_watchlist
		WHERE user_id = ? AND anime_id = ?
		LIMIT 1
	`

	entry := &models.WatchlistEntry{}
	var rating, episodes sql.NullInt64
	err := r.db.QueryRowContext(ctx, query, userID, animeID).Scan(
		&entry.ID,
		&entry.UserID,
		&entry.AnimeID,
		&entry.Status,
		&rating,
		&episodes,
		&entry.DateAdded,
		&entry.DateStatusUpdated,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.NotFound("anime not found in your watchlist")
	}
	if err != nil {
		return nil, apperrors.Store("failed to get watchlist entry", err)
	}

	if rating.Valid {
		v := int(rating.Int64)
		entry.UserRating = &v
	}
	if episodes.Valid {
		v := int(episodes.Int64)
		entry.EpisodesWatched = &v
	}
	return entry, nil
}

// Exists checks if a watchlist entry exists for a (user, anime) pair
func (r *watchlistRepository) Exists(ctx context.Context, userID, animeID int) (bool, error) {
	query := `SELECT EXISTS(SELECT * FROM user_anime_watchlist WHERE user_id = ? AND anime_id = ?)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, userID, animeID).Scan(&exists); err != nil {
		return false, apperrors.Store("failed to check watchlist entry existence", err)
	}

	return exists, nil
}

// Insert creates a new watchlist entry. The unique (user_id, anime_id)
// index backstops the caller's existence check under concurrent adds.
func (r *watchlistRepository) Insert(ctx context.Context, entry *models.WatchlistEntry) error {
	query := `
		INSERT INTO user_anime_watchlist (user_id, anime_id, status, user_rating, episodes_watched)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := r.db.ExecContext(ctx, query,
		entry.UserID,
		entry.AnimeID,
		entry.Status,
		nullableInt(entry.UserRating),
		nullableInt(entry.EpisodesWatched),
	)
	if err != nil {
		if isDuplicateEntry(err) {
			return apperrors.Conflict("this anime is already in your watchlist")
		}
		if isForeignKeyViolation(err) {
			return apperrors.NotFound("anime not found")
		}
		return apperrors.Store("failed to add anime to watchlist", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return apperrors.Store("failed to get last insert id", err)
	}

	entry.ID = int(id)
	return nil
}

// Update replaces status, rating and progress of an existing entry
func (r *watchlistRepository) Update(ctx context.Context, entry *models.WatchlistEntry) error {
	query := `
		UPDATE user_anime_watchlist
		SET status = ?, user_rating = ?, episodes_watched = ?
		WHERE user_id = ? AND anime_id = ?
	`

	_, err := r.db.ExecContext(ctx, query,
		entry.Status,
		nullableInt(entry.UserRating),
		nullableInt(entry.EpisodesWatched),
		entry.UserID,
		entry.AnimeID,
	)
	if err != nil {
		return apperrors.Store("failed to update watchlist entry", err)
	}

	return nil
}

// Delete removes the entry for a (user, anime) pair. Reports NotFound when
// no row matched so repeated removal stays a reported, non-fatal error.
func (r *watchlistRepository) Delete(ctx context.Context, userID, animeID int) error {
	query := `DELETE FROM user_anime_watchlist WHERE user_id = ? AND anime_id = ?`

	result, err := r.db.ExecContext(ctx, query, userID, animeID)
	if err != nil {
		return apperrors.Store("failed to remove from watchlist", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return apperrors.Store("failed to get affected rows", err)
	}
	if affected == 0 {
		return apperrors.NotFound("anime not found in your watchlist")
	}

	return nil
}

// ListForUser retrieves a user's watchlist joined with anime summaries,
// most recently updated first. A non-nil status restricts to that status.
func (r *watchlistRepository) ListForUser(ctx context.Context, userID int, status *models.WatchStatus) ([]models.WatchlistItem, error) {
	query := `
		SELECT w.id, w.user_id, w.anime_id, w.status, w.user_rating, w.episodes_watched,
		       w.date_added, w.date_status_updated,
		       a.title, a.poster_path, a.episode_count
		FROM user_anime_watchlist w
		JOIN anime a ON w.anime_id = a.id
		WHERE w.user_id = ?
	`
	args := []any{userID}

	if status != nil {
		query += ` AND w.status = ?`
		args = append(args, *status)
	}

	query += ` ORDER BY w.date_status_updated DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.Store("failed to query watchlist", err)
	}
	defer rows.Close()

	var items []models.WatchlistItem
	for rows.Next() {
		var item models.WatchlistItem
		var rating, episodes, episodeCount sql.NullInt64
		var poster sql.NullString
		err := rows.Scan(
			&item.ID,
			&item.UserID,
			&item.AnimeID,
			&item.Status,
			&rating,
			&episodes,
			&item.DateAdded,
			&item.DateStatusUpdated,
			&item.Title,
			&poster,
			&episodeCount,
		)
		if err != nil {
			return nil, apperrors.Store("failed to scan watchlist item", err)
		}

		if rating.Valid {
			v := int(rating.Int64)
			item.UserRating = &v
		}
		if episodes.Valid {
			v := int(episodes.Int64)
			item.EpisodesWatched = &v
		}
		item.PosterPath = poster.String
		item.EpisodeCount = int(episodeCount.Int64)
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("error iterating watchlist", err)
	}

	return items, nil
}

// Count returns the total number of watchlist entries across all users
func (r *watchlistRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM user_anime_watchlist`).Scan(&count); err != nil {
		return 0, apperrors.Store("failed to count watchlist entries", err)
	}
	return count, nil
}

// CountByStatus returns entry counts grouped by status across all users
func (r *watchlistRepository) CountByStatus(ctx context.Context) (map[models.WatchStatus]int, error) {
	query := `SELECT status, COUNT(*) FROM user_anime_watchlist GROUP BY status`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, apperrors.Store("failed to count watchlist by status", err)
	}
	defer rows.Close()

	counts := make(map[models.WatchStatus]int)
	for rows.Next() {
		var status models.WatchStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, apperrors.Store("failed to scan status count", err)
		}
		counts[status] = count
	}

	if err := rows.Err(); err != nil {
		return nil, apperrors.Store("error iterating status counts", err)
	}

	return counts, nil
}

// nullableInt converts an optional int to its SQL representation.
func nullableInt(v *int) any {
	if v == nil {
		return nil
	}
	return *v
}
