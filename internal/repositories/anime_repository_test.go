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
	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupAnimeRepository creates an anime repository with a mock database
func setupAnimeRepository(t *testing.T) (*animeRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewAnimeRepository(db)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func animeRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "title", "description", "release_year", "episode_count",
		"poster_path", "banner_path", "studio", "director", "rating", "created_at",
	})
}

func TestAnimeRepository_GetByID(t *testing.T) {
	now := time.Now()

	t.Run("success with genres", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM anime\s+WHERE id = \?`).
			WithArgs(7).
			WillReturnRows(animeRows().
				AddRow(7, "Cowboy Bebop", "Space bounty hunters", 1998, 26, "/img/bebop.jpg", nil, "Sunrise", "Shinichiro Watanabe", 8.8, now))
		mock.ExpectQuery(`SELECT g\.id, g\.name\s+FROM genres g`).
			WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"id", "name"}).
				AddRow(1, "Action").
				AddRow(11, "Sci-Fi"))

		anime, err := repo.GetByID(context.Background(), 7)

		require.NoError(t, err)
		assert.Equal(t, "Cowboy Bebop", anime.Title)
		assert.Equal(t, 1998, anime.ReleaseYear)
		assert.Equal(t, 26, anime.EpisodeCount)
		require.NotNil(t, anime.Rating)
		assert.InDelta(t, 8.8, *anime.Rating, 0.001)
		require.Len(t, anime.Genres, 2)
		assert.Equal(t, "Action", anime.Genres[0].Name)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectQuery(`SELECT .+ FROM anime\s+WHERE id = \?`).
			WithArgs(9999).
			WillReturnRows(animeRows())

		anime, err := repo.GetByID(context.Background(), 9999)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.Nil(t, anime)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnimeRepository_List(t *testing.T) {
	t.Run("search filter", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "title", "release_year", "episode_count", "poster_path"}).
			AddRow(7, "Cowboy Bebop", 1998, 26, "/img/bebop.jpg")
		mock.ExpectQuery(`WHERE a\.title LIKE \?\s+ORDER BY a\.title ASC LIMIT \? OFFSET \?`).
			WithArgs("%bebop%", 20, 0).
			WillReturnRows(rows)

		items, err := repo.List(context.Background(), AnimeFilter{Search: "bebop", Page: 1, PerPage: 20})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Equal(t, "Cowboy Bebop", items[0].Title)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("genre filter joins the link table", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows([]string{"id", "title", "release_year", "episode_count", "poster_path"}).
			AddRow(3, "Akira", 1988, 1, nil)
		mock.ExpectQuery(`JOIN anime_genres ag ON a\.id = ag\.anime_id AND ag\.genre_id = \?`).
			WithArgs(11, 20, 0).
			WillReturnRows(rows)

		items, err := repo.List(context.Background(), AnimeFilter{GenreID: 11, Page: 1, PerPage: 20})

		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Empty(t, items[0].PosterPath)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnimeRepository_Create(t *testing.T) {
	t.Run("inserts anime and genre links in one transaction", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO anime`).
			WithArgs("Cowboy Bebop", "Space bounty hunters", 1998, 26, nil, nil, nil, nil, nil).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO anime_genres (anime_id, genre_id) VALUES (?, ?)`)).
			WithArgs(7, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO anime_genres (anime_id, genre_id) VALUES (?, ?)`)).
			WithArgs(7, 11).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		anime := &models.Anime{
			Title:        "Cowboy Bebop",
			Description:  "Space bounty hunters",
			ReleaseYear:  1998,
			EpisodeCount: 26,
		}
		err := repo.Create(context.Background(), anime, []int{1, 11})

		require.NoError(t, err)
		assert.Equal(t, 7, anime.ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when a genre link fails", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO anime`).
			WithArgs("Cowboy Bebop", nil, nil, nil, nil, nil, nil, nil, nil).
			WillReturnResult(sqlmock.NewResult(7, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO anime_genres (anime_id, genre_id) VALUES (?, ?)`)).
			WithArgs(7, 9999).
			WillReturnError(&mysql.MySQLError{Number: 1452})
		mock.ExpectRollback()

		anime := &models.Anime{Title: "Cowboy Bebop"}
		err := repo.Create(context.Background(), anime, []int{9999})

		assert.ErrorIs(t, err, apperrors.ErrValidation)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate title maps to conflict", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO anime`).
			WithArgs("Cowboy Bebop", nil, nil, nil, nil, nil, nil, nil, nil).
			WillReturnError(&mysql.MySQLError{Number: 1062})
		mock.ExpectRollback()

		anime := &models.Anime{Title: "Cowboy Bebop"}
		err := repo.Create(context.Background(), anime, nil)

		assert.ErrorIs(t, err, apperrors.ErrConflict)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnimeRepository_Update(t *testing.T) {
	t.Run("resets genre links atomically", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE anime`).
			WithArgs("Cowboy Bebop", "Updated", 1998, 26, nil, nil, "Sunrise", nil, nil, 7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM anime_genres WHERE anime_id = ?`)).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO anime_genres (anime_id, genre_id) VALUES (?, ?)`)).
			WithArgs(7, 4).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		anime := &models.Anime{
			ID:           7,
			Title:        "Cowboy Bebop",
			Description:  "Updated",
			ReleaseYear:  1998,
			EpisodeCount: 26,
			Studio:       "Sunrise",
		}
		err := repo.Update(context.Background(), anime, []int{4})

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown anime maps to not found", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE anime`).
			WithArgs("Ghost", nil, nil, nil, nil, nil, nil, nil, nil, 9999).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT EXISTS(SELECT * FROM anime WHERE id = ?)`)).
			WithArgs(9999).
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectRollback()

		anime := &models.Anime{ID: 9999, Title: "Ghost"}
		err := repo.Update(context.Background(), anime, nil)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAnimeRepository_Delete(t *testing.T) {
	t.Run("removes genre links and watchlist entries with the anime", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM anime_genres WHERE anime_id = ?`)).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_anime_watchlist WHERE anime_id = ?`)).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 5))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM anime WHERE id = ?`)).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := repo.Delete(context.Background(), 7)

		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the watchlist delete fails", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM anime_genres WHERE anime_id = ?`)).
			WithArgs(7).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_anime_watchlist WHERE anime_id = ?`)).
			WithArgs(7).
			WillReturnError(errors.New("database error"))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), 7)

		assert.ErrorIs(t, err, apperrors.ErrStore)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown anime maps to not found", func(t *testing.T) {
		repo, mock, cleanup := setupAnimeRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM anime_genres WHERE anime_id = ?`)).
			WithArgs(9999).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM user_anime_watchlist WHERE anime_id = ?`)).
			WithArgs(9999).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM anime WHERE id = ?`)).
			WithArgs(9999).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectRollback()

		err := repo.Delete(context.Background(), 9999)

		assert.ErrorIs(t, err, apperrors.ErrNotFound)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
