package integration

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/anicore/backend/internal/auth"
	"github.com/anicore/backend/internal/config"
	"github.com/anicore/backend/internal/handlers"
	"github.com/anicore/backend/internal/middleware"
	"github.com/anicore/backend/internal/models"
	"github.com/anicore/backend/internal/repositories"
	"github.com/anicore/backend/internal/services"
)

var (
	testDB     *sql.DB
	testRouter chi.Router
	testLogger *zap.Logger
)

// setupTestRouter builds a router with the same wiring as main.go
func setupTestRouter(db *sql.DB, logger *zap.Logger) chi.Router {
	sessions := auth.NewSessionManager("test-secret-key-for-integration-tests", time.Hour, false)

	userRepo := repositories.NewUserRepository(db)
	animeRepo := repositories.NewAnimeRepository(db)
	genreRepo := repositories.NewGenreRepository(db)
	watchlistRepo := repositories.NewWatchlistRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	resetTokenRepo := repositories.NewResetTokenRepository(db)

	authService := services.NewAuthService(userRepo, resetTokenRepo, logger)
	catalogService := services.NewCatalogService(animeRepo, genreRepo, watchlistRepo, logger)
	watchlistService := services.NewWatchlistService(watchlistRepo, animeRepo, logger)
	profileService := services.NewProfileService(userRepo, logger)
	contactService := services.NewContactService(contactRepo, logger)
	adminService := services.NewAdminService(userRepo, animeRepo, genreRepo, watchlistRepo, contactRepo, logger)

	authHandler := handlers.NewAuthHandler(authService, sessions, logger)
	catalogHandler := handlers.NewCatalogHandler(catalogService, logger)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService, logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger)
	contactHandler := handlers.NewContactHandler(contactService, logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger)

	r := chi.NewRouter()
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(sessions))
			authHandler.RegisterRoutes(r)
			catalogHandler.RegisterRoutes(r)
			contactHandler.RegisterRoutes(r)
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessions))
			watchlistHandler.RegisterRoutes(r)
			profileHandler.RegisterRoutes(r)
		})

		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessions))
			r.Use(middleware.RequireAdmin(userRepo, logger))
			adminHandler.RegisterRoutes(r)
			catalogHandler.RegisterAdminRoutes(r)
			contactHandler.RegisterAdminRoutes(r)
		})
	})

	return r
}

// TestMain sets up and tears down the test environment
func TestMain(m *testing.M) {
	var err error
	testLogger, err = zap.NewDevelopment()
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}

	cfg, err := config.LoadTestConfig()
	if err != nil {
		panic(fmt.Sprintf("Failed to load test config: %v", err))
	}
	dsn := "root:password@tcp(localhost:3306)/anicore_test?parseTime=true&charset=utf8mb4"
	if cfg.Database.Host != "" {
		dsn = cfg.DSN()
	}

	testDB, err = sql.Open("mysql", dsn)
	if err != nil {
		panic(fmt.Sprintf("Failed to connect to test database: %v", err))
	}

	if err = testDB.Ping(); err != nil {
		panic(fmt.Sprintf("Failed to ping test database: %v", err))
	}

	setupTestSchema(testDB)
	testRouter = setupTestRouter(testDB, testLogger)

	code := m.Run()

	if testDB != nil {
		testDB.Close()
	}
	os.Exit(code)
}

// setupTestSchema creates the test database schema
func setupTestSchema(db *sql.DB) {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id INT PRIMARY KEY AUTO_INCREMENT,
			username VARCHAR(50) NOT NULL UNIQUE,
			email VARCHAR(255) NOT NULL UNIQUE,
			password_hash VARCHAR(255) NOT NULL,
			role ENUM('user', 'admin') NOT NULL DEFAULT 'user',
			profile_picture VARCHAR(255),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		`CREATE TABLE IF NOT EXISTS genres (
			id INT PRIMARY KEY AUTO_INCREMENT,
			name VARCHAR(100) NOT NULL UNIQUE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		`CREATE TABLE IF NOT EXISTS anime (
			id INT PRIMARY KEY AUTO_INCREMENT,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			release_year INT,
			episode_count INT NOT NULL DEFAULT 0,
			poster_path VARCHAR(255),
			banner_path VARCHAR(255),
			studio VARCHAR(255),
			director VARCHAR(255),
			rating DECIMAL(3,1),
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		`CREATE TABLE IF NOT EXISTS anime_genres (
			anime_id INT NOT NULL,
			genre_id INT NOT NULL,
			PRIMARY KEY (anime_id, genre_id),
			FOREIGN KEY (anime_id) REFERENCES anime(id) ON DELETE CASCADE,
			FOREIGN KEY (genre_id) REFERENCES genres(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		`CREATE TABLE IF NOT EXISTS user_anime_watchlist (
			id INT PRIMARY KEY AUTO_INCREMENT,
			user_id INT NOT NULL,
			anime_id INT NOT NULL,
			status ENUM('Watching', 'Completed', 'On-Hold', 'Dropped', 'Plan to Watch') NOT NULL DEFAULT 'Plan to Watch',
			user_rating INT,
			episodes_watched INT,
			date_added TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			date_status_updated TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
			UNIQUE KEY uq_user_anime (user_id, anime_id),
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE,
			FOREIGN KEY (anime_id) REFERENCES anime(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		`CREATE TABLE IF NOT EXISTS contact_messages (
			id INT PRIMARY KEY AUTO_INCREMENT,
			name VARCHAR(100) NOT NULL,
			email VARCHAR(255) NOT NULL,
			subject VARCHAR(200) NOT NULL,
			message TEXT NOT NULL,
			user_id INT,
			status ENUM('new', 'read', 'replied') NOT NULL DEFAULT 'new',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE SET NULL
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
		`CREATE TABLE IF NOT EXISTS reset_tokens (
			id INT PRIMARY KEY AUTO_INCREMENT,
			user_id INT NOT NULL,
			token CHAR(64) NOT NULL UNIQUE,
			expiry TIMESTAMP NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
		) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci;`,
	}
	for _, stmt := range statements {
		db.Exec(stmt)
	}
}

// seedTestData resets the database and inserts a known admin, user, genre and
// two catalog items
func seedTestData(t *testing.T, db *sql.DB) {
	t.Helper()

	tables := []string{"reset_tokens", "contact_messages", "user_anime_watchlist", "anime_genres", "anime", "genres", "users"}
	for _, table := range tables {
		_, err := db.Exec("DELETE FROM " + table)
		require.NoError(t, err, "Failed to clear "+table)
		_, err = db.Exec("ALTER TABLE " + table + " AUTO_INCREMENT = 1")
		require.NoError(t, err, "Failed to reset AUTO_INCREMENT on "+table)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte("Password1!"), bcrypt.DefaultCost)
	require.NoError(t, err, "Failed to hash password")

	_, err = db.Exec(`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		"admin", "admin@example.com", string(passwordHash), models.RoleAdmin)
	require.NoError(t, err, "Failed to seed admin")
	_, err = db.Exec(`INSERT INTO users (username, email, password_hash, role) VALUES (?, ?, ?, ?)`,
		"testuser", "test@example.com", string(passwordHash), models.RoleUser)
	require.NoError(t, err, "Failed to seed user")

	_, err = db.Exec(`INSERT INTO genres (name) VALUES ('Action'), ('Sci-Fi')`)
	require.NoError(t, err, "Failed to seed genres")

	_, err = db.Exec(`INSERT INTO anime (title, description, release_year, episode_count) VALUES
		('Cowboy Bebop', 'Space bounty hunters', 1998, 26),
		('FLCL', 'Robots out of foreheads', 2000, 6)`)
	require.NoError(t, err, "Failed to seed anime")
	_, err = db.Exec(`INSERT INTO anime_genres (anime_id, genre_id) VALUES (1, 1), (1, 2), (2, 2)`)
	require.NoError(t, err, "Failed to seed anime genres")
}

// doJSON performs a JSON request against the test router, attaching the
// session cookie when token is non-empty
func doJSON(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: token})
	}

	w := httptest.NewRecorder()
	testRouter.ServeHTTP(w, req)
	return w
}

// loginAs logs in with the given credentials and returns the session cookie
func loginAs(t *testing.T, login, password string) string {
	t.Helper()

	w := doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"login":    login,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, "login failed: %s", w.Body.String())

	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == auth.SessionCookie {
			return cookie.Value
		}
	}
	t.Fatal("session cookie not set after login")
	return ""
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var response map[string]any
	require.NoError(t, json.NewDecoder(w.Body).Decode(&response))
	return response
}

func TestIntegration_RegisterAndLogin(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)

	t.Run("register sets a session cookie", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username":         "newuser",
			"email":            "newuser@example.com",
			"password":         "Password1!",
			"confirm_password": "Password1!",
		})

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		assert.Equal(t, true, response["success"])

		var count int
		err := testDB.QueryRow("SELECT COUNT(*) FROM users WHERE username = ?", "newuser").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)

		// The stored password must be hashed
		var hash string
		err = testDB.QueryRow("SELECT password_hash FROM users WHERE username = ?", "newuser").Scan(&hash)
		require.NoError(t, err)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte("Password1!")))
	})

	t.Run("duplicate username is a conflict", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
			"username":         "testuser",
			"email":            "unique@example.com",
			"password":         "Password1!",
			"confirm_password": "Password1!",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("login works with email too", func(t *testing.T) {
		token := loginAs(t, "test@example.com", "Password1!")
		assert.NotEmpty(t, token)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
			"login":    "testuser",
			"password": "WrongPass1!",
		})

		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestIntegration_WatchlistFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)
	token := loginAs(t, "testuser", "Password1!")

	t.Run("unauthenticated access is rejected", func(t *testing.T) {
		w := doJSON(t, http.MethodGet, "/api/v1/watchlist", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("add with an unknown status stores plan to watch", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/watchlist", token, map[string]any{
			"anime_id": 1,
			"status":   "Binging",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var status string
		err := testDB.QueryRow(
			"SELECT status FROM user_anime_watchlist WHERE anime_id = 1").Scan(&status)
		require.NoError(t, err)
		assert.Equal(t, "Plan to Watch", status)
	})

	t.Run("adding the same anime twice is a conflict", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/watchlist", token, map[string]any{
			"anime_id": 1,
			"status":   "Watching",
		})

		assert.Equal(t, http.StatusConflict, w.Code)
	})

	t.Run("update rejects an out-of-range rating", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/watchlist/update", token, map[string]any{
			"anime_id":    1,
			"status":      "Watching",
			"user_rating": 11,
		})

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("update changes status rating and progress", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/watchlist/update", token, map[string]any{
			"anime_id":         1,
			"status":           "Watching",
			"user_rating":      8,
			"episodes_watched": 13,
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var status string
		var rating, episodes int
		err := testDB.QueryRow(
			"SELECT status, user_rating, episodes_watched FROM user_anime_watchlist WHERE anime_id = 1").
			Scan(&status, &rating, &episodes)
		require.NoError(t, err)
		assert.Equal(t, "Watching", status)
		assert.Equal(t, 8, rating)
		assert.Equal(t, 13, episodes)
	})

	t.Run("stats reflect the single entry", func(t *testing.T) {
		w := doJSON(t, http.MethodGet, "/api/v1/watchlist/stats", token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]any)
		assert.Equal(t, float64(1), data["total_entries"])
		assert.Equal(t, float64(26), data["total_episodes"])
		assert.Equal(t, float64(13), data["watched_episodes"])
	})

	t.Run("remove and remove again", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/watchlist/remove", token, map[string]any{"anime_id": 1})
		assert.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, http.MethodPost, "/api/v1/watchlist/remove", token, map[string]any{"anime_id": 1})
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestIntegration_CatalogAndDetail(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)

	t.Run("anonymous browse", func(t *testing.T) {
		w := doJSON(t, http.MethodGet, "/api/v1/anime?q=bebop", "", nil)

		require.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]any)
		items := data["items"].([]any)
		require.Len(t, items, 1)
		first := items[0].(map[string]any)
		assert.Equal(t, "Cowboy Bebop", first["title"])
	})

	t.Run("detail carries the caller's watchlist entry", func(t *testing.T) {
		token := loginAs(t, "testuser", "Password1!")
		w := doJSON(t, http.MethodPost, "/api/v1/watchlist", token, map[string]any{
			"anime_id": 1,
			"status":   "Watching",
		})
		require.Equal(t, http.StatusOK, w.Code)

		w = doJSON(t, http.MethodGet, "/api/v1/anime/1", token, nil)
		require.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]any)
		require.NotNil(t, data["watchlist_entry"])
		entry := data["watchlist_entry"].(map[string]any)
		assert.Equal(t, "Watching", entry["status"])
	})

	t.Run("unknown anime is not found", func(t *testing.T) {
		w := doJSON(t, http.MethodGet, "/api/v1/anime/9999", "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestIntegration_AdminGates(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)

	t.Run("plain user is forbidden", func(t *testing.T) {
		token := loginAs(t, "testuser", "Password1!")
		w := doJSON(t, http.MethodGet, "/api/v1/admin/stats", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin reads the dashboard", func(t *testing.T) {
		token := loginAs(t, "admin", "Password1!")
		w := doJSON(t, http.MethodGet, "/api/v1/admin/stats", token, nil)

		require.Equal(t, http.StatusOK, w.Code)
		response := decodeEnvelope(t, w)
		data := response["data"].(map[string]any)
		assert.Equal(t, float64(2), data["total_users"])
		assert.Equal(t, float64(2), data["total_anime"])
	})

	t.Run("admin cannot change own role", func(t *testing.T) {
		token := loginAs(t, "admin", "Password1!")
		w := doJSON(t, http.MethodPost, "/api/v1/admin/users/role", token, map[string]any{
			"user_id": 1,
			"role":    "user",
		})
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin demotion takes effect on the next request", func(t *testing.T) {
		token := loginAs(t, "admin", "Password1!")

		// Demote the other user first so there is an admin-made change,
		// then demote the admin out-of-band the way a second admin would.
		_, err := testDB.Exec(`UPDATE users SET role = 'user' WHERE id = 1`)
		require.NoError(t, err)

		w := doJSON(t, http.MethodGet, "/api/v1/admin/stats", token, nil)
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("admin manages the catalog", func(t *testing.T) {
		seedTestData(t, testDB)
		token := loginAs(t, "admin", "Password1!")

		w := doJSON(t, http.MethodPost, "/api/v1/admin/anime", token, map[string]any{
			"title":         "Akira",
			"release_year":  1988,
			"episode_count": 1,
			"genre_ids":     []int{1},
		})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var count int
		err := testDB.QueryRow("SELECT COUNT(*) FROM anime WHERE title = 'Akira'").Scan(&count)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
	})
}

func TestIntegration_ContactInbox(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration tests in short mode")
	}

	seedTestData(t, testDB)

	t.Run("anonymous submission lands as new", func(t *testing.T) {
		w := doJSON(t, http.MethodPost, "/api/v1/contact", "", map[string]string{
			"name":    "Alice",
			"email":   "alice@example.com",
			"subject": "Missing episodes",
			"message": "Episode list for show 1 stops at 12.",
		})

		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var status string
		var userID sql.NullInt64
		err := testDB.QueryRow("SELECT status, user_id FROM contact_messages WHERE email = 'alice@example.com'").
			Scan(&status, &userID)
		require.NoError(t, err)
		assert.Equal(t, "new", status)
		assert.False(t, userID.Valid)
	})

	t.Run("admin marks it read", func(t *testing.T) {
		token := loginAs(t, "admin", "Password1!")

		var id int
		err := testDB.QueryRow("SELECT id FROM contact_messages LIMIT 1").Scan(&id)
		require.NoError(t, err)

		w := doJSON(t, http.MethodPost, fmt.Sprintf("/api/v1/admin/messages/%d/read", id), token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var status string
		err = testDB.QueryRow("SELECT status FROM contact_messages WHERE id = ?", id).Scan(&status)
		require.NoError(t, err)
		assert.Equal(t, "read", status)
	})
}
