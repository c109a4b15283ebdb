package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/anicore/backend/docs"
	"github.com/anicore/backend/internal/auth"
	"github.com/anicore/backend/internal/config"
	"github.com/anicore/backend/internal/handlers"
	"github.com/anicore/backend/internal/logger"
	"github.com/anicore/backend/internal/middleware"
	"github.com/anicore/backend/internal/repositories"
	"github.com/anicore/backend/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	migratemysql "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title AniCore API
// @version 1.0
// @description API for anime catalog browsing, per-user watchlists and site administration

// @license.name Apache 2.0
// @license.url http://www.apache.org/licenses/LICENSE-2.0.html

// @host localhost:8080
// @BasePath /api/v1
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting AniCore server")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize session manager
	sessions := auth.NewSessionManager(cfg.Session.Secret, cfg.Session.TTL, cfg.Session.Secure)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db)
	animeRepo := repositories.NewAnimeRepository(db)
	genreRepo := repositories.NewGenreRepository(db)
	watchlistRepo := repositories.NewWatchlistRepository(db)
	contactRepo := repositories.NewContactRepository(db)
	resetTokenRepo := repositories.NewResetTokenRepository(db)

	// Initialize services
	authService := services.NewAuthService(userRepo, resetTokenRepo, logger.Logger)
	catalogService := services.NewCatalogService(animeRepo, genreRepo, watchlistRepo, logger.Logger)
	watchlistService := services.NewWatchlistService(watchlistRepo, animeRepo, logger.Logger)
	profileService := services.NewProfileService(userRepo, logger.Logger)
	contactService := services.NewContactService(contactRepo, logger.Logger)
	adminService := services.NewAdminService(userRepo, animeRepo, genreRepo, watchlistRepo, contactRepo, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessions, logger.Logger)
	catalogHandler := handlers.NewCatalogHandler(catalogService, logger.Logger)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService, logger.Logger)
	profileHandler := handlers.NewProfileHandler(profileService, logger.Logger)
	contactHandler := handlers.NewContactHandler(contactService, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging(logger.Logger))
	r.Use(middleware.Recovery(logger.Logger))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(middleware.RequestSizeLimit(10 * 1024 * 1024)) // 10MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Scope router to /api/v1
	r.Route("/api/v1", func(r chi.Router) {
		// Public routes; OptionalAuth lets the catalog personalize detail
		// views for logged-in visitors
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(sessions))
			authHandler.RegisterRoutes(r)
			catalogHandler.RegisterRoutes(r)
			contactHandler.RegisterRoutes(r)
		})

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessions))
			watchlistHandler.RegisterRoutes(r)
			profileHandler.RegisterRoutes(r)
		})

		// Admin routes re-verify the role against the store on every request
		r.Route("/admin", func(r chi.Router) {
			r.Use(middleware.RequireAuth(sessions))
			r.Use(middleware.RequireAdmin(userRepo, logger.Logger))
			adminHandler.RegisterRoutes(r)
			catalogHandler.RegisterAdminRoutes(r)
			contactHandler.RegisterAdminRoutes(r)
		})
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := migratemysql.WithInstance(db, &migratemysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Get the working directory or use migrations folder relative to the binary
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		// Try parent directory if running from cmd
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
