package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/grmr/account-service/docs"
	"github.com/grmr/account-service/internal/auth/middleware"
	"github.com/grmr/account-service/internal/auth/service"
	"github.com/grmr/account-service/internal/config"
	"github.com/grmr/account-service/internal/handlers"
	"github.com/grmr/account-service/internal/jobs"
	"github.com/grmr/account-service/internal/logger"
	loggerMiddleware "github.com/grmr/account-service/internal/logger/middleware"
	"github.com/grmr/account-service/internal/middlewares"
	"github.com/grmr/account-service/internal/repositories"
	"github.com/grmr/account-service/internal/services"
	"github.com/grmr/account-service/internal/storage"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// maxRequestSize bounds every request body, the avatar limit is enforced separately by storage
const maxRequestSize = 10 * 1024 * 1024

// @title GRMR Account API
// @version 1.0
// @description Account management with role-based access and an audit log of administrator actions

// @host localhost:8080
// @BasePath /grmr
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name X-API-Key
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

	logger.Logger.Info("Starting GRMR Account Service", zap.String("env", cfg.AppEnv))
	if cfg.JWT.InsecureFallback {
		logger.Logger.Warn("JWT_SECRET is not set, using the development secret")
	}

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

	// Initialize layers
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	historyRepo := repositories.NewActionHistoryRepository(db)
	avatarStorage := storage.NewLocalStorage(cfg.Upload.Dir, cfg.Upload.MaxAvatarSize)
	tokenGenerator := service.NewTokenGenerator(cfg.JWT.Secret, cfg.JWT.AccessTokenExpiry)

	auditor := services.NewAuditor(historyRepo, logger.Logger)
	authService := services.NewAuthService(userRepo, tokenGenerator, auditor, logger.Logger)
	adminService := services.NewAdminService(userRepo, avatarStorage, auditor, logger.Logger)
	profileService := services.NewProfileService(userRepo, avatarStorage, auditor, logger.Logger)
	historyService := services.NewHistoryService(historyRepo, auditor)

	gate := middleware.NewGate(tokenGenerator, auditor, logger.Logger)
	if cfg.Tokens.RevocationEnabled {
		revokedTokenRepo := repositories.NewRevokedTokenRepository(db)
		authService.WithRevocation(revokedTokenRepo)
		gate.WithRevocation(revokedTokenRepo)

		purge, err := jobs.Start(cfg.Tokens.PurgeSchedule, jobs.NewRevokedTokenPurgeJob(authService, logger.Logger))
		if err != nil {
			logger.Logger.Fatal("Failed to schedule revoked token purge", zap.Error(err))
		}
		defer purge.Stop()

		logger.Logger.Info("Token revocation enabled", zap.String("purgeSchedule", cfg.Tokens.PurgeSchedule))
	}

	authHandler := handlers.NewAuthHandler(authService, gate, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, gate, logger.Logger)
	profileHandler := handlers.NewProfileHandler(profileService, gate, logger.Logger)
	historyHandler := handlers.NewHistoryHandler(historyService, gate, logger.Logger)
	tokenCleaningHandler := handlers.NewTokenCleaningHandler(authService, middleware.APIKeyMiddleware(cfg.Tokens.APIKey), logger.Logger)

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(middlewares.RequestIDMiddleware)
	r.Use(loggerMiddleware.LoggerMiddleware(logger.Logger))
	r.Use(middlewares.RecoveryMiddleware(logger.Logger))
	r.Use(middlewares.CORSMiddleware(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(cfg.Server.RateLimit, time.Minute))
	r.Use(middlewares.RequestSizeLimitMiddleware(maxRequestSize))

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Uploaded avatars
	uploads := http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Upload.Dir)))
	r.Get("/uploads/*", uploads.ServeHTTP)

	// Scope router to /grmr
	r.Route("/grmr", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		adminHandler.RegisterRoutes(r)
		profileHandler.RegisterRoutes(r)
		historyHandler.RegisterRoutes(r)
		tokenCleaningHandler.RegisterRoutes(r)
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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	driver, err := mysql.WithInstance(db, &mysql.Config{
		MigrationsTable: "grmr_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Try parent directory if running from cmd
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(migrationPath, "mysql", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
