// cmd/api/main.go
// Main entry point for the matching API
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/imadgeboyega/campusmatch/internal/auth"
	"github.com/imadgeboyega/campusmatch/internal/common/database"
	"github.com/imadgeboyega/campusmatch/internal/config"
	"github.com/imadgeboyega/campusmatch/internal/dating"
	"github.com/imadgeboyega/campusmatch/internal/logging"
)

func main() {
	// 1. Load environment variables
	envErr := godotenv.Load()

	// 2. Load configuration
	cfg := config.Load()

	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})
	logger := logging.With("api")

	if envErr != nil {
		logger.Debug().Err(envErr).Msg("No .env file found, using environment variables")
	}

	// 3. Validate configuration
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("Configuration validation failed")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// 4. Connect to PostgreSQL
	connectCtx, cancelConnect := context.WithTimeout(ctx, 15*time.Second)
	db, err := database.NewPostgresDB(connectCtx, database.DefaultPostgresConfig(cfg.DatabaseURL))
	cancelConnect()
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer db.Close()
	logger.Info().Msg("Connected to PostgreSQL")

	// 5. Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisCtx, cancelRedis := context.WithTimeout(ctx, 5*time.Second)
		redisClient, err = database.NewRedisClientFromURL(redisCtx, cfg.RedisURL)
		cancelRedis()
		if err != nil {
			logger.Warn().Err(err).Msg("Redis unavailable, continuing without score card cache")
			redisClient = nil
		} else {
			defer redisClient.Close()
			logger.Info().Msg("Connected to Redis")
		}
	} else {
		logger.Warn().Msg("Redis URL not configured, skipping Redis connection")
	}

	// 6. Run database migrations
	if err := database.Migrate(ctx, db, logging.With("migrations")); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	// 7. Initialize matching engine
	matchingLogger := logging.With("matching")

	var cache dating.ScoreCardCache
	if redisClient != nil {
		cache = dating.NewRedisScoreCardCache(redisClient, cfg.ScoreCardTTL, matchingLogger)
	} else {
		cache = dating.NewNopScoreCardCache()
	}

	hub := dating.NewHub(logging.With("hub"))
	go hub.Run(ctx)

	repo := dating.NewPostgresRepository(db)
	service := dating.NewService(repo, cache, hub, dating.ServiceConfig{
		Scoring: dating.ScoringConfig{
			AgeToleranceSpan:        cfg.AgeToleranceSpan,
			YearToleranceSpan:       cfg.YearToleranceSpan,
			MaxDistanceNormalizerKm: cfg.MaxDistanceNormalizerKm,
		},
		DefaultCandidateLimit: cfg.DefaultCandidateLimit,
		MaxCandidateLimit:     cfg.MaxCandidateLimit,
		CandidatePoolSize:     cfg.CandidatePoolSize,
		ScoreCardTTL:          cfg.ScoreCardTTL,
		ScoreCardTopK:         cfg.ScoreCardTopK,
		RefreshConcurrency:    cfg.ScoreCardRefreshConcurrency,
	}, matchingLogger)
	handler := dating.NewHandler(service, matchingLogger)
	authMiddleware := auth.NewMiddleware(cfg.JWTSecret)

	// 8. Setup routes
	router := mux.NewRouter()
	router.Use(requestLogger(logging.With("http")))
	router.Use(corsMiddleware)
	router.Use(timeoutMiddleware(cfg.RequestTimeout))

	router.HandleFunc("/health", healthCheck(db)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	dating.RegisterRoutes(router, handler, hub, authMiddleware)

	// 9. Background jobs
	scheduler := dating.NewScheduler(service, cfg.ScoreCardRefreshHour, logging.With("scheduler"))
	scheduler.Start(ctx)

	// 10. Create and start HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info().
			Str("addr", srv.Addr).
			Str("environment", cfg.Environment).
			Msg("Server starting")

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("Shutdown signal received")

	// Stops the hub and the scheduler
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Info().Msg("Server exited gracefully")
}
