package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SAP-F-2025/learning-service/internal/ai"
	"github.com/SAP-F-2025/learning-service/internal/cache"
	"github.com/SAP-F-2025/learning-service/internal/config"
	"github.com/SAP-F-2025/learning-service/internal/handlers"
	"github.com/SAP-F-2025/learning-service/internal/middleware"
	"github.com/SAP-F-2025/learning-service/internal/repositories/postgres"
	"github.com/SAP-F-2025/learning-service/internal/services"
	"github.com/SAP-F-2025/learning-service/internal/utils"
	"github.com/SAP-F-2025/learning-service/internal/validator"
	"github.com/SAP-F-2025/learning-service/pkg"
	"github.com/SAP-F-2025/learning-service/pkg/monitoring"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := utils.NewLogger(cfg.Environment)
	slogger := logger.Slog()
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database
	db, err := pkg.InitDatabase(ctx, cfg)
	if err != nil {
		logger.LogError(err, "Database initialization failed")
		os.Exit(1)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		logger.LogError(err, "Database migration failed")
		os.Exit(1)
	}

	// Cache and attempt locks
	cacheService := cache.NewNoopCache()
	locker := cache.NewLocalLocker()
	if cfg.RedisEnabled {
		redisClient, err := pkg.NewRedisClient(ctx, cfg)
		if err != nil {
			logger.Warn("Redis unavailable, using in-process cache and locks", "error", err)
		} else {
			defer redisClient.Close()
			cacheService = cache.NewRedisCache(redisClient, slogger)
			locker = cache.NewRedisLocker(redisClient)
		}
	}

	// Generative text service
	var textGen ai.TextGenerator
	gemini, err := ai.NewGeminiClient(ctx, cfg.Grading)
	switch {
	case err == nil:
		defer gemini.Close()
		textGen = gemini
	case errors.Is(err, ai.ErrNotConfigured):
		logger.Warn("GEMINI_API_KEY not set, answers will be graded as degraded")
		textGen = ai.NewUnconfiguredGenerator()
	default:
		logger.LogError(err, "Gemini client initialization failed, answers will be graded as degraded")
		textGen = ai.NewUnconfiguredGenerator()
	}
	aiOpts := ai.Options{
		Timeout:       cfg.Grading.Timeout,
		MaxRetries:    cfg.Grading.MaxRetries,
		RetryBackoff:  cfg.Grading.RetryBackoff,
		RatePerSecond: cfg.Grading.RatePerSecond,
		Burst:         cfg.Grading.Burst,
		ModelName:     cfg.Grading.Model,
	}

	// Events
	publisher, err := cfg.Events.CreateEventPublisher(slogger)
	if err != nil {
		logger.LogError(err, "Event publisher initialization failed")
		os.Exit(1)
	}
	defer publisher.Close()

	serviceManager := services.NewServiceManager(services.Dependencies{
		Repo:      postgres.NewRepository(db),
		Logger:    slogger,
		Validator: validator.New(),
		Cache:     cacheService,
		Locker:    locker,
		Publisher: publisher,
		Grader:    ai.NewGrader(textGen, aiOpts, slogger),
		Drafter:   ai.NewQuestionGenerator(textGen, aiOpts, slogger),
		LockTTL:   lockTTL(aiOpts),
		LockWait:  5 * time.Second,
	})

	verifier, err := middleware.NewTokenVerifier(cfg.Auth)
	if err != nil {
		logger.LogError(err, "Auth initialization failed")
		os.Exit(1)
	}

	monitoring.Init()
	router := handlers.NewRouter(logger, cfg.CORSAllowedOrigins)
	handlers.NewHandlerManager(serviceManager, logger).
		SetupRoutes(router, middleware.Auth(verifier, serviceManager.User, logger))

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		// Submissions wait for grading
		WriteTimeout: lockTTL(aiOpts) + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("Starting server", "port", cfg.Port, "environment", cfg.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.LogError(err, "Server failed")
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.LogError(err, "Server forced to shutdown")
	}
	logger.Info("Server exited")
}

// lockTTL covers the longest grading call including rate-limit waits and retries.
func lockTTL(opts ai.Options) time.Duration {
	return opts.MaxCallDuration() + 10*time.Second
}
