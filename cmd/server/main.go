// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wastewatch-ai/wastewatch-go/internal/api"
	"github.com/wastewatch-ai/wastewatch-go/internal/cache"
	"github.com/wastewatch-ai/wastewatch-go/internal/config"
	"github.com/wastewatch-ai/wastewatch-go/internal/dataset"
	"github.com/wastewatch-ai/wastewatch-go/internal/forecast"
	"github.com/wastewatch-ai/wastewatch-go/internal/intelligence"
	"github.com/wastewatch-ai/wastewatch-go/internal/repository"
	"github.com/wastewatch-ai/wastewatch-go/internal/repository/postgres"
	"github.com/wastewatch-ai/wastewatch-go/internal/risk"
	"github.com/wastewatch-ai/wastewatch-go/internal/service"
	"github.com/wastewatch-ai/wastewatch-go/internal/storage"
	"github.com/wastewatch-ai/wastewatch-go/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.Server.Mode)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Optional persistence
	var repo repository.AssessmentRepository
	if cfg.Database.Enabled {
		db, err := postgres.NewDB(&cfg.Database)
		if err != nil {
			logger.Log.Fatal().Err(err).Msg("Failed to connect to database")
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := postgres.EnsureSchema(ctx, db); err != nil {
			cancel()
			logger.Log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		cancel()

		repo = postgres.NewAssessmentRepository(db)
	}

	assessmentCache, err := cache.NewAssessmentCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, continuing without it")
		assessmentCache = cache.NewNoopAssessmentCache()
	}

	loader := dataset.NewLoader(cfg.App.DataDirs, cfg.App.DatasetFilename)
	forecaster := forecast.NewClient(cfg.Forecast)
	assessor := risk.NewAssessor()

	assessmentService := service.NewAssessmentService(
		loader, forecaster, assessor, repo, assessmentCache, cfg.App.DefaultItems,
	)

	exporter := dataset.NewExporter(cfg.App.ReportDir)
	if cfg.Storage.Enabled {
		store, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			Region:    cfg.Storage.Region,
			UseSSL:    true,
		})
		if err != nil {
			logger.Log.Warn().Err(err).Msg("Object storage unavailable, reports stay local")
		} else {
			exporter = exporter.WithObjectStorage(store, cfg.Storage.Prefix)
		}
	}

	advisor := intelligence.NewGeminiAdvisor(cfg.AI)
	if cfg.AI.GeminiAPIKey == "" {
		logger.Log.Warn().Msg("GEMINI_API_KEY not set, surplus analysis will use local fallback")
	}

	router := api.NewRouter(&api.Services{
		Assessment:       assessmentService,
		Advisor:          advisor,
		Exporter:         exporter,
		DefaultBufferPct: cfg.Risk.SafetyBufferPercent,
		AITimeout:        time.Duration(cfg.AI.TimeoutSeconds) * time.Second,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
