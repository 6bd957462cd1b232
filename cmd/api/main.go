package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dvloznov/price-tracker/internal/api/handlers"
	"github.com/dvloznov/price-tracker/internal/config"
	"github.com/dvloznov/price-tracker/internal/infra"
	"github.com/dvloznov/price-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/price-tracker/internal/logger"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/reports"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Flags override the environment.
	port := flag.String("port", cfg.Port, "HTTP server port (or set PORT)")
	flag.StringVar(&cfg.GCSBucket, "bucket", cfg.GCSBucket, "GCS bucket for exported reports (or set GCS_BUCKET)")
	flag.Parse()

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})
	ctx := context.Background()

	repo, err := infra.OpenPurchaseStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to open purchase history")
	}
	defer repo.Close()

	svc := pricehistory.NewService(repo, pricehistory.Config{
		AlertThresholdPct: cfg.Alerts.ThresholdPct,
		AlertLookbackDays: cfg.Alerts.LookbackDays,
	}, log)

	// Initialize job infrastructure
	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.QueueConfig{
		BufferSize: cfg.Jobs.BufferSize,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, jobStore, log)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	exportEnabled := cfg.GCSBucket != ""
	if exportEnabled {
		store, err := reports.NewGCSStore(ctx, cfg.GCSBucket)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create report store")
		}
		defer store.Close()

		exporter := reports.NewExporter(svc, store, log)
		log.Info().Int("workers", cfg.Jobs.Workers).Str("bucket", cfg.GCSBucket).Msg("Starting report export workers")
		if err := jobQueue.Start(workerCtx, exporter.Handle); err != nil {
			log.Fatal().Err(err).Msg("Failed to start job workers")
		}
	} else {
		log.Warn().Msg("No GCS bucket configured - report export will be disabled")
	}

	if cfg.JWTSecret == "" {
		log.Warn().Msg("SUPABASE_JWT_SECRET not set - trusting X-User-ID header")
	}

	handler := newRouter(routeDeps{
		priceHistory: handlers.NewPriceHistoryHandler(svc, log),
		reports:      handlers.NewReportsHandler(jobQueue, jobStore, exportEnabled, log),
		jobs:         handlers.NewJobsHandler(jobStore, log),
		jwtSecret:    []byte(cfg.JWTSecret),
		log:          log,
	})

	server := &http.Server{
		Addr:         ":" + *port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", *port).Str("backend", cfg.StorageBackend).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	// Stop job queue and wait for in-flight exports
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}
	cancelWorker()

	log.Info().Msg("Server exited")
}
