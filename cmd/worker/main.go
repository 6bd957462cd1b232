package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/price-tracker/internal/config"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/infra"
	"github.com/dvloznov/price-tracker/internal/jobs"
	"github.com/dvloznov/price-tracker/internal/jobs/inmemory"
	"github.com/dvloznov/price-tracker/internal/logger"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/reports"
	"github.com/rs/zerolog"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log := logger.New()
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	users := flag.String("users", os.Getenv("EXPORT_USERS"), "Comma-separated user IDs to export reports for (or set EXPORT_USERS)")
	interval := flag.Duration("interval", 24*time.Hour, "Time between export rounds")
	period := flag.String("period", "30d", "Change window for exported rankings: 30d or 90d")
	flag.StringVar(&cfg.GCSBucket, "bucket", cfg.GCSBucket, "GCS bucket for exported reports (or set GCS_BUCKET)")
	flag.Parse()

	log := logger.NewWithOptions(logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat})

	userIDs := parseUsers(*users)
	if len(userIDs) == 0 {
		log.Fatal().Msg("No users to export: set -users or EXPORT_USERS")
	}
	if cfg.GCSBucket == "" {
		log.Fatal().Msg("No GCS bucket configured: set -bucket or GCS_BUCKET")
	}
	if _, err := domain.ParseChangePeriod(*period); err != nil {
		log.Fatal().Err(err).Msg("Invalid -period")
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	repo, err := infra.OpenPurchaseStore(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("Failed to open purchase history")
	}
	defer repo.Close()

	store, err := reports.NewGCSStore(ctx, cfg.GCSBucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create report store")
	}
	defer store.Close()

	svc := pricehistory.NewService(repo, pricehistory.Config{
		AlertThresholdPct: cfg.Alerts.ThresholdPct,
		AlertLookbackDays: cfg.Alerts.LookbackDays,
	}, log)
	exporter := reports.NewExporter(svc, store, log)

	jobStore := inmemory.NewStore()
	jobQueue := inmemory.NewQueue(inmemory.QueueConfig{
		BufferSize: cfg.Jobs.BufferSize,
		Workers:    cfg.Jobs.Workers,
		MaxRetries: cfg.Jobs.MaxRetries,
	}, jobStore, log)

	if err := jobQueue.Start(ctx, exporter.Handle); err != nil {
		log.Fatal().Err(err).Msg("Failed to start job consumer")
	}

	log.Info().
		Strs("users", userIDs).
		Dur("interval", *interval).
		Str("bucket", cfg.GCSBucket).
		Msg("Export worker started")

	go runSchedule(ctx, *interval, func() {
		publishExports(ctx, jobQueue, userIDs, *period, log)
	})

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down export worker...")

	// Cancel context to stop the schedule and workers
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Stop the queue and wait for in-flight exports
	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error during graceful shutdown")
	}

	log.Info().Msg("Export worker exited")
}

// parseUsers splits a comma-separated list, dropping blanks and duplicates.
func parseUsers(s string) []string {
	seen := make(map[string]bool)
	var users []string
	for _, u := range strings.Split(s, ",") {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		users = append(users, u)
	}
	return users
}

// runSchedule calls round immediately and then every interval until ctx is done.
func runSchedule(ctx context.Context, interval time.Duration, round func()) {
	round()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			round()
		}
	}
}

// publishExports queues one export per user and returns how many were queued.
func publishExports(ctx context.Context, pub jobs.Publisher, users []string, period string, log zerolog.Logger) int {
	queued := 0
	for _, userID := range users {
		job := &jobs.ExportReportJob{UserID: userID, Period: period}
		if err := pub.PublishExportReport(ctx, job); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to queue report export")
			continue
		}
		log.Debug().Str("job_id", job.JobID).Str("user_id", userID).Msg("Queued report export")
		queued++
	}
	log.Info().Int("queued", queued).Int("users", len(users)).Msg("Export round scheduled")
	return queued
}
