package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dvloznov/price-tracker/internal/config"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/infra"
	"github.com/dvloznov/price-tracker/internal/infra/memory"
	"github.com/dvloznov/price-tracker/internal/infra/postgres"
	"github.com/dvloznov/price-tracker/internal/jobs"
	"github.com/dvloznov/price-tracker/internal/logger"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/dvloznov/price-tracker/internal/reports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// commonFlags are accepted by every read command.
type commonFlags struct {
	user *string
	demo *bool
}

func addCommonFlags(fs *flag.FlagSet) commonFlags {
	return commonFlags{
		user: fs.String("user", "", "User ID whose purchases to analyze (defaults to the demo user with -demo)"),
		demo: fs.Bool("demo", false, "Use built-in sample data instead of the configured backend"),
	}
}

// openService builds the analytics service for a CLI run. The returned func closes the backend.
func openService(ctx context.Context, log zerolog.Logger, f commonFlags) (*pricehistory.Service, string, func(), error) {
	var (
		cfg *config.Config
		err error
	)
	if *f.demo {
		cfg = &config.Config{StorageBackend: config.BackendMemory}
	} else {
		cfg, err = config.Load()
		if err != nil {
			return nil, "", nil, err
		}
	}

	userID := *f.user
	if userID == "" && cfg.StorageBackend == config.BackendMemory {
		userID = memory.DemoUserID
	}
	if userID == "" {
		return nil, "", nil, fmt.Errorf("-user is required")
	}

	repo, err := infra.OpenPurchaseStore(ctx, cfg, log)
	if err != nil {
		return nil, "", nil, err
	}

	svc := pricehistory.NewService(repo, pricehistory.Config{
		AlertThresholdPct: cfg.Alerts.ThresholdPct,
		AlertLookbackDays: cfg.Alerts.LookbackDays,
	}, log)
	return svc, userID, func() { repo.Close() }, nil
}

func runTrends(log zerolog.Logger) {
	fs := flag.NewFlagSet("trends", flag.ExitOnError)
	common := addCommonFlags(fs)
	period := fs.String("period", "30d", "Change window used for rankings: 30d or 90d")
	fs.Parse(os.Args[2:])

	p, err := domain.ParseChangePeriod(*period)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid -period")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, userID, closeFn, err := openService(ctx, log, common)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open purchase history")
	}
	defer closeFn()

	report, err := svc.Trends(ctx, userID, pricehistory.TrendsOptions{Period: p})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to compute trends")
	}

	printTrends(os.Stdout, report)
}

func runAlerts(log zerolog.Logger) {
	fs := flag.NewFlagSet("alerts", flag.ExitOnError)
	common := addCommonFlags(fs)
	days := fs.Int("days", 0, "Lookback window in days (default from ALERT_LOOKBACK_DAYS)")
	threshold := fs.Float64("threshold", 0, "Minimum absolute change in percent (default from ALERT_THRESHOLD_PCT)")
	fs.Parse(os.Args[2:])

	if *days < 0 || *days > 365 {
		log.Fatal().Int("days", *days).Msg("-days must be between 1 and 365")
	}
	if *threshold < 0 {
		log.Fatal().Float64("threshold", *threshold).Msg("-threshold must be positive")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, userID, closeFn, err := openService(ctx, log, common)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open purchase history")
	}
	defer closeFn()

	alerts, err := svc.Alerts(ctx, userID, pricehistory.AlertOptions{
		ThresholdPct: *threshold,
		LookbackDays: *days,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to generate alerts")
	}

	printAlerts(os.Stdout, alerts)
}

func runHistory(log zerolog.Logger) {
	fs := flag.NewFlagSet("history", flag.ExitOnError)
	common := addCommonFlags(fs)
	item := fs.String("item", "", "Item name to look up")
	vendor := fs.String("vendor", "", "Compare each purchase only with earlier purchases from this vendor")
	fs.Parse(os.Args[2:])

	if *item == "" {
		log.Fatal().Msg("Error: -item is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, userID, closeFn, err := openService(ctx, log, common)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open purchase history")
	}
	defer closeFn()

	report, err := svc.ItemHistory(ctx, userID, *item)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load item history")
	}

	printHistory(os.Stdout, report, *vendor)
}

func runExport(log zerolog.Logger) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	common := addCommonFlags(fs)
	bucket := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket for the report (or set GCS_BUCKET)")
	period := fs.String("period", "30d", "Change window: 30d or 90d")
	download := fs.Bool("download", false, "Also save the written report to the current directory")
	fs.Parse(os.Args[2:])

	if *bucket == "" {
		log.Fatal().Msg("Error: -bucket or GCS_BUCKET is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	svc, userID, closeFn, err := openService(ctx, log, common)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open purchase history")
	}
	defer closeFn()

	store, err := reports.NewGCSStore(ctx, *bucket)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create report store")
	}
	defer store.Close()

	job := &jobs.ExportReportJob{
		JobID:  uuid.New().String(),
		UserID: userID,
		Period: *period,
	}
	if err := reports.NewExporter(svc, store, log).Export(ctx, job); err != nil {
		log.Fatal().Err(err).Msg("Export failed")
	}
	fmt.Printf("Report written to %s\n", job.ReportURI)

	if *download {
		data, err := store.Fetch(ctx, job.ReportURI)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to download report")
		}
		name := reports.FilenameFromURI(job.ReportURI)
		if err := os.WriteFile(name, data, 0o644); err != nil {
			log.Fatal().Err(err).Str("file", name).Msg("Failed to save report")
		}
		fmt.Printf("Saved local copy to %s\n", name)
	}
}

func runSeed(log zerolog.Logger) {
	fs := flag.NewFlagSet("seed", flag.ExitOnError)
	user := fs.String("user", memory.DemoUserID, "User ID that will own the demo purchases")
	dsn := fs.String("dsn", "", "Postgres connection string (defaults to DATABASE_URL)")
	fs.Parse(os.Args[2:])

	if *dsn == "" {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to load configuration")
		}
		*dsn = cfg.DatabaseURL
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	repo, err := postgres.Open(ctx, *dsn, log)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Postgres")
	}
	defer repo.Close()

	records := memory.SampleRecords(pricing.Today())
	for i := range records {
		// Prefix IDs so several users can hold the same sample set.
		records[i].ID = *user + "-" + records[i].ID
	}

	if err := repo.InsertRecords(ctx, *user, records); err != nil {
		log.Fatal().Err(err).Msg("Failed to insert demo purchases")
	}

	fmt.Printf("Seeded %d purchases for %s.\n", len(records), *user)
}
