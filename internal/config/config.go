// Package config loads service configuration from the environment.
// A .env file in the working directory is read first when present.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Storage backends.
const (
	BackendPostgres = "postgres"
	BackendBigQuery = "bigquery"
	BackendMemory   = "memory"
)

// Config holds all service configuration.
type Config struct {
	// Port is the HTTP listen port.
	Port string

	// StorageBackend selects where purchase history is read from:
	// "postgres" (default), "bigquery" or "memory".
	StorageBackend string

	// DatabaseURL is the Postgres connection string (Supabase or local).
	DatabaseURL string

	// BigQuery holds settings for the receipts warehouse backend.
	BigQuery BigQueryConfig

	// GCSBucket receives exported price reports. Empty disables export.
	GCSBucket string

	// JWTSecret verifies Supabase access tokens. Empty accepts the
	// X-User-ID header instead, for local development.
	JWTSecret string

	// LogLevel and LogFormat configure the zerolog logger.
	LogLevel  string
	LogFormat string

	// Alerts holds defaults for price alert generation.
	Alerts AlertsConfig

	// Jobs sizes the in-memory job queue.
	Jobs JobsConfig
}

// BigQueryConfig holds BigQuery connection settings.
type BigQueryConfig struct {
	ProjectID string
	Dataset   string
}

// AlertsConfig holds price alert defaults.
type AlertsConfig struct {
	// ThresholdPct is the minimum absolute percentage change that raises an alert.
	ThresholdPct float64

	// LookbackDays is how far back a purchase still counts as recent.
	LookbackDays int
}

// JobsConfig sizes the background job queue.
type JobsConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
}

// Load reads .env (if any) and the environment, then validates the result.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := &Config{
		Port:           getEnv("PORT", "8080"),
		StorageBackend: strings.ToLower(getEnv("STORAGE_BACKEND", BackendPostgres)),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
		BigQuery: BigQueryConfig{
			ProjectID: getEnv("BQ_PROJECT_ID", ""),
			Dataset:   getEnv("BQ_DATASET", "finance"),
		},
		GCSBucket: getEnv("GCS_BUCKET", ""),
		JWTSecret: getEnv("SUPABASE_JWT_SECRET", ""),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "console"),
		Alerts: AlertsConfig{
			ThresholdPct: getEnvFloat("ALERT_THRESHOLD_PCT", 5),
			LookbackDays: getEnvInt("ALERT_LOOKBACK_DAYS", 30),
		},
		Jobs: JobsConfig{
			Workers:    getEnvInt("JOB_WORKERS", 5),
			BufferSize: getEnvInt("JOB_BUFFER_SIZE", 100),
			MaxRetries: getEnvInt("JOB_MAX_RETRIES", 3),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the selected backend has what it needs.
func (c *Config) Validate() error {
	switch c.StorageBackend {
	case BackendPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("config: DATABASE_URL is required for the postgres backend")
		}
	case BackendBigQuery:
		if c.BigQuery.ProjectID == "" {
			return fmt.Errorf("config: BQ_PROJECT_ID is required for the bigquery backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("config: unknown STORAGE_BACKEND %q", c.StorageBackend)
	}

	if c.Alerts.ThresholdPct <= 0 {
		return fmt.Errorf("config: ALERT_THRESHOLD_PCT must be positive, got %v", c.Alerts.ThresholdPct)
	}
	if c.Alerts.LookbackDays <= 0 {
		return fmt.Errorf("config: ALERT_LOOKBACK_DAYS must be positive, got %d", c.Alerts.LookbackDays)
	}
	if c.Jobs.Workers <= 0 {
		return fmt.Errorf("config: JOB_WORKERS must be positive, got %d", c.Jobs.Workers)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		n, err := strconv.Atoi(val)
		if err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if val := os.Getenv(key); val != "" {
		f, err := strconv.ParseFloat(val, 64)
		if err == nil {
			return f
		}
	}
	return fallback
}
