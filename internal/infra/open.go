// Package infra selects the purchase history backend named by the configuration.
package infra

import (
	"context"
	"fmt"

	"github.com/dvloznov/price-tracker/internal/config"
	"github.com/dvloznov/price-tracker/internal/infra/bigquery"
	"github.com/dvloznov/price-tracker/internal/infra/memory"
	"github.com/dvloznov/price-tracker/internal/infra/postgres"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/rs/zerolog"
)

// PurchaseStore is a purchase history backend that holds a connection.
type PurchaseStore interface {
	pricehistory.PurchaseRepository
	Close() error
}

// OpenPurchaseStore connects to the backend selected by cfg.StorageBackend.
// The memory backend is seeded with the demo history.
func OpenPurchaseStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (PurchaseStore, error) {
	switch cfg.StorageBackend {
	case config.BackendPostgres:
		repo, err := postgres.Open(ctx, cfg.DatabaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("OpenPurchaseStore: %w", err)
		}
		return repo, nil

	case config.BackendBigQuery:
		repo, err := bigquery.NewBigQueryPurchaseRepository(ctx, cfg.BigQuery.ProjectID, cfg.BigQuery.Dataset, log)
		if err != nil {
			return nil, fmt.Errorf("OpenPurchaseStore: %w", err)
		}
		return repo, nil

	case config.BackendMemory:
		repo := memory.NewRepository()
		if err := repo.Seed(pricing.Today()); err != nil {
			return nil, fmt.Errorf("OpenPurchaseStore: seeding demo data: %w", err)
		}
		log.Warn().Str("user_id", memory.DemoUserID).Msg("Using in-memory purchase history with demo data")
		return repo, nil
	}

	return nil, fmt.Errorf("OpenPurchaseStore: unknown storage backend %q", cfg.StorageBackend)
}
