// Package bigquery reads purchase history from the receipts dataset in BigQuery.
package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/rs/zerolog"
)

// DefaultDataset holds the receipts and receipt_line_items tables.
const DefaultDataset = "finance"

// BigQueryPurchaseRepository implements pricehistory.PurchaseRepository on top of
// the receipt tables. It holds a shared BigQuery client to avoid creating a new
// connection for each operation.
type BigQueryPurchaseRepository struct {
	client  *bigquery.Client
	dataset string
	log     zerolog.Logger
}

// NewBigQueryPurchaseRepository creates a repository with its own client.
func NewBigQueryPurchaseRepository(ctx context.Context, projectID, dataset string, log zerolog.Logger) (*BigQueryPurchaseRepository, error) {
	if projectID == "" {
		return nil, fmt.Errorf("NewBigQueryPurchaseRepository: project ID is required")
	}
	if dataset == "" {
		dataset = DefaultDataset
	}

	client, err := bigquery.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryPurchaseRepository: creating client: %w", err)
	}
	return &BigQueryPurchaseRepository{
		client:  client,
		dataset: dataset,
		log:     log,
	}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryPurchaseRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// ListPurchaseHistory delegates to ListPurchaseHistoryWithClient with the shared client.
func (r *BigQueryPurchaseRepository) ListPurchaseHistory(ctx context.Context, userID string, since civil.Date) ([]domain.PurchaseRecord, error) {
	return ListPurchaseHistoryWithClient(ctx, r.client, r.dataset, userID, since, r.log)
}

// ListItemHistory delegates to ListItemHistoryWithClient with the shared client.
func (r *BigQueryPurchaseRepository) ListItemHistory(ctx context.Context, userID, itemNormalized string) ([]domain.PurchaseRecord, error) {
	return ListItemHistoryWithClient(ctx, r.client, r.dataset, userID, itemNormalized, r.log)
}
