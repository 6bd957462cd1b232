// Package memory is an in-process purchase history store for tests, demos and local development.
package memory

import (
	"context"
	"fmt"
	"sync"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/pricing"
)

// Repository keeps purchase records per user in memory. It is safe for concurrent use.
type Repository struct {
	mu      sync.RWMutex
	records map[string][]domain.PurchaseRecord
}

// NewRepository creates an empty repository.
func NewRepository() *Repository {
	return &Repository{
		records: make(map[string][]domain.PurchaseRecord),
	}
}

// Add validates and stores records for a user. Normalized names are filled in
// when missing. Nothing is stored if any record is invalid.
func (r *Repository) Add(userID string, records ...domain.PurchaseRecord) error {
	prepared := make([]domain.PurchaseRecord, 0, len(records))
	for _, rec := range records {
		if rec.ItemNameNormalized == "" {
			rec.ItemNameNormalized = pricing.NormalizeItemName(rec.ItemName)
		}
		if rec.VendorNormalized == "" {
			rec.VendorNormalized = pricing.NormalizeVendor(rec.Vendor)
		}
		if err := rec.Validate(); err != nil {
			return fmt.Errorf("memory.Add: %w", err)
		}
		prepared = append(prepared, rec)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[userID] = append(r.records[userID], prepared...)
	return nil
}

// ListPurchaseHistory returns copies of the user's records dated on or after since.
func (r *Repository) ListPurchaseHistory(ctx context.Context, userID string, since civil.Date) ([]domain.PurchaseRecord, error) {
	return r.filter(userID, func(rec domain.PurchaseRecord) bool {
		return !since.IsValid() || !rec.PurchaseDate.Before(since)
	}), nil
}

// ListItemHistory returns copies of the user's records for one normalized item.
func (r *Repository) ListItemHistory(ctx context.Context, userID, itemNormalized string) ([]domain.PurchaseRecord, error) {
	key := pricing.NormalizeItemName(itemNormalized)
	return r.filter(userID, func(rec domain.PurchaseRecord) bool {
		return rec.ItemNameNormalized == key
	}), nil
}

// Close is a no-op so Repository can stand in for the database-backed stores.
func (r *Repository) Close() error {
	return nil
}

func (r *Repository) filter(userID string, keep func(domain.PurchaseRecord) bool) []domain.PurchaseRecord {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.PurchaseRecord, 0)
	for _, rec := range r.records[userID] {
		if keep(rec) {
			result = append(result, rec)
		}
	}
	return result
}
