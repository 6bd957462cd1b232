package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/lib/pq"
)

func validRow() purchaseRow {
	return purchaseRow{
		ID:                 "ph-1",
		ItemName:           "Whole Milk",
		ItemNameNormalized: sql.NullString{String: "whole milk", Valid: true},
		Vendor:             sql.NullString{String: "Walmart Supercenter #1234", Valid: true},
		UnitPrice:          sql.NullFloat64{Float64: 3.48, Valid: true},
		Quantity:           sql.NullFloat64{Float64: 2, Valid: true},
		UnitOfMeasure:      sql.NullString{String: "gal", Valid: true},
		PurchaseDate:       sql.NullTime{Time: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC), Valid: true},
		ExpenseID:          sql.NullString{String: "exp-9", Valid: true},
		LineItemID:         sql.NullString{String: "li-3", Valid: true},
	}
}

func TestPurchaseRowToRecord(t *testing.T) {
	got, err := validRow().toRecord()
	if err != nil {
		t.Fatalf("toRecord() error = %v", err)
	}

	want := domain.PurchaseRecord{
		ID:                 "ph-1",
		ItemName:           "Whole Milk",
		ItemNameNormalized: "whole milk",
		Vendor:             "Walmart Supercenter #1234",
		VendorNormalized:   "walmart supercenter #1234",
		UnitPrice:          3.48,
		Quantity:           2,
		UnitOfMeasure:      "gal",
		PurchaseDate:       civil.Date{Year: 2026, Month: 10, Day: 1},
		ExpenseID:          "exp-9",
		LineItemID:         "li-3",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("toRecord() mismatch (-want +got):\n%s", diff)
	}
}

func TestPurchaseRowToRecord_Boundary(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(r *purchaseRow)
		wantErr bool
		check   func(t *testing.T, rec domain.PurchaseRecord)
	}{
		{
			name:   "missing quantity counts as one",
			modify: func(r *purchaseRow) { r.Quantity = sql.NullFloat64{} },
			check: func(t *testing.T, rec domain.PurchaseRecord) {
				if rec.Quantity != 1 {
					t.Errorf("Quantity = %v, want 1", rec.Quantity)
				}
			},
		},
		{
			name:   "missing normalized name derives from item name",
			modify: func(r *purchaseRow) { r.ItemNameNormalized = sql.NullString{} },
			check: func(t *testing.T, rec domain.PurchaseRecord) {
				if rec.ItemNameNormalized != "whole milk" {
					t.Errorf("ItemNameNormalized = %q, want whole milk", rec.ItemNameNormalized)
				}
			},
		},
		{
			name:    "missing price",
			modify:  func(r *purchaseRow) { r.UnitPrice = sql.NullFloat64{} },
			wantErr: true,
		},
		{
			name:    "missing date",
			modify:  func(r *purchaseRow) { r.PurchaseDate = sql.NullTime{} },
			wantErr: true,
		},
		{
			name:    "negative price",
			modify:  func(r *purchaseRow) { r.UnitPrice = sql.NullFloat64{Float64: -1, Valid: true} },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			tt.modify(&row)
			rec, err := row.toRecord()
			if (err != nil) != tt.wantErr {
				t.Fatalf("toRecord() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, domain.ErrInvalidRecord) {
				t.Errorf("toRecord() error = %v, want ErrInvalidRecord", err)
			}
			if tt.check != nil {
				tt.check(t, rec)
			}
		})
	}
}

func TestTranslateError(t *testing.T) {
	missing := &pq.Error{Code: undefinedTable, Message: `relation "price_history" does not exist`}
	if err := translateError(fmt.Errorf("query: %w", missing)); !errors.Is(err, ErrSchemaMissing) {
		t.Errorf("translateError(undefined table) = %v, want ErrSchemaMissing", err)
	}

	other := errors.New("connection reset")
	if err := translateError(other); err != other {
		t.Errorf("translateError(other) = %v, want unchanged", err)
	}
}
