package memory

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
)

var today = civil.Date{Year: 2026, Month: 10, Day: 16}

func TestRepository_AddNormalizesAndFilters(t *testing.T) {
	repo := NewRepository()
	ctx := context.Background()

	err := repo.Add("u1",
		domain.PurchaseRecord{ID: "1", ItemName: " Milk ", Vendor: "Acme", UnitPrice: 2, Quantity: 1, PurchaseDate: today.AddDays(-40)},
		domain.PurchaseRecord{ID: "2", ItemName: "milk", Vendor: "ACME", UnitPrice: 2.2, Quantity: 1, PurchaseDate: today},
		domain.PurchaseRecord{ID: "3", ItemName: "Bread", UnitPrice: 3, Quantity: 1, PurchaseDate: today.AddDays(-5)},
	)
	if err != nil {
		t.Fatalf("Add() error = %v", err)
	}
	if err := repo.Add("u2", domain.PurchaseRecord{ID: "4", ItemName: "Milk", UnitPrice: 9, Quantity: 1, PurchaseDate: today}); err != nil {
		t.Fatalf("Add() error = %v", err)
	}

	all, _ := repo.ListPurchaseHistory(ctx, "u1", civil.Date{})
	if len(all) != 3 {
		t.Errorf("ListPurchaseHistory(all) returned %d records, want 3", len(all))
	}

	recent, _ := repo.ListPurchaseHistory(ctx, "u1", today.AddDays(-5))
	if len(recent) != 2 {
		t.Errorf("ListPurchaseHistory(since -5d) returned %d records, want 2", len(recent))
	}

	milk, _ := repo.ListItemHistory(ctx, "u1", "MILK")
	if len(milk) != 2 {
		t.Fatalf("ListItemHistory(milk) returned %d records, want 2", len(milk))
	}
	if milk[0].ItemNameNormalized != "milk" || milk[1].VendorNormalized != "acme" {
		t.Errorf("normalized fields not filled: %+v", milk)
	}

	none, _ := repo.ListItemHistory(ctx, "nobody", "milk")
	if none == nil || len(none) != 0 {
		t.Errorf("ListItemHistory(unknown user) = %v, want empty slice", none)
	}
}

func TestRepository_AddRejectsInvalid(t *testing.T) {
	repo := NewRepository()
	err := repo.Add("u1",
		domain.PurchaseRecord{ID: "ok", ItemName: "Milk", UnitPrice: 2, Quantity: 1, PurchaseDate: today},
		domain.PurchaseRecord{ID: "bad", ItemName: "Milk", UnitPrice: -2, Quantity: 1, PurchaseDate: today},
	)
	if !errors.Is(err, domain.ErrInvalidRecord) {
		t.Fatalf("Add() error = %v, want ErrInvalidRecord", err)
	}

	got, _ := repo.ListPurchaseHistory(context.Background(), "u1", civil.Date{})
	if len(got) != 0 {
		t.Errorf("partial add stored %d records, want 0", len(got))
	}
}

func TestRepository_Seed(t *testing.T) {
	repo := NewRepository()
	if err := repo.Seed(today); err != nil {
		t.Fatalf("Seed() error = %v", err)
	}

	got, _ := repo.ListPurchaseHistory(context.Background(), DemoUserID, civil.Date{})
	if len(got) != len(samplePurchases) {
		t.Errorf("Seed() stored %d records, want %d", len(got), len(samplePurchases))
	}
}
