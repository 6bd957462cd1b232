package pricing

import (
	"math"
	"testing"

	"github.com/dvloznov/price-tracker/internal/domain"
)

func TestCompareToPrevious(t *testing.T) {
	history := []domain.PurchaseRecord{
		record("Milk", 2.00, 40, "Walmart Supercenter #1234"),
		record("Milk", 2.10, 10, "Costco"),
		record("Milk", 1.90, 20, "Acme"),
	}

	tests := []struct {
		name           string
		price          float64
		history        []domain.PurchaseRecord
		sameVendorOnly bool
		vendor         string
		wantPrevID     string
		wantChangePct  float64
	}{
		{
			name:    "empty history",
			price:   2.00,
			history: nil,
		},
		{
			name:          "latest purchase across vendors",
			price:         2.31,
			history:       history,
			wantPrevID:    history[1].ID,
			wantChangePct: 10,
		},
		{
			name:           "vendor substring match",
			price:          2.20,
			history:        history,
			sameVendorOnly: true,
			vendor:         "walmart",
			wantPrevID:     history[0].ID,
			wantChangePct:  10,
		},
		{
			name:           "vendor exact normalized match",
			price:          1.90,
			history:        history,
			sameVendorOnly: true,
			vendor:         "  ACME ",
			wantPrevID:     history[2].ID,
			wantChangePct:  0,
		},
		{
			name:           "no vendor match",
			price:          2.00,
			history:        history,
			sameVendorOnly: true,
			vendor:         "Target",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CompareToPrevious(tt.price, tt.history, tt.sameVendorOnly, tt.vendor)
			if tt.wantPrevID == "" {
				if got.Previous != nil || got.Change != 0 || got.ChangePct != 0 {
					t.Errorf("CompareToPrevious() = %+v, want empty comparison", got)
				}
				return
			}
			if got.Previous == nil {
				t.Fatalf("CompareToPrevious() Previous = nil, want %s", tt.wantPrevID)
			}
			if got.Previous.ID != tt.wantPrevID {
				t.Errorf("Previous.ID = %q, want %q", got.Previous.ID, tt.wantPrevID)
			}
			if !approxEqual(got.ChangePct, tt.wantChangePct) {
				t.Errorf("ChangePct = %v, want %v", got.ChangePct, tt.wantChangePct)
			}
			if !approxEqual(got.Change, tt.price-got.Previous.UnitPrice) {
				t.Errorf("Change = %v, want %v", got.Change, tt.price-got.Previous.UnitPrice)
			}
		})
	}
}

func TestCompareToPrevious_ZeroPreviousPrice(t *testing.T) {
	got := CompareToPrevious(1.25, []domain.PurchaseRecord{record("Freebie", 0, 3, "")}, false, "")
	if got.Previous == nil {
		t.Fatal("Previous = nil, want record")
	}
	if got.ChangePct != 0 {
		t.Errorf("ChangePct = %v, want 0", got.ChangePct)
	}
	if got.Change != 1.25 {
		t.Errorf("Change = %v, want 1.25", got.Change)
	}
}

func TestCompareToPrevious_DoesNotAliasHistory(t *testing.T) {
	history := []domain.PurchaseRecord{record("Milk", 2.00, 3, "")}
	got := CompareToPrevious(2.50, history, false, "")
	got.Previous.UnitPrice = 99

	if history[0].UnitPrice != 2.00 {
		t.Errorf("history mutated through Previous: %v", history[0].UnitPrice)
	}
}

func TestCompareToPrevious_NonFiniteCurrentPrice(t *testing.T) {
	history := []domain.PurchaseRecord{record("Milk", 2.00, 10, "Costco")}

	for _, price := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		got := CompareToPrevious(price, history, false, "")
		if got.Previous != nil || got.Change != 0 || got.ChangePct != 0 {
			t.Errorf("CompareToPrevious(%v) = %+v, want empty comparison", price, got)
		}
	}
}
