package pricing

import (
	"strings"

	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// CompareToPrevious compares currentPrice with the latest purchase in history.
//
// With sameVendorOnly set, a record matches when its normalized vendor equals the
// normalized vendor argument or its lowercased vendor name contains it, so
// "walmart" matches "Walmart Supercenter #1234". Without a match the result has a
// nil Previous and zero change. A non-finite currentPrice also yields the empty result.
func CompareToPrevious(currentPrice float64, history []domain.PurchaseRecord, sameVendorOnly bool, vendor string) domain.Comparison {
	if !isFinite(currentPrice) {
		return domain.Comparison{}
	}

	want := NormalizeVendor(vendor)

	var previous *domain.PurchaseRecord
	for i := range history {
		r := history[i]
		if !isFinite(r.UnitPrice) {
			continue
		}
		if sameVendorOnly && !vendorMatches(r, want) {
			continue
		}
		if previous == nil || r.PurchaseDate.After(previous.PurchaseDate) {
			previous = &r
		}
	}

	if previous == nil {
		return domain.Comparison{}
	}

	return domain.Comparison{
		Previous:  previous,
		Change:    priceDifference(currentPrice, previous.UnitPrice),
		ChangePct: percentChange(currentPrice, previous.UnitPrice),
	}
}

func vendorMatches(r domain.PurchaseRecord, normalized string) bool {
	return r.VendorNormalized == normalized || strings.Contains(strings.ToLower(r.Vendor), normalized)
}

func priceDifference(current, previous float64) float64 {
	return decimal.NewFromFloat(current).Sub(decimal.NewFromFloat(previous)).InexactFloat64()
}
