// Package pricing holds the price history analytics: trend computation,
// previous-purchase comparison, alerting, rankings and display formatting.
//
// Every function is pure. Callers load and group purchase records, pass them
// in, and own the returned values.
package pricing

import (
	"math"
	"sort"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// Trend windows in days.
const (
	ShortWindowDays = 30
	LongWindowDays  = 90
)

// Today returns the current local calendar date.
func Today() civil.Date {
	return civil.DateOf(time.Now())
}

// CalculatePriceTrend reduces the records of one normalized item into a trend as of
// the given date. It returns false when there is nothing to summarize.
//
// The reference price of a window is the newest record dated on or before
// asOf minus the window. When no record is that old the reference is the
// current price, so the change for that window is 0.
func CalculatePriceTrend(records []domain.PurchaseRecord, asOf civil.Date) (domain.PriceTrend, bool) {
	sorted, skipped := finiteRecords(records)
	if len(sorted) == 0 {
		return domain.PriceTrend{}, false
	}
	sortNewestFirst(sorted)

	current := sorted[0]
	sum := 0.0
	minPrice, maxPrice := current.UnitPrice, current.UnitPrice
	vendors := make([]string, 0, 1)
	seen := make(map[string]bool)

	for _, r := range sorted {
		sum += r.UnitPrice
		minPrice = math.Min(minPrice, r.UnitPrice)
		maxPrice = math.Max(maxPrice, r.UnitPrice)
		if r.Vendor != "" && !seen[r.Vendor] {
			seen[r.Vendor] = true
			vendors = append(vendors, r.Vendor)
		}
	}

	name := current.ItemName
	if name == "" {
		name = current.ItemNameNormalized
	}

	return domain.PriceTrend{
		ItemName:           name,
		ItemNameNormalized: current.ItemNameNormalized,
		CurrentPrice:       current.UnitPrice,
		AvgPrice:           sum / float64(len(sorted)),
		MinPrice:           minPrice,
		MaxPrice:           maxPrice,
		PriceChange30d:     percentChange(current.UnitPrice, referencePrice(sorted, asOf.AddDays(-ShortWindowDays))),
		PriceChange90d:     percentChange(current.UnitPrice, referencePrice(sorted, asOf.AddDays(-LongWindowDays))),
		PurchaseCount:      len(sorted),
		LastPurchase:       current.PurchaseDate,
		Vendors:            vendors,
		SkippedRecords:     skipped,
	}, true
}

// CalculateTrends computes one trend per group, newest purchase first and then by item key.
func CalculateTrends(groups map[string][]domain.PurchaseRecord, asOf civil.Date) []domain.PriceTrend {
	trends := make([]domain.PriceTrend, 0, len(groups))
	for _, records := range groups {
		if trend, ok := CalculatePriceTrend(records, asOf); ok {
			trends = append(trends, trend)
		}
	}
	sort.Slice(trends, func(i, j int) bool {
		if trends[i].LastPurchase != trends[j].LastPurchase {
			return trends[i].LastPurchase.After(trends[j].LastPurchase)
		}
		return trends[i].ItemNameNormalized < trends[j].ItemNameNormalized
	})
	return trends
}

// referencePrice expects records sorted newest first.
func referencePrice(sorted []domain.PurchaseRecord, cutoff civil.Date) float64 {
	for _, r := range sorted {
		if !r.PurchaseDate.After(cutoff) {
			return r.UnitPrice
		}
	}
	return sorted[0].UnitPrice
}

// percentChange is computed in decimal so that 2.00 -> 2.20 is exactly 10%.
func percentChange(current, reference float64) float64 {
	if reference == 0 {
		return 0
	}
	ref := decimal.NewFromFloat(reference)
	return decimal.NewFromFloat(current).Sub(ref).Div(ref).Mul(hundred).InexactFloat64()
}

var hundred = decimal.NewFromInt(100)

// sortNewestFirst keeps input order among records from the same day.
func sortNewestFirst(records []domain.PurchaseRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].PurchaseDate.After(records[j].PurchaseDate)
	})
}

// finiteRecords copies the records with a finite unit price and reports how many were dropped.
func finiteRecords(records []domain.PurchaseRecord) ([]domain.PurchaseRecord, int) {
	out := make([]domain.PurchaseRecord, 0, len(records))
	for _, r := range records {
		if !isFinite(r.UnitPrice) {
			continue
		}
		out = append(out, r)
	}
	return out, len(records) - len(out)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
