package pricing

import (
	"sort"

	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// FindBiggestIncreases returns trends whose change for period is positive,
// largest first. A limit <= 0 returns all of them.
func FindBiggestIncreases(trends []domain.PriceTrend, period domain.ChangePeriod, limit int) []domain.PriceTrend {
	out := filterTrends(trends, func(t domain.PriceTrend) bool { return t.Change(period) > 0 })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Change(period) > out[j].Change(period) })
	return truncate(out, limit)
}

// FindBiggestDecreases returns trends whose change for period is negative,
// most negative first.
func FindBiggestDecreases(trends []domain.PriceTrend, period domain.ChangePeriod, limit int) []domain.PriceTrend {
	out := filterTrends(trends, func(t domain.PriceTrend) bool { return t.Change(period) < 0 })
	sort.SliceStable(out, func(i, j int) bool { return out[i].Change(period) < out[j].Change(period) })
	return truncate(out, limit)
}

// FindFrequentItems returns trends bought at least minPurchases times, most bought first.
func FindFrequentItems(trends []domain.PriceTrend, minPurchases, limit int) []domain.PriceTrend {
	out := filterTrends(trends, func(t domain.PriceTrend) bool { return t.PurchaseCount >= minPurchases })
	sort.SliceStable(out, func(i, j int) bool { return out[i].PurchaseCount > out[j].PurchaseCount })
	return truncate(out, limit)
}

// CalculateTotalSpent sums unit price times quantity over one item's history.
// The sum is accumulated in decimal so that cents do not drift.
func CalculateTotalSpent(history []domain.PurchaseRecord) float64 {
	total := decimal.Zero
	for _, r := range history {
		if !isFinite(r.UnitPrice) || !isFinite(r.Quantity) {
			continue
		}
		total = total.Add(decimal.NewFromFloat(r.UnitPrice).Mul(decimal.NewFromFloat(r.Quantity)))
	}
	return total.InexactFloat64()
}

// FindBestPrice returns the cheapest purchase in history. The first one wins a tie.
func FindBestPrice(history []domain.PurchaseRecord) (domain.BestPrice, bool) {
	var best *domain.PurchaseRecord
	for i := range history {
		if !isFinite(history[i].UnitPrice) {
			continue
		}
		if best == nil || history[i].UnitPrice < best.UnitPrice {
			best = &history[i]
		}
	}
	if best == nil {
		return domain.BestPrice{}, false
	}
	return domain.BestPrice{Price: best.UnitPrice, Vendor: best.Vendor, Date: best.PurchaseDate}, true
}

func filterTrends(trends []domain.PriceTrend, keep func(domain.PriceTrend) bool) []domain.PriceTrend {
	out := make([]domain.PriceTrend, 0)
	for _, t := range trends {
		if keep(t) {
			out = append(out, t)
		}
	}
	return out
}

func truncate(trends []domain.PriceTrend, limit int) []domain.PriceTrend {
	if limit > 0 && len(trends) > limit {
		return trends[:limit]
	}
	return trends
}
