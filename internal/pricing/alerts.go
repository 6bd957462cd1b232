package pricing

import (
	"math"
	"sort"

	"github.com/dvloznov/price-tracker/internal/domain"
)

// DefaultAlertThreshold is the minimum absolute percentage change that raises an alert.
const DefaultAlertThreshold = 5.0

// Severity tier boundaries, applied to the absolute percentage change.
// A change sitting exactly on a boundary stays in the lower tier.
const (
	WarningChangePct = 10.0
	AlertChangePct   = 20.0
)

// SeverityFor classifies an absolute percentage change.
func SeverityFor(changePct float64) domain.Severity {
	abs := math.Abs(changePct)
	switch {
	case abs > AlertChangePct:
		return domain.SeverityAlert
	case abs > WarningChangePct:
		return domain.SeverityWarning
	default:
		return domain.SeverityInfo
	}
}

// GeneratePriceAlerts flags observed items whose price moved at least threshold
// percent against the latest purchase in their history. history is keyed by
// normalized item name. Items without history never alert.
//
// Alerts are ordered by absolute change, largest first.
func GeneratePriceAlerts(items []domain.ObservedItem, history map[string][]domain.PurchaseRecord, threshold float64) []domain.PriceAlert {
	alerts := make([]domain.PriceAlert, 0)

	for _, item := range items {
		if !isFinite(item.UnitPrice) {
			continue
		}
		past := history[NormalizeItemName(item.ItemName)]
		if len(past) == 0 {
			continue
		}

		cmp := CompareToPrevious(item.UnitPrice, past, false, "")
		if cmp.Previous == nil || math.Abs(cmp.ChangePct) < threshold {
			continue
		}

		alerts = append(alerts, domain.PriceAlert{
			ID:           alertID(item),
			ItemName:     item.ItemName,
			Vendor:       item.Vendor,
			OldPrice:     cmp.Previous.UnitPrice,
			NewPrice:     item.UnitPrice,
			ChangeAmount: cmp.Change,
			ChangePct:    cmp.ChangePct,
			PurchaseDate: item.PurchaseDate,
			Severity:     SeverityFor(cmp.ChangePct),
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return math.Abs(alerts[i].ChangePct) > math.Abs(alerts[j].ChangePct)
	})
	return alerts
}

// alertID is the item name followed by the purchase date. The line item ID is
// appended when known so that two purchases on one day stay distinct.
func alertID(item domain.ObservedItem) string {
	id := item.ItemName + item.PurchaseDate.String()
	if item.LineItemID != "" {
		id += "-" + item.LineItemID
	}
	return id
}
