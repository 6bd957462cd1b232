package pricing

import (
	"strings"

	"github.com/dvloznov/price-tracker/internal/domain"
)

// NormalizeItemName returns the grouping key for an item name.
func NormalizeItemName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// NormalizeVendor returns the canonical form of a vendor name.
func NormalizeVendor(vendor string) string {
	return strings.ToLower(strings.TrimSpace(vendor))
}

// GroupByItem builds the per-item history mapping the analytics functions expect.
// Records keep their input order within a group. Records without any item name are dropped.
func GroupByItem(records []domain.PurchaseRecord) map[string][]domain.PurchaseRecord {
	groups := make(map[string][]domain.PurchaseRecord)
	for _, r := range records {
		key := itemKey(r)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], r)
	}
	return groups
}

func itemKey(r domain.PurchaseRecord) string {
	if key := NormalizeItemName(r.ItemNameNormalized); key != "" {
		return key
	}
	return NormalizeItemName(r.ItemName)
}
