package domain

import (
	"errors"
	"fmt"
	"math"

	"cloud.google.com/go/civil"
)

// ErrInvalidRecord is returned by PurchaseRecord.Validate for rows that cannot
// take part in price analytics.
var ErrInvalidRecord = errors.New("invalid purchase record")

// PurchaseRecord is one observed unit price for a normalized item from a vendor on a date.
// Records are built by the storage layer from purchased line items and validated once
// at that boundary.
type PurchaseRecord struct {
	ID                 string     `json:"id"`
	ItemName           string     `json:"item_name"`
	ItemNameNormalized string     `json:"item_name_normalized"`
	Vendor             string     `json:"vendor"`
	VendorNormalized   string     `json:"vendor_normalized"`
	UnitPrice          float64    `json:"unit_price"`
	Quantity           float64    `json:"quantity"`
	UnitOfMeasure      string     `json:"unit_of_measure,omitempty"`
	PurchaseDate       civil.Date `json:"purchase_date"`
	ExpenseID          string     `json:"expense_id,omitempty"`
	LineItemID         string     `json:"line_item_id,omitempty"`
}

// Validate reports whether the record is usable by the analytics core.
func (r PurchaseRecord) Validate() error {
	switch {
	case r.ItemNameNormalized == "":
		return fmt.Errorf("%w: %s: missing normalized item name", ErrInvalidRecord, r.ID)
	case math.IsNaN(r.UnitPrice) || math.IsInf(r.UnitPrice, 0):
		return fmt.Errorf("%w: %s: non-finite unit price", ErrInvalidRecord, r.ID)
	case r.UnitPrice < 0:
		return fmt.Errorf("%w: %s: negative unit price %v", ErrInvalidRecord, r.ID, r.UnitPrice)
	case math.IsNaN(r.Quantity) || math.IsInf(r.Quantity, 0) || r.Quantity <= 0:
		return fmt.Errorf("%w: %s: quantity must be positive, got %v", ErrInvalidRecord, r.ID, r.Quantity)
	case !r.PurchaseDate.IsValid():
		return fmt.Errorf("%w: %s: missing purchase date", ErrInvalidRecord, r.ID)
	}
	return nil
}

// PriceTrend summarizes the purchase history of one normalized item.
type PriceTrend struct {
	ItemName           string     `json:"item_name"`
	ItemNameNormalized string     `json:"item_name_normalized"`
	CurrentPrice       float64    `json:"current_price"`
	AvgPrice           float64    `json:"avg_price"`
	MinPrice           float64    `json:"min_price"`
	MaxPrice           float64    `json:"max_price"`
	PriceChange30d     float64    `json:"price_change_30d"`
	PriceChange90d     float64    `json:"price_change_90d"`
	PurchaseCount      int        `json:"purchase_count"`
	LastPurchase       civil.Date `json:"last_purchase"`
	Vendors            []string   `json:"vendors"`

	// SkippedRecords counts input records left out of every aggregate
	// because their unit price was NaN or infinite.
	SkippedRecords int `json:"skipped_records,omitempty"`
}

// ChangePeriod selects one of the precomputed trend windows.
type ChangePeriod string

const (
	Period30d ChangePeriod = "30d"
	Period90d ChangePeriod = "90d"
)

// ParseChangePeriod accepts "30d" and "90d". An empty string selects 30d.
func ParseChangePeriod(s string) (ChangePeriod, error) {
	switch ChangePeriod(s) {
	case "", Period30d:
		return Period30d, nil
	case Period90d:
		return Period90d, nil
	}
	return "", fmt.Errorf("unknown change period %q", s)
}

// Change returns the trend's percentage change for the period.
func (t PriceTrend) Change(period ChangePeriod) float64 {
	if period == Period90d {
		return t.PriceChange90d
	}
	return t.PriceChange30d
}

// Severity is a coarse classification of how significant a price change is.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityAlert   Severity = "alert"
)

// ObservedItem is a newly purchased line item checked against history.
type ObservedItem struct {
	ItemName     string     `json:"item_name"`
	UnitPrice    float64    `json:"unit_price"`
	Vendor       string     `json:"vendor"`
	PurchaseDate civil.Date `json:"purchase_date"`
	LineItemID   string     `json:"line_item_id,omitempty"`
}

// PriceAlert describes a significant price change for one purchase versus its
// most recent predecessor.
type PriceAlert struct {
	ID           string     `json:"id"`
	ItemName     string     `json:"item_name"`
	Vendor       string     `json:"vendor"`
	OldPrice     float64    `json:"old_price"`
	NewPrice     float64    `json:"new_price"`
	ChangeAmount float64    `json:"change_amount"`
	ChangePct    float64    `json:"change_pct"`
	PurchaseDate civil.Date `json:"purchase_date"`
	Severity     Severity   `json:"severity"`
}

// Comparison is the result of comparing a price with the previous purchase.
// A nil Previous means there was nothing to compare against.
type Comparison struct {
	Previous  *PurchaseRecord `json:"previous"`
	Change    float64         `json:"change"`
	ChangePct float64         `json:"change_pct"`
}

// BestPrice is the cheapest observed purchase of an item.
type BestPrice struct {
	Price  float64    `json:"price"`
	Vendor string     `json:"vendor"`
	Date   civil.Date `json:"date"`
}

// Direction of a price move.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// PriceChangeDisplay is the presentation form of a price change.
type PriceChangeDisplay struct {
	Direction  Direction `json:"direction"`
	Glyph      string    `json:"glyph"`
	Amount     string    `json:"amount"`
	Percent    string    `json:"percent"`
	ColorClass string    `json:"color_class"`
}

// String renders the change as e.g. "↑ $0.20 (10.0%)".
func (d PriceChangeDisplay) String() string {
	return fmt.Sprintf("%s $%s (%s%%)", d.Glyph, d.Amount, d.Percent)
}
