package bigquery

import (
	"fmt"

	"cloud.google.com/go/bigquery"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/shopspring/decimal"
)

// PurchaseHistoryRow is one receipt line item joined with its receipt.
type PurchaseHistoryRow struct {
	LineItemID string `bigquery:"line_item_id"` // REQUIRED
	ReceiptID  string `bigquery:"receipt_id"`   // REQUIRED
	DocumentID string `bigquery:"document_id"`  // REQUIRED

	Description string `bigquery:"description"` // REQUIRED

	Quantity   bigquery.NullFloat64 `bigquery:"quantity"`    // NULLABLE (NUMERIC)
	UnitPrice  bigquery.NullFloat64 `bigquery:"unit_price"`  // NULLABLE (NUMERIC)
	TotalPrice bigquery.NullFloat64 `bigquery:"total_price"` // NULLABLE (NUMERIC)

	MerchantName bigquery.NullString `bigquery:"merchant_name"` // NULLABLE
	PurchaseDate bigquery.NullDate   `bigquery:"purchase_date"` // DATE, NULLABLE
}

// ToRecord converts the row into a validated purchase record.
// When unit_price is missing it is derived from total_price / quantity.
func (r PurchaseHistoryRow) ToRecord() (domain.PurchaseRecord, error) {
	rec := domain.PurchaseRecord{
		ID:                 r.LineItemID,
		ItemName:           r.Description,
		ItemNameNormalized: pricing.NormalizeItemName(r.Description),
		Vendor:             r.MerchantName.StringVal,
		VendorNormalized:   pricing.NormalizeVendor(r.MerchantName.StringVal),
		Quantity:           1,
		ExpenseID:          r.ReceiptID,
		LineItemID:         r.LineItemID,
	}
	if r.Quantity.Valid {
		rec.Quantity = r.Quantity.Float64
	}

	switch {
	case r.UnitPrice.Valid:
		rec.UnitPrice = r.UnitPrice.Float64
	case r.TotalPrice.Valid && rec.Quantity > 0:
		rec.UnitPrice = decimal.NewFromFloat(r.TotalPrice.Float64).
			Div(decimal.NewFromFloat(rec.Quantity)).
			Round(2).
			InexactFloat64()
	default:
		return domain.PurchaseRecord{}, fmt.Errorf("%w: %s: missing unit price", domain.ErrInvalidRecord, r.LineItemID)
	}

	if r.PurchaseDate.Valid {
		rec.PurchaseDate = r.PurchaseDate.Date
	}

	if err := rec.Validate(); err != nil {
		return domain.PurchaseRecord{}, err
	}
	return rec, nil
}
