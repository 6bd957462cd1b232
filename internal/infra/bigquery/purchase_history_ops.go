package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/rs/zerolog"
	"google.golang.org/api/iterator"
)

const purchaseHistorySelect = `
		SELECT
			li.line_item_id,
			li.receipt_id,
			r.document_id,
			li.description,
			li.quantity,
			li.unit_price,
			li.total_price,
			r.merchant_name,
			r.purchase_date
		FROM ` + "`%[1]s.%[2]s.receipt_line_items`" + ` AS li
		JOIN ` + "`%[1]s.%[2]s.receipts`" + ` AS r
		  ON r.receipt_id = li.receipt_id
		WHERE r.user_id = @user_id
		  AND r.purchase_date IS NOT NULL`

// ListPurchaseHistoryWithClient returns the user's line items purchased on or after since.
// A zero since returns the whole history.
func ListPurchaseHistoryWithClient(ctx context.Context, client *bigquery.Client, dataset, userID string, since civil.Date, log zerolog.Logger) ([]domain.PurchaseRecord, error) {
	query := fmt.Sprintf(purchaseHistorySelect, client.Project(), dataset)
	params := []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
	}
	if since.IsValid() {
		query += `
		  AND r.purchase_date >= @since`
		params = append(params, bigquery.QueryParameter{Name: "since", Value: since})
	}
	query += `
		ORDER BY r.purchase_date DESC, li.line_index ASC`

	q := client.Query(query)
	q.Parameters = params

	records, err := readPurchaseHistory(ctx, q, log)
	if err != nil {
		return nil, fmt.Errorf("ListPurchaseHistoryWithClient: %w", err)
	}
	return records, nil
}

// ListItemHistoryWithClient returns the user's purchases whose trimmed, lowercased
// description equals item.
func ListItemHistoryWithClient(ctx context.Context, client *bigquery.Client, dataset, userID, item string, log zerolog.Logger) ([]domain.PurchaseRecord, error) {
	query := fmt.Sprintf(purchaseHistorySelect, client.Project(), dataset) + `
		  AND LOWER(TRIM(li.description)) = @item
		ORDER BY r.purchase_date DESC, li.line_index ASC`

	q := client.Query(query)
	q.Parameters = []bigquery.QueryParameter{
		{Name: "user_id", Value: userID},
		{Name: "item", Value: pricing.NormalizeItemName(item)},
	}

	records, err := readPurchaseHistory(ctx, q, log)
	if err != nil {
		return nil, fmt.Errorf("ListItemHistoryWithClient: %w", err)
	}
	return records, nil
}

func readPurchaseHistory(ctx context.Context, q *bigquery.Query, log zerolog.Logger) ([]domain.PurchaseRecord, error) {
	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading query: %w", err)
	}

	records := make([]domain.PurchaseRecord, 0)
	for {
		var row PurchaseHistoryRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("iterating: %w", err)
		}

		rec, err := row.ToRecord()
		if err != nil {
			log.Warn().Err(err).Str("line_item_id", row.LineItemID).Msg("Skipping line item without usable price")
			continue
		}
		records = append(records, rec)
	}
	return records, nil
}
