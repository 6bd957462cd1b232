// Package postgres reads and writes purchase history in the Supabase Postgres database.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/pricing"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// ErrSchemaMissing means the price_history table does not exist. Run cmd/migrate.
var ErrSchemaMissing = errors.New("price_history table not found")

const undefinedTable = "42P01"

const selectColumns = `
	id, item_name, item_name_normalized, vendor, vendor_normalized,
	unit_price, quantity, unit_of_measure, purchase_date, expense_id, line_item_id`

// PurchaseRepository reads price_history rows with database/sql and lib/pq.
type PurchaseRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string, log zerolog.Logger) (*PurchaseRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.Open: ping: %w", err)
	}

	return NewPurchaseRepository(db, log), nil
}

// NewPurchaseRepository wraps an existing connection pool.
func NewPurchaseRepository(db *sql.DB, log zerolog.Logger) *PurchaseRepository {
	return &PurchaseRepository{db: db, log: log}
}

// Close closes the connection pool.
func (r *PurchaseRepository) Close() error {
	return r.db.Close()
}

// ListPurchaseHistory returns the user's purchases dated on or after since.
func (r *PurchaseRepository) ListPurchaseHistory(ctx context.Context, userID string, since civil.Date) ([]domain.PurchaseRecord, error) {
	query := `SELECT ` + selectColumns + `
		FROM price_history
		WHERE user_id = $1`
	args := []interface{}{userID}
	if since.IsValid() {
		query += ` AND purchase_date >= $2`
		args = append(args, since.String())
	}
	query += ` ORDER BY purchase_date DESC, created_at DESC`

	records, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ListPurchaseHistory: %w", err)
	}
	return records, nil
}

// ListItemHistory returns the user's purchases of one normalized item.
func (r *PurchaseRepository) ListItemHistory(ctx context.Context, userID, itemNormalized string) ([]domain.PurchaseRecord, error) {
	query := `SELECT ` + selectColumns + `
		FROM price_history
		WHERE user_id = $1 AND item_name_normalized = $2
		ORDER BY purchase_date DESC, created_at DESC`

	records, err := r.query(ctx, query, userID, pricing.NormalizeItemName(itemNormalized))
	if err != nil {
		return nil, fmt.Errorf("ListItemHistory: %w", err)
	}
	return records, nil
}

// InsertRecords stores records for a user in batches, skipping IDs that already exist.
// Missing normalized names are derived from the display names.
func (r *PurchaseRepository) InsertRecords(ctx context.Context, userID string, records []domain.PurchaseRecord) error {
	const batchSize = 50
	for i := 0; i < len(records); i += batchSize {
		end := i + batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := r.insertBatch(ctx, userID, records[i:end]); err != nil {
			return fmt.Errorf("InsertRecords: %w", err)
		}
	}
	return nil
}

func (r *PurchaseRepository) insertBatch(ctx context.Context, userID string, batch []domain.PurchaseRecord) error {
	const cols = 12
	valueStrings := make([]string, 0, len(batch))
	valueArgs := make([]interface{}, 0, len(batch)*cols)

	for idx, rec := range batch {
		if rec.ItemNameNormalized == "" {
			rec.ItemNameNormalized = pricing.NormalizeItemName(rec.ItemName)
		}
		if rec.VendorNormalized == "" {
			rec.VendorNormalized = pricing.NormalizeVendor(rec.Vendor)
		}
		if err := rec.Validate(); err != nil {
			return err
		}
		placeholders := make([]string, cols)
		for c := range placeholders {
			placeholders[c] = fmt.Sprintf("$%d", idx*cols+c+1)
		}
		valueStrings = append(valueStrings, "("+strings.Join(placeholders, ",")+")")
		valueArgs = append(valueArgs,
			rec.ID, userID, rec.ItemName, rec.ItemNameNormalized,
			nullString(rec.Vendor), nullString(rec.VendorNormalized),
			rec.UnitPrice, rec.Quantity, nullString(rec.UnitOfMeasure),
			rec.PurchaseDate.String(), nullString(rec.ExpenseID), nullString(rec.LineItemID))
	}

	query := `INSERT INTO price_history (
			id, user_id, item_name, item_name_normalized, vendor, vendor_normalized,
			unit_price, quantity, unit_of_measure, purchase_date, expense_id, line_item_id)
		VALUES ` + strings.Join(valueStrings, ",") + `
		ON CONFLICT (id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, valueArgs...); err != nil {
		return translateError(err)
	}
	return nil
}

func (r *PurchaseRepository) query(ctx context.Context, query string, args ...interface{}) ([]domain.PurchaseRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, translateError(err)
	}
	defer rows.Close()

	records := make([]domain.PurchaseRecord, 0)
	skipped := 0
	for rows.Next() {
		var row purchaseRow
		if err := rows.Scan(
			&row.ID, &row.ItemName, &row.ItemNameNormalized, &row.Vendor, &row.VendorNormalized,
			&row.UnitPrice, &row.Quantity, &row.UnitOfMeasure, &row.PurchaseDate,
			&row.ExpenseID, &row.LineItemID,
		); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rec, err := row.toRecord()
		if err != nil {
			skipped++
			r.log.Warn().Err(err).Str("id", row.ID).Msg("Skipping invalid price_history row")
			continue
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	if skipped > 0 {
		r.log.Warn().Int("skipped", skipped).Int("loaded", len(records)).Msg("Some price_history rows were invalid")
	}
	return records, nil
}

// purchaseRow mirrors one price_history row. Nullable columns use sql.Null* types.
type purchaseRow struct {
	ID                 string
	ItemName           string
	ItemNameNormalized sql.NullString
	Vendor             sql.NullString
	VendorNormalized   sql.NullString
	UnitPrice          sql.NullFloat64
	Quantity           sql.NullFloat64
	UnitOfMeasure      sql.NullString
	PurchaseDate       sql.NullTime
	ExpenseID          sql.NullString
	LineItemID         sql.NullString
}

// toRecord validates the row into a domain record. A missing quantity counts as one unit.
func (row purchaseRow) toRecord() (domain.PurchaseRecord, error) {
	if !row.UnitPrice.Valid {
		return domain.PurchaseRecord{}, fmt.Errorf("%w: %s: missing unit price", domain.ErrInvalidRecord, row.ID)
	}

	rec := domain.PurchaseRecord{
		ID:                 row.ID,
		ItemName:           row.ItemName,
		ItemNameNormalized: pricing.NormalizeItemName(row.ItemNameNormalized.String),
		Vendor:             row.Vendor.String,
		VendorNormalized:   row.VendorNormalized.String,
		UnitPrice:          row.UnitPrice.Float64,
		Quantity:           1,
		UnitOfMeasure:      row.UnitOfMeasure.String,
		ExpenseID:          row.ExpenseID.String,
		LineItemID:         row.LineItemID.String,
	}
	if rec.ItemNameNormalized == "" {
		rec.ItemNameNormalized = pricing.NormalizeItemName(row.ItemName)
	}
	if rec.VendorNormalized == "" {
		rec.VendorNormalized = pricing.NormalizeVendor(row.Vendor.String)
	}
	if row.Quantity.Valid {
		rec.Quantity = row.Quantity.Float64
	}
	if row.PurchaseDate.Valid {
		rec.PurchaseDate = civil.DateOf(row.PurchaseDate.Time)
	}

	if err := rec.Validate(); err != nil {
		return domain.PurchaseRecord{}, err
	}
	return rec, nil
}

func translateError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == undefinedTable {
		return fmt.Errorf("%w: %v", ErrSchemaMissing, err)
	}
	return err
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
