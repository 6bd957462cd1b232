package memory

import (
	"fmt"

	"cloud.google.com/go/civil"
	"github.com/dvloznov/price-tracker/internal/domain"
)

// DemoUserID owns the sample history loaded by Seed.
const DemoUserID = "demo-user"

type samplePurchase struct {
	item    string
	vendor  string
	price   float64
	qty     float64
	unit    string
	daysAgo int
}

var samplePurchases = []samplePurchase{
	{"Milk", "Walmart Supercenter #1234", 3.48, 1, "gal", 120},
	{"Milk", "Walmart Supercenter #1234", 3.52, 1, "gal", 75},
	{"Milk", "Costco", 3.19, 2, "gal", 40},
	{"Milk", "Walmart Supercenter #1234", 3.78, 1, "gal", 3},
	{"Eggs", "Costco", 4.99, 1, "dozen", 95},
	{"Eggs", "Acme", 5.49, 1, "dozen", 35},
	{"Eggs", "Acme", 6.29, 1, "dozen", 6},
	{"Bananas", "Acme", 0.59, 3, "lb", 100},
	{"Bananas", "Acme", 0.59, 3, "lb", 50},
	{"Bananas", "Walmart Supercenter #1234", 0.54, 3, "lb", 10},
	{"Coffee Beans", "Target", 12.99, 1, "bag", 92},
	{"Coffee Beans", "Target", 11.49, 1, "bag", 33},
	{"Coffee Beans", "Costco", 10.99, 1, "bag", 2},
	{"Olive Oil", "Costco", 15.99, 1, "ea", 60},
}

// Seed loads a small grocery history for DemoUserID ending at today.
func (r *Repository) Seed(today civil.Date) error {
	return r.Add(DemoUserID, SampleRecords(today)...)
}

// SampleRecords returns the demo grocery history with dates relative to today.
func SampleRecords(today civil.Date) []domain.PurchaseRecord {
	records := make([]domain.PurchaseRecord, 0, len(samplePurchases))
	for i, p := range samplePurchases {
		date := today.AddDays(-p.daysAgo)
		records = append(records, domain.PurchaseRecord{
			ID:            fmt.Sprintf("demo-%02d", i+1),
			ItemName:      p.item,
			Vendor:        p.vendor,
			UnitPrice:     p.price,
			Quantity:      p.qty,
			UnitOfMeasure: p.unit,
			PurchaseDate:  date,
			ExpenseID:     fmt.Sprintf("demo-expense-%s", date),
			LineItemID:    fmt.Sprintf("demo-line-%02d", i+1),
		})
	}
	return records
}
