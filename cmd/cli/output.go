package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/dvloznov/price-tracker/internal/pricehistory"
	"github.com/dvloznov/price-tracker/internal/pricing"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

// pctCell renders a percentage with its direction glyph, e.g. "↑ 10.0%".
func pctCell(pct float64) string {
	d := pricing.FormatPriceChange(pct, pct)
	return fmt.Sprintf("%s %s%%", d.Glyph, d.Percent)
}

func printTrends(w io.Writer, report *pricehistory.TrendsReport) {
	fmt.Fprintf(w, "Price trends as of %s (%d items)\n\n", report.AsOf, len(report.Trends))
	if len(report.Trends) == 0 {
		fmt.Fprintln(w, "No purchases found.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ITEM\tCURRENT\tAVG\tMIN\tMAX\t30D\t90D\tBOUGHT\tLAST\tVENDORS")
	for _, t := range report.Trends {
		fmt.Fprintf(tw, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%s\t%s\t%d\t%s\t%s\n",
			t.ItemName, t.CurrentPrice, t.AvgPrice, t.MinPrice, t.MaxPrice,
			pctCell(t.PriceChange30d), pctCell(t.PriceChange90d),
			t.PurchaseCount, t.LastPurchase, strings.Join(t.Vendors, ", "))
	}
	tw.Flush()

	printRanking(w, "Biggest increases ("+string(report.Period)+")", report.BiggestIncreases, report.Period)
	printRanking(w, "Biggest decreases ("+string(report.Period)+")", report.BiggestDecreases, report.Period)

	if len(report.FrequentItems) > 0 {
		fmt.Fprintln(w, "\nBought most often")
		for i, t := range report.FrequentItems {
			fmt.Fprintf(w, "  %d. %s (%d purchases)\n", i+1, t.ItemName, t.PurchaseCount)
		}
	}

	if report.SkippedRecords > 0 {
		fmt.Fprintf(w, "\n%d purchases were skipped because their price was not a number.\n", report.SkippedRecords)
	}
}

func printRanking(w io.Writer, title string, trends []domain.PriceTrend, period domain.ChangePeriod) {
	if len(trends) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", title)
	for i, t := range trends {
		fmt.Fprintf(w, "  %d. %s %s\n", i+1, t.ItemName, pctCell(t.Change(period)))
	}
}

func printAlerts(w io.Writer, alerts []domain.PriceAlert) {
	if len(alerts) == 0 {
		fmt.Fprintln(w, "No price changes above the threshold.")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "SEVERITY\tITEM\tVENDOR\tDATE\tOLD\tNEW\tCHANGE")
	for _, a := range alerts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%.2f\t%.2f\t%s\n",
			strings.ToUpper(string(a.Severity)), a.ItemName, a.Vendor, a.PurchaseDate,
			a.OldPrice, a.NewPrice, pricing.FormatPriceChange(a.ChangeAmount, a.ChangePct))
	}
	tw.Flush()
}

// printHistory lists purchases newest first, each compared with the purchase before it.
// A non-empty vendor restricts the comparison to earlier purchases from that vendor.
func printHistory(w io.Writer, report *pricehistory.ItemHistoryReport, vendor string) {
	if len(report.History) == 0 {
		fmt.Fprintf(w, "No purchases of %q found.\n", report.Item)
		return
	}

	fmt.Fprintf(w, "%s: %d purchases, %.2f spent\n", report.Item, len(report.History), report.TotalSpent)
	if report.BestPrice != nil {
		fmt.Fprintf(w, "Best price: %.2f at %s on %s\n", report.BestPrice.Price, report.BestPrice.Vendor, report.BestPrice.Date)
	}
	fmt.Fprintln(w)

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tVENDOR\tPRICE\tQTY\tVS PREVIOUS")
	for i, rec := range report.History {
		cell := "-"
		// History is newest first, so everything after i is older.
		cmp := pricing.CompareToPrevious(rec.UnitPrice, report.History[i+1:], vendor != "", vendor)
		if cmp.Previous != nil {
			cell = pricing.FormatPriceChange(cmp.Change, cmp.ChangePct).String()
		}
		fmt.Fprintf(tw, "%s\t%s\t%.2f\t%g\t%s\n", rec.PurchaseDate, rec.Vendor, rec.UnitPrice, rec.Quantity, cell)
	}
	tw.Flush()
}
