package pricing

import (
	"math"

	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/shopspring/decimal"
)

// CSS classes for price moves. A price increase is bad news for the buyer.
const (
	ColorIncrease = "text-red-600"
	ColorDecrease = "text-green-600"
	ColorFlat     = "text-gray-500"
)

// FormatPriceChange renders a signed change amount and percentage for display.
// Amount and Percent are absolute values rounded to 2 and 1 decimals.
func FormatPriceChange(change, pct float64) domain.PriceChangeDisplay {
	if !isFinite(change) {
		change = 0
	}
	if !isFinite(pct) {
		pct = 0
	}

	d := domain.PriceChangeDisplay{
		Direction:  domain.DirectionFlat,
		Glyph:      "→",
		Amount:     decimal.NewFromFloat(math.Abs(change)).StringFixed(2),
		Percent:    decimal.NewFromFloat(math.Abs(pct)).StringFixed(1),
		ColorClass: ColorFlat,
	}

	switch {
	case change > 0:
		d.Direction, d.Glyph, d.ColorClass = domain.DirectionUp, "↑", ColorIncrease
	case change < 0:
		d.Direction, d.Glyph, d.ColorClass = domain.DirectionDown, "↓", ColorDecrease
	}
	return d
}
