package pricing

import (
	"math"
	"testing"

	"github.com/dvloznov/price-tracker/internal/domain"
	"github.com/google/go-cmp/cmp"
)

func TestFormatPriceChange(t *testing.T) {
	tests := []struct {
		name   string
		change float64
		pct    float64
		want   domain.PriceChangeDisplay
		label  string
	}{
		{
			name:   "increase",
			change: 0.2, pct: 10.000000000000009,
			want:  domain.PriceChangeDisplay{Direction: domain.DirectionUp, Glyph: "↑", Amount: "0.20", Percent: "10.0", ColorClass: ColorIncrease},
			label: "↑ $0.20 (10.0%)",
		},
		{
			name:   "decrease",
			change: -1.256, pct: -12.34,
			want:  domain.PriceChangeDisplay{Direction: domain.DirectionDown, Glyph: "↓", Amount: "1.26", Percent: "12.3", ColorClass: ColorDecrease},
			label: "↓ $1.26 (12.3%)",
		},
		{
			name:   "flat",
			change: 0, pct: 0,
			want:  domain.PriceChangeDisplay{Direction: domain.DirectionFlat, Glyph: "→", Amount: "0.00", Percent: "0.0", ColorClass: ColorFlat},
			label: "→ $0.00 (0.0%)",
		},
		{
			name:   "non-finite input is flat",
			change: math.NaN(), pct: math.Inf(1),
			want:  domain.PriceChangeDisplay{Direction: domain.DirectionFlat, Glyph: "→", Amount: "0.00", Percent: "0.0", ColorClass: ColorFlat},
			label: "→ $0.00 (0.0%)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatPriceChange(tt.change, tt.pct)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FormatPriceChange(%v, %v) mismatch (-want +got):\n%s", tt.change, tt.pct, diff)
			}
			if got.String() != tt.label {
				t.Errorf("String() = %q, want %q", got.String(), tt.label)
			}
		})
	}
}
