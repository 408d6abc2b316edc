package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestComputePercentAndAmountDiscountAgree(t *testing.T) {
	// subtotal 1000, tax 100 (10% on the single line)
	lines := []Line{{Quantity: d("10"), UnitPrice: d("100"), TaxRate: d("10")}}

	byPercent, err := Compute(lines, Discount{Percent: d("10")}, decimal.Zero)
	require.NoError(t, err)
	byAmount, err := Compute(lines, Discount{Amount: d("100")}, decimal.Zero)
	require.NoError(t, err)

	for _, s := range []Summary{byPercent, byAmount} {
		assert.True(t, s.Subtotal.Equal(d("1000")), "subtotal %s", s.Subtotal)
		assert.True(t, s.DiscountAmount.Equal(d("100")), "discount %s", s.DiscountAmount)
		assert.True(t, s.TaxAmount.Equal(d("100")), "tax %s", s.TaxAmount)
		assert.True(t, s.Total.Equal(d("1000")), "total %s", s.Total)
	}
	assert.True(t, byPercent.DiscountPercent.Equal(d("10")))
	assert.True(t, byAmount.DiscountPercent.IsZero())
}

func TestComputeLineDiscountAndRounding(t *testing.T) {
	r, err := ComputeLine(Line{Quantity: d("3"), UnitPrice: d("19.99"), DiscountPercent: d("15"), TaxRate: d("19")})
	require.NoError(t, err)
	// 59.97 * 0.85 = 50.9745 -> 50.97 ; tax 50.97 * 0.19 = 9.6843 -> 9.68
	assert.Equal(t, "50.97", r.Total.StringFixed(2))
	assert.Equal(t, "9.68", r.Tax.StringFixed(2))
}

func TestComputeAddsShippingAndSumsLines(t *testing.T) {
	lines := []Line{
		{Quantity: d("1"), UnitPrice: d("200"), TaxRate: d("20")},
		{Quantity: d("2"), UnitPrice: d("50"), TaxRate: d("0")},
	}
	s, err := Compute(lines, Discount{}, d("15"))
	require.NoError(t, err)
	assert.Equal(t, "300.00", s.Subtotal.StringFixed(2))
	assert.Equal(t, "40.00", s.TaxAmount.StringFixed(2))
	assert.Equal(t, "355.00", s.Total.StringFixed(2))
	require.Len(t, s.Lines, 2)
	assert.Equal(t, "100.00", s.Lines[1].Total.StringFixed(2))
}

func TestComputeValidation(t *testing.T) {
	ok := Line{Quantity: d("1"), UnitPrice: d("10")}
	tests := []struct {
		name     string
		lines    []Line
		discount Discount
		shipping decimal.Decimal
	}{
		{"no lines", nil, Discount{}, decimal.Zero},
		{"zero quantity", []Line{{Quantity: d("0"), UnitPrice: d("1")}}, Discount{}, decimal.Zero},
		{"negative price", []Line{{Quantity: d("1"), UnitPrice: d("-1")}}, Discount{}, decimal.Zero},
		{"tax over 100", []Line{{Quantity: d("1"), UnitPrice: d("1"), TaxRate: d("101")}}, Discount{}, decimal.Zero},
		{"discount over subtotal", []Line{ok}, Discount{Amount: d("11")}, decimal.Zero},
		{"negative discount", []Line{ok}, Discount{Amount: d("-1")}, decimal.Zero},
		{"percent over 100", []Line{ok}, Discount{Percent: d("150")}, decimal.Zero},
		{"negative shipping", []Line{ok}, Discount{}, d("-5")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compute(tt.lines, tt.discount, tt.shipping)
			require.Error(t, err)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation))
		})
	}
}
