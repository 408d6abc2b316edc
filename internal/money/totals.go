// Package money computes document totals from line items. Totals submitted by
// clients are never trusted; every document recomputes through Compute.
package money

import (
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckbiz/internal/apperr"
)

const scale = 2

var hundred = decimal.NewFromInt(100)

// Line is one priced entry. Percentages are expressed 0..100.
type Line struct {
	Quantity        decimal.Decimal
	UnitPrice       decimal.Decimal
	DiscountPercent decimal.Decimal
	TaxRate         decimal.Decimal
}

// LineResult holds the computed amounts for one line.
type LineResult struct {
	Total decimal.Decimal
	Tax   decimal.Decimal
}

// Discount is either a percentage of the subtotal or a fixed amount.
// A positive Percent wins over Amount.
type Discount struct {
	Percent decimal.Decimal
	Amount  decimal.Decimal
}

// Summary is the recomputed document total.
type Summary struct {
	Lines           []LineResult
	Subtotal        decimal.Decimal
	DiscountPercent decimal.Decimal
	DiscountAmount  decimal.Decimal
	TaxAmount       decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
}

// ComputeLine prices a single line: qty * price less line discount, then tax on the net.
func ComputeLine(l Line) (LineResult, error) {
	if l.Quantity.LessThanOrEqual(decimal.Zero) {
		return LineResult{}, apperr.Validation("quantity must be positive")
	}
	if l.UnitPrice.IsNegative() {
		return LineResult{}, apperr.Validation("unit price must not be negative")
	}
	if err := checkPercent("line discount", l.DiscountPercent); err != nil {
		return LineResult{}, err
	}
	if err := checkPercent("tax rate", l.TaxRate); err != nil {
		return LineResult{}, err
	}

	gross := l.Quantity.Mul(l.UnitPrice)
	net := gross.Sub(gross.Mul(l.DiscountPercent).Div(hundred)).Round(scale)
	tax := net.Mul(l.TaxRate).Div(hundred).Round(scale)
	return LineResult{Total: net, Tax: tax}, nil
}

// Compute recomputes subtotal, discount, tax and total:
// total = subtotal - discount + tax + shipping.
func Compute(lines []Line, d Discount, shipping decimal.Decimal) (Summary, error) {
	if len(lines) == 0 {
		return Summary{}, apperr.Validation("at least one line item is required")
	}
	if shipping.IsNegative() {
		return Summary{}, apperr.Validation("shipping must not be negative")
	}

	s := Summary{Lines: make([]LineResult, len(lines)), Shipping: shipping.Round(scale)}
	for i, l := range lines {
		r, err := ComputeLine(l)
		if err != nil {
			return Summary{}, err
		}
		s.Lines[i] = r
		s.Subtotal = s.Subtotal.Add(r.Total)
		s.TaxAmount = s.TaxAmount.Add(r.Tax)
	}

	switch {
	case d.Percent.IsPositive():
		if err := checkPercent("discount", d.Percent); err != nil {
			return Summary{}, err
		}
		s.DiscountPercent = d.Percent
		s.DiscountAmount = s.Subtotal.Mul(d.Percent).Div(hundred).Round(scale)
	case d.Amount.IsNegative():
		return Summary{}, apperr.Validation("discount must not be negative")
	default:
		s.DiscountAmount = d.Amount.Round(scale)
	}
	if s.DiscountAmount.GreaterThan(s.Subtotal) {
		return Summary{}, apperr.Validation("discount exceeds subtotal")
	}

	s.Total = s.Subtotal.Sub(s.DiscountAmount).Add(s.TaxAmount).Add(s.Shipping)
	return s, nil
}

func checkPercent(name string, p decimal.Decimal) error {
	if p.IsNegative() || p.GreaterThan(hundred) {
		return apperr.Validation("%s must be between 0 and 100", name)
	}
	return nil
}
