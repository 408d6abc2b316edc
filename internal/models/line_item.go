package models

import (
	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckbiz/internal/money"
)

// LineItem holds the priced fields shared by quote and order lines.
// TaxAmount and LineTotal are always server computed.
type LineItem struct {
	LineNumber      int             `gorm:"not null" json:"lineNumber"`
	ProductID       *uint           `gorm:"index" json:"productId,omitempty"`
	Description     string          `gorm:"size:500" json:"description"`
	Quantity        decimal.Decimal `gorm:"type:numeric(15,3);not null" json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:numeric(15,2);not null" json:"unitPrice"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discountPercent"`
	TaxRate         decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"taxRate"`
	TaxAmount       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"taxAmount"`
	LineTotal       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"lineTotal"`
}

// MoneyLine converts the line for total computation.
func (l LineItem) MoneyLine() money.Line {
	return money.Line{
		Quantity:        l.Quantity,
		UnitPrice:       l.UnitPrice,
		DiscountPercent: l.DiscountPercent,
		TaxRate:         l.TaxRate,
	}
}

// Totals are the header amounts every priced document carries.
type Totals struct {
	Subtotal        decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"subtotal"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0" json:"discountPercent"`
	DiscountAmount  decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"discountAmount"`
	TaxAmount       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"taxAmount"`
	Total           decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0" json:"total"`
}

// ApplySummary copies computed totals onto the header and its lines.
// lines must be in the order the summary was computed from.
func (t *Totals) ApplySummary(s money.Summary, lines []*LineItem) {
	t.Subtotal = s.Subtotal
	t.DiscountPercent = s.DiscountPercent
	t.DiscountAmount = s.DiscountAmount
	t.TaxAmount = s.TaxAmount
	t.Total = s.Total
	for i, l := range lines {
		l.LineNumber = i + 1
		l.LineTotal = s.Lines[i].Total
		l.TaxAmount = s.Lines[i].Tax
	}
}
