package services

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/money"
)

// LineInput is one requested line of a quote or order. When ProductID is set,
// missing description, unit price and tax rate are taken from the product.
type LineInput struct {
	ProductID       *uint            `json:"productId"`
	Description     string           `json:"description" validate:"max=500"`
	Quantity        decimal.Decimal  `json:"quantity"`
	UnitPrice       *decimal.Decimal `json:"unitPrice"`
	DiscountPercent decimal.Decimal  `json:"discountPercent"`
	TaxRate         *decimal.Decimal `json:"taxRate"`
}

// BuildLines resolves product defaults and returns unpriced line items.
func BuildLines(db *gorm.DB, in []LineInput) ([]models.LineItem, error) {
	if len(in) == 0 {
		return nil, apperr.Validation("at least one line item is required")
	}
	ids := make([]uint, 0, len(in))
	for _, l := range in {
		if l.ProductID != nil {
			ids = append(ids, *l.ProductID)
		}
	}
	products := map[uint]models.Product{}
	if len(ids) > 0 {
		var rows []models.Product
		if err := db.Where("id IN ?", ids).Find(&rows).Error; err != nil {
			return nil, fmt.Errorf("load line products: %w", err)
		}
		for _, p := range rows {
			products[p.ID] = p
		}
	}

	out := make([]models.LineItem, len(in))
	for i, l := range in {
		item := models.LineItem{
			ProductID:       l.ProductID,
			Description:     l.Description,
			Quantity:        l.Quantity,
			DiscountPercent: l.DiscountPercent,
		}
		if l.UnitPrice != nil {
			item.UnitPrice = *l.UnitPrice
		}
		if l.TaxRate != nil {
			item.TaxRate = *l.TaxRate
		}
		if l.ProductID != nil {
			p, ok := products[*l.ProductID]
			if !ok {
				return nil, apperr.NotFound("product", *l.ProductID)
			}
			if item.Description == "" {
				item.Description = p.Name
			}
			if l.UnitPrice == nil {
				item.UnitPrice = p.UnitPrice
			}
			if l.TaxRate == nil {
				item.TaxRate = p.TaxRate
			}
		} else if item.Description == "" {
			return nil, apperr.Validation("line %d needs a product or a description", i+1)
		}
		out[i] = item
	}
	return out, nil
}

// Price recomputes line and header amounts in place.
func Price(t *models.Totals, lines []*models.LineItem, d money.Discount, shipping decimal.Decimal) error {
	ml := make([]money.Line, len(lines))
	for i, l := range lines {
		ml[i] = l.MoneyLine()
	}
	sum, err := money.Compute(ml, d, shipping)
	if err != nil {
		return err
	}
	t.ApplySummary(sum, lines)
	return nil
}

// CopyLine returns l with its own ProductID pointer.
func CopyLine(l models.LineItem) models.LineItem {
	if l.ProductID != nil {
		id := *l.ProductID
		l.ProductID = &id
	}
	return l
}
