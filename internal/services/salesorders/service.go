// Package salesorders implements sales orders: pricing, fulfillment
// lifecycle and payment recording.
package salesorders

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/money"
	"github.com/xelth-com/eckbiz/internal/numbering"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "sales order"

const DefaultPageSize = 20

var sortColumns = query.Sort{
	Columns: map[string]string{
		"number":        "number",
		"orderDate":     "order_date",
		"total":         "total",
		"status":        "status",
		"paymentStatus": "payment_status",
		"createdAt":     "created_at",
	},
	Default: "created_at DESC, id DESC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type CreateInput struct {
	CompanyID        uint                 `json:"companyId" validate:"required"`
	OrderDate        *time.Time           `json:"orderDate"`
	ExpectedDelivery *time.Time           `json:"expectedDelivery"`
	Currency         string               `json:"currency" validate:"omitempty,len=3"`
	DiscountPercent  decimal.Decimal      `json:"discountPercent"`
	DiscountAmount   decimal.Decimal      `json:"discountAmount"`
	ShippingAmount   decimal.Decimal      `json:"shippingAmount"`
	ShippingAddress  string               `json:"shippingAddress"`
	Notes            string               `json:"notes"`
	Items            []services.LineInput `json:"items" validate:"required,min=1,dive"`
	OwnerID          string               `json:"-"`
}

type UpdateInput struct {
	OrderDate        *time.Time           `json:"orderDate"`
	ExpectedDelivery *time.Time           `json:"expectedDelivery"`
	Currency         *string              `json:"currency" validate:"omitempty,len=3"`
	DiscountPercent  *decimal.Decimal     `json:"discountPercent"`
	DiscountAmount   *decimal.Decimal     `json:"discountAmount"`
	ShippingAmount   *decimal.Decimal     `json:"shippingAmount"`
	ShippingAddress  *string              `json:"shippingAddress"`
	Notes            *string              `json:"notes"`
	Items            []services.LineInput `json:"items" validate:"omitempty,dive"`
}

type Filter struct {
	SearchText    string
	Status        string
	PaymentStatus string
	CompanyID     *uint
	OrderFrom     *time.Time
	OrderTo       *time.Time
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.SalesOrder], error) {
	q := query.NewFilter().
		Search(f.SearchText, "number", "tracking_number", "notes").
		Eq("status", f.Status).
		Eq("payment_status", f.PaymentStatus).
		Eq("company_id", f.CompanyID).
		Range("order_date", f.OrderFrom, f.OrderTo)
	return query.List[models.SalesOrder](s.Conn(ctx), q, p, sortColumns, "Company")
}

func (s *Service) Get(ctx context.Context, id uint) (*models.SalesOrder, error) {
	return get(s.Conn(ctx), id)
}

func get(db *gorm.DB, id uint) (*models.SalesOrder, error) {
	var o models.SalesOrder
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_number") }).
		Preload("Payments", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at, id") }).
		Preload("Company").
		First(&o, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &o, nil
}

func price(o *models.SalesOrder, items []models.SalesOrderItem, d money.Discount, shipping decimal.Decimal) error {
	lines := make([]*models.LineItem, len(items))
	for i := range items {
		lines[i] = &items[i].LineItem
	}
	if err := services.Price(&o.Totals, lines, d, shipping); err != nil {
		return err
	}
	o.ShippingAmount = shipping.Round(2)
	return nil
}

func toItems(lines []models.LineItem) []models.SalesOrderItem {
	items := make([]models.SalesOrderItem, len(lines))
	for i, l := range lines {
		items[i] = models.SalesOrderItem{LineItem: services.CopyLine(l)}
	}
	return items
}

// Create prices and numbers a new draft order.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.SalesOrder, error) {
	o := &models.SalesOrder{
		CompanyID:        in.CompanyID,
		Status:           models.OrderDraft,
		PaymentStatus:    models.PaymentUnpaid,
		OrderDate:        s.Now(),
		ExpectedDelivery: in.ExpectedDelivery,
		Currency:         in.Currency,
		ShippingAddress:  in.ShippingAddress,
		Notes:            in.Notes,
		OwnerID:          in.OwnerID,
	}
	if in.OrderDate != nil {
		o.OrderDate = *in.OrderDate
	}
	if o.Currency == "" {
		o.Currency = "EUR"
	}

	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if err := services.MustExist[models.Company](tx, "company", o.CompanyID); err != nil {
			return err
		}
		lines, err := services.BuildLines(tx, in.Items)
		if err != nil {
			return err
		}
		o.Items = toItems(lines)
		d := money.Discount{Percent: in.DiscountPercent, Amount: in.DiscountAmount}
		if err := price(o, o.Items, d, in.ShippingAmount); err != nil {
			return err
		}
		if o.Number, err = numbering.Yearly(tx, numbering.ScopeSalesOrder, o.OrderDate); err != nil {
			return err
		}
		if err := tx.Create(o).Error; err != nil {
			return fmt.Errorf("failed to create sales order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, o.ID)
}

// Update edits a draft or pending order and recomputes its totals.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.SalesOrder, error) {
	if in.Items != nil && len(in.Items) == 0 {
		return nil, apperr.Validation("at least one line item is required")
	}
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		o, err := services.FindForUpdate[models.SalesOrder](tx, entity, id)
		if err != nil {
			return err
		}
		if err := Machine.CheckEditable(o.Status); err != nil {
			return err
		}
		p := query.Patch{}
		query.Set(p, "order_date", in.OrderDate)
		query.Set(p, "expected_delivery", in.ExpectedDelivery)
		query.Set(p, "currency", in.Currency)
		query.Set(p, "shipping_address", in.ShippingAddress)
		query.Set(p, "notes", in.Notes)

		if in.Items != nil || in.DiscountPercent != nil || in.DiscountAmount != nil || in.ShippingAmount != nil {
			if err := reprice(tx, o, in, p); err != nil {
				return err
			}
		}
		if p.Empty() {
			return apperr.Validation("no fields to update")
		}
		return p.Apply(tx, o)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func reprice(tx *gorm.DB, o *models.SalesOrder, in UpdateInput, p query.Patch) error {
	d := money.Discount{Percent: o.DiscountPercent, Amount: o.DiscountAmount}
	switch {
	case in.DiscountPercent != nil:
		d = money.Discount{Percent: *in.DiscountPercent}
	case in.DiscountAmount != nil:
		d = money.Discount{Amount: *in.DiscountAmount}
	}
	shipping := o.ShippingAmount
	if in.ShippingAmount != nil {
		shipping = *in.ShippingAmount
	}

	var items []models.SalesOrderItem
	if in.Items != nil {
		lines, err := services.BuildLines(tx, in.Items)
		if err != nil {
			return err
		}
		items = toItems(lines)
	} else if err := tx.Where("sales_order_id = ?", o.ID).Order("line_number").Find(&items).Error; err != nil {
		return fmt.Errorf("load order items: %w", err)
	}

	if err := price(o, items, d, shipping); err != nil {
		return err
	}
	if o.AmountPaid.GreaterThan(o.Total) {
		return apperr.Validation("total would fall below the amount already paid")
	}
	if in.Items != nil {
		if err := tx.Where("sales_order_id = ?", o.ID).Delete(&models.SalesOrderItem{}).Error; err != nil {
			return fmt.Errorf("replace order items: %w", err)
		}
		for i := range items {
			items[i].SalesOrderID = o.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("replace order items: %w", err)
		}
	} else {
		for i := range items {
			if err := tx.Model(&items[i]).Updates(map[string]any{
				"line_number": items[i].LineNumber,
				"tax_amount":  items[i].TaxAmount,
				"line_total":  items[i].LineTotal,
			}).Error; err != nil {
				return fmt.Errorf("update order item: %w", err)
			}
		}
	}
	p.Put("subtotal", o.Subtotal)
	p.Put("discount_percent", o.DiscountPercent)
	p.Put("discount_amount", o.DiscountAmount)
	p.Put("tax_amount", o.TaxAmount)
	p.Put("shipping_amount", o.ShippingAmount)
	p.Put("total", o.Total)
	p.Put("payment_status", paymentStatus(o.AmountPaid, o.Total))
	return nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.SalesOrder](s.Conn(ctx), entity, id)
}

// Clone copies an order as a new draft. Fulfillment and payment state are not copied.
func (s *Service) Clone(ctx context.Context, id uint, userID string) (*models.SalesOrder, error) {
	now := s.Now()
	var cloneID uint
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		src, err := get(tx, id)
		if err != nil {
			return err
		}
		c := &models.SalesOrder{
			CompanyID:       src.CompanyID,
			Status:          models.OrderDraft,
			PaymentStatus:   models.PaymentUnpaid,
			OrderDate:       now,
			Currency:        src.Currency,
			Totals:          src.Totals,
			ShippingAmount:  src.ShippingAmount,
			ShippingAddress: src.ShippingAddress,
			Notes:           src.Notes,
			OwnerID:         userID,
			Items:           make([]models.SalesOrderItem, len(src.Items)),
		}
		for i, it := range src.Items {
			c.Items[i] = models.SalesOrderItem{LineItem: services.CopyLine(it.LineItem)}
		}
		if c.Number, err = numbering.Yearly(tx, numbering.ScopeSalesOrder, now); err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to clone sales order: %w", err)
		}
		cloneID = c.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, cloneID)
}

func paymentStatus(paid, total decimal.Decimal) models.PaymentStatus {
	switch {
	case !paid.IsPositive():
		return models.PaymentUnpaid
	case paid.GreaterThanOrEqual(total):
		return models.PaymentPaid
	default:
		return models.PaymentPartial
	}
}

func actor(userID string) *string {
	if userID == "" {
		return nil
	}
	return &userID
}
