// Package quotes implements quote pricing, numbering and the quote lifecycle,
// including conversion into a sales order.
package quotes

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

const entity = "quote"

const (
	DefaultPageSize = 20
	defaultValidity = 30 * 24 * time.Hour
)

var sortColumns = query.Sort{
	Columns: map[string]string{
		"number":     "number",
		"issueDate":  "issue_date",
		"validUntil": "valid_until",
		"total":      "total",
		"status":     "status",
		"createdAt":  "created_at",
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
	CompanyID       uint                 `json:"companyId" validate:"required"`
	ContactID       *uint                `json:"contactId"`
	IssueDate       *time.Time           `json:"issueDate"`
	ValidUntil      *time.Time           `json:"validUntil"`
	Currency        string               `json:"currency" validate:"omitempty,len=3"`
	DiscountPercent decimal.Decimal      `json:"discountPercent"`
	DiscountAmount  decimal.Decimal      `json:"discountAmount"`
	Notes           string               `json:"notes"`
	Terms           string               `json:"terms"`
	Items           []services.LineInput `json:"items" validate:"required,min=1,dive"`
	OwnerID         string               `json:"-"`
}

// UpdateInput edits an open quote. A non-nil Items replaces every line.
type UpdateInput struct {
	ContactID       *uint                `json:"contactId"`
	IssueDate       *time.Time           `json:"issueDate"`
	ValidUntil      *time.Time           `json:"validUntil"`
	Currency        *string              `json:"currency" validate:"omitempty,len=3"`
	DiscountPercent *decimal.Decimal     `json:"discountPercent"`
	DiscountAmount  *decimal.Decimal     `json:"discountAmount"`
	Notes           *string              `json:"notes"`
	Terms           *string              `json:"terms"`
	Items           []services.LineInput `json:"items" validate:"omitempty,dive"`
}

type Filter struct {
	SearchText string
	Status     string
	CompanyID  *uint
	OwnerID    string
	IssueFrom  *time.Time
	IssueTo    *time.Time
	MinTotal   *decimal.Decimal
	MaxTotal   *decimal.Decimal
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Quote], error) {
	q := query.NewFilter().
		Search(f.SearchText, "number", "notes").
		Eq("status", f.Status).
		Eq("company_id", f.CompanyID).
		Eq("owner_id", f.OwnerID).
		Range("issue_date", f.IssueFrom, f.IssueTo).
		Range("total", f.MinTotal, f.MaxTotal)
	return query.List[models.Quote](s.Conn(ctx), q, p, sortColumns, "Company")
}

// Get loads a quote with its ordered lines and client company.
func (s *Service) Get(ctx context.Context, id uint) (*models.Quote, error) {
	return get(s.Conn(ctx), id)
}

func get(db *gorm.DB, id uint) (*models.Quote, error) {
	var q models.Quote
	err := db.Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("line_number") }).
		Preload("Company").
		First(&q, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &q, nil
}

func checkParties(db *gorm.DB, companyID uint, contactID *uint) error {
	if err := services.MustExist[models.Company](db, "company", companyID); err != nil {
		return err
	}
	if contactID == nil {
		return nil
	}
	c, err := services.Find[models.Contact](db, "contact", *contactID)
	if err != nil {
		return err
	}
	if c.OwnerType != models.OwnerCompany || c.OwnerID != companyID {
		return apperr.Validation("contact %d does not belong to company %d", c.ID, companyID).
			WithDetail("field", "contactId")
	}
	return nil
}

func discount(percent, amount decimal.Decimal) money.Discount {
	return money.Discount{Percent: percent, Amount: amount}
}

// price recomputes q's totals from items and rewrites the line amounts.
func price(q *models.Quote, items []models.QuoteItem, d money.Discount) error {
	lines := make([]*models.LineItem, len(items))
	for i := range items {
		lines[i] = &items[i].LineItem
	}
	return services.Price(&q.Totals, lines, d, decimal.Zero)
}

func toItems(lines []models.LineItem) []models.QuoteItem {
	items := make([]models.QuoteItem, len(lines))
	for i, l := range lines {
		items[i] = models.QuoteItem{LineItem: services.CopyLine(l)}
	}
	return items
}

// Create prices and numbers a new draft quote in one transaction.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Quote, error) {
	now := s.Now()
	q := &models.Quote{
		CompanyID: in.CompanyID,
		ContactID: in.ContactID,
		Status:    models.QuoteDraft,
		IssueDate: now,
		Currency:  in.Currency,
		Notes:     in.Notes,
		Terms:     in.Terms,
		OwnerID:   in.OwnerID,
	}
	if in.IssueDate != nil {
		q.IssueDate = *in.IssueDate
	}
	q.ValidUntil = q.IssueDate.Add(defaultValidity)
	if in.ValidUntil != nil {
		q.ValidUntil = *in.ValidUntil
	}
	if q.ValidUntil.Before(q.IssueDate) {
		return nil, apperr.Validation("validUntil must not be before issueDate")
	}
	if q.Currency == "" {
		q.Currency = "EUR"
	}

	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if err := checkParties(tx, q.CompanyID, q.ContactID); err != nil {
			return err
		}
		lines, err := services.BuildLines(tx, in.Items)
		if err != nil {
			return err
		}
		q.Items = toItems(lines)
		if err := price(q, q.Items, discount(in.DiscountPercent, in.DiscountAmount)); err != nil {
			return err
		}
		if q.Number, err = numbering.Yearly(tx, numbering.ScopeQuote, q.IssueDate); err != nil {
			return err
		}
		if err := tx.Create(q).Error; err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, q.ID)
}

// Update edits an open quote and recomputes its totals.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Quote, error) {
	if in.Items != nil && len(in.Items) == 0 {
		return nil, apperr.Validation("at least one line item is required")
	}
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		q, err := services.FindForUpdate[models.Quote](tx, entity, id)
		if err != nil {
			return err
		}
		if err := Machine.CheckEditable(q.Status); err != nil {
			return err
		}
		if in.ContactID != nil {
			if err := checkParties(tx, q.CompanyID, in.ContactID); err != nil {
				return err
			}
		}

		p := query.Patch{}
		query.Set(p, "contact_id", in.ContactID)
		query.Set(p, "issue_date", in.IssueDate)
		query.Set(p, "valid_until", in.ValidUntil)
		query.Set(p, "currency", in.Currency)
		query.Set(p, "notes", in.Notes)
		query.Set(p, "terms", in.Terms)

		issue, valid := q.IssueDate, q.ValidUntil
		if in.IssueDate != nil {
			issue = *in.IssueDate
		}
		if in.ValidUntil != nil {
			valid = *in.ValidUntil
		}
		if valid.Before(issue) {
			return apperr.Validation("validUntil must not be before issueDate")
		}

		if in.Items != nil || in.DiscountPercent != nil || in.DiscountAmount != nil {
			if err := s.reprice(tx, q, in, p); err != nil {
				return err
			}
		}
		if p.Empty() {
			return apperr.Validation("no fields to update")
		}
		return p.Apply(tx, q)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) reprice(tx *gorm.DB, q *models.Quote, in UpdateInput, p query.Patch) error {
	d := discount(q.DiscountPercent, q.DiscountAmount)
	switch {
	case in.DiscountPercent != nil:
		d = discount(*in.DiscountPercent, decimal.Zero)
	case in.DiscountAmount != nil:
		d = discount(decimal.Zero, *in.DiscountAmount)
	}

	var items []models.QuoteItem
	if in.Items != nil {
		lines, err := services.BuildLines(tx, in.Items)
		if err != nil {
			return err
		}
		items = toItems(lines)
	} else if err := tx.Where("quote_id = ?", q.ID).Order("line_number").Find(&items).Error; err != nil {
		return fmt.Errorf("load quote items: %w", err)
	}

	if err := price(q, items, d); err != nil {
		return err
	}
	if in.Items != nil {
		if err := tx.Where("quote_id = ?", q.ID).Delete(&models.QuoteItem{}).Error; err != nil {
			return fmt.Errorf("replace quote items: %w", err)
		}
		for i := range items {
			items[i].QuoteID = q.ID
		}
		if err := tx.Create(&items).Error; err != nil {
			return fmt.Errorf("replace quote items: %w", err)
		}
	} else {
		for i := range items {
			if err := tx.Model(&items[i]).Updates(map[string]any{
				"line_number": items[i].LineNumber,
				"tax_amount":  items[i].TaxAmount,
				"line_total":  items[i].LineTotal,
			}).Error; err != nil {
				return fmt.Errorf("update quote item: %w", err)
			}
		}
	}
	p.Put("subtotal", q.Subtotal)
	p.Put("discount_percent", q.DiscountPercent)
	p.Put("discount_amount", q.DiscountAmount)
	p.Put("tax_amount", q.TaxAmount)
	p.Put("total", q.Total)
	return nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Quote](s.Conn(ctx), entity, id)
}

// CloneInput optionally overrides the status of the copy.
type CloneInput struct {
	Status *models.QuoteStatus `json:"status" validate:"omitempty,oneof=draft sent"`
	UserID string              `json:"-"`
}

// Clone copies a quote under a new number. The validity window keeps its
// length and starts today.
func (s *Service) Clone(ctx context.Context, id uint, in CloneInput) (*models.Quote, error) {
	status := models.QuoteDraft
	if in.Status != nil {
		if *in.Status != models.QuoteDraft && *in.Status != models.QuoteSent {
			return nil, apperr.Validation("clone status must be draft or sent")
		}
		status = *in.Status
	}
	now := s.Now()

	var cloneID uint
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		src, err := get(tx, id)
		if err != nil {
			return err
		}
		c := &models.Quote{
			CompanyID:  src.CompanyID,
			ContactID:  src.ContactID,
			Status:     status,
			IssueDate:  now,
			ValidUntil: now.Add(src.ValidUntil.Sub(src.IssueDate)),
			Currency:   src.Currency,
			Totals:     src.Totals,
			Notes:      src.Notes,
			Terms:      src.Terms,
			OwnerID:    in.UserID,
		}
		if status == models.QuoteSent {
			c.SentAt = &now
			c.SentBy = actor(in.UserID)
		}
		c.Items = make([]models.QuoteItem, len(src.Items))
		for i, it := range src.Items {
			c.Items[i] = models.QuoteItem{LineItem: services.CopyLine(it.LineItem)}
		}
		if c.Number, err = numbering.Yearly(tx, numbering.ScopeQuote, now); err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to clone quote: %w", err)
		}
		cloneID = c.ID
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, cloneID)
}

func actor(userID string) *string {
	if userID == "" {
		return nil
	}
	return &userID
}
