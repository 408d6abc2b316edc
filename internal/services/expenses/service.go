// Package expenses implements employee expense claims and their approval flow.
package expenses

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/numbering"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "expense claim"

const DefaultPageSize = 20

const (
	ActionSubmit  = "submit"
	ActionApprove = "approve"
	ActionReject  = "reject"
	ActionPay     = "pay"
)

// Machine is the claim approval flow. Only drafts can be edited.
var Machine = lifecycle.New("expense claim", map[string]lifecycle.Transition[models.ExpenseStatus]{
	ActionSubmit:  {From: []models.ExpenseStatus{models.ExpenseDraft}, To: models.ExpenseSubmitted},
	ActionApprove: {From: []models.ExpenseStatus{models.ExpenseSubmitted}, To: models.ExpenseApproved},
	ActionReject:  {From: []models.ExpenseStatus{models.ExpenseSubmitted}, To: models.ExpenseRejected},
	ActionPay:     {From: []models.ExpenseStatus{models.ExpenseApproved}, To: models.ExpensePaid},
}, models.ExpenseDraft)

var sortColumns = query.Sort{
	Columns: map[string]string{
		"number":      "number",
		"totalAmount": "total_amount",
		"status":      "status",
		"submittedAt": "submitted_at",
		"createdAt":   "created_at",
	},
	Default: "created_at DESC, id DESC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type ItemInput struct {
	Date        time.Time       `json:"date" validate:"required"`
	Category    string          `json:"category" validate:"required,max=50"`
	Description string          `json:"description" validate:"max=500"`
	Amount      decimal.Decimal `json:"amount"`
	TaxAmount   decimal.Decimal `json:"taxAmount"`
	ReceiptURL  string          `json:"receiptUrl" validate:"omitempty,url,max=500"`
}

type CreateInput struct {
	EmployeeID  uint        `json:"employeeId" validate:"required"`
	Title       string      `json:"title" validate:"required,max=200"`
	Description string      `json:"description"`
	Currency    string      `json:"currency" validate:"omitempty,len=3"`
	Items       []ItemInput `json:"items" validate:"dive"`
}

// UpdateInput edits a draft claim. A non-nil Items replaces every receipt.
type UpdateInput struct {
	Title       *string     `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string     `json:"description"`
	Currency    *string     `json:"currency" validate:"omitempty,len=3"`
	Items       []ItemInput `json:"items" validate:"omitempty,dive"`
}

type Filter struct {
	SearchText string
	Status     string
	EmployeeID *uint
	From       *time.Time
	To         *time.Time
}

func buildItems(in []ItemInput) ([]models.ExpenseItem, decimal.Decimal, error) {
	items := make([]models.ExpenseItem, len(in))
	total := decimal.Zero
	for i, it := range in {
		if it.Date.IsZero() {
			return nil, decimal.Zero, apperr.Validation("item %d: date is required", i+1)
		}
		if !it.Amount.IsPositive() {
			return nil, decimal.Zero, apperr.Validation("item %d: amount must be positive", i+1)
		}
		if it.TaxAmount.IsNegative() {
			return nil, decimal.Zero, apperr.Validation("item %d: tax amount must not be negative", i+1)
		}
		items[i] = models.ExpenseItem{
			Date:        it.Date,
			Category:    it.Category,
			Description: it.Description,
			Amount:      it.Amount.Round(2),
			TaxAmount:   it.TaxAmount.Round(2),
			ReceiptURL:  it.ReceiptURL,
		}
		total = total.Add(items[i].Amount).Add(items[i].TaxAmount)
	}
	return items, total, nil
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.ExpenseClaim], error) {
	q := query.NewFilter().
		Search(f.SearchText, "number", "title").
		Eq("status", f.Status).
		Eq("employee_id", f.EmployeeID).
		Range("created_at", f.From, f.To)
	return query.List[models.ExpenseClaim](s.Conn(ctx), q, p, sortColumns, "Employee")
}

func (s *Service) Get(ctx context.Context, id uint) (*models.ExpenseClaim, error) {
	var c models.ExpenseClaim
	err := s.Conn(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("date, id") }).
		Preload("Employee").
		First(&c, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &c, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.ExpenseClaim, error) {
	items, total, err := buildItems(in.Items)
	if err != nil {
		return nil, err
	}
	c := &models.ExpenseClaim{
		EmployeeID:  in.EmployeeID,
		Title:       in.Title,
		Description: in.Description,
		Status:      models.ExpenseDraft,
		Currency:    in.Currency,
		TotalAmount: total,
		Items:       items,
	}
	if c.Currency == "" {
		c.Currency = "EUR"
	}
	err = s.Tx(ctx, func(tx *gorm.DB) error {
		if err := services.MustExist[models.Employee](tx, "employee", c.EmployeeID); err != nil {
			return err
		}
		var err error
		if c.Number, err = numbering.Yearly(tx, numbering.ScopeExpense, s.Now()); err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create expense claim: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, c.ID)
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.ExpenseClaim, error) {
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		c, err := services.FindForUpdate[models.ExpenseClaim](tx, entity, id)
		if err != nil {
			return err
		}
		if err := Machine.CheckEditable(c.Status); err != nil {
			return err
		}
		p := query.Patch{}
		query.Set(p, "title", in.Title)
		query.Set(p, "description", in.Description)
		query.Set(p, "currency", in.Currency)
		if in.Items != nil {
			items, total, err := buildItems(in.Items)
			if err != nil {
				return err
			}
			if err := tx.Where("claim_id = ?", c.ID).Delete(&models.ExpenseItem{}).Error; err != nil {
				return fmt.Errorf("replace expense items: %w", err)
			}
			for i := range items {
				items[i].ClaimID = c.ID
			}
			if len(items) > 0 {
				if err := tx.Create(&items).Error; err != nil {
					return fmt.Errorf("replace expense items: %w", err)
				}
			}
			p.Put("total_amount", total)
		}
		if p.Empty() {
			return apperr.Validation("no fields to update")
		}
		return p.Apply(tx, c)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.ExpenseClaim](s.Conn(ctx), entity, id)
}

func (s *Service) transition(ctx context.Context, id uint, action string, apply func(tx *gorm.DB, c *models.ExpenseClaim, p query.Patch) error) (*models.ExpenseClaim, error) {
	var c *models.ExpenseClaim
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if c, err = services.FindForUpdate[models.ExpenseClaim](tx, entity, id); err != nil {
			return err
		}
		next, err := Machine.Next(action, c.Status)
		if err != nil {
			return err
		}
		p := query.Patch{"status": next}
		if err := apply(tx, c, p); err != nil {
			return err
		}
		c.Status = next
		return p.Apply(tx, c)
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, action, c.ID, c.Number, string(c.Status))
	return s.Get(ctx, id)
}

// Submit sends a draft for approval. A claim without receipts cannot be submitted.
func (s *Service) Submit(ctx context.Context, id uint) (*models.ExpenseClaim, error) {
	return s.transition(ctx, id, ActionSubmit, func(tx *gorm.DB, c *models.ExpenseClaim, p query.Patch) error {
		var n int64
		if err := tx.Model(&models.ExpenseItem{}).Where("claim_id = ?", c.ID).Count(&n).Error; err != nil {
			return fmt.Errorf("count expense items: %w", err)
		}
		if n == 0 {
			return apperr.Validation("cannot submit an expense claim without items")
		}
		p.Put("submitted_at", s.Now())
		return nil
	})
}

func (s *Service) Approve(ctx context.Context, id uint, userID string) (*models.ExpenseClaim, error) {
	return s.transition(ctx, id, ActionApprove, func(_ *gorm.DB, _ *models.ExpenseClaim, p query.Patch) error {
		p.Put("approved_at", s.Now())
		p.Put("approved_by", userID)
		return nil
	})
}

func (s *Service) Reject(ctx context.Context, id uint, userID, reason string) (*models.ExpenseClaim, error) {
	return s.transition(ctx, id, ActionReject, func(_ *gorm.DB, _ *models.ExpenseClaim, p query.Patch) error {
		p.Put("rejected_at", s.Now())
		p.Put("rejected_by", userID)
		p.Put("rejection_reason", reason)
		return nil
	})
}

func (s *Service) Pay(ctx context.Context, id uint, reference string) (*models.ExpenseClaim, error) {
	return s.transition(ctx, id, ActionPay, func(_ *gorm.DB, _ *models.ExpenseClaim, p query.Patch) error {
		p.Put("paid_at", s.Now())
		p.Put("payment_reference", reference)
		return nil
	})
}

type AmountBy struct {
	Key    string          `gorm:"column:group_key" json:"key"`
	Count  int64           `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

type Stats struct {
	ByStatus   []AmountBy `json:"byStatus"`
	ByCategory []AmountBy `json:"byCategory"`
}

// Stats sums claim totals by status and item amounts (tax included) by category.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.Conn(ctx)
	out := &Stats{ByStatus: []AmountBy{}, ByCategory: []AmountBy{}}
	err := db.Model(&models.ExpenseClaim{}).
		Select("status AS group_key, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS amount").
		Group("status").Order("status").
		Scan(&out.ByStatus).Error
	if err != nil {
		return nil, fmt.Errorf("expense stats by status: %w", err)
	}
	err = db.Table("expense_items").
		Select("expense_items.category AS group_key, COUNT(*) AS count, COALESCE(SUM(expense_items.amount + expense_items.tax_amount), 0) AS amount").
		Joins("JOIN expense_claims ON expense_claims.id = expense_items.claim_id AND expense_claims.deleted_at IS NULL").
		Group("expense_items.category").Order("expense_items.category").
		Scan(&out.ByCategory).Error
	if err != nil {
		return nil, fmt.Errorf("expense stats by category: %w", err)
	}
	return out, nil
}

// PendingApproval counts submitted claims.
func PendingApproval(db *gorm.DB) (int64, error) {
	var n int64
	err := db.Model(&models.ExpenseClaim{}).Where("status = ?", models.ExpenseSubmitted).Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count pending expenses: %w", err)
	}
	return n, nil
}
