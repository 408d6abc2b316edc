package companies

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "company"

// DefaultPageSize applies when the client sends no pageSize.
const DefaultPageSize = 20

var sortColumns = query.Sort{
	Columns: map[string]string{
		"code":      "code",
		"name":      "name",
		"type":      "type",
		"status":    "status",
		"createdAt": "created_at",
	},
	Default: "name ASC",
}

// Service handles company operations
type Service struct {
	services.Base
}

// NewService creates a new company service
func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

// CreateInput is the body of POST /companies.
type CreateInput struct {
	Code        string              `json:"code" validate:"required,max=32"`
	Name        string              `json:"name" validate:"required,max=200"`
	TradeName   string              `json:"tradeName" validate:"max=200"`
	TaxID       string              `json:"taxId" validate:"max=50"`
	Industry    string              `json:"industry" validate:"max=100"`
	Website     string              `json:"website" validate:"omitempty,url"`
	Email       string              `json:"email" validate:"omitempty,email"`
	Phone       string              `json:"phone" validate:"max=50"`
	Type        models.CompanyType  `json:"type" validate:"omitempty,oneof=customer prospect partner supplier"`
	Status      models.RecordStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	CreditLimit decimal.Decimal     `json:"creditLimit"`
	Notes       string              `json:"notes"`
}

// UpdateInput is the body of PUT /companies/{id}; absent fields are left alone.
type UpdateInput struct {
	Code        *string              `json:"code" validate:"omitempty,min=1,max=32"`
	Name        *string              `json:"name" validate:"omitempty,min=1,max=200"`
	TradeName   *string              `json:"tradeName" validate:"omitempty,max=200"`
	TaxID       *string              `json:"taxId" validate:"omitempty,max=50"`
	Industry    *string              `json:"industry" validate:"omitempty,max=100"`
	Website     *string              `json:"website" validate:"omitempty,url"`
	Email       *string              `json:"email" validate:"omitempty,email"`
	Phone       *string              `json:"phone" validate:"omitempty,max=50"`
	Type        *models.CompanyType  `json:"type" validate:"omitempty,oneof=customer prospect partner supplier"`
	Status      *models.RecordStatus `json:"status" validate:"omitempty,oneof=active inactive"`
	CreditLimit *decimal.Decimal     `json:"creditLimit"`
	Notes       *string              `json:"notes"`
}

// Filter narrows GET /companies.
type Filter struct {
	SearchText  string
	Type        string
	Status      string
	Industry    string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// List returns one page of companies matching f.
func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Company], error) {
	q := query.NewFilter().
		Search(f.SearchText, "name", "trade_name", "code", "tax_id").
		Eq("type", f.Type).
		Eq("status", f.Status).
		Eq("industry", f.Industry).
		Range("created_at", f.CreatedFrom, f.CreatedTo)
	return query.List[models.Company](s.Conn(ctx), q, p, sortColumns)
}

// Get returns a company with its contacts and addresses.
func (s *Service) Get(ctx context.Context, id uint) (*models.Company, error) {
	return services.Find[models.Company](s.Conn(ctx), entity, id, "Contacts", "Addresses")
}

// Create inserts a company. Codes are unique across live and deleted rows.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Company, error) {
	if in.CreditLimit.IsNegative() {
		return nil, apperr.Validation("credit limit must not be negative")
	}
	c := &models.Company{
		Code:        in.Code,
		Name:        in.Name,
		TradeName:   in.TradeName,
		TaxID:       in.TaxID,
		Industry:    in.Industry,
		Website:     in.Website,
		Email:       in.Email,
		Phone:       in.Phone,
		Type:        in.Type,
		Status:      in.Status,
		CreditLimit: in.CreditLimit,
		Notes:       in.Notes,
	}
	if c.Type == "" {
		c.Type = models.CompanyCustomer
	}
	if c.Status == "" {
		c.Status = models.StatusActive
	}
	if err := s.Conn(ctx).Create(c).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Validation("company code already exists")
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	return c, nil
}

// Update applies the fields present in in.
func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Company, error) {
	if in.CreditLimit != nil && in.CreditLimit.IsNegative() {
		return nil, apperr.Validation("credit limit must not be negative")
	}
	p := query.Patch{}
	query.Set(p, "code", in.Code)
	query.Set(p, "name", in.Name)
	query.Set(p, "trade_name", in.TradeName)
	query.Set(p, "tax_id", in.TaxID)
	query.Set(p, "industry", in.Industry)
	query.Set(p, "website", in.Website)
	query.Set(p, "email", in.Email)
	query.Set(p, "phone", in.Phone)
	query.Set(p, "type", in.Type)
	query.Set(p, "status", in.Status)
	query.Set(p, "credit_limit", in.CreditLimit)
	query.Set(p, "notes", in.Notes)

	c, err := services.Update[models.Company](s.Conn(ctx), entity, id, p)
	if apperr.IsKind(err, apperr.KindConflict) {
		return nil, apperr.Validation("company code already exists")
	}
	return c, err
}

// Delete soft-deletes a company. Its contacts and addresses are kept.
func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Company](s.Conn(ctx), entity, id)
}

// Stats counts companies by type and by status.
type Stats struct {
	Total    int64            `json:"total"`
	ByType   []services.Count `json:"byType"`
	ByStatus []services.Count `json:"byStatus"`
}

// Stats aggregates live companies.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.Conn(ctx)
	out := &Stats{}
	if err := db.Model(&models.Company{}).Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("count companies: %w", err)
	}
	var err error
	if out.ByType, err = services.CountBy[models.Company](db, "type"); err != nil {
		return nil, err
	}
	if out.ByStatus, err = services.CountBy[models.Company](db, "status"); err != nil {
		return nil, err
	}
	return out, nil
}
