package suppliers

import (
	"context"
	"fmt"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "supplier"

const DefaultPageSize = 20

var sortColumns = query.Sort{
	Columns: map[string]string{
		"code":      "code",
		"name":      "name",
		"rating":    "rating",
		"status":    "status",
		"createdAt": "created_at",
	},
	Default: "name ASC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type CreateInput struct {
	Code         string              `json:"code" validate:"required,max=32"`
	Name         string              `json:"name" validate:"required,max=200"`
	TaxID        string              `json:"taxId" validate:"max=50"`
	Email        string              `json:"email" validate:"omitempty,email"`
	Phone        string              `json:"phone" validate:"max=50"`
	Website      string              `json:"website" validate:"omitempty,url"`
	PaymentTerms *int                `json:"paymentTerms" validate:"omitempty,min=0,max=365"`
	Rating       int                 `json:"rating" validate:"min=0,max=5"`
	Status       models.RecordStatus `json:"status" validate:"omitempty,oneof=active inactive blocked"`
	Notes        string              `json:"notes"`
}

type UpdateInput struct {
	Code         *string              `json:"code" validate:"omitempty,min=1,max=32"`
	Name         *string              `json:"name" validate:"omitempty,min=1,max=200"`
	TaxID        *string              `json:"taxId" validate:"omitempty,max=50"`
	Email        *string              `json:"email" validate:"omitempty,email"`
	Phone        *string              `json:"phone" validate:"omitempty,max=50"`
	Website      *string              `json:"website" validate:"omitempty,url"`
	PaymentTerms *int                 `json:"paymentTerms" validate:"omitempty,min=0,max=365"`
	Rating       *int                 `json:"rating" validate:"omitempty,min=0,max=5"`
	Status       *models.RecordStatus `json:"status" validate:"omitempty,oneof=active inactive blocked"`
	Notes        *string              `json:"notes"`
}

type Filter struct {
	SearchText string
	Status     string
	MinRating  *int
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Supplier], error) {
	q := query.NewFilter().
		Search(f.SearchText, "name", "code", "tax_id", "email").
		Eq("status", f.Status).
		Gte("rating", f.MinRating)
	return query.List[models.Supplier](s.Conn(ctx), q, p, sortColumns)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Supplier, error) {
	return services.Find[models.Supplier](s.Conn(ctx), entity, id, "Contacts", "Addresses")
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Supplier, error) {
	sup := &models.Supplier{
		Code:         in.Code,
		Name:         in.Name,
		TaxID:        in.TaxID,
		Email:        in.Email,
		Phone:        in.Phone,
		Website:      in.Website,
		PaymentTerms: 30,
		Rating:       in.Rating,
		Status:       in.Status,
		Notes:        in.Notes,
	}
	if in.PaymentTerms != nil {
		sup.PaymentTerms = *in.PaymentTerms
	}
	if sup.Status == "" {
		sup.Status = models.StatusActive
	}
	if err := s.Conn(ctx).Create(sup).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return nil, apperr.Validation("supplier code already exists")
		}
		return nil, fmt.Errorf("failed to create supplier: %w", err)
	}
	return sup, nil
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Supplier, error) {
	p := query.Patch{}
	query.Set(p, "code", in.Code)
	query.Set(p, "name", in.Name)
	query.Set(p, "tax_id", in.TaxID)
	query.Set(p, "email", in.Email)
	query.Set(p, "phone", in.Phone)
	query.Set(p, "website", in.Website)
	query.Set(p, "payment_terms", in.PaymentTerms)
	query.Set(p, "rating", in.Rating)
	query.Set(p, "status", in.Status)
	query.Set(p, "notes", in.Notes)

	sup, err := services.Update[models.Supplier](s.Conn(ctx), entity, id, p)
	if apperr.IsKind(err, apperr.KindConflict) {
		return nil, apperr.Validation("supplier code already exists")
	}
	return sup, err
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Supplier](s.Conn(ctx), entity, id)
}

// Stats summarizes the supplier base.
type Stats struct {
	Total         int64            `json:"total"`
	ByStatus      []services.Count `json:"byStatus"`
	AverageRating float64          `json:"averageRating"`
	ProductCount  int64            `json:"productCount"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.Conn(ctx)
	out := &Stats{}
	if err := db.Model(&models.Supplier{}).Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("count suppliers: %w", err)
	}
	var err error
	if out.ByStatus, err = services.CountBy[models.Supplier](db, "status"); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Supplier{}).Select("COALESCE(AVG(rating), 0)").Scan(&out.AverageRating).Error; err != nil {
		return nil, fmt.Errorf("average rating: %w", err)
	}
	if err := db.Model(&models.Product{}).Where("supplier_id IS NOT NULL").Count(&out.ProductCount).Error; err != nil {
		return nil, fmt.Errorf("count supplied products: %w", err)
	}
	return out, nil
}
