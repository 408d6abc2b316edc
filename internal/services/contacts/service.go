// Package contacts manages the contacts and addresses hanging off
// companies, employees and suppliers.
package contacts

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const DefaultPageSize = 50

var contactSort = query.Sort{
	Columns: map[string]string{
		"lastName":  "last_name",
		"firstName": "first_name",
		"createdAt": "created_at",
	},
	Default: "is_primary DESC, last_name ASC, first_name ASC",
}

var addressSort = query.Sort{
	Columns: map[string]string{
		"city":      "city",
		"type":      "type",
		"createdAt": "created_at",
	},
	Default: "is_primary DESC, id ASC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

// OwnerQuery selects the sub-records of one owner. Both fields are required.
type OwnerQuery struct {
	OwnerType models.OwnerKind
	OwnerID   uint
}

func (q OwnerQuery) owner() (models.Owner, error) {
	if q.OwnerType == "" || q.OwnerID == 0 {
		return models.Owner{}, apperr.Validation("ownerType and ownerId are required")
	}
	if !q.OwnerType.Valid() {
		return models.Owner{}, apperr.Validation("invalid ownerType %q", q.OwnerType)
	}
	return models.Owner{Kind: q.OwnerType, ID: q.OwnerID}, nil
}

// CheckOwner returns NotFound unless the referenced owner is live.
func CheckOwner(db *gorm.DB, o models.Owner) error {
	switch o.Kind {
	case models.OwnerCompany:
		return services.MustExist[models.Company](db, "company", o.ID)
	case models.OwnerEmployee:
		return services.MustExist[models.Employee](db, "employee", o.ID)
	case models.OwnerSupplier:
		return services.MustExist[models.Supplier](db, "supplier", o.ID)
	}
	return apperr.Validation("invalid ownerType %q", o.Kind)
}

// clearPrimary unsets is_primary on every other row of the owner.
func clearPrimary[T any](tx *gorm.DB, o models.Owner, keep uint) error {
	err := tx.Model(new(T)).
		Where("owner_type = ? AND owner_id = ? AND id <> ?", o.Kind, o.ID, keep).
		Update("is_primary", false).Error
	if err != nil {
		return fmt.Errorf("clear primary: %w", err)
	}
	return nil
}

type ContactInput struct {
	OwnerType models.OwnerKind `json:"ownerType" validate:"required,oneof=company employee supplier"`
	OwnerID   uint             `json:"ownerId" validate:"required"`
	FirstName string           `json:"firstName" validate:"required,max=100"`
	LastName  string           `json:"lastName" validate:"max=100"`
	Email     string           `json:"email" validate:"omitempty,email"`
	Phone     string           `json:"phone" validate:"max=50"`
	Position  string           `json:"position" validate:"max=100"`
	IsPrimary bool             `json:"isPrimary"`
}

type ContactUpdate struct {
	FirstName *string `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName  *string `json:"lastName" validate:"omitempty,max=100"`
	Email     *string `json:"email" validate:"omitempty,email"`
	Phone     *string `json:"phone" validate:"omitempty,max=50"`
	Position  *string `json:"position" validate:"omitempty,max=100"`
	IsPrimary *bool   `json:"isPrimary"`
}

func (s *Service) ListContacts(ctx context.Context, q OwnerQuery, p query.PageRequest) (query.Page[models.Contact], error) {
	o, err := q.owner()
	if err != nil {
		return query.Page[models.Contact]{}, err
	}
	f := query.NewFilter().Eq("owner_type", o.Kind).Eq("owner_id", o.ID)
	return query.List[models.Contact](s.Conn(ctx), f, p, contactSort)
}

func (s *Service) GetContact(ctx context.Context, id uint) (*models.Contact, error) {
	return services.Find[models.Contact](s.Conn(ctx), "contact", id)
}

func (s *Service) CreateContact(ctx context.Context, in ContactInput) (*models.Contact, error) {
	o, err := OwnerQuery{OwnerType: in.OwnerType, OwnerID: in.OwnerID}.owner()
	if err != nil {
		return nil, err
	}
	c := &models.Contact{
		OwnerType: o.Kind,
		OwnerID:   o.ID,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Position:  in.Position,
		IsPrimary: in.IsPrimary,
	}
	err = s.Tx(ctx, func(tx *gorm.DB) error {
		if err := CheckOwner(tx, o); err != nil {
			return err
		}
		if err := tx.Create(c).Error; err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}
		if c.IsPrimary {
			return clearPrimary[models.Contact](tx, o, c.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (s *Service) UpdateContact(ctx context.Context, id uint, in ContactUpdate) (*models.Contact, error) {
	p := query.Patch{}
	query.Set(p, "first_name", in.FirstName)
	query.Set(p, "last_name", in.LastName)
	query.Set(p, "email", in.Email)
	query.Set(p, "phone", in.Phone)
	query.Set(p, "position", in.Position)
	query.Set(p, "is_primary", in.IsPrimary)

	var out *models.Contact
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		c, err := services.Update[models.Contact](tx, "contact", id, p)
		if err != nil {
			return err
		}
		if in.IsPrimary != nil && *in.IsPrimary {
			if err := clearPrimary[models.Contact](tx, models.Owner{Kind: c.OwnerType, ID: c.OwnerID}, c.ID); err != nil {
				return err
			}
		}
		out = c
		return nil
	})
	return out, err
}

func (s *Service) DeleteContact(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Contact](s.Conn(ctx), "contact", id)
}

type AddressInput struct {
	OwnerType  models.OwnerKind   `json:"ownerType" validate:"required,oneof=company employee supplier"`
	OwnerID    uint               `json:"ownerId" validate:"required"`
	Type       models.AddressType `json:"type" validate:"omitempty,oneof=billing shipping office home"`
	Line1      string             `json:"line1" validate:"required,max=255"`
	Line2      string             `json:"line2" validate:"max=255"`
	City       string             `json:"city" validate:"required,max=100"`
	State      string             `json:"state" validate:"max=100"`
	PostalCode string             `json:"postalCode" validate:"max=20"`
	Country    string             `json:"country" validate:"required,len=2"`
	IsPrimary  bool               `json:"isPrimary"`
}

type AddressUpdate struct {
	Type       *models.AddressType `json:"type" validate:"omitempty,oneof=billing shipping office home"`
	Line1      *string             `json:"line1" validate:"omitempty,min=1,max=255"`
	Line2      *string             `json:"line2" validate:"omitempty,max=255"`
	City       *string             `json:"city" validate:"omitempty,min=1,max=100"`
	State      *string             `json:"state" validate:"omitempty,max=100"`
	PostalCode *string             `json:"postalCode" validate:"omitempty,max=20"`
	Country    *string             `json:"country" validate:"omitempty,len=2"`
	IsPrimary  *bool               `json:"isPrimary"`
}

func (s *Service) ListAddresses(ctx context.Context, q OwnerQuery, p query.PageRequest) (query.Page[models.Address], error) {
	o, err := q.owner()
	if err != nil {
		return query.Page[models.Address]{}, err
	}
	f := query.NewFilter().Eq("owner_type", o.Kind).Eq("owner_id", o.ID)
	return query.List[models.Address](s.Conn(ctx), f, p, addressSort)
}

func (s *Service) GetAddress(ctx context.Context, id uint) (*models.Address, error) {
	return services.Find[models.Address](s.Conn(ctx), "address", id)
}

func (s *Service) CreateAddress(ctx context.Context, in AddressInput) (*models.Address, error) {
	o, err := OwnerQuery{OwnerType: in.OwnerType, OwnerID: in.OwnerID}.owner()
	if err != nil {
		return nil, err
	}
	a := &models.Address{
		OwnerType:  o.Kind,
		OwnerID:    o.ID,
		Type:       in.Type,
		Line1:      in.Line1,
		Line2:      in.Line2,
		City:       in.City,
		State:      in.State,
		PostalCode: in.PostalCode,
		Country:    in.Country,
		IsPrimary:  in.IsPrimary,
	}
	if a.Type == "" {
		a.Type = models.AddressOffice
	}
	err = s.Tx(ctx, func(tx *gorm.DB) error {
		if err := CheckOwner(tx, o); err != nil {
			return err
		}
		if err := tx.Create(a).Error; err != nil {
			return fmt.Errorf("failed to create address: %w", err)
		}
		if a.IsPrimary {
			return clearPrimary[models.Address](tx, o, a.ID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Service) UpdateAddress(ctx context.Context, id uint, in AddressUpdate) (*models.Address, error) {
	p := query.Patch{}
	query.Set(p, "type", in.Type)
	query.Set(p, "line1", in.Line1)
	query.Set(p, "line2", in.Line2)
	query.Set(p, "city", in.City)
	query.Set(p, "state", in.State)
	query.Set(p, "postal_code", in.PostalCode)
	query.Set(p, "country", in.Country)
	query.Set(p, "is_primary", in.IsPrimary)

	var out *models.Address
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		a, err := services.Update[models.Address](tx, "address", id, p)
		if err != nil {
			return err
		}
		if in.IsPrimary != nil && *in.IsPrimary {
			if err := clearPrimary[models.Address](tx, models.Owner{Kind: a.OwnerType, ID: a.OwnerID}, a.ID); err != nil {
				return err
			}
		}
		out = a
		return nil
	})
	return out, err
}

func (s *Service) DeleteAddress(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Address](s.Conn(ctx), "address", id)
}
