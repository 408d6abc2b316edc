// Package users manages the login accounts of a tenant.
package users

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/access"
	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/utils"
)

const entity = "user"

const DefaultPageSize = 20

var sortColumns = query.Sort{
	Columns: map[string]string{
		"email":     "email",
		"name":      "name",
		"role":      "role",
		"lastLogin": "last_login",
		"createdAt": "created_at",
	},
	Default: "email ASC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type CreateInput struct {
	Email       string   `json:"email" validate:"required,email,max=255"`
	Password    string   `json:"password" validate:"required,min=8,max=72"`
	Name        string   `json:"name" validate:"max=200"`
	Role        string   `json:"role" validate:"omitempty,oneof=admin manager user"`
	Permissions []string `json:"permissions"`
	EmployeeID  *uint    `json:"employeeId"`
}

type UpdateInput struct {
	Name        *string  `json:"name" validate:"omitempty,max=200"`
	Password    *string  `json:"password" validate:"omitempty,min=8,max=72"`
	Role        *string  `json:"role" validate:"omitempty,oneof=admin manager user"`
	Permissions []string `json:"permissions"`
	IsActive    *bool    `json:"isActive"`
	EmployeeID  *uint    `json:"employeeId"`
}

type Filter struct {
	SearchText string
	Role       string
	IsActive   *bool
}

func checkPermissions(perms []string) error {
	for _, p := range perms {
		res, act := access.Permission(p).Parse()
		if res == "" || act == "" {
			return apperr.Validation("invalid permission %q, want resource:action", p).WithDetail("permission", p)
		}
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Authenticate checks credentials and stamps last_login. Unknown emails,
// wrong passwords and inactive accounts all fail the same way.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*models.UserAuth, error) {
	var u models.UserAuth
	err := s.Conn(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if err != nil || !u.IsActive || !utils.CheckPasswordHash(password, u.Password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	now := s.Now()
	if err := s.Conn(ctx).Model(&u).UpdateColumn("last_login", now).Error; err != nil {
		return nil, fmt.Errorf("update last login: %w", err)
	}
	u.LastLogin = &now
	return &u, nil
}

// Active loads a user that may still hold a session.
func (s *Service) Active(ctx context.Context, id string) (*models.UserAuth, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		if apperr.IsKind(err, apperr.KindNotFound) {
			return nil, apperr.Unauthorized("user no longer exists")
		}
		return nil, err
	}
	if !u.IsActive {
		return nil, apperr.Unauthorized("user is inactive")
	}
	return u, nil
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.UserAuth], error) {
	q := query.NewFilter().
		Search(f.SearchText, "email", "name").
		Eq("role", f.Role).
		Eq("is_active", f.IsActive)
	return query.List[models.UserAuth](s.Conn(ctx), q, p, sortColumns)
}

func (s *Service) Get(ctx context.Context, id string) (*models.UserAuth, error) {
	var u models.UserAuth
	if err := s.Conn(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &u, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.UserAuth, error) {
	if err := checkPermissions(in.Permissions); err != nil {
		return nil, err
	}
	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	perms := in.Permissions
	if perms == nil {
		perms = []string{}
	}
	u := &models.UserAuth{
		Email:       normalizeEmail(in.Email),
		Password:    hash,
		Name:        in.Name,
		Role:        in.Role,
		Permissions: datatypes.NewJSONType(perms),
		EmployeeID:  in.EmployeeID,
		IsActive:    true,
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	err = s.Tx(ctx, func(tx *gorm.DB) error {
		if u.EmployeeID != nil {
			if err := services.MustExist[models.Employee](tx, "employee", *u.EmployeeID); err != nil {
				return err
			}
		}
		if err := tx.Create(u).Error; err != nil {
			if apperr.IsUniqueViolation(err) {
				return apperr.Validation("user email already exists")
			}
			return fmt.Errorf("failed to create user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*models.UserAuth, error) {
	p := query.Patch{}
	query.Set(p, "name", in.Name)
	query.Set(p, "role", in.Role)
	query.Set(p, "is_active", in.IsActive)
	query.Set(p, "employee_id", in.EmployeeID)
	if in.Permissions != nil {
		if err := checkPermissions(in.Permissions); err != nil {
			return nil, err
		}
		p.Put("permissions", datatypes.NewJSONType(in.Permissions))
	}
	if in.Password != nil {
		hash, err := utils.HashPassword(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		p.Put("password", hash)
	}
	if p.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.EmployeeID != nil {
		if err := services.MustExist[models.Employee](s.Conn(ctx), "employee", *in.EmployeeID); err != nil {
			return nil, err
		}
	}
	if err := p.Apply(s.Conn(ctx), u); err != nil {
		return nil, fmt.Errorf("update user: %w", err)
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	res := s.Conn(ctx).Where("id = ?", id).Delete(&models.UserAuth{})
	if res.Error != nil {
		return fmt.Errorf("delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}
