package employees

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/numbering"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "employee"

const DefaultPageSize = 20

var sortColumns = query.Sort{
	Columns: map[string]string{
		"employeeNumber": "employee_number",
		"lastName":       "last_name",
		"firstName":      "first_name",
		"department":     "department",
		"hireDate":       "hire_date",
		"createdAt":      "created_at",
	},
	Default: "last_name ASC, first_name ASC",
}

// Service handles employee operations
type Service struct {
	services.Base
}

// NewService creates a new employee service
func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

// CreateInput is the body of POST /employees. The employee number is assigned.
type CreateInput struct {
	FirstName  string                `json:"firstName" validate:"required,max=100"`
	LastName   string                `json:"lastName" validate:"required,max=100"`
	Email      string                `json:"email" validate:"required,email"`
	Phone      string                `json:"phone" validate:"max=50"`
	Department string                `json:"department" validate:"max=100"`
	Position   string                `json:"position" validate:"max=100"`
	ManagerID  *uint                 `json:"managerId"`
	HireDate   *time.Time            `json:"hireDate"`
	Status     models.EmployeeStatus `json:"status" validate:"omitempty,oneof=active on_leave"`
	Salary     decimal.Decimal       `json:"salary"`
}

// UpdateInput is the body of PUT /employees/{id}. Termination goes through Terminate.
type UpdateInput struct {
	FirstName  *string                `json:"firstName" validate:"omitempty,min=1,max=100"`
	LastName   *string                `json:"lastName" validate:"omitempty,min=1,max=100"`
	Email      *string                `json:"email" validate:"omitempty,email"`
	Phone      *string                `json:"phone" validate:"omitempty,max=50"`
	Department *string                `json:"department" validate:"omitempty,max=100"`
	Position   *string                `json:"position" validate:"omitempty,max=100"`
	ManagerID  *uint                  `json:"managerId"`
	HireDate   *time.Time             `json:"hireDate"`
	Status     *models.EmployeeStatus `json:"status" validate:"omitempty,oneof=active on_leave"`
	Salary     *decimal.Decimal       `json:"salary"`
}

// TerminateInput is the body of POST /employees/{id}/terminate.
type TerminateInput struct {
	Date   *time.Time `json:"date"`
	Reason string     `json:"reason" validate:"max=2000"`
}

// Filter narrows GET /employees.
type Filter struct {
	SearchText string
	Department string
	Status     string
	ManagerID  *uint
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Employee], error) {
	q := query.NewFilter().
		Search(f.SearchText, "first_name", "last_name", "email", "employee_number").
		Eq("department", f.Department).
		Eq("status", f.Status).
		Eq("manager_id", f.ManagerID)
	return query.List[models.Employee](s.Conn(ctx), q, p, sortColumns)
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Employee, error) {
	return services.Find[models.Employee](s.Conn(ctx), entity, id, "Manager", "Contacts", "Addresses")
}

// Create inserts an employee with the next EMP-nnnnnn number.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Employee, error) {
	if in.Salary.IsNegative() {
		return nil, apperr.Validation("salary must not be negative")
	}
	e := &models.Employee{
		FirstName:  in.FirstName,
		LastName:   in.LastName,
		Email:      in.Email,
		Phone:      in.Phone,
		Department: in.Department,
		Position:   in.Position,
		ManagerID:  in.ManagerID,
		HireDate:   in.HireDate,
		Status:     in.Status,
		Salary:     in.Salary,
	}
	if e.Status == "" {
		e.Status = models.EmployeeActive
	}

	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if e.ManagerID != nil {
			if err := services.MustExist[models.Employee](tx, "manager", *e.ManagerID); err != nil {
				return err
			}
		}
		number, err := numbering.Plain(tx, numbering.ScopeEmployee)
		if err != nil {
			return err
		}
		e.EmployeeNumber = number
		if err := tx.Create(e).Error; err != nil {
			if apperr.IsUniqueViolation(err) {
				return apperr.Validation("employee email already exists")
			}
			return fmt.Errorf("failed to create employee: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Employee, error) {
	db := s.Conn(ctx)
	if in.Salary != nil && in.Salary.IsNegative() {
		return nil, apperr.Validation("salary must not be negative")
	}
	if in.ManagerID != nil {
		if *in.ManagerID == id {
			return nil, apperr.Validation("employee cannot manage themselves")
		}
		if err := services.MustExist[models.Employee](db, "manager", *in.ManagerID); err != nil {
			return nil, err
		}
	}
	current, err := services.Find[models.Employee](db, entity, id)
	if err != nil {
		return nil, err
	}
	if current.Status == models.EmployeeTerminated && in.Status != nil {
		return nil, apperr.InvalidState(string(current.Status), "cannot change status of a terminated employee")
	}

	p := query.Patch{}
	query.Set(p, "first_name", in.FirstName)
	query.Set(p, "last_name", in.LastName)
	query.Set(p, "email", in.Email)
	query.Set(p, "phone", in.Phone)
	query.Set(p, "department", in.Department)
	query.Set(p, "position", in.Position)
	query.Set(p, "manager_id", in.ManagerID)
	query.Set(p, "hire_date", in.HireDate)
	query.Set(p, "status", in.Status)
	query.Set(p, "salary", in.Salary)

	e, err := services.Update[models.Employee](db, entity, id, p)
	if apperr.IsKind(err, apperr.KindConflict) {
		return nil, apperr.Validation("employee email already exists")
	}
	return e, err
}

// Terminate ends employment. Already terminated employees are rejected.
func (s *Service) Terminate(ctx context.Context, id uint, in TerminateInput) (*models.Employee, error) {
	db := s.Conn(ctx)
	e, err := services.Find[models.Employee](db, entity, id)
	if err != nil {
		return nil, err
	}
	if e.Status == models.EmployeeTerminated {
		return nil, apperr.InvalidState(string(e.Status), "employee is already terminated")
	}
	date := s.Now()
	if in.Date != nil {
		date = *in.Date
	}
	if e.HireDate != nil && date.Before(*e.HireDate) {
		return nil, apperr.Validation("termination date is before hire date")
	}

	if err := db.Model(e).Updates(map[string]any{
		"status":             models.EmployeeTerminated,
		"termination_date":   date,
		"termination_reason": in.Reason,
	}).Error; err != nil {
		return nil, fmt.Errorf("failed to terminate employee: %w", err)
	}
	s.Transitioned(ctx, entity, "terminate", e.ID, e.EmployeeNumber, string(models.EmployeeTerminated))
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Employee](s.Conn(ctx), entity, id)
}

// Stats counts employees by department and status
type Stats struct {
	Total        int64            `json:"total"`
	ByDepartment []services.Count `json:"byDepartment"`
	ByStatus     []services.Count `json:"byStatus"`
}

func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	db := s.Conn(ctx)
	out := &Stats{}
	if err := db.Model(&models.Employee{}).Count(&out.Total).Error; err != nil {
		return nil, fmt.Errorf("count employees: %w", err)
	}
	var err error
	if out.ByDepartment, err = services.CountBy[models.Employee](db, "department"); err != nil {
		return nil, err
	}
	if out.ByStatus, err = services.CountBy[models.Employee](db, "status"); err != nil {
		return nil, err
	}
	return out, nil
}
