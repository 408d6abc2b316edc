// Package shifts schedules employee work time.
package shifts

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "shift"

const DefaultPageSize = 50

const (
	ActionComplete = "complete"
	ActionCancel   = "cancel"
	ActionNoShow   = "no_show"
)

var scheduled = []models.ShiftStatus{models.ShiftScheduled}

var Machine = lifecycle.New("shift", map[string]lifecycle.Transition[models.ShiftStatus]{
	ActionComplete: {From: scheduled, To: models.ShiftCompleted},
	ActionCancel:   {From: scheduled, To: models.ShiftCancelled},
	ActionNoShow:   {From: scheduled, To: models.ShiftNoShow},
}, models.ShiftScheduled)

var sortColumns = query.Sort{
	Columns: map[string]string{
		"startsAt": "starts_at",
		"endsAt":   "ends_at",
		"status":   "status",
		"role":     "role",
	},
	Default: "starts_at ASC, id ASC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type CreateInput struct {
	EmployeeID uint      `json:"employeeId" validate:"required"`
	StartsAt   time.Time `json:"startsAt"`
	EndsAt     time.Time `json:"endsAt"`
	Role       string    `json:"role" validate:"max=100"`
	Location   string    `json:"location" validate:"max=200"`
	Notes      string    `json:"notes"`
}

type UpdateInput struct {
	EmployeeID *uint      `json:"employeeId"`
	StartsAt   *time.Time `json:"startsAt"`
	EndsAt     *time.Time `json:"endsAt"`
	Role       *string    `json:"role" validate:"omitempty,max=100"`
	Location   *string    `json:"location" validate:"omitempty,max=200"`
	Notes      *string    `json:"notes"`
}

type Filter struct {
	EmployeeID *uint
	Status     string
	Location   string
	From       *time.Time
	To         *time.Time
}

func checkWindow(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("startsAt and endsAt are required")
	}
	if !end.After(start) {
		return apperr.Validation("endsAt must be after startsAt")
	}
	return nil
}

// checkOverlap rejects a window intersecting another live shift of the employee.
func checkOverlap(tx *gorm.DB, employeeID uint, start, end time.Time, exclude uint) error {
	var other models.Shift
	err := tx.
		Where("employee_id = ? AND status <> ? AND id <> ?", employeeID, models.ShiftCancelled, exclude).
		Where("starts_at < ? AND ends_at > ?", end, start).
		Order("starts_at").
		Limit(1).
		Find(&other).Error
	if err != nil {
		return fmt.Errorf("check shift overlap: %w", err)
	}
	if other.ID != 0 {
		return apperr.Validation("shift overlaps shift %d (%s - %s)", other.ID,
			other.StartsAt.UTC().Format(time.RFC3339), other.EndsAt.UTC().Format(time.RFC3339)).
			WithDetail("conflictId", other.ID)
	}
	return nil
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.Shift], error) {
	q := query.NewFilter().
		Eq("employee_id", f.EmployeeID).
		Eq("status", f.Status).
		Eq("location", f.Location).
		Gte("ends_at", f.From).
		Lte("starts_at", f.To)
	return query.List[models.Shift](s.Conn(ctx), q, p, sortColumns, "Employee")
}

func (s *Service) Get(ctx context.Context, id uint) (*models.Shift, error) {
	return services.Find[models.Shift](s.Conn(ctx), entity, id, "Employee")
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.Shift, error) {
	if err := checkWindow(in.StartsAt, in.EndsAt); err != nil {
		return nil, err
	}
	sh := &models.Shift{
		EmployeeID: in.EmployeeID,
		StartsAt:   in.StartsAt,
		EndsAt:     in.EndsAt,
		Role:       in.Role,
		Location:   in.Location,
		Notes:      in.Notes,
		Status:     models.ShiftScheduled,
	}
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if err := services.MustExist[models.Employee](tx, "employee", sh.EmployeeID); err != nil {
			return err
		}
		if err := checkOverlap(tx, sh.EmployeeID, sh.StartsAt, sh.EndsAt, 0); err != nil {
			return err
		}
		if err := tx.Create(sh).Error; err != nil {
			return fmt.Errorf("failed to create shift: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, sh.ID)
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.Shift, error) {
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		sh, err := services.FindForUpdate[models.Shift](tx, entity, id)
		if err != nil {
			return err
		}
		if err := Machine.CheckEditable(sh.Status); err != nil {
			return err
		}
		p := query.Patch{}
		query.Set(p, "employee_id", in.EmployeeID)
		query.Set(p, "starts_at", in.StartsAt)
		query.Set(p, "ends_at", in.EndsAt)
		query.Set(p, "role", in.Role)
		query.Set(p, "location", in.Location)
		query.Set(p, "notes", in.Notes)
		if p.Empty() {
			return apperr.Validation("no fields to update")
		}

		emp, start, end := sh.EmployeeID, sh.StartsAt, sh.EndsAt
		if in.EmployeeID != nil {
			emp = *in.EmployeeID
			if err := services.MustExist[models.Employee](tx, "employee", emp); err != nil {
				return err
			}
		}
		if in.StartsAt != nil {
			start = *in.StartsAt
		}
		if in.EndsAt != nil {
			end = *in.EndsAt
		}
		if err := checkWindow(start, end); err != nil {
			return err
		}
		if err := checkOverlap(tx, emp, start, end, sh.ID); err != nil {
			return err
		}
		return p.Apply(tx, sh)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.Shift](s.Conn(ctx), entity, id)
}

func (s *Service) transition(ctx context.Context, id uint, action, notes string) (*models.Shift, error) {
	var sh *models.Shift
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if sh, err = services.FindForUpdate[models.Shift](tx, entity, id); err != nil {
			return err
		}
		next, err := Machine.Next(action, sh.Status)
		if err != nil {
			return err
		}
		p := query.Patch{"status": next}
		if notes != "" {
			p.Put("notes", notes)
		}
		sh.Status = next
		return p.Apply(tx, sh)
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, action, sh.ID, "", string(sh.Status))
	return s.Get(ctx, id)
}

func (s *Service) Complete(ctx context.Context, id uint) (*models.Shift, error) {
	return s.transition(ctx, id, ActionComplete, "")
}

// Cancel frees the slot; a cancelled shift no longer blocks overlapping ones.
func (s *Service) Cancel(ctx context.Context, id uint, reason string) (*models.Shift, error) {
	return s.transition(ctx, id, ActionCancel, reason)
}

func (s *Service) NoShow(ctx context.Context, id uint) (*models.Shift, error) {
	return s.transition(ctx, id, ActionNoShow, "")
}

type EmployeeHours struct {
	EmployeeID uint    `json:"employeeId"`
	Shifts     int     `json:"shifts"`
	Hours      float64 `json:"hours"`
}

type Stats struct {
	From       *time.Time       `json:"from,omitempty"`
	To         *time.Time       `json:"to,omitempty"`
	TotalHours float64          `json:"totalHours"`
	ByEmployee []EmployeeHours  `json:"byEmployee"`
	ByStatus   []services.Count `json:"byStatus"`
}

// Stats sums planned hours of scheduled and completed shifts starting in [from, to).
func (s *Service) Stats(ctx context.Context, from, to *time.Time) (*Stats, error) {
	db := s.Conn(ctx)
	q := query.NewFilter().Gte("starts_at", from).Lt("starts_at", to)
	var rows []models.Shift
	err := db.Scopes(q.Scope()).
		Where("status IN ?", []models.ShiftStatus{models.ShiftScheduled, models.ShiftCompleted}).
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("shift hours: %w", err)
	}
	per := map[uint]*EmployeeHours{}
	out := &Stats{From: from, To: to, ByEmployee: []EmployeeHours{}}
	for _, r := range rows {
		h := per[r.EmployeeID]
		if h == nil {
			h = &EmployeeHours{EmployeeID: r.EmployeeID}
			per[r.EmployeeID] = h
		}
		h.Shifts++
		h.Hours += r.Hours()
		out.TotalHours += r.Hours()
	}
	for _, h := range per {
		h.Hours = round2(h.Hours)
		out.ByEmployee = append(out.ByEmployee, *h)
	}
	sort.Slice(out.ByEmployee, func(i, j int) bool { return out.ByEmployee[i].EmployeeID < out.ByEmployee[j].EmployeeID })
	out.TotalHours = round2(out.TotalHours)

	if out.ByStatus, err = services.CountBy[models.Shift](db.Scopes(q.Scope()), "status"); err != nil {
		return nil, err
	}
	return out, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
