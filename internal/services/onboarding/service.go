// Package onboarding tracks the checklists new employees work through.
package onboarding

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "onboarding plan"

const DefaultPageSize = 20

const (
	ActionStart    = "start"
	ActionComplete = "complete"
	ActionCancel   = "cancel"
)

var open = []models.OnboardingStatus{models.OnboardingNotStarted, models.OnboardingInProgress}

// Machine moves a plan forward as its tasks are completed. Start and complete
// are driven by task completion; cancel is requested explicitly.
var Machine = lifecycle.New("onboarding plan", map[string]lifecycle.Transition[models.OnboardingStatus]{
	ActionStart:    {From: []models.OnboardingStatus{models.OnboardingNotStarted}, To: models.OnboardingInProgress},
	ActionComplete: {From: open, To: models.OnboardingCompleted},
	ActionCancel:   {From: open, To: models.OnboardingCancelled},
}, open...)

var sortColumns = query.Sort{
	Columns: map[string]string{
		"title":     "title",
		"startDate": "start_date",
		"dueDate":   "due_date",
		"progress":  "progress",
		"status":    "status",
	},
	Default: "start_date DESC, id DESC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type TaskInput struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	AssigneeID  *uint      `json:"assigneeId"`
	DueDate     *time.Time `json:"dueDate"`
	SortOrder   *int       `json:"sortOrder"`
}

type CreateInput struct {
	EmployeeID uint        `json:"employeeId" validate:"required"`
	Title      string      `json:"title" validate:"required,max=200"`
	StartDate  time.Time   `json:"startDate"`
	DueDate    *time.Time  `json:"dueDate"`
	Tasks      []TaskInput `json:"tasks" validate:"dive"`
}

type UpdateInput struct {
	Title     *string    `json:"title" validate:"omitempty,min=1,max=200"`
	StartDate *time.Time `json:"startDate"`
	DueDate   *time.Time `json:"dueDate"`
}

type Filter struct {
	EmployeeID *uint
	Status     string
}

// Progress is the completed share of tasks in percent, rounded down.
func Progress(done, total int64) int {
	if total == 0 {
		return 0
	}
	return int(done * 100 / total)
}

func checkDates(start time.Time, due *time.Time) error {
	if due != nil && due.Before(start) {
		return apperr.Validation("dueDate must not be before startDate")
	}
	return nil
}

func (s *Service) task(tx *gorm.DB, in TaskInput, order int) (models.OnboardingTask, error) {
	if in.AssigneeID != nil {
		if err := services.MustExist[models.Employee](tx, "assignee", *in.AssigneeID); err != nil {
			return models.OnboardingTask{}, err
		}
	}
	if in.SortOrder != nil {
		order = *in.SortOrder
	}
	return models.OnboardingTask{
		Title:       in.Title,
		Description: in.Description,
		AssigneeID:  in.AssigneeID,
		DueDate:     in.DueDate,
		SortOrder:   order,
	}, nil
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.OnboardingPlan], error) {
	q := query.NewFilter().
		Eq("employee_id", f.EmployeeID).
		Eq("status", f.Status)
	return query.List[models.OnboardingPlan](s.Conn(ctx), q, p, sortColumns, "Employee")
}

func (s *Service) Get(ctx context.Context, id uint) (*models.OnboardingPlan, error) {
	return get(s.Conn(ctx), id)
}

func get(db *gorm.DB, id uint) (*models.OnboardingPlan, error) {
	var plan models.OnboardingPlan
	err := db.
		Preload("Tasks", func(db *gorm.DB) *gorm.DB { return db.Order("sort_order, id") }).
		Preload("Employee").
		First(&plan, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &plan, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.OnboardingPlan, error) {
	plan := &models.OnboardingPlan{
		EmployeeID: in.EmployeeID,
		Title:      in.Title,
		StartDate:  in.StartDate,
		DueDate:    in.DueDate,
		Status:     models.OnboardingNotStarted,
	}
	if plan.StartDate.IsZero() {
		plan.StartDate = s.Now()
	}
	if err := checkDates(plan.StartDate, plan.DueDate); err != nil {
		return nil, err
	}
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if err := services.MustExist[models.Employee](tx, "employee", plan.EmployeeID); err != nil {
			return err
		}
		for i, t := range in.Tasks {
			task, err := s.task(tx, t, i+1)
			if err != nil {
				return err
			}
			plan.Tasks = append(plan.Tasks, task)
		}
		if err := tx.Create(plan).Error; err != nil {
			return fmt.Errorf("failed to create onboarding plan: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, plan.ID)
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.OnboardingPlan, error) {
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		plan, err := services.FindForUpdate[models.OnboardingPlan](tx, entity, id)
		if err != nil {
			return err
		}
		if err := Machine.CheckEditable(plan.Status); err != nil {
			return err
		}
		start, due := plan.StartDate, plan.DueDate
		if in.StartDate != nil {
			start = *in.StartDate
		}
		if in.DueDate != nil {
			due = in.DueDate
		}
		if err := checkDates(start, due); err != nil {
			return err
		}
		p := query.Patch{}
		query.Set(p, "title", in.Title)
		query.Set(p, "start_date", in.StartDate)
		query.Set(p, "due_date", in.DueDate)
		if p.Empty() {
			return apperr.Validation("no fields to update")
		}
		return p.Apply(tx, plan)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.OnboardingPlan](s.Conn(ctx), entity, id)
}

// sync recomputes progress and derives the status from task completion.
func (s *Service) sync(tx *gorm.DB, plan *models.OnboardingPlan) (string, error) {
	var total, done int64
	tasks := tx.Model(&models.OnboardingTask{}).Where("plan_id = ?", plan.ID)
	if err := tasks.Count(&total).Error; err != nil {
		return "", fmt.Errorf("count onboarding tasks: %w", err)
	}
	err := tx.Model(&models.OnboardingTask{}).
		Where("plan_id = ? AND completed_at IS NOT NULL", plan.ID).
		Count(&done).Error
	if err != nil {
		return "", fmt.Errorf("count onboarding tasks: %w", err)
	}
	p := query.Patch{"progress": Progress(done, total)}
	action := ""
	switch {
	case total > 0 && done == total:
		action = ActionComplete
	case done > 0 && plan.Status == models.OnboardingNotStarted:
		action = ActionStart
	}
	if action != "" {
		next, err := Machine.Next(action, plan.Status)
		if err != nil {
			return "", err
		}
		p.Put("status", next)
		plan.Status = next
	}
	return action, p.Apply(tx, plan)
}

// AddTask appends a task to an open plan. Progress drops accordingly.
func (s *Service) AddTask(ctx context.Context, id uint, in TaskInput) (*models.OnboardingPlan, error) {
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		plan, err := services.FindForUpdate[models.OnboardingPlan](tx, entity, id)
		if err != nil {
			return err
		}
		if err := Machine.CheckEditable(plan.Status); err != nil {
			return err
		}
		var last struct{ Max int }
		err = tx.Model(&models.OnboardingTask{}).
			Select("COALESCE(MAX(sort_order), 0) AS max").
			Where("plan_id = ?", id).
			Scan(&last).Error
		if err != nil {
			return fmt.Errorf("next task order: %w", err)
		}
		task, err := s.task(tx, in, last.Max+1)
		if err != nil {
			return err
		}
		task.PlanID = id
		if err := tx.Create(&task).Error; err != nil {
			return fmt.Errorf("failed to create onboarding task: %w", err)
		}
		_, err = s.sync(tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// CompleteTask marks a task done and advances the plan.
func (s *Service) CompleteTask(ctx context.Context, id, taskID uint) (*models.OnboardingPlan, error) {
	var (
		plan   *models.OnboardingPlan
		action string
	)
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if plan, err = services.FindForUpdate[models.OnboardingPlan](tx, entity, id); err != nil {
			return err
		}
		if err := Machine.CheckEditable(plan.Status); err != nil {
			return err
		}
		var task models.OnboardingTask
		if err := tx.Where("plan_id = ?", id).First(&task, taskID).Error; err != nil {
			return apperr.FromDB(err, "onboarding task", taskID)
		}
		if task.CompletedAt != nil {
			return apperr.Validation("task %d is already completed", taskID)
		}
		if err := tx.Model(&task).Update("completed_at", s.Now()).Error; err != nil {
			return fmt.Errorf("complete onboarding task: %w", err)
		}
		action, err = s.sync(tx, plan)
		return err
	})
	if err != nil {
		return nil, err
	}
	if action != "" {
		s.Transitioned(ctx, entity, action, plan.ID, "", string(plan.Status))
	}
	return s.Get(ctx, id)
}

func (s *Service) Cancel(ctx context.Context, id uint) (*models.OnboardingPlan, error) {
	var plan *models.OnboardingPlan
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if plan, err = services.FindForUpdate[models.OnboardingPlan](tx, entity, id); err != nil {
			return err
		}
		next, err := Machine.Next(ActionCancel, plan.Status)
		if err != nil {
			return err
		}
		plan.Status = next
		return tx.Model(plan).Update("status", next).Error
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, ActionCancel, plan.ID, "", string(plan.Status))
	return s.Get(ctx, id)
}

func (s *Service) Stats(ctx context.Context) ([]services.Count, error) {
	return services.CountBy[models.OnboardingPlan](s.Conn(ctx), "status")
}
