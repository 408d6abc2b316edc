// Package performance records employee reviews, their ratings and goals.
package performance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services"
)

const entity = "performance review"

const DefaultPageSize = 20

const (
	ActionSubmit      = "submit"
	ActionAcknowledge = "acknowledge"
)

const (
	MinRating = 1
	MaxRating = 5
)

var Machine = lifecycle.New("performance review", map[string]lifecycle.Transition[models.ReviewStatus]{
	ActionSubmit:      {From: []models.ReviewStatus{models.ReviewDraft}, To: models.ReviewSubmitted},
	ActionAcknowledge: {From: []models.ReviewStatus{models.ReviewSubmitted}, To: models.ReviewAcknowledged},
}, models.ReviewDraft)

var sortColumns = query.Sort{
	Columns: map[string]string{
		"periodStart":   "period_start",
		"periodEnd":     "period_end",
		"overallRating": "overall_rating",
		"status":        "status",
	},
	Default: "period_end DESC, id DESC",
}

type Service struct {
	services.Base
}

func NewService(b services.Base) *Service {
	return &Service{Base: b}
}

type GoalInput struct {
	Title      string             `json:"title" validate:"required,max=200"`
	TargetDate *time.Time         `json:"targetDate"`
	Status     *models.GoalStatus `json:"status" validate:"omitempty,oneof=open achieved missed"`
}

type CreateInput struct {
	EmployeeID   uint           `json:"employeeId" validate:"required"`
	ReviewerID   *uint          `json:"reviewerId"`
	PeriodStart  time.Time      `json:"periodStart"`
	PeriodEnd    time.Time      `json:"periodEnd"`
	Ratings      map[string]int `json:"ratings"`
	Strengths    string         `json:"strengths"`
	Improvements string         `json:"improvements"`
	Goals        []GoalInput    `json:"goals" validate:"dive"`
}

// UpdateInput edits a draft review. Non-nil Ratings or Goals replace the stored set.
type UpdateInput struct {
	ReviewerID   *uint          `json:"reviewerId"`
	PeriodStart  *time.Time     `json:"periodStart"`
	PeriodEnd    *time.Time     `json:"periodEnd"`
	Ratings      map[string]int `json:"ratings"`
	Strengths    *string        `json:"strengths"`
	Improvements *string        `json:"improvements"`
	Goals        []GoalInput    `json:"goals" validate:"omitempty,dive"`
}

type GoalUpdate struct {
	Title      *string            `json:"title" validate:"omitempty,min=1,max=200"`
	TargetDate *time.Time         `json:"targetDate"`
	Status     *models.GoalStatus `json:"status" validate:"omitempty,oneof=open achieved missed"`
}

type Filter struct {
	EmployeeID *uint
	ReviewerID *uint
	Status     string
}

// Overall averages the ratings to two decimals. It is null without ratings.
func Overall(ratings map[string]int) (decimal.NullDecimal, error) {
	if len(ratings) == 0 {
		return decimal.NullDecimal{}, nil
	}
	keys := make([]string, 0, len(ratings))
	for k := range ratings {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	sum := 0
	for _, k := range keys {
		v := ratings[k]
		if k == "" {
			return decimal.NullDecimal{}, apperr.Validation("rating competency must not be empty")
		}
		if v < MinRating || v > MaxRating {
			return decimal.NullDecimal{}, apperr.Validation("rating for %s must be between %d and %d", k, MinRating, MaxRating).
				WithDetail("competency", k)
		}
		sum += v
	}
	avg := decimal.NewFromInt(int64(sum)).DivRound(decimal.NewFromInt(int64(len(ratings))), 2)
	return decimal.NullDecimal{Decimal: avg, Valid: true}, nil
}

func checkPeriod(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return apperr.Validation("periodStart and periodEnd are required")
	}
	if end.Before(start) {
		return apperr.Validation("periodEnd must not be before periodStart")
	}
	return nil
}

func buildGoals(in []GoalInput) []models.ReviewGoal {
	goals := make([]models.ReviewGoal, len(in))
	for i, g := range in {
		goals[i] = models.ReviewGoal{Title: g.Title, TargetDate: g.TargetDate, Status: models.GoalOpen}
		if g.Status != nil {
			goals[i].Status = *g.Status
		}
	}
	return goals
}

func (s *Service) List(ctx context.Context, f Filter, p query.PageRequest) (query.Page[models.PerformanceReview], error) {
	q := query.NewFilter().
		Eq("employee_id", f.EmployeeID).
		Eq("reviewer_id", f.ReviewerID).
		Eq("status", f.Status)
	return query.List[models.PerformanceReview](s.Conn(ctx), q, p, sortColumns, "Employee")
}

func (s *Service) Get(ctx context.Context, id uint) (*models.PerformanceReview, error) {
	var r models.PerformanceReview
	err := s.Conn(ctx).
		Preload("Goals", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("Employee").
		First(&r, id).Error
	if err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &r, nil
}

func (s *Service) Create(ctx context.Context, in CreateInput) (*models.PerformanceReview, error) {
	if err := checkPeriod(in.PeriodStart, in.PeriodEnd); err != nil {
		return nil, err
	}
	overall, err := Overall(in.Ratings)
	if err != nil {
		return nil, err
	}
	ratings := in.Ratings
	if ratings == nil {
		ratings = map[string]int{}
	}
	r := &models.PerformanceReview{
		EmployeeID:    in.EmployeeID,
		ReviewerID:    in.ReviewerID,
		PeriodStart:   in.PeriodStart,
		PeriodEnd:     in.PeriodEnd,
		Status:        models.ReviewDraft,
		Ratings:       datatypes.NewJSONType(ratings),
		OverallRating: overall,
		Strengths:     in.Strengths,
		Improvements:  in.Improvements,
		Goals:         buildGoals(in.Goals),
	}
	err = s.Tx(ctx, func(tx *gorm.DB) error {
		if err := services.MustExist[models.Employee](tx, "employee", r.EmployeeID); err != nil {
			return err
		}
		if r.ReviewerID != nil {
			if *r.ReviewerID == r.EmployeeID {
				return apperr.Validation("an employee cannot review themselves")
			}
			if err := services.MustExist[models.Employee](tx, "reviewer", *r.ReviewerID); err != nil {
				return err
			}
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("failed to create performance review: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, r.ID)
}

func (s *Service) Update(ctx context.Context, id uint, in UpdateInput) (*models.PerformanceReview, error) {
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		r, err := services.FindForUpdate[models.PerformanceReview](tx, entity, id)
		if err != nil {
			return err
		}
		if err := Machine.CheckEditable(r.Status); err != nil {
			return err
		}
		start, end := r.PeriodStart, r.PeriodEnd
		if in.PeriodStart != nil {
			start = *in.PeriodStart
		}
		if in.PeriodEnd != nil {
			end = *in.PeriodEnd
		}
		if err := checkPeriod(start, end); err != nil {
			return err
		}
		if in.ReviewerID != nil {
			if *in.ReviewerID == r.EmployeeID {
				return apperr.Validation("an employee cannot review themselves")
			}
			if err := services.MustExist[models.Employee](tx, "reviewer", *in.ReviewerID); err != nil {
				return err
			}
		}

		p := query.Patch{}
		query.Set(p, "reviewer_id", in.ReviewerID)
		query.Set(p, "period_start", in.PeriodStart)
		query.Set(p, "period_end", in.PeriodEnd)
		query.Set(p, "strengths", in.Strengths)
		query.Set(p, "improvements", in.Improvements)
		if in.Ratings != nil {
			overall, err := Overall(in.Ratings)
			if err != nil {
				return err
			}
			p.Put("ratings", datatypes.NewJSONType(in.Ratings))
			p.Put("overall_rating", overall)
		}
		if in.Goals != nil {
			if err := tx.Where("review_id = ?", r.ID).Delete(&models.ReviewGoal{}).Error; err != nil {
				return fmt.Errorf("replace review goals: %w", err)
			}
			goals := buildGoals(in.Goals)
			for i := range goals {
				goals[i].ReviewID = r.ID
			}
			if len(goals) > 0 {
				if err := tx.Create(&goals).Error; err != nil {
					return fmt.Errorf("replace review goals: %w", err)
				}
			}
		}
		if p.Empty() && in.Goals == nil {
			return apperr.Validation("no fields to update")
		}
		return p.Apply(tx, r)
	})
	if err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}

// UpdateGoal records progress on a goal. Goals stay editable after submission.
func (s *Service) UpdateGoal(ctx context.Context, id, goalID uint, in GoalUpdate) (*models.ReviewGoal, error) {
	p := query.Patch{}
	query.Set(p, "title", in.Title)
	query.Set(p, "target_date", in.TargetDate)
	query.Set(p, "status", in.Status)
	if p.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	var goal models.ReviewGoal
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		if err := services.MustExist[models.PerformanceReview](tx, entity, id); err != nil {
			return err
		}
		if err := tx.Where("review_id = ?", id).First(&goal, goalID).Error; err != nil {
			return apperr.FromDB(err, "review goal", goalID)
		}
		if err := p.Apply(tx, &goal); err != nil {
			return fmt.Errorf("update review goal: %w", err)
		}
		return tx.First(&goal, goalID).Error
	})
	if err != nil {
		return nil, err
	}
	return &goal, nil
}

func (s *Service) Delete(ctx context.Context, id uint) error {
	return services.SoftDelete[models.PerformanceReview](s.Conn(ctx), entity, id)
}

// Submit hands a draft to the employee. At least one rating is required.
func (s *Service) Submit(ctx context.Context, id uint) (*models.PerformanceReview, error) {
	return s.transition(ctx, id, ActionSubmit, func(r *models.PerformanceReview, p query.Patch) error {
		if len(r.Ratings.Data()) == 0 {
			return apperr.Validation("cannot submit a review without ratings")
		}
		p.Put("submitted_at", s.Now())
		return nil
	})
}

func (s *Service) Acknowledge(ctx context.Context, id uint) (*models.PerformanceReview, error) {
	return s.transition(ctx, id, ActionAcknowledge, func(_ *models.PerformanceReview, p query.Patch) error {
		p.Put("acknowledged_at", s.Now())
		return nil
	})
}

func (s *Service) transition(ctx context.Context, id uint, action string, apply func(r *models.PerformanceReview, p query.Patch) error) (*models.PerformanceReview, error) {
	var r *models.PerformanceReview
	err := s.Tx(ctx, func(tx *gorm.DB) error {
		var err error
		if r, err = services.FindForUpdate[models.PerformanceReview](tx, entity, id); err != nil {
			return err
		}
		next, err := Machine.Next(action, r.Status)
		if err != nil {
			return err
		}
		p := query.Patch{"status": next}
		if err := apply(r, p); err != nil {
			return err
		}
		r.Status = next
		return p.Apply(tx, r)
	})
	if err != nil {
		return nil, err
	}
	s.Transitioned(ctx, entity, action, r.ID, "", string(r.Status))
	return s.Get(ctx, id)
}

type DepartmentRating struct {
	Department string          `json:"department"`
	Reviews    int64           `json:"reviews"`
	Average    decimal.Decimal `json:"averageRating"`
}

// Stats averages overall ratings per department over rated, non-draft reviews.
func (s *Service) Stats(ctx context.Context) ([]DepartmentRating, error) {
	var rows []struct {
		Department string
		Reviews    int64
		Average    float64
	}
	err := s.Conn(ctx).Table("performance_reviews").
		Select("COALESCE(employees.department, '') AS department, COUNT(*) AS reviews, AVG(performance_reviews.overall_rating) AS average").
		Joins("JOIN employees ON employees.id = performance_reviews.employee_id").
		Where("performance_reviews.deleted_at IS NULL AND performance_reviews.overall_rating IS NOT NULL").
		Where("performance_reviews.status <> ?", models.ReviewDraft).
		Group("employees.department").
		Order("department").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("performance stats: %w", err)
	}
	out := make([]DepartmentRating, len(rows))
	for i, r := range rows {
		out[i] = DepartmentRating{
			Department: r.Department,
			Reviews:    r.Reviews,
			Average:    decimal.NewFromFloat(r.Average).Round(2),
		}
	}
	return out, nil
}
