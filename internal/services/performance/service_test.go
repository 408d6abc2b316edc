package performance

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

var (
	h1Start = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	h1End   = time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) (*Service, []models.Employee) {
	t.Helper()
	b, _ := servicetest.Base(t)
	staff := []models.Employee{
		{EmployeeNumber: "EMP-000001", FirstName: "Ada", Email: "ada@example.com", Department: "Engineering", Status: models.EmployeeActive},
		{EmployeeNumber: "EMP-000002", FirstName: "Bob", Email: "bob@example.com", Department: "Engineering", Status: models.EmployeeActive},
		{EmployeeNumber: "EMP-000003", FirstName: "Cy", Email: "cy@example.com", Department: "Sales", Status: models.EmployeeActive},
	}
	require.NoError(t, b.DB.Create(&staff).Error)
	return NewService(b), staff
}

func TestOverall(t *testing.T) {
	got, err := Overall(map[string]int{"quality": 4, "teamwork": 5, "delivery": 4})
	require.NoError(t, err)
	assert.True(t, got.Valid)
	assert.Equal(t, "4.33", got.Decimal.StringFixed(2))

	got, err = Overall(nil)
	require.NoError(t, err)
	assert.False(t, got.Valid)

	_, err = Overall(map[string]int{"quality": 6})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestReviewFlow(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	r, err := s.Create(ctx, CreateInput{
		EmployeeID:  staff[0].ID,
		ReviewerID:  &staff[1].ID,
		PeriodStart: h1Start,
		PeriodEnd:   h1End,
		Goals:       []GoalInput{{Title: "Ship v2"}},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ReviewDraft, r.Status)
	require.Len(t, r.Goals, 1)
	assert.Equal(t, models.GoalOpen, r.Goals[0].Status)

	_, err = s.Submit(ctx, r.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation), "no ratings yet")

	r, err = s.Update(ctx, r.ID, UpdateInput{Ratings: map[string]int{"quality": 3, "teamwork": 4}})
	require.NoError(t, err)
	assert.Equal(t, "3.50", r.OverallRating.Decimal.StringFixed(2))

	r, err = s.Submit(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewSubmitted, r.Status)
	assert.NotNil(t, r.SubmittedAt)

	strengths := "late edit"
	_, err = s.Update(ctx, r.ID, UpdateInput{Strengths: &strengths})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	achieved := models.GoalAchieved
	goal, err := s.UpdateGoal(ctx, r.ID, r.Goals[0].ID, GoalUpdate{Status: &achieved})
	require.NoError(t, err)
	assert.Equal(t, models.GoalAchieved, goal.Status)

	r, err = s.Acknowledge(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ReviewAcknowledged, r.Status)
}

func TestCreateValidation(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	_, err := s.Create(ctx, CreateInput{EmployeeID: staff[0].ID, PeriodStart: h1End, PeriodEnd: h1Start})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Create(ctx, CreateInput{EmployeeID: staff[0].ID, ReviewerID: &staff[0].ID, PeriodStart: h1Start, PeriodEnd: h1End})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Create(ctx, CreateInput{EmployeeID: 99, PeriodStart: h1Start, PeriodEnd: h1End})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestStatsByDepartment(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	rate := func(emp uint, ratings map[string]int, submit bool) {
		r, err := s.Create(ctx, CreateInput{EmployeeID: emp, PeriodStart: h1Start, PeriodEnd: h1End, Ratings: ratings})
		require.NoError(t, err)
		if submit {
			_, err = s.Submit(ctx, r.ID)
			require.NoError(t, err)
		}
	}
	rate(staff[0].ID, map[string]int{"quality": 4}, true)
	rate(staff[1].ID, map[string]int{"quality": 5}, true)
	rate(staff[2].ID, map[string]int{"quality": 2}, true)
	rate(staff[2].ID, map[string]int{"quality": 5}, false)

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "Engineering", stats[0].Department)
	assert.EqualValues(t, 2, stats[0].Reviews)
	assert.True(t, decimal.RequireFromString("4.5").Equal(stats[0].Average))
	assert.Equal(t, "Sales", stats[1].Department)
	assert.True(t, decimal.NewFromInt(2).Equal(stats[1].Average))
}
