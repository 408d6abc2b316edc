package onboarding

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

func setup(t *testing.T) (*Service, *servicetest.Recorder, *models.OnboardingPlan) {
	t.Helper()
	b, rec := servicetest.Base(t)
	emp := models.Employee{EmployeeNumber: "EMP-000001", FirstName: "Ada", Email: "ada@example.com", Status: models.EmployeeActive}
	require.NoError(t, b.DB.Create(&emp).Error)
	s := NewService(b)
	plan, err := s.Create(context.Background(), CreateInput{
		EmployeeID: emp.ID,
		Title:      "Welcome",
		Tasks:      []TaskInput{{Title: "Laptop"}, {Title: "Badge"}, {Title: "Intro call"}},
	})
	require.NoError(t, err)
	return s, rec, plan
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, Progress(0, 0))
	assert.Equal(t, 33, Progress(1, 3))
	assert.Equal(t, 100, Progress(4, 4))
}

func TestCreate(t *testing.T) {
	s, _, plan := setup(t)
	assert.Equal(t, models.OnboardingNotStarted, plan.Status)
	assert.Equal(t, servicetest.Clock, plan.StartDate.UTC())
	require.Len(t, plan.Tasks, 3)
	assert.Equal(t, "Laptop", plan.Tasks[0].Title)
	assert.Equal(t, 3, plan.Tasks[2].SortOrder)

	_, err := s.Create(context.Background(), CreateInput{EmployeeID: 99, Title: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestCompletingTasksDrivesStatus(t *testing.T) {
	s, rec, plan := setup(t)
	ctx := context.Background()

	got, err := s.CompleteTask(ctx, plan.ID, plan.Tasks[0].ID)
	require.NoError(t, err)
	assert.Equal(t, models.OnboardingInProgress, got.Status)
	assert.Equal(t, 33, got.Progress)
	assert.Equal(t, ActionStart, rec.Last().Action)

	_, err = s.CompleteTask(ctx, plan.ID, plan.Tasks[0].ID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	got, err = s.AddTask(ctx, plan.ID, TaskInput{Title: "Handbook"})
	require.NoError(t, err)
	require.Len(t, got.Tasks, 4)
	assert.Equal(t, 4, got.Tasks[3].SortOrder)
	assert.Equal(t, 25, got.Progress)

	for _, task := range got.Tasks[1:] {
		got, err = s.CompleteTask(ctx, plan.ID, task.ID)
		require.NoError(t, err)
	}
	assert.Equal(t, models.OnboardingCompleted, got.Status)
	assert.Equal(t, 100, got.Progress)
	assert.Equal(t, ActionComplete, rec.Last().Action)

	_, err = s.AddTask(ctx, plan.ID, TaskInput{Title: "late"})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	_, err = s.Cancel(ctx, plan.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestCancelAndStats(t *testing.T) {
	s, _, plan := setup(t)
	ctx := context.Background()

	got, err := s.Cancel(ctx, plan.ID)
	require.NoError(t, err)
	assert.Equal(t, models.OnboardingCancelled, got.Status)

	_, err = s.CompleteTask(ctx, plan.ID, plan.Tasks[0].ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	stats, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, "cancelled", stats[0].Key)
	assert.EqualValues(t, 1, stats[0].Count)
}
