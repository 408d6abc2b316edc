package shifts

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

var monday = time.Date(2025, 6, 16, 8, 0, 0, 0, time.UTC)

func setup(t *testing.T) (*Service, []models.Employee) {
	t.Helper()
	b, _ := servicetest.Base(t)
	staff := []models.Employee{
		{EmployeeNumber: "EMP-000001", FirstName: "Ada", Email: "ada@example.com", Status: models.EmployeeActive},
		{EmployeeNumber: "EMP-000002", FirstName: "Bob", Email: "bob@example.com", Status: models.EmployeeActive},
	}
	require.NoError(t, b.DB.Create(&staff).Error)
	return NewService(b), staff
}

func shift(emp uint, start time.Time, hours int) CreateInput {
	return CreateInput{EmployeeID: emp, StartsAt: start, EndsAt: start.Add(time.Duration(hours) * time.Hour), Role: "cashier"}
}

func TestOverlapRejected(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	first, err := s.Create(ctx, shift(staff[0].ID, monday, 8))
	require.NoError(t, err)
	assert.Equal(t, models.ShiftScheduled, first.Status)

	_, err = s.Create(ctx, shift(staff[0].ID, monday.Add(4*time.Hour), 8))
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Contains(t, err.Error(), "shift overlaps")

	_, err = s.Create(ctx, shift(staff[1].ID, monday.Add(4*time.Hour), 8))
	require.NoError(t, err, "other employee")

	_, err = s.Create(ctx, shift(staff[0].ID, monday.Add(8*time.Hour), 4))
	require.NoError(t, err, "back-to-back shifts touch but do not overlap")

	_, err = s.Cancel(ctx, first.ID, "sick")
	require.NoError(t, err)
	_, err = s.Create(ctx, shift(staff[0].ID, monday.Add(time.Hour), 2))
	require.NoError(t, err, "cancelled shifts free the slot")
}

func TestUpdateChecksOverlapExcludingItself(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	a, err := s.Create(ctx, shift(staff[0].ID, monday, 4))
	require.NoError(t, err)
	_, err = s.Create(ctx, shift(staff[0].ID, monday.Add(6*time.Hour), 4))
	require.NoError(t, err)

	end := monday.Add(5 * time.Hour)
	got, err := s.Update(ctx, a.ID, UpdateInput{EndsAt: &end})
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Hours())

	end = monday.Add(7 * time.Hour)
	_, err = s.Update(ctx, a.ID, UpdateInput{EndsAt: &end})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	before := monday.Add(-time.Hour)
	_, err = s.Update(ctx, a.ID, UpdateInput{EndsAt: &before})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestTransitionsOnlyFromScheduled(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	sh, err := s.Create(ctx, shift(staff[0].ID, monday, 8))
	require.NoError(t, err)

	got, err := s.Complete(ctx, sh.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftCompleted, got.Status)

	_, err = s.NoShow(ctx, sh.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	role := "manager"
	_, err = s.Update(ctx, sh.ID, UpdateInput{Role: &role})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestStatsHoursPerEmployee(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	for day := 0; day < 3; day++ {
		_, err := s.Create(ctx, shift(staff[0].ID, monday.AddDate(0, 0, day), 8))
		require.NoError(t, err)
	}
	half, err := s.Create(ctx, CreateInput{EmployeeID: staff[1].ID, StartsAt: monday, EndsAt: monday.Add(4*time.Hour + 30*time.Minute)})
	require.NoError(t, err)
	late, err := s.Create(ctx, shift(staff[1].ID, monday.AddDate(0, 0, 1), 8))
	require.NoError(t, err)
	_, err = s.Cancel(ctx, late.ID, "")
	require.NoError(t, err)
	_, err = s.Create(ctx, shift(staff[1].ID, monday.AddDate(0, 0, 14), 8))
	require.NoError(t, err)

	from, to := monday.Add(-time.Hour), monday.AddDate(0, 0, 7)
	stats, err := s.Stats(ctx, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, 28.5, stats.TotalHours)
	require.Len(t, stats.ByEmployee, 2)
	assert.Equal(t, EmployeeHours{EmployeeID: staff[0].ID, Shifts: 3, Hours: 24}, stats.ByEmployee[0])
	assert.Equal(t, EmployeeHours{EmployeeID: half.EmployeeID, Shifts: 1, Hours: 4.5}, stats.ByEmployee[1])
}
