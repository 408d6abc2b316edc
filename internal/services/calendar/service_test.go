package calendar

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

var (
	firstPage = query.PageRequest{Page: 1, PageSize: 50}
	nine      = time.Date(2025, 6, 16, 9, 0, 0, 0, time.UTC)
)

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

func TestCreateValidatesWindow(t *testing.T) {
	s, _ := setup(t)
	_, err := s.Create(context.Background(), CreateInput{Title: "x", StartsAt: nine, EndsAt: nine.Add(-time.Hour)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Create(context.Background(), CreateInput{Title: "x", StartsAt: nine, EndsAt: nine, AttendeeIDs: []uint{99}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = s.Create(context.Background(), CreateInput{Title: "x", StartsAt: nine, EndsAt: nine, RelatedType: models.OwnerCompany})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestListFilters(t *testing.T) {
	s, staff := setup(t)
	ctx := context.Background()

	standup, err := s.Create(ctx, CreateInput{
		Title:       "Standup",
		StartsAt:    nine,
		EndsAt:      nine.Add(15 * time.Minute),
		OrganizerID: &staff[0].ID,
		AttendeeIDs: []uint{staff[0].ID, staff[1].ID},
	})
	require.NoError(t, err)
	assert.Len(t, standup.Attendees, 2)
	assert.Equal(t, models.EventMeeting, standup.Type)

	_, err = s.Create(ctx, CreateInput{Title: "Holiday", Type: models.EventHoliday, AllDay: true,
		StartsAt: nine.AddDate(0, 0, 7), EndsAt: nine.AddDate(0, 0, 8)})
	require.NoError(t, err)

	from, to := nine.Add(10*time.Minute), nine.Add(time.Hour)
	page, err := s.List(ctx, Filter{From: &from, To: &to}, firstPage)
	require.NoError(t, err)
	require.Len(t, page.Data, 1, "overlapping window")
	assert.Equal(t, "Standup", page.Data[0].Title)

	page, err = s.List(ctx, Filter{AttendeeID: &staff[1].ID}, firstPage)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	page, err = s.List(ctx, Filter{Type: "holiday"}, firstPage)
	require.NoError(t, err)
	assert.Len(t, page.Data, 1)

	got, err := s.Update(ctx, standup.ID, UpdateInput{AttendeeIDs: []uint{staff[1].ID}})
	require.NoError(t, err)
	require.Len(t, got.Attendees, 1)
	assert.Equal(t, staff[1].ID, got.Attendees[0].ID)

	late := nine.Add(-time.Hour)
	_, err = s.Update(ctx, standup.ID, UpdateInput{EndsAt: &late})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}
