package employees

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

func TestCreateAssignsSequentialNumbers(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()

	a, err := s.Create(ctx, CreateInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Department: "eng"})
	require.NoError(t, err)
	c, err := s.Create(ctx, CreateInput{FirstName: "Charles", LastName: "Babbage", Email: "cb@example.com", ManagerID: &a.ID})
	require.NoError(t, err)

	assert.Equal(t, "EMP-000001", a.EmployeeNumber)
	assert.Equal(t, "EMP-000002", c.EmployeeNumber)
	assert.Equal(t, models.EmployeeActive, a.Status)

	_, err = s.Create(ctx, CreateInput{FirstName: "X", LastName: "Y", Email: "ada@example.com"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	missing := uint(404)
	_, err = s.Create(ctx, CreateInput{FirstName: "X", LastName: "Y", Email: "x@example.com", ManagerID: &missing})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	page, err := s.List(ctx, Filter{ManagerID: &a.ID}, query.PageRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Charles", page.Data[0].FirstName)
}

func TestTerminate(t *testing.T) {
	b, rec := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()

	e, err := s.Create(ctx, CreateInput{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)

	got, err := s.Terminate(ctx, e.ID, TerminateInput{Reason: "relocation"})
	require.NoError(t, err)
	assert.Equal(t, models.EmployeeTerminated, got.Status)
	require.NotNil(t, got.TerminationDate)
	assert.True(t, got.TerminationDate.Equal(servicetest.Clock))
	assert.Equal(t, "relocation", got.TerminationReason)
	assert.Equal(t, "terminate", rec.Last().Action)

	_, err = s.Terminate(ctx, e.ID, TerminateInput{})
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, apperr.KindInvalidState, ae.Kind)
	assert.Equal(t, "terminated", ae.Details["currentStatus"])
}

func TestTerminateBeforeHireDate(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()

	hired := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	e, err := s.Create(ctx, CreateInput{FirstName: "A", LastName: "B", Email: "a@b.io", HireDate: &hired})
	require.NoError(t, err)

	early := hired.AddDate(0, 0, -1)
	_, err = s.Terminate(ctx, e.ID, TerminateInput{Date: &early})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestUpdateRejectsSelfManager(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()

	e, err := s.Create(ctx, CreateInput{FirstName: "A", LastName: "B", Email: "a@b.io"})
	require.NoError(t, err)
	_, err = s.Update(ctx, e.ID, UpdateInput{ManagerID: &e.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	dept := "sales"
	got, err := s.Update(ctx, e.ID, UpdateInput{Department: &dept})
	require.NoError(t, err)
	assert.Equal(t, "sales", got.Department)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Total)
	assert.Equal(t, "sales", st.ByDepartment[0].Key)
}
