package expenses

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

var day = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

func item(category, amount, tax string) ItemInput {
	return ItemInput{
		Date:      day,
		Category:  category,
		Amount:    decimal.RequireFromString(amount),
		TaxAmount: decimal.RequireFromString(tax),
	}
}

func setup(t *testing.T) (*Service, *models.Employee) {
	t.Helper()
	b, _ := servicetest.Base(t)
	e := &models.Employee{EmployeeNumber: "EMP-000001", FirstName: "Ada", LastName: "L", Email: "ada@example.com", Status: models.EmployeeActive}
	require.NoError(t, b.DB.Create(e).Error)
	return NewService(b), e
}

func TestCreateSumsItems(t *testing.T) {
	s, e := setup(t)
	c, err := s.Create(context.Background(), CreateInput{
		EmployeeID: e.ID,
		Title:      "Berlin trip",
		Items:      []ItemInput{item("travel", "100", "19"), item("meals", "20.50", "0")},
	})
	require.NoError(t, err)
	assert.Equal(t, "EXP-2025-000001", c.Number)
	assert.True(t, c.TotalAmount.Equal(decimal.RequireFromString("139.5")), c.TotalAmount.String())
	assert.Len(t, c.Items, 2)

	_, err = s.Create(context.Background(), CreateInput{EmployeeID: 999, Title: "x"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	_, err = s.Create(context.Background(), CreateInput{EmployeeID: e.ID, Title: "x", Items: []ItemInput{item("travel", "0", "0")}})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestApprovalFlow(t *testing.T) {
	s, e := setup(t)
	ctx := context.Background()
	c, err := s.Create(ctx, CreateInput{EmployeeID: e.ID, Title: "Empty"})
	require.NoError(t, err)

	_, err = s.Submit(ctx, c.ID)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Update(ctx, c.ID, UpdateInput{Items: []ItemInput{item("office", "40", "0")}})
	require.NoError(t, err)

	got, err := s.Submit(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseSubmitted, got.Status)
	assert.NotNil(t, got.SubmittedAt)

	title := "changed"
	_, err = s.Update(ctx, c.ID, UpdateInput{Title: &title})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	_, err = s.Pay(ctx, c.ID, "TRX-1")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	got, err = s.Approve(ctx, c.ID, "manager")
	require.NoError(t, err)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, "manager", *got.ApprovedBy)

	got, err = s.Pay(ctx, c.ID, "TRX-1")
	require.NoError(t, err)
	assert.Equal(t, models.ExpensePaid, got.Status)
	assert.Equal(t, "TRX-1", got.PaymentReference)
}

func TestStats(t *testing.T) {
	s, e := setup(t)
	ctx := context.Background()
	a, err := s.Create(ctx, CreateInput{EmployeeID: e.ID, Title: "A", Items: []ItemInput{item("travel", "100", "10")}})
	require.NoError(t, err)
	_, err = s.Create(ctx, CreateInput{EmployeeID: e.ID, Title: "B", Items: []ItemInput{item("travel", "50", "0"), item("meals", "5", "0")}})
	require.NoError(t, err)
	_, err = s.Submit(ctx, a.ID)
	require.NoError(t, err)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	require.Len(t, st.ByStatus, 2)
	require.Len(t, st.ByCategory, 2)
	assert.Equal(t, "travel", st.ByCategory[1].Key)
	assert.True(t, st.ByCategory[1].Amount.Equal(decimal.NewFromInt(160)), st.ByCategory[1].Amount.String())

	n, err := PendingApproval(s.DB)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}
