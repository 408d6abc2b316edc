package salesorders

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func assertDec(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

func setup(t *testing.T) (*Service, *servicetest.Recorder, *models.SalesOrder) {
	t.Helper()
	b, rec := servicetest.Base(t)
	c := &models.Company{Code: "C1", Name: "Acme", Type: models.CompanyCustomer, Status: models.StatusActive}
	require.NoError(t, b.DB.Create(c).Error)
	s := NewService(b)
	o, err := s.Create(context.Background(), CreateInput{
		CompanyID:      c.ID,
		ShippingAmount: dec("10"),
		OwnerID:        "user-1",
		Items: []services.LineInput{
			{Description: "Chair", Quantity: dec("4"), UnitPrice: decPtr("25"), TaxRate: decPtr("20")},
		},
	})
	require.NoError(t, err)
	return s, rec, o
}

func TestCreateOrder(t *testing.T) {
	_, _, o := setup(t)

	assert.Equal(t, "SO-2025-000001", o.Number)
	assert.Equal(t, models.OrderDraft, o.Status)
	assert.Equal(t, models.PaymentUnpaid, o.PaymentStatus)
	assertDec(t, "100", o.Subtotal)
	assertDec(t, "20", o.TaxAmount)
	assertDec(t, "10", o.ShippingAmount)
	assertDec(t, "130", o.Total)
}

func TestFulfillmentPath(t *testing.T) {
	s, rec, o := setup(t)
	ctx := context.Background()

	steps := []struct {
		run  func() (*models.SalesOrder, error)
		want models.SalesOrderStatus
	}{
		{func() (*models.SalesOrder, error) { return s.Submit(ctx, o.ID) }, models.OrderPending},
		{func() (*models.SalesOrder, error) { return s.Confirm(ctx, o.ID, "user-2") }, models.OrderConfirmed},
		{func() (*models.SalesOrder, error) { return s.Process(ctx, o.ID) }, models.OrderProcessing},
		{func() (*models.SalesOrder, error) { return s.Ship(ctx, o.ID, ShipInput{Partial: true}) }, models.OrderPartiallyShipped},
		{func() (*models.SalesOrder, error) {
			return s.Ship(ctx, o.ID, ShipInput{TrackingNumber: "1Z999", Carrier: "UPS"})
		}, models.OrderShipped},
		{func() (*models.SalesOrder, error) { return s.Deliver(ctx, o.ID, DeliverInput{Partial: true}) }, models.OrderPartiallyDelivered},
		{func() (*models.SalesOrder, error) { return s.Deliver(ctx, o.ID, DeliverInput{}) }, models.OrderDelivered},
		{func() (*models.SalesOrder, error) { return s.Complete(ctx, o.ID) }, models.OrderCompleted},
	}
	for _, st := range steps {
		got, err := st.run()
		require.NoError(t, err, "to %s", st.want)
		assert.Equal(t, st.want, got.Status)
	}

	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, "1Z999", got.TrackingNumber)
	require.NotNil(t, got.ConfirmedBy)
	assert.Equal(t, "user-2", *got.ConfirmedBy)
	assert.NotNil(t, got.ShippedAt)
	assert.NotNil(t, got.DeliveredAt)
	assert.NotNil(t, got.CompletedAt)
	assertDec(t, "4", got.Items[0].QuantityShipped)
	assert.Equal(t, "complete", rec.Last().Action)

	_, err = s.Cancel(ctx, o.ID, "user-2", "changed mind")
	require.Error(t, err)
	ae, ok := apperr.As(err)
	require.True(t, ok)
	assert.Equal(t, "completed", ae.Details["currentStatus"])

	got, err = s.Return(ctx, o.ID, "damaged")
	require.NoError(t, err)
	assert.Equal(t, models.OrderReturned, got.Status)
}

func TestIllegalTransitions(t *testing.T) {
	s, _, o := setup(t)
	ctx := context.Background()

	_, err := s.Ship(ctx, o.ID, ShipInput{})
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	_, err = s.Complete(ctx, o.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	_, err = s.Return(ctx, o.ID, "x")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	_, err = s.Cancel(ctx, o.ID, "user-1", "dup")
	require.NoError(t, err)
	_, err = s.Cancel(ctx, o.ID, "user-1", "dup")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestUpdateOnlyWhileDraftOrPending(t *testing.T) {
	s, _, o := setup(t)
	ctx := context.Background()

	got, err := s.Update(ctx, o.ID, UpdateInput{ShippingAmount: decPtr("0")})
	require.NoError(t, err)
	assertDec(t, "120", got.Total)

	_, err = s.Confirm(ctx, o.ID, "")
	require.NoError(t, err)

	notes := "rush"
	_, err = s.Update(ctx, o.ID, UpdateInput{Notes: &notes})
	require.Error(t, err)
	assert.Equal(t, "cannot edit sales order in status confirmed", err.Error())
}

func TestPayments(t *testing.T) {
	s, _, o := setup(t)
	ctx := context.Background()

	_, err := s.RecordPayment(ctx, o.ID, PaymentInput{Amount: dec("0"), Method: "cash"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.RecordPayment(ctx, o.ID, PaymentInput{Amount: dec("100"), Method: "transfer", RecordedBy: "user-1"})
	require.NoError(t, err)
	got, err := s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPartial, got.PaymentStatus)
	assertDec(t, "100", got.AmountPaid)

	_, err = s.RecordPayment(ctx, o.ID, PaymentInput{Amount: dec("30.01"), Method: "cash"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.RecordPayment(ctx, o.ID, PaymentInput{Amount: dec("30"), Method: "cash"})
	require.NoError(t, err)

	got, err = s.Get(ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPaid, got.PaymentStatus)
	assertDec(t, "0", got.Balance())

	list, err := s.Payments(ctx, o.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestCloneClearsFulfillment(t *testing.T) {
	s, _, o := setup(t)
	ctx := context.Background()
	_, err := s.Confirm(ctx, o.ID, "")
	require.NoError(t, err)
	_, err = s.Ship(ctx, o.ID, ShipInput{TrackingNumber: "T1"})
	require.NoError(t, err)
	_, err = s.RecordPayment(ctx, o.ID, PaymentInput{Amount: dec("50"), Method: "card"})
	require.NoError(t, err)

	c, err := s.Clone(ctx, o.ID, "user-9")
	require.NoError(t, err)
	assert.Equal(t, "SO-2025-000002", c.Number)
	assert.Equal(t, models.OrderDraft, c.Status)
	assert.Equal(t, models.PaymentUnpaid, c.PaymentStatus)
	assert.Empty(t, c.TrackingNumber)
	assert.Nil(t, c.ShippedAt)
	assertDec(t, "0", c.AmountPaid)
	assertDec(t, "130", c.Total)
	require.Len(t, c.Items, 1)
	assert.NotEqual(t, o.Items[0].ID, c.Items[0].ID)
	assertDec(t, "0", c.Items[0].QuantityShipped)
	assert.Empty(t, c.Payments)
}

func TestStatsRevenue(t *testing.T) {
	s, _, o := setup(t)
	ctx := context.Background()
	_, err := s.Clone(ctx, o.ID, "")
	require.NoError(t, err)

	for _, step := range []func() (*models.SalesOrder, error){
		func() (*models.SalesOrder, error) { return s.Confirm(ctx, o.ID, "") },
		func() (*models.SalesOrder, error) { return s.Ship(ctx, o.ID, ShipInput{}) },
		func() (*models.SalesOrder, error) { return s.Deliver(ctx, o.ID, DeliverInput{}) },
	} {
		_, err := step()
		require.NoError(t, err)
	}

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, st.Total)
	assertDec(t, "130", st.Revenue)
	assertDec(t, "130", st.Outstanding)
}
