package quotes

import (
	"context"
	"testing"
	"time"

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

type fixture struct {
	svc     *Service
	rec     *servicetest.Recorder
	company *models.Company
}

func setup(t *testing.T) fixture {
	t.Helper()
	b, rec := servicetest.Base(t)
	c := &models.Company{Code: "C1", Name: "Acme", Type: models.CompanyCustomer, Status: models.StatusActive}
	require.NoError(t, b.DB.Create(c).Error)
	return fixture{svc: NewService(b), rec: rec, company: c}
}

func (f fixture) create(t *testing.T, mutate ...func(*CreateInput)) *models.Quote {
	t.Helper()
	in := CreateInput{
		CompanyID:       f.company.ID,
		DiscountPercent: dec("10"),
		OwnerID:         "user-1",
		Items: []services.LineInput{
			{Description: "Consulting", Quantity: dec("8"), UnitPrice: decPtr("100"), TaxRate: decPtr("10")},
			{Description: "Travel", Quantity: dec("2"), UnitPrice: decPtr("100"), TaxRate: decPtr("10")},
		},
	}
	for _, m := range mutate {
		m(&in)
	}
	q, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	return q
}

func TestCreateRecomputesTotals(t *testing.T) {
	f := setup(t)
	q := f.create(t)

	assert.Equal(t, "QUO-2025-000001", q.Number)
	assert.Equal(t, models.QuoteDraft, q.Status)
	assert.Equal(t, "EUR", q.Currency)
	assertDec(t, "1000", q.Subtotal)
	assertDec(t, "100", q.DiscountAmount)
	assertDec(t, "100", q.TaxAmount)
	assertDec(t, "1000", q.Total)
	require.Len(t, q.Items, 2)
	assert.Equal(t, 1, q.Items[0].LineNumber)
	assertDec(t, "800", q.Items[0].LineTotal)
	assert.True(t, q.ValidUntil.Equal(servicetest.Clock.Add(30*24*time.Hour)))

	second := f.create(t)
	assert.Equal(t, "QUO-2025-000002", second.Number)
}

func TestCreateValidation(t *testing.T) {
	f := setup(t)
	ctx := context.Background()

	_, err := f.svc.Create(ctx, CreateInput{CompanyID: f.company.ID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = f.svc.Create(ctx, CreateInput{CompanyID: 404, Items: []services.LineInput{{Description: "x", Quantity: dec("1")}}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))

	missing := uint(77)
	_, err = f.svc.Create(ctx, CreateInput{CompanyID: f.company.ID, Items: []services.LineInput{{ProductID: &missing, Quantity: dec("1")}}})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestContactMustBelongToClient(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	db := f.svc.DB

	other := &models.Company{Code: "C2", Name: "Globex", Type: models.CompanyCustomer, Status: models.StatusActive}
	require.NoError(t, db.Create(other).Error)
	own := &models.Contact{OwnerType: models.OwnerCompany, OwnerID: f.company.ID, FirstName: "Ann"}
	foreign := &models.Contact{OwnerType: models.OwnerCompany, OwnerID: other.ID, FirstName: "Bob"}
	supplierSide := &models.Contact{OwnerType: models.OwnerSupplier, OwnerID: f.company.ID, FirstName: "Sue"}
	require.NoError(t, db.Create([]*models.Contact{own, foreign, supplierSide}).Error)

	for _, c := range []*models.Contact{foreign, supplierSide} {
		id := c.ID
		_, err := f.svc.Create(ctx, CreateInput{
			CompanyID: f.company.ID, ContactID: &id,
			Items: []services.LineInput{{Description: "x", Quantity: dec("1"), UnitPrice: decPtr("1")}},
		})
		assert.True(t, apperr.IsKind(err, apperr.KindValidation), "contact %s: %v", c.FirstName, err)
	}

	q := f.create(t, func(in *CreateInput) { in.ContactID = &own.ID })
	assert.Equal(t, own.ID, *q.ContactID)

	foreignID := foreign.ID
	_, err := f.svc.Update(ctx, q.ID, UpdateInput{ContactID: &foreignID})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	missing := uint(999)
	_, err = f.svc.Update(ctx, q.ID, UpdateInput{ContactID: &missing})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestLinesDefaultFromProduct(t *testing.T) {
	f := setup(t)
	p := &models.Product{SKU: "W-1", Name: "Widget", UnitPrice: dec("12.50"), TaxRate: dec("20"), IsActive: true}
	require.NoError(t, f.svc.DB.Create(p).Error)

	q := f.create(t, func(in *CreateInput) {
		in.DiscountPercent = decimal.Zero
		in.Items = []services.LineInput{{ProductID: &p.ID, Quantity: dec("4")}}
	})
	require.Len(t, q.Items, 1)
	assert.Equal(t, "Widget", q.Items[0].Description)
	assertDec(t, "50", q.Subtotal)
	assertDec(t, "10", q.TaxAmount)
	assertDec(t, "60", q.Total)
}

func TestUpdateReplacesItems(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.create(t)

	got, err := f.svc.Update(ctx, q.ID, UpdateInput{
		Items: []services.LineInput{{Description: "Only line", Quantity: dec("1"), UnitPrice: decPtr("50")}},
	})
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	assertDec(t, "50", got.Subtotal)
	assertDec(t, "5", got.DiscountAmount)
	assertDec(t, "45", got.Total)

	got, err = f.svc.Update(ctx, q.ID, UpdateInput{DiscountAmount: decPtr("20")})
	require.NoError(t, err)
	assertDec(t, "0", got.DiscountPercent)
	assertDec(t, "30", got.Total)

	_, err = f.svc.Update(ctx, q.ID, UpdateInput{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestEditRejectedAfterAccept(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.create(t)

	_, err := f.svc.Accept(ctx, q.ID, "user-2")
	require.NoError(t, err)

	notes := "late change"
	_, err = f.svc.Update(ctx, q.ID, UpdateInput{Notes: &notes})
	require.Error(t, err)
	assert.Equal(t, "cannot edit quote in status accepted", err.Error())

	_, err = f.svc.Reject(ctx, q.ID, "user-2", "too late")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
	_, err = f.svc.Send(ctx, q.ID, "user-2")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))
}

func TestAcceptExpiredQuoteFails(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	q := f.create(t, func(in *CreateInput) {
		in.IssueDate = &issued
		in.ValidUntil = &valid
	})

	_, err := f.svc.Accept(ctx, q.ID, "user-2")
	require.Error(t, err)
	assert.Equal(t, "cannot accept expired quote", err.Error())

	actions, err := f.svc.Actions(ctx, q.ID)
	require.NoError(t, err)
	assert.Contains(t, actions, ActionExpire)
	assert.NotContains(t, actions, ActionAccept)

	got, err := f.svc.Expire(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteExpired, got.Status)
	require.NotNil(t, got.ExpiredAt)

	_, err = f.svc.Accept(ctx, q.ID, "user-2")
	assert.Equal(t, "cannot accept expired quote", err.Error())
}

func TestExpireRequiresPastValidity(t *testing.T) {
	f := setup(t)
	q := f.create(t)
	_, err := f.svc.Expire(context.Background(), q.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSendViewAcceptConvert(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	q := f.create(t)

	got, err := f.svc.Send(ctx, q.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSent, got.Status)
	require.NotNil(t, got.SentBy)
	assert.Equal(t, "user-1", *got.SentBy)

	got, err = f.svc.View(ctx, q.ID)
	require.NoError(t, err)
	require.NotNil(t, got.ViewedAt)
	firstView := *got.ViewedAt

	got, err = f.svc.View(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, models.QuoteViewed, got.Status)
	assert.True(t, got.ViewedAt.Equal(firstView))

	_, err = f.svc.Convert(ctx, q.ID, "user-1")
	assert.True(t, apperr.IsKind(err, apperr.KindInvalidState))

	_, err = f.svc.Accept(ctx, q.ID, "client")
	require.NoError(t, err)

	got, err = f.svc.Convert(ctx, q.ID, "user-1")
	require.NoError(t, err)
	assert.Equal(t, models.QuoteConverted, got.Status)
	require.NotNil(t, got.SalesOrderID)
	assert.Equal(t, "convert", f.rec.Last().Action)

	var order models.SalesOrder
	require.NoError(t, f.svc.DB.Preload("Items").First(&order, *got.SalesOrderID).Error)
	assert.Equal(t, "SO-2025-000001", order.Number)
	assert.Equal(t, models.OrderPending, order.Status)
	require.NotNil(t, order.QuoteID)
	assert.Equal(t, q.ID, *order.QuoteID)
	assert.Len(t, order.Items, 2)
	assertDec(t, "1000", order.Total)
}

func TestClone(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	issued := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	valid := issued.AddDate(0, 0, 14)
	q := f.create(t, func(in *CreateInput) {
		in.IssueDate = &issued
		in.ValidUntil = &valid
	})
	_, err := f.svc.Reject(ctx, q.ID, "user-1", "price")
	require.NoError(t, err)

	c, err := f.svc.Clone(ctx, q.ID, CloneInput{UserID: "user-3"})
	require.NoError(t, err)
	assert.NotEqual(t, q.Number, c.Number)
	assert.Equal(t, models.QuoteDraft, c.Status)
	assert.Equal(t, "user-3", c.OwnerID)
	assert.True(t, c.IssueDate.Equal(servicetest.Clock))
	assert.Equal(t, 14*24*time.Hour, c.ValidUntil.Sub(c.IssueDate))
	require.Len(t, c.Items, len(q.Items))
	for i := range c.Items {
		assert.NotEqual(t, q.Items[i].ID, c.Items[i].ID)
		assert.Equal(t, q.Items[i].Description, c.Items[i].Description)
		assertDec(t, q.Items[i].LineTotal.String(), c.Items[i].LineTotal)
	}

	sent := models.QuoteSent
	c2, err := f.svc.Clone(ctx, q.ID, CloneInput{Status: &sent})
	require.NoError(t, err)
	assert.Equal(t, models.QuoteSent, c2.Status)
	assert.NotNil(t, c2.SentAt)

	accepted := models.QuoteAccepted
	_, err = f.svc.Clone(ctx, q.ID, CloneInput{Status: &accepted})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestStatsAcceptanceRate(t *testing.T) {
	f := setup(t)
	ctx := context.Background()
	a := f.create(t)
	r := f.create(t)
	s := f.create(t)
	f.create(t)

	_, err := f.svc.Accept(ctx, a.ID, "")
	require.NoError(t, err)
	_, err = f.svc.Reject(ctx, r.ID, "", "no")
	require.NoError(t, err)
	_, err = f.svc.Send(ctx, s.ID, "")
	require.NoError(t, err)

	st, err := f.svc.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 4, st.Total)
	assert.InDelta(t, 50.0, st.AcceptanceRate, 0.001)
	assertDec(t, "1000", st.PipelineValue)
	assert.Len(t, st.ByStatus, 4)
}
