package companies

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

func newService(t *testing.T) *Service {
	b, _ := servicetest.Base(t)
	return NewService(b)
}

func seed(t *testing.T, s *Service) {
	t.Helper()
	ctx := context.Background()
	for _, in := range []CreateInput{
		{Code: "ACM", Name: "Acme Corp", Industry: "manufacturing"},
		{Code: "GLX", Name: "Globex", TradeName: "ACME Trading", Type: models.CompanyPartner},
		{Code: "INI", Name: "Initech", TaxID: "DE-ACME-1", Status: models.StatusInactive},
		{Code: "UMB", Name: "Umbrella", Type: models.CompanyProspect},
	} {
		_, err := s.Create(ctx, in)
		require.NoError(t, err)
	}
}

func TestCreateDefaultsAndDuplicateCode(t *testing.T) {
	s := newService(t)
	ctx := context.Background()

	c, err := s.Create(ctx, CreateInput{Code: "ACM", Name: "Acme", CreditLimit: decimal.NewFromInt(5000)})
	require.NoError(t, err)
	assert.NotZero(t, c.ID)
	assert.Equal(t, models.CompanyCustomer, c.Type)
	assert.Equal(t, models.StatusActive, c.Status)

	_, err = s.Create(ctx, CreateInput{Code: "ACM", Name: "Other"})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, "company code already exists", err.Error())

	_, err = s.Create(ctx, CreateInput{Code: "NEG", Name: "Neg", CreditLimit: decimal.NewFromInt(-1)})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestSearchTextMatchesAnySearchColumnCaseInsensitive(t *testing.T) {
	s := newService(t)
	seed(t, s)
	ctx := context.Background()

	page, err := s.List(ctx, Filter{SearchText: "Acme"}, query.PageRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	var codes []string
	for _, c := range page.Data {
		codes = append(codes, c.Code)
	}
	// name, trade_name and tax_id hits; Umbrella has none
	assert.ElementsMatch(t, []string{"ACM", "GLX", "INI"}, codes)
	assert.EqualValues(t, 3, page.Total)

	page, err = s.List(ctx, Filter{SearchText: "acme", Status: "active"}, query.PageRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)
}

func TestUpdatePartialAndEmpty(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	c, err := s.Create(ctx, CreateInput{Code: "ACM", Name: "Acme", Phone: "123"})
	require.NoError(t, err)

	name := "Acme Holding"
	got, err := s.Update(ctx, c.ID, UpdateInput{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Acme Holding", got.Name)
	assert.Equal(t, "123", got.Phone, "absent field must not be touched")

	_, err = s.Update(ctx, c.ID, UpdateInput{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	_, err = s.Update(ctx, 999, UpdateInput{Name: &name})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestDeleteIsSoft(t *testing.T) {
	s := newService(t)
	ctx := context.Background()
	c, err := s.Create(ctx, CreateInput{Code: "ACM", Name: "Acme"})
	require.NoError(t, err)

	require.NoError(t, s.Delete(ctx, c.ID))

	_, err = s.Get(ctx, c.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
	page, err := s.List(ctx, Filter{}, query.PageRequest{Page: 1, PageSize: 20})
	require.NoError(t, err)
	assert.Empty(t, page.Data)

	var raw models.Company
	require.NoError(t, s.DB.Unscoped().First(&raw, c.ID).Error)
	assert.True(t, raw.DeletedAt.Valid)

	assert.True(t, apperr.IsKind(s.Delete(ctx, c.ID), apperr.KindNotFound))
}

func TestStats(t *testing.T) {
	s := newService(t)
	seed(t, s)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, st.Total)
	byType := map[string]int64{}
	for _, c := range st.ByType {
		byType[c.Key] = c.Count
	}
	assert.Equal(t, map[string]int64{"customer": 2, "partner": 1, "prospect": 1}, byType)
}
