package suppliers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/query"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

func TestCreateDefaults(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)

	sup, err := s.Create(context.Background(), CreateInput{Code: "S1", Name: "Acme Parts"})
	require.NoError(t, err)
	assert.Equal(t, 30, sup.PaymentTerms)
	assert.Equal(t, models.StatusActive, sup.Status)

	_, err = s.Create(context.Background(), CreateInput{Code: "S1", Name: "Again"})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestListMinRating(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()

	for i, r := range []int{1, 3, 5} {
		_, err := s.Create(ctx, CreateInput{Code: string(rune('A' + i)), Name: "Supplier", Rating: r})
		require.NoError(t, err)
	}

	minRating := 3
	page, err := s.List(ctx, Filter{MinRating: &minRating}, query.PageRequest{Page: 1, PageSize: 20, SortBy: "rating", SortDir: "desc"})
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, 5, page.Data[0].Rating)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.Total)
	assert.InDelta(t, 3.0, st.AverageRating, 0.001)
}

func TestBlockSupplier(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()

	sup, err := s.Create(ctx, CreateInput{Code: "S1", Name: "Acme"})
	require.NoError(t, err)

	blocked := models.StatusBlocked
	got, err := s.Update(ctx, sup.ID, UpdateInput{Status: &blocked})
	require.NoError(t, err)
	assert.Equal(t, models.StatusBlocked, got.Status)

	require.NoError(t, s.Delete(ctx, sup.ID))
	_, err = s.Get(ctx, sup.ID)
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}
