package contacts

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

var firstPage = query.PageRequest{Page: 1, PageSize: 50}

func seedCompany(t *testing.T, s *Service) *models.Company {
	t.Helper()
	c := &models.Company{Code: "C1", Name: "Acme", Type: models.CompanyCustomer, Status: models.StatusActive}
	require.NoError(t, s.DB.Create(c).Error)
	return c
}

func TestListRequiresOwner(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)

	_, err := s.ListContacts(context.Background(), OwnerQuery{OwnerType: models.OwnerCompany}, firstPage)
	require.Error(t, err)
	assert.Equal(t, "ownerType and ownerId are required", err.Error())

	_, err = s.ListAddresses(context.Background(), OwnerQuery{OwnerType: "planet", OwnerID: 1}, firstPage)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
}

func TestCreateChecksOwner(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)

	_, err := s.CreateContact(context.Background(), ContactInput{OwnerType: models.OwnerSupplier, OwnerID: 7, FirstName: "Ann"})
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestSinglePrimaryContact(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()
	co := seedCompany(t, s)

	a, err := s.CreateContact(ctx, ContactInput{OwnerType: models.OwnerCompany, OwnerID: co.ID, FirstName: "Ann", IsPrimary: true})
	require.NoError(t, err)
	bob, err := s.CreateContact(ctx, ContactInput{OwnerType: models.OwnerCompany, OwnerID: co.ID, FirstName: "Bob", IsPrimary: true})
	require.NoError(t, err)

	page, err := s.ListContacts(ctx, OwnerQuery{OwnerType: models.OwnerCompany, OwnerID: co.ID}, firstPage)
	require.NoError(t, err)
	require.Len(t, page.Data, 2)
	assert.Equal(t, bob.ID, page.Data[0].ID)
	assert.True(t, page.Data[0].IsPrimary)
	assert.False(t, page.Data[1].IsPrimary)

	yes := true
	_, err = s.UpdateContact(ctx, a.ID, ContactUpdate{IsPrimary: &yes})
	require.NoError(t, err)
	got, err := s.GetContact(ctx, bob.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPrimary)
}

func TestAddressLifecycle(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := NewService(b)
	ctx := context.Background()
	co := seedCompany(t, s)

	a, err := s.CreateAddress(ctx, AddressInput{OwnerType: models.OwnerCompany, OwnerID: co.ID, Line1: "Main St 1", City: "Berlin", Country: "DE"})
	require.NoError(t, err)
	assert.Equal(t, models.AddressOffice, a.Type)

	city := "Hamburg"
	got, err := s.UpdateAddress(ctx, a.ID, AddressUpdate{City: &city})
	require.NoError(t, err)
	assert.Equal(t, "Hamburg", got.City)

	_, err = s.UpdateAddress(ctx, a.ID, AddressUpdate{})
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))

	require.NoError(t, s.DeleteAddress(ctx, a.ID))
	page, err := s.ListAddresses(ctx, OwnerQuery{OwnerType: models.OwnerCompany, OwnerID: co.ID}, firstPage)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.EqualValues(t, 0, page.Total)
}
