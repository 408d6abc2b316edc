package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/xelth-com/eckbiz/internal/models"
	"github.com/xelth-com/eckbiz/internal/services/servicetest"
)

func TestSeedIsIdempotent(t *testing.T) {
	b, _ := servicetest.Base(t)
	s := seeder{base: b, log: zap.NewNop()}
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		require.NoError(t, s.admin(ctx, "admin@example.com", "seed-password"))
		require.NoError(t, s.catalog(ctx))
	}

	var count int64
	require.NoError(t, b.DB.Model(&models.UserAuth{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
	require.NoError(t, b.DB.Model(&models.Product{}).Count(&count).Error)
	assert.EqualValues(t, len(demoProducts), count)
	require.NoError(t, b.DB.Model(&models.Employee{}).Where("manager_id IS NOT NULL").Count(&count).Error)
	assert.EqualValues(t, 1, count)

	var admin models.UserAuth
	require.NoError(t, b.DB.Where("email = ?", "admin@example.com").First(&admin).Error)
	assert.Equal(t, models.RoleAdmin, admin.Role)
	assert.True(t, admin.IsActive)
}
