package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/models"
)

func sqliteOpener(t *testing.T, opens *int32) Opener {
	return OpenerFunc(func(ctx context.Context, id string) (*gorm.DB, error) {
		atomic.AddInt32(opens, 1)
		time.Sleep(20 * time.Millisecond)
		dsn := "file:" + t.Name() + "_" + id + "?mode=memory&cache=shared"
		return gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	})
}

func TestValidID(t *testing.T) {
	assert.True(t, ValidID("acme"))
	assert.True(t, ValidID("acme-eu_2"))
	assert.False(t, ValidID("a"))
	assert.False(t, ValidID("Acme"))
	assert.False(t, ValidID("-acme"))
	assert.False(t, ValidID("acme;drop"))
	assert.False(t, ValidID(""))
}

func TestResolverRejectsInvalidID(t *testing.T) {
	var opens int32
	r := NewResolver(sqliteOpener(t, &opens), false)
	_, err := r.DB(context.Background(), "../etc")
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Zero(t, opens)
}

func TestResolverOpensOncePerTenant(t *testing.T) {
	var opens int32
	r := NewResolver(sqliteOpener(t, &opens), true)
	defer r.Close()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := r.DB(context.Background(), "acme")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&opens))

	_, err := r.DB(context.Background(), "globex")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&opens))
	assert.ElementsMatch(t, []string{"acme", "globex"}, r.Tenants())

	db, err := r.DB(context.Background(), "acme")
	require.NoError(t, err)
	assert.True(t, db.Migrator().HasTable(&models.Quote{}))
}

func TestResolverDoesNotCacheFailures(t *testing.T) {
	calls := 0
	r := NewResolver(OpenerFunc(func(ctx context.Context, id string) (*gorm.DB, error) {
		calls++
		if calls == 1 {
			return nil, errors.New("connection refused")
		}
		return gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{Logger: gormlogger.Discard})
	}), false)
	defer r.Close()

	_, err := r.DB(context.Background(), "acme")
	require.Error(t, err)
	_, err = r.DB(context.Background(), "acme")
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestContextHelpers(t *testing.T) {
	ctx := WithID(context.Background(), "acme")
	assert.Equal(t, "acme", IDFrom(ctx))
	assert.Nil(t, DBFrom(ctx))
	assert.Empty(t, IDFrom(context.Background()))
}

func TestResolverUnknownTenantIsNotFound(t *testing.T) {
	r := NewResolver(OpenerFunc(func(ctx context.Context, id string) (*gorm.DB, error) {
		return nil, apperr.NotFound("tenant", id)
	}), true)

	_, err := r.DB(context.Background(), "ghost")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound), "%v", err)
	assert.Empty(t, r.Tenants())
}
