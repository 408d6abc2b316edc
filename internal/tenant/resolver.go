// Package tenant resolves a tenant id to that tenant's database connection.
package tenant

import (
	"context"
	"fmt"
	"regexp"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/database"
	"github.com/xelth-com/eckbiz/internal/logger"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{1,62}$`)

// ValidID reports whether id is an acceptable tenant identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id)
}

// Opener opens a fresh connection pool for a tenant.
type Opener interface {
	Open(ctx context.Context, tenantID string) (*gorm.DB, error)
}

// OpenerFunc adapts a function to Opener.
type OpenerFunc func(ctx context.Context, tenantID string) (*gorm.DB, error)

func (f OpenerFunc) Open(ctx context.Context, tenantID string) (*gorm.DB, error) {
	return f(ctx, tenantID)
}

// Resolver caches one pool per tenant. Concurrent first requests for the
// same tenant share a single open.
type Resolver struct {
	opener  Opener
	migrate bool

	mu    sync.RWMutex
	conns map[string]*gorm.DB
	group singleflight.Group
}

// NewResolver builds a resolver. With migrate set, each tenant schema is
// migrated when its pool is first opened.
func NewResolver(opener Opener, migrate bool) *Resolver {
	return &Resolver{
		opener:  opener,
		migrate: migrate,
		conns:   make(map[string]*gorm.DB),
	}
}

// DB returns the tenant connection bound to ctx.
func (r *Resolver) DB(ctx context.Context, tenantID string) (*gorm.DB, error) {
	if !ValidID(tenantID) {
		return nil, apperr.Validation("invalid tenant id %q", tenantID)
	}

	r.mu.RLock()
	db, ok := r.conns[tenantID]
	r.mu.RUnlock()
	if ok {
		return db.WithContext(ctx), nil
	}

	v, err, _ := r.group.Do(tenantID, func() (interface{}, error) {
		r.mu.RLock()
		db, ok := r.conns[tenantID]
		r.mu.RUnlock()
		if ok {
			return db, nil
		}

		// detached so one caller's cancellation does not fail the shared open
		openCtx := context.WithoutCancel(ctx)
		db, err := r.opener.Open(openCtx, tenantID)
		if err != nil {
			return nil, fmt.Errorf("open tenant %s: %w", tenantID, err)
		}
		if r.migrate {
			if err := database.Migrate(db.WithContext(openCtx)); err != nil {
				closeDB(db)
				return nil, fmt.Errorf("tenant %s: %w", tenantID, err)
			}
		}

		r.mu.Lock()
		r.conns[tenantID] = db
		r.mu.Unlock()
		logger.FromContext(ctx).Info("tenant ready", zap.String("tenant", tenantID))
		return db, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*gorm.DB).WithContext(ctx), nil
}

// Tenants lists the tenants with an open pool.
func (r *Resolver) Tenants() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.conns))
	for id := range r.conns {
		out = append(out, id)
	}
	return out
}

// Close closes every cached pool.
func (r *Resolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	var firstErr error
	for id, db := range r.conns {
		if err := closeDB(db); err != nil && firstErr == nil {
			firstErr = err
		}
		delete(r.conns, id)
	}
	return firstErr
}

func closeDB(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
