package middleware

import (
	"context"
	"net/http"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/logger"
	"github.com/xelth-com/eckbiz/internal/tenant"
)

// TenantHeader optionally names the tenant a request targets.
const TenantHeader = "X-Tenant-ID"

// DBResolver returns the connection of a tenant.
type DBResolver interface {
	DB(ctx context.Context, tenantID string) (*gorm.DB, error)
}

// Tenant binds the authenticated user's tenant database to the request.
// A tenant header, when sent, must name the token's tenant.
func Tenant(resolver DBResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := ClaimsFrom(r.Context())
			if claims == nil {
				WriteError(w, r, apperr.Unauthorized("authentication required"))
				return
			}
			if h := r.Header.Get(TenantHeader); h != "" && h != claims.Tenant {
				WriteError(w, r, apperr.Forbidden("tenant header does not match token"))
				return
			}
			ctx, err := bindTenant(r.Context(), resolver, claims.Tenant)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// PublicTenant binds the tenant named by the tenant header, for
// unauthenticated endpoints.
func PublicTenant(resolver DBResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(TenantHeader)
			if id == "" {
				WriteError(w, r, apperr.Validation("%s header is required", TenantHeader))
				return
			}
			ctx, err := bindTenant(r.Context(), resolver, id)
			if err != nil {
				WriteError(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bindTenant(ctx context.Context, resolver DBResolver, id string) (context.Context, error) {
	db, err := resolver.DB(ctx, id)
	if err != nil {
		return nil, err
	}
	ctx = tenant.WithID(ctx, id)
	ctx = logger.With(ctx, zap.String("tenant", id))
	// rebind after the logger change so gorm logs carry the tenant field
	return tenant.WithDB(ctx, db.WithContext(ctx)), nil
}
