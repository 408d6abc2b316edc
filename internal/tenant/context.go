package tenant

import (
	"context"

	"gorm.io/gorm"
)

type (
	idKey struct{}
	dbKey struct{}
)

// WithID stores the tenant id in ctx.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, idKey{}, id)
}

// IDFrom returns the tenant id stored in ctx.
func IDFrom(ctx context.Context) string {
	id, _ := ctx.Value(idKey{}).(string)
	return id
}

// WithDB stores the tenant connection in ctx.
func WithDB(ctx context.Context, db *gorm.DB) context.Context {
	return context.WithValue(ctx, dbKey{}, db)
}

// DBFrom returns the tenant connection stored in ctx, or nil.
func DBFrom(ctx context.Context) *gorm.DB {
	db, _ := ctx.Value(dbKey{}).(*gorm.DB)
	return db
}
