// Package services holds the helpers every module service shares. Module
// services live in sub-packages and are built per request on the tenant
// connection.
package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/xelth-com/eckbiz/internal/apperr"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/metrics"
	"github.com/xelth-com/eckbiz/internal/query"
)

// Base carries the tenant connection, the clock and the event sink.
type Base struct {
	DB     *gorm.DB
	Now    func() time.Time
	Events lifecycle.Notifier
}

// NewBase returns a Base using wall-clock UTC time. A nil notifier drops events.
func NewBase(db *gorm.DB, events lifecycle.Notifier) Base {
	if events == nil {
		events = lifecycle.Discard{}
	}
	return Base{DB: db, Now: func() time.Time { return time.Now().UTC() }, Events: events}
}

// Tx runs fn in a transaction bound to ctx.
func (b Base) Tx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return b.DB.WithContext(ctx).Transaction(fn)
}

// Conn returns the connection bound to ctx.
func (b Base) Conn(ctx context.Context) *gorm.DB {
	return b.DB.WithContext(ctx)
}

// Transitioned records and publishes an applied status change.
func (b Base) Transitioned(ctx context.Context, entity, action string, id uint, number, status string) {
	metrics.RecordTransition(entity, action)
	b.Events.Notify(ctx, lifecycle.Event{
		Type:   "transition",
		Entity: entity,
		ID:     id,
		Number: number,
		Status: status,
		Action: action,
		At:     b.Now(),
	})
}

// Find loads T by primary key. Soft-deleted rows are not found.
func Find[T any](db *gorm.DB, entity string, id uint, preloads ...string) (*T, error) {
	var row T
	q := db
	for _, p := range preloads {
		q = q.Preload(p)
	}
	if err := q.First(&row, id).Error; err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &row, nil
}

// FindForUpdate loads T by primary key holding a row lock until tx ends.
// SQLite has no row locks and ignores the clause.
func FindForUpdate[T any](tx *gorm.DB, entity string, id uint) (*T, error) {
	var row T
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&row, id).Error; err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return &row, nil
}

// Exists reports whether a live T with id exists.
func Exists[T any](db *gorm.DB, id uint) (bool, error) {
	var n int64
	if err := db.Model(new(T)).Where("id = ?", id).Count(&n).Error; err != nil {
		return false, err
	}
	return n > 0, nil
}

// MustExist returns NotFound unless a live T with id exists.
func MustExist[T any](db *gorm.DB, entity string, id uint) error {
	ok, err := Exists[T](db, id)
	if err != nil {
		return fmt.Errorf("check %s: %w", entity, err)
	}
	if !ok {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// SoftDelete stamps deleted_at on T. Missing or already deleted rows are NotFound.
func SoftDelete[T any](db *gorm.DB, entity string, id uint) error {
	res := db.Delete(new(T), id)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", entity, res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound(entity, id)
	}
	return nil
}

// Update applies a non-empty patch to T and returns the reloaded row.
func Update[T any](db *gorm.DB, entity string, id uint, p query.Patch, preloads ...string) (*T, error) {
	if p.Empty() {
		return nil, apperr.Validation("no fields to update")
	}
	row, err := Find[T](db, entity, id)
	if err != nil {
		return nil, err
	}
	if err := p.Apply(db, row); err != nil {
		return nil, apperr.FromDB(err, entity, id)
	}
	return Find[T](db, entity, id, preloads...)
}

// Count is one row of a grouped count.
type Count struct {
	Key   string `gorm:"column:group_key" json:"key"`
	Count int64  `json:"count"`
}

// CountBy groups live T rows by col.
func CountBy[T any](db *gorm.DB, col string) ([]Count, error) {
	var out []Count
	err := db.Model(new(T)).
		Select(col + " AS group_key, COUNT(*) AS count").
		Group(col).
		Order(col).
		Scan(&out).Error
	if err != nil {
		return nil, fmt.Errorf("count by %s: %w", col, err)
	}
	if out == nil {
		out = []Count{}
	}
	return out, nil
}
