// Package servicetest provides tenant databases and fixtures for service tests.
package servicetest

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/eckbiz/internal/database"
	"github.com/xelth-com/eckbiz/internal/lifecycle"
	"github.com/xelth-com/eckbiz/internal/services"
)

// Clock is the fixed "now" of every service test.
var Clock = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

// NewDB opens a migrated in-memory SQLite database private to t.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// one connection keeps the shared in-memory database alive and serializes writers
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, database.Migrate(db))
	return db
}

// Recorder collects published events.
type Recorder struct {
	mu     sync.Mutex
	Events []lifecycle.Event
}

func (r *Recorder) Notify(_ context.Context, ev lifecycle.Event) {
	r.mu.Lock()
	r.Events = append(r.Events, ev)
	r.mu.Unlock()
}

// Last returns the most recent event.
func (r *Recorder) Last() lifecycle.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.Events) == 0 {
		return lifecycle.Event{}
	}
	return r.Events[len(r.Events)-1]
}

// Base returns a service base over a fresh database with the fixed clock.
func Base(t *testing.T) (services.Base, *Recorder) {
	t.Helper()
	rec := &Recorder{}
	b := services.NewBase(NewDB(t), rec)
	b.Now = func() time.Time { return Clock }
	return b, rec
}
