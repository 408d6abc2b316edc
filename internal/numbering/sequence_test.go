package numbering

import (
	"regexp"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/xelth-com/eckbiz/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.DocumentSequence{}))
	return db
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "QUO-2025-000001", FormatYearly(ScopeQuote, 2025, 1))
	assert.Equal(t, "SO-2024-001234", FormatYearly(ScopeSalesOrder, 2024, 1234))
	assert.Equal(t, "EMP-000042", FormatPlain(ScopeEmployee, 42))
}

func TestYearlyIncrementsPerScopeAndYear(t *testing.T) {
	db := setupDB(t)
	at := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	first, err := Yearly(db, ScopeQuote, at)
	require.NoError(t, err)
	second, err := Yearly(db, ScopeQuote, at)
	require.NoError(t, err)
	assert.Equal(t, "QUO-2025-000001", first)
	assert.Equal(t, "QUO-2025-000002", second)

	other, err := Yearly(db, ScopeSalesOrder, at)
	require.NoError(t, err)
	assert.Equal(t, "SO-2025-000001", other)

	nextYear, err := Yearly(db, ScopeQuote, at.AddDate(1, 0, 0))
	require.NoError(t, err)
	assert.Equal(t, "QUO-2026-000001", nextYear)

	emp, err := Plain(db, ScopeEmployee)
	require.NoError(t, err)
	assert.Equal(t, "EMP-000001", emp)
}

func TestRollbackReleasesNumber(t *testing.T) {
	db := setupDB(t)
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := Yearly(tx, ScopeExpense, at)
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	n, err := Yearly(db, ScopeExpense, at)
	require.NoError(t, err)
	assert.Equal(t, "EXP-2025-000001", n)
}

func TestConcurrentNumbersAreUnique(t *testing.T) {
	db := setupDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	const workers = 20
	var (
		mu   sync.Mutex
		seen = map[int64]bool{}
		wg   sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := Next(db, ScopeTicket, 2025)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			seen[v] = true
			mu.Unlock()
		}()
	}
	wg.Wait()
	assert.Len(t, seen, workers)
}

func TestNextIssuesSingleUpsertOnPostgres(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{Logger: gormlogger.Discard})
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO document_sequences (scope, year, last_value) VALUES ($1, $2, 1)")).
		WithArgs(ScopeQuote, 2025).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(7))

	n, err := Yearly(db, ScopeQuote, time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "QUO-2025-000007", n)
	require.NoError(t, mock.ExpectationsWereMet())
}
