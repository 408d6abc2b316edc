// Package numbering issues human-readable sequential document numbers.
//
// Numbers come from a per-tenant counter table bumped with a single
// INSERT ... ON CONFLICT ... RETURNING statement, so concurrent creates in the
// same scope and year never observe the same value.
package numbering

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Scopes and their printed prefixes.
const (
	ScopeQuote      = "QUO"
	ScopeSalesOrder = "SO"
	ScopeExpense    = "EXP"
	ScopeTicket     = "TCK"
	ScopeEmployee   = "EMP"
)

const nextSQL = `INSERT INTO document_sequences (scope, year, last_value) VALUES (?, ?, 1)
ON CONFLICT (scope, year) DO UPDATE SET last_value = document_sequences.last_value + 1
RETURNING last_value`

// Next increments and returns the counter for (scope, year). Callers run it
// inside the transaction that inserts the document; the counter row stays
// locked until that transaction ends and a rollback releases the number.
func Next(tx *gorm.DB, scope string, year int) (int64, error) {
	var v int64
	if err := tx.Raw(nextSQL, scope, year).Scan(&v).Error; err != nil {
		return 0, fmt.Errorf("next %s sequence: %w", scope, err)
	}
	if v <= 0 {
		return 0, fmt.Errorf("next %s sequence: no value returned", scope)
	}
	return v, nil
}

// Yearly issues a number such as QUO-2025-000001 for the year of at.
func Yearly(tx *gorm.DB, scope string, at time.Time) (string, error) {
	year := at.Year()
	n, err := Next(tx, scope, year)
	if err != nil {
		return "", err
	}
	return FormatYearly(scope, year, n), nil
}

// Plain issues a number with no year component, such as EMP-000042.
func Plain(tx *gorm.DB, scope string) (string, error) {
	n, err := Next(tx, scope, 0)
	if err != nil {
		return "", err
	}
	return FormatPlain(scope, n), nil
}

func FormatYearly(scope string, year int, n int64) string {
	return fmt.Sprintf("%s-%04d-%06d", scope, year, n)
}

func FormatPlain(scope string, n int64) string {
	return fmt.Sprintf("%s-%06d", scope, n)
}
