// Package query builds filtered, paginated list queries and partial updates
// on top of gorm. Column names are always supplied by code; user input only
// ever travels as bound parameters.
package query

import (
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm"
)

type condition struct {
	sql  string
	args []any
}

// Filter accumulates optional WHERE conditions. Absent values add nothing.
type Filter struct {
	conds []condition
}

// NewFilter returns an empty filter.
func NewFilter() *Filter {
	return &Filter{}
}

// Eq adds col = v unless v is nil, a nil pointer or an empty string.
func (f *Filter) Eq(col string, v any) *Filter {
	if val, ok := present(v); ok {
		f.conds = append(f.conds, condition{sql: col + " = ?", args: []any{val}})
	}
	return f
}

// Gte adds col >= v when present.
func (f *Filter) Gte(col string, v any) *Filter {
	if val, ok := present(v); ok {
		f.conds = append(f.conds, condition{sql: col + " >= ?", args: []any{val}})
	}
	return f
}

// Lte adds col <= v when present.
func (f *Filter) Lte(col string, v any) *Filter {
	if val, ok := present(v); ok {
		f.conds = append(f.conds, condition{sql: col + " <= ?", args: []any{val}})
	}
	return f
}

// Lt adds col < v when present.
func (f *Filter) Lt(col string, v any) *Filter {
	if val, ok := present(v); ok {
		f.conds = append(f.conds, condition{sql: col + " < ?", args: []any{val}})
	}
	return f
}

// Range adds an inclusive range; either bound may be absent.
func (f *Filter) Range(col string, from, to any) *Filter {
	return f.Gte(col, from).Lte(col, to)
}

// In adds col IN (...) when values is non-empty.
func (f *Filter) In(col string, values []string) *Filter {
	if len(values) > 0 {
		f.conds = append(f.conds, condition{sql: col + " IN ?", args: []any{values}})
	}
	return f
}

// Search adds a case-insensitive substring match ORed across cols.
func (f *Filter) Search(text string, cols ...string) *Filter {
	text = strings.TrimSpace(text)
	if text == "" || len(cols) == 0 {
		return f
	}
	pattern := "%" + escapeLike(strings.ToLower(text)) + "%"
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("LOWER(%s) LIKE ? ESCAPE '\\'", col)
		args[i] = pattern
	}
	f.conds = append(f.conds, condition{sql: "(" + strings.Join(parts, " OR ") + ")", args: args})
	return f
}

// Where adds a raw condition. sql must not contain user input.
func (f *Filter) Where(sql string, args ...any) *Filter {
	f.conds = append(f.conds, condition{sql: sql, args: args})
	return f
}

// Len returns the number of conditions.
func (f *Filter) Len() int { return len(f.conds) }

// Scope applies the conditions to a gorm query.
func (f *Filter) Scope() func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		for _, c := range f.conds {
			db = db.Where(c.sql, c.args...)
		}
		return db
	}
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// present dereferences pointers and reports whether v carries a value.
func present(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil, false
		}
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.String && rv.Len() == 0 {
		return nil, false
	}
	return rv.Interface(), true
}
