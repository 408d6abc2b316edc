package query

import (
	"sort"

	"gorm.io/gorm"
)

// Patch is a partial update keyed by column. Only fields explicitly present in
// the request are recorded, so an omitted field is never written.
type Patch map[string]any

// Set records v under col when v is non-nil.
func Set[T any](p Patch, col string, v *T) {
	if v != nil {
		p[col] = *v
	}
}

// Put records a value unconditionally (server-computed columns).
func (p Patch) Put(col string, v any) {
	p[col] = v
}

func (p Patch) Has(col string) bool {
	_, ok := p[col]
	return ok
}

func (p Patch) Empty() bool { return len(p) == 0 }

// Columns returns the recorded columns in stable order.
func (p Patch) Columns() []string {
	cols := make([]string, 0, len(p))
	for c := range p {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

// Apply writes the patch to the row identified by model's primary key.
func (p Patch) Apply(db *gorm.DB, model any) error {
	if p.Empty() {
		return nil
	}
	return db.Model(model).Updates(map[string]any(p)).Error
}
