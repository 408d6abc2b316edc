package query

import (
	"fmt"
	"math"
	"net/url"
	"strconv"
	"strings"

	"gorm.io/gorm"
)

const MaxPageSize = 100

// PageRequest carries the paging and ordering parameters of a list call.
type PageRequest struct {
	Page     int
	PageSize int
	SortBy   string
	SortDir  string
}

// ParsePage reads page, pageSize, sortBy and sortDir from query values.
func ParsePage(values url.Values, defaultSize int) PageRequest {
	page, _ := strconv.Atoi(values.Get("page"))
	size, _ := strconv.Atoi(values.Get("pageSize"))
	return PageRequest{
		Page:     page,
		PageSize: size,
		SortBy:   values.Get("sortBy"),
		SortDir:  values.Get("sortDir"),
	}.Normalize(defaultSize)
}

// Normalize applies defaults and caps.
func (p PageRequest) Normalize(defaultSize int) PageRequest {
	if p.Page <= 0 {
		p.Page = 1
	}
	switch {
	case p.PageSize <= 0:
		p.PageSize = defaultSize
	case p.PageSize > MaxPageSize:
		p.PageSize = MaxPageSize
	}
	if p.PageSize <= 0 {
		p.PageSize = 20
	}
	return p
}

func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// Sort whitelists the columns a list may be ordered by.
type Sort struct {
	// Columns maps API field names to column expressions.
	Columns map[string]string
	Default string
}

// Order resolves the ORDER BY clause; unknown fields fall back to the
// default. The primary key always closes the clause so pages over equal
// sort keys neither repeat nor skip rows.
func (s Sort) Order(p PageRequest) string {
	col, ok := s.Columns[p.SortBy]
	if !ok {
		if s.Default == "" {
			return "id ASC"
		}
		return withTieBreak(s.Default, "ASC")
	}
	dir := "ASC"
	if strings.EqualFold(p.SortDir, "desc") {
		dir = "DESC"
	}
	return withTieBreak(fmt.Sprintf("%s %s", col, dir), dir)
}

func withTieBreak(order, dir string) string {
	for _, term := range strings.Split(order, ",") {
		if fields := strings.Fields(term); len(fields) > 0 && fields[0] == "id" {
			return order
		}
	}
	return order + ", id " + dir
}

// Page is the list response envelope.
type Page[T any] struct {
	Data       []T   `json:"data"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PageSize   int   `json:"pageSize"`
	TotalPages int   `json:"totalPages"`
}

// NewPage builds the envelope; Data is never null.
func NewPage[T any](data []T, total int64, p PageRequest) Page[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if total > 0 && p.PageSize > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.PageSize)))
	}
	return Page[T]{Data: data, Total: total, Page: p.Page, PageSize: p.PageSize, TotalPages: pages}
}

// List counts and fetches one page of T. Soft-deleted rows are excluded by
// gorm's DeletedAt scope on T.
func List[T any](db *gorm.DB, f *Filter, p PageRequest, sort Sort, preloads ...string) (Page[T], error) {
	if f == nil {
		f = NewFilter()
	}
	var total int64
	if err := db.Model(new(T)).Scopes(f.Scope()).Count(&total).Error; err != nil {
		return Page[T]{}, fmt.Errorf("count: %w", err)
	}

	var rows []T
	q := db.Model(new(T)).Scopes(f.Scope())
	if order := sort.Order(p); order != "" {
		q = q.Order(order)
	}
	for _, rel := range preloads {
		q = q.Preload(rel)
	}
	if err := q.Offset(p.Offset()).Limit(p.PageSize).Find(&rows).Error; err != nil {
		return Page[T]{}, fmt.Errorf("list: %w", err)
	}
	return NewPage(rows, total, p), nil
}
