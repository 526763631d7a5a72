package repositories

import (
	"strings"

	"gorm.io/gorm"
)

// Pagination is shared by every list query. Zero values mean "first page,
// default size".
type Pagination struct {
	Page     int
	PageSize int
}

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func (p Pagination) normalized() Pagination {
	if p.Page <= 0 {
		p.Page = 1
	}
	if p.PageSize <= 0 {
		p.PageSize = defaultPageSize
	}
	if p.PageSize > maxPageSize {
		p.PageSize = maxPageSize
	}
	return p
}

// apply adds LIMIT/OFFSET for the page.
func (p Pagination) apply(db *gorm.DB) *gorm.DB {
	p = p.normalized()
	return db.Limit(p.PageSize).Offset((p.Page - 1) * p.PageSize)
}

// orderBy maps "field" or "-field" onto a column. Unknown or empty fields
// fall back to def.
func orderBy(ordering string, columns map[string]string, def string) string {
	field := strings.TrimSpace(ordering)
	desc := strings.HasPrefix(field, "-")
	column, ok := columns[strings.TrimPrefix(field, "-")]
	if !ok {
		return def
	}
	if desc {
		return column + " DESC"
	}
	return column + " ASC"
}

// containsPattern is a case-insensitive LIKE pattern for term.
func containsPattern(term string) string {
	return "%" + strings.ToLower(strings.TrimSpace(term)) + "%"
}
