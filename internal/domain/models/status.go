package models

// RecordStatus is the soft lifecycle state of products, costs and quotations.
// Records are never physically removed; retiring one hides it from active queries.
type RecordStatus string

const (
	StatusActive  RecordStatus = "active"
	StatusRetired RecordStatus = "retired"
)

// Valid reports whether s is a known status.
func (s RecordStatus) Valid() bool {
	return s == StatusActive || s == StatusRetired
}

// Pagination mirrors the paging block returned by list endpoints.
type Pagination struct {
	Current  int   `json:"current"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
	Pages    int64 `json:"pages"`
}

// NewPagination computes the page count for a result set.
func NewPagination(page, limit int, total int64) Pagination {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Pagination{Current: page, PageSize: limit, Total: total, Pages: pages}
}

// SortOrder is the direction of a list query.
type SortOrder string

const (
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

// Paging defaults shared by list endpoints.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// NormalizePage clamps page to at least 1 and limit to [1, MaxPageSize],
// substituting DefaultPageSize for a non-positive limit.
func NormalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	return page, limit
}

// ParseSortOrder maps free text onto a SortOrder, defaulting to descending.
func ParseSortOrder(s string) SortOrder {
	if SortOrder(s) == SortAsc {
		return SortAsc
	}
	return SortDesc
}
