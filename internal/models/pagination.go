package models

// Pagination bounds for list endpoints
const (
	DefaultPageLimit = 10
	MinPageLimit     = 5
	MaxPageLimit     = 20
)

// Pagination is a normalized page request
type Pagination struct {
	Page  int
	Limit int
}

// NormalizePagination clamps raw query values into the supported
// range: page is at least 1, limit falls back to the default and is
// clamped into [MinPageLimit, MaxPageLimit].
func NormalizePagination(page, limit int) Pagination {
	if page < 1 {
		page = 1
	}
	if limit == 0 {
		limit = DefaultPageLimit
	}
	if limit < MinPageLimit {
		limit = MinPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Pagination{Page: page, Limit: limit}
}

// PageMeta is the pagination block of a list response envelope
type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// NewPageMeta computes the metadata for a page of results
func NewPageMeta(p Pagination, total int) PageMeta {
	totalPages := total / p.Limit
	if total%p.Limit != 0 {
		totalPages++
	}
	return PageMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		Total:      total,
		TotalPages: totalPages,
	}
}
