package repository

import (
	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/pkg/pagination"
)

// Sort orders.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// BookFilter defines filter, sort and paging criteria for listing books.
type BookFilter struct {
	// Genre matches exactly when set.
	Genre string
	// Author matches as a case-insensitive substring when set.
	Author string
	SortBy string
	Order  string
	Page   int
	Limit  int
}

// Normalize returns a copy of f with defaults applied: unknown sort fields
// become createdAt, anything but "asc" sorts descending, and paging is
// clamped to the pagination bounds.
func (f BookFilter) Normalize() BookFilter {
	if !domain.IsValidSortField(f.SortBy) {
		f.SortBy = domain.SortByCreatedAt
	}
	if f.Order != OrderAsc {
		f.Order = OrderDesc
	}
	p := pagination.New(f.Page, f.Limit)
	f.Page, f.Limit = p.Page, p.Limit
	return f
}

// Ascending reports whether the filter sorts in ascending order.
func (f BookFilter) Ascending() bool {
	return f.Order == OrderAsc
}

// Skip is the number of matches before the requested page.
func (f BookFilter) Skip() int {
	return pagination.New(f.Page, f.Limit).Skip
}
