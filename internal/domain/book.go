package domain

import "time"

// Book is a catalog entry. AverageRating and ReviewCount are derived from
// the book's reviews and are only ever written by the rating aggregator.
type Book struct {
	ID            string    `json:"_id"`
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Genre         string    `json:"genre"`
	AverageRating float64   `json:"averageRating"`
	ReviewCount   int       `json:"reviewCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Sort fields accepted by the book list.
const (
	SortByCreatedAt     = "createdAt"
	SortByTitle         = "title"
	SortByAuthor        = "author"
	SortByGenre         = "genre"
	SortByAverageRating = "averageRating"
	SortByReviewCount   = "reviewCount"
)

// ValidSortFields returns every sort field the book list understands.
func ValidSortFields() []string {
	return []string{
		SortByCreatedAt,
		SortByTitle,
		SortByAuthor,
		SortByGenre,
		SortByAverageRating,
		SortByReviewCount,
	}
}

// IsValidSortField reports whether field is a known sort field.
func IsValidSortField(field string) bool {
	for _, f := range ValidSortFields() {
		if f == field {
			return true
		}
	}
	return false
}
