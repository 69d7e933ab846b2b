package domain

import "math"

// RatingAggregate is the derived rating pair stored on a Book.
type RatingAggregate struct {
	AverageRating float64 `json:"averageRating"`
	ReviewCount   int     `json:"reviewCount"`
}

// NewRatingAggregate builds the aggregate for count reviews whose ratings
// average to mean. The average is rounded to one decimal place and is
// exactly 0 when there are no reviews.
func NewRatingAggregate(count int, mean float64) RatingAggregate {
	if count <= 0 {
		return RatingAggregate{}
	}
	return RatingAggregate{
		AverageRating: math.Round(mean*10) / 10,
		ReviewCount:   count,
	}
}

// Apply copies the aggregate onto b.
func (a RatingAggregate) Apply(b *Book) {
	b.AverageRating = a.AverageRating
	b.ReviewCount = a.ReviewCount
}
