package domain

import "time"

// Rating bounds, inclusive.
const (
	MinRating = 1
	MaxRating = 5
)

// Review is one user's rating of one book. At most one review exists per
// (BookID, UserID) pair.
type Review struct {
	ID        string
	BookID    string
	UserID    string
	Rating    int
	Text      string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ReviewerRef is the public part of a review's author.
type ReviewerRef struct {
	ID       string `json:"_id"`
	Username string `json:"username"`
}

// BookRef is the part of a book shown next to a user's own reviews.
type BookRef struct {
	ID     string `json:"_id"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

// BookReview is a review as listed on its book's page, with the reviewer
// populated.
type BookReview struct {
	ID         string      `json:"_id"`
	Book       string      `json:"book"`
	User       ReviewerRef `json:"user"`
	Rating     int         `json:"rating"`
	ReviewText string      `json:"reviewText"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

// UserReview is a review as listed in its author's history, with the book
// populated.
type UserReview struct {
	ID         string    `json:"_id"`
	Book       BookRef   `json:"book"`
	User       string    `json:"user"`
	Rating     int       `json:"rating"`
	ReviewText string    `json:"reviewText"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BookWithReviews is a book together with all of its reviews, oldest first.
type BookWithReviews struct {
	Book    *Book        `json:"book"`
	Reviews []BookReview `json:"reviews"`
}

// NewBookReview populates r with its reviewer. A missing reviewer leaves the
// username empty.
func NewBookReview(r Review, reviewer *User) BookReview {
	ref := ReviewerRef{ID: r.UserID}
	if reviewer != nil {
		ref.Username = reviewer.Username
	}
	return BookReview{
		ID:         r.ID,
		Book:       r.BookID,
		User:       ref,
		Rating:     r.Rating,
		ReviewText: r.Text,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

// NewUserReview populates r with its book. A missing book leaves title and
// author empty.
func NewUserReview(r Review, book *Book) UserReview {
	ref := BookRef{ID: r.BookID}
	if book != nil {
		ref.Title = book.Title
		ref.Author = book.Author
	}
	return UserReview{
		ID:         r.ID,
		Book:       ref,
		User:       r.UserID,
		Rating:     r.Rating,
		ReviewText: r.Text,
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}
