package repository

import (
	"context"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user. It returns domain.ErrDuplicateUser when the
	// username or email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// FindByIdentifier returns the first user whose username equals username
	// or whose email equals email.
	FindByIdentifier(ctx context.Context, username, email string) (*domain.User, error)

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDs returns the users with the given IDs keyed by ID. Unknown IDs
	// are left out.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.User, error)
}

// BookRepository defines the interface for book persistence operations.
type BookRepository interface {
	// Create inserts a new book into the store.
	Create(ctx context.Context, book *domain.Book) error

	// GetByID retrieves a book by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Book, error)

	// GetByIDs returns the books with the given IDs keyed by ID.
	GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error)

	// List returns one page of books matching filter and the total number
	// of matches.
	List(ctx context.Context, filter BookFilter) ([]domain.Book, int64, error)

	// UpdateRating overwrites the derived rating fields of a book.
	UpdateRating(ctx context.Context, id string, agg domain.RatingAggregate) error
}

// ReviewRepository defines the interface for review persistence operations.
type ReviewRepository interface {
	// CreateIfAbsent inserts review unless the same user already reviewed
	// the same book, in which case it returns domain.ErrDuplicateReview and
	// writes nothing. The check and the insert are a single store operation.
	CreateIfAbsent(ctx context.Context, review *domain.Review) error

	// GetByID retrieves a review by its unique identifier.
	GetByID(ctx context.Context, id string) (*domain.Review, error)

	// Delete removes a review by its identifier.
	Delete(ctx context.Context, id string) error

	// ListByBook returns every review of a book, oldest first.
	ListByBook(ctx context.Context, bookID string) ([]domain.Review, error)

	// ListByUser returns every review written by a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]domain.Review, error)

	// Stats returns the number of reviews of a book and the mean of their
	// ratings. The mean is 0 when there are none.
	Stats(ctx context.Context, bookID string) (count int, mean float64, err error)
}
