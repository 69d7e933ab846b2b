package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/BookReviewGo/internal/cache"
	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/event"
	"github.com/utafrali/BookReviewGo/internal/repository"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// ReviewService implements the business logic for writing and removing
// reviews.
type ReviewService struct {
	books      repository.BookRepository
	reviews    repository.ReviewRepository
	aggregator *Aggregator
	pages      bookPageLoader
	cache      cache.BookCache
	producer   *event.Producer
	logger     *slog.Logger
}

// NewReviewService creates a new review service. A nil cache disables
// caching.
func NewReviewService(
	books repository.BookRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	aggregator *Aggregator,
	bookCache cache.BookCache,
	producer *event.Producer,
	logger *slog.Logger,
) *ReviewService {
	if bookCache == nil {
		bookCache = cache.NoopCache{}
	}
	return &ReviewService{
		books:      books,
		reviews:    reviews,
		aggregator: aggregator,
		pages:      bookPageLoader{reviews: reviews, users: users},
		cache:      bookCache,
		producer:   producer,
		logger:     logger,
	}
}

// AddReviewInput holds the parameters for reviewing a book.
type AddReviewInput struct {
	BookID string `json:"-" validate:"required"`
	UserID string `json:"-" validate:"required"`
	Rating int    `json:"rating" validate:"gte=1,lte=5"`
	Text   string `json:"reviewText" validate:"notblank"`
}

// AddReview stores the user's review of a book and returns the book with
// its refreshed rating and all of its reviews. A user may review a book
// only once.
func (s *ReviewService) AddReview(ctx context.Context, input AddReviewInput) (*domain.BookWithReviews, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := validator.Validate(&input); err != nil {
		return nil, err
	}

	book, err := s.getBook(ctx, input.BookID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	review := &domain.Review{
		ID:        uuid.New().String(),
		BookID:    book.ID,
		UserID:    input.UserID,
		Rating:    input.Rating,
		Text:      input.Text,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.reviews.CreateIfAbsent(ctx, review); err != nil {
		if errors.Is(err, domain.ErrDuplicateReview) {
			reviewDuplicatesTotal.Inc()
			return nil, apperrors.Conflict("DUPLICATE_REVIEW", "You have already reviewed this book", domain.ErrDuplicateReview)
		}
		return nil, apperrors.Internal(err)
	}
	reviewsCreatedTotal.Inc()

	s.logger.InfoContext(ctx, "review created",
		slog.String("review_id", review.ID),
		slog.String("book_id", book.ID),
		slog.Int("rating", review.Rating),
	)

	if err := s.producer.PublishReviewCreated(ctx, review); err != nil {
		s.logger.WarnContext(ctx, "failed to publish review created event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return s.refresh(ctx, book)
}

// DeleteReview removes a review written by userID and returns the book with
// its refreshed rating and remaining reviews.
func (s *ReviewService) DeleteReview(ctx context.Context, reviewID, userID string) (*domain.BookWithReviews, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFound("Review not found")
		}
		return nil, apperrors.Internal(err)
	}
	if review.UserID != userID {
		return nil, apperrors.Forbidden("Not authorized to delete this review")
	}

	book, err := s.getBook(ctx, review.BookID)
	if err != nil {
		return nil, err
	}

	if err := s.reviews.Delete(ctx, review.ID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFound("Review not found")
		}
		return nil, apperrors.Internal(err)
	}
	reviewsDeletedTotal.Inc()

	s.logger.InfoContext(ctx, "review deleted",
		slog.String("review_id", review.ID),
		slog.String("book_id", book.ID),
	)

	if err := s.producer.PublishReviewDeleted(ctx, review); err != nil {
		s.logger.WarnContext(ctx, "failed to publish review deleted event",
			slog.String("review_id", review.ID),
			slog.String("error", err.Error()),
		)
	}

	return s.refresh(ctx, book)
}

func (s *ReviewService) getBook(ctx context.Context, id string) (*domain.Book, error) {
	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFound("Book not found")
		}
		return nil, apperrors.Internal(err)
	}
	return book, nil
}

// refresh recomputes the book's aggregate after a review change and loads
// the book page. A failed recompute is logged and the stale aggregate is
// returned; the next change repairs it.
func (s *ReviewService) refresh(ctx context.Context, book *domain.Book) (*domain.BookWithReviews, error) {
	agg, err := s.aggregator.Recompute(ctx, book.ID)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to recompute book rating",
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()),
		)
	} else {
		agg.Apply(book)
	}

	if err := s.cache.InvalidateBook(ctx, book.ID); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate cached book",
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()),
		)
	}

	page, err := s.pages.load(ctx, book)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return page, nil
}
