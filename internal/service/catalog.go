package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/utafrali/BookReviewGo/internal/cache"
	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/event"
	"github.com/utafrali/BookReviewGo/internal/repository"
	apperrors "github.com/utafrali/BookReviewGo/pkg/errors"
	"github.com/utafrali/BookReviewGo/pkg/pagination"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// CatalogService implements the read side of the catalog and book creation.
type CatalogService struct {
	books    repository.BookRepository
	reviews  repository.ReviewRepository
	pages    bookPageLoader
	cache    cache.BookCache
	producer *event.Producer
	logger   *slog.Logger
}

// NewCatalogService creates a new catalog service. A nil cache disables
// caching.
func NewCatalogService(
	books repository.BookRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	bookCache cache.BookCache,
	producer *event.Producer,
	logger *slog.Logger,
) *CatalogService {
	if bookCache == nil {
		bookCache = cache.NoopCache{}
	}
	return &CatalogService{
		books:    books,
		reviews:  reviews,
		pages:    bookPageLoader{reviews: reviews, users: users},
		cache:    bookCache,
		producer: producer,
		logger:   logger,
	}
}

// AddBookInput holds the parameters for adding a book.
type AddBookInput struct {
	Title  string `json:"title" validate:"notblank,max=200"`
	Author string `json:"author" validate:"notblank,max=200"`
	Genre  string `json:"genre" validate:"notblank,max=100"`
}

// BookPage is one page of the book list.
type BookPage struct {
	Books       []domain.Book `json:"books"`
	CurrentPage int           `json:"currentPage"`
	TotalPages  int           `json:"totalPages"`
	TotalBooks  int64         `json:"totalBooks"`
}

// AddBook adds a book with no reviews.
func (s *CatalogService) AddBook(ctx context.Context, input AddBookInput) (*domain.Book, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.Author = strings.TrimSpace(input.Author)
	input.Genre = strings.TrimSpace(input.Genre)
	if err := validator.Validate(&input); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	book := &domain.Book{
		ID:        uuid.New().String(),
		Title:     input.Title,
		Author:    input.Author,
		Genre:     input.Genre,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.books.Create(ctx, book); err != nil {
		return nil, apperrors.Internal(err)
	}

	s.logger.InfoContext(ctx, "book created",
		slog.String("book_id", book.ID),
		slog.String("title", book.Title),
	)

	if err := s.producer.PublishBookCreated(ctx, book); err != nil {
		s.logger.WarnContext(ctx, "failed to publish book created event",
			slog.String("book_id", book.ID),
			slog.String("error", err.Error()),
		)
	}

	return book, nil
}

// ListBooks returns one page of books matching filter.
func (s *CatalogService) ListBooks(ctx context.Context, filter repository.BookFilter) (*BookPage, error) {
	filter = filter.Normalize()

	books, total, err := s.books.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	if books == nil {
		books = []domain.Book{}
	}

	return &BookPage{
		Books:       books,
		CurrentPage: filter.Page,
		TotalPages:  pagination.TotalPages(total, filter.Limit),
		TotalBooks:  total,
	}, nil
}

// GetBook returns a book with all of its reviews. Pages loaded from the
// store are cached only if no review change invalidated the book while
// they were being loaded.
func (s *CatalogService) GetBook(ctx context.Context, id string) (*domain.BookWithReviews, error) {
	page, err := s.cache.GetBook(ctx, id)
	if err == nil {
		return page, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WarnContext(ctx, "failed to read cached book",
			slog.String("book_id", id),
			slog.String("error", err.Error()),
		)
	}

	// Taken before the store reads so a concurrent invalidation is noticed.
	generation, genErr := s.cache.Generation(ctx, id)
	if genErr != nil && !errors.Is(genErr, cache.ErrBypassed) {
		s.logger.WarnContext(ctx, "failed to read book cache generation",
			slog.String("book_id", id),
			slog.String("error", genErr.Error()),
		)
	}

	book, err := s.books.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, apperrors.NotFound("Book not found")
		}
		return nil, apperrors.Internal(err)
	}

	page, err = s.pages.load(ctx, book)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	if genErr == nil {
		s.storePage(ctx, id, generation, page)
	}
	return page, nil
}

func (s *CatalogService) storePage(ctx context.Context, id string, generation int64, page *domain.BookWithReviews) {
	err := s.cache.SetBook(ctx, id, generation, page)
	switch {
	case err == nil:
	case errors.Is(err, cache.ErrStaleGeneration):
		s.logger.DebugContext(ctx, "book changed while loading, page not cached",
			slog.String("book_id", id),
		)
	default:
		s.logger.WarnContext(ctx, "failed to cache book",
			slog.String("book_id", id),
			slog.String("error", err.Error()),
		)
	}
}

// MyReviews returns the user's reviews, newest first, each with its book.
func (s *CatalogService) MyReviews(ctx context.Context, userID string) ([]domain.UserReview, error) {
	reviews, err := s.reviews.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	books, err := s.books.GetByIDs(ctx, bookIDs(reviews))
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("load books of user %s: %w", userID, err))
	}

	out := make([]domain.UserReview, 0, len(reviews))
	for _, r := range reviews {
		out = append(out, domain.NewUserReview(r, books[r.BookID]))
	}
	return out, nil
}

func bookIDs(reviews []domain.Review) []string {
	seen := make(map[string]struct{}, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.BookID]; ok {
			continue
		}
		seen[r.BookID] = struct{}{}
		ids = append(ids, r.BookID)
	}
	return ids
}
