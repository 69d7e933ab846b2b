// Package cache keeps recently read book pages out of the primary store.
package cache

import (
	"context"
	"errors"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

var (
	// ErrCacheMiss is returned when an entry is absent.
	ErrCacheMiss = errors.New("cache miss")

	// ErrStaleGeneration is returned by SetBook when the book was
	// invalidated after the caller read its generation.
	ErrStaleGeneration = errors.New("cache generation changed")

	// ErrBypassed is returned when the cache is skipped, for example while
	// its circuit breaker is open.
	ErrBypassed = errors.New("cache bypassed")
)

// BookCache stores book detail pages keyed by book ID.
//
// Every book has a generation that InvalidateBook advances. A reader takes
// the generation before loading a page from the store and passes it to
// SetBook, which stores nothing if an invalidation happened in between.
type BookCache interface {
	GetBook(ctx context.Context, id string) (*domain.BookWithReviews, error)
	Generation(ctx context.Context, id string) (int64, error)
	SetBook(ctx context.Context, id string, generation int64, page *domain.BookWithReviews) error
	InvalidateBook(ctx context.Context, id string) error
}

// NoopCache is a BookCache that stores nothing.
type NoopCache struct{}

// GetBook always misses.
func (NoopCache) GetBook(context.Context, string) (*domain.BookWithReviews, error) {
	return nil, ErrCacheMiss
}

// Generation reports that the cache is not in use.
func (NoopCache) Generation(context.Context, string) (int64, error) { return 0, ErrBypassed }

// SetBook discards page.
func (NoopCache) SetBook(context.Context, string, int64, *domain.BookWithReviews) error { return nil }

// InvalidateBook does nothing.
func (NoopCache) InvalidateBook(context.Context, string) error { return nil }
