package service

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/event"
	"github.com/utafrali/BookReviewGo/internal/repository"
	"github.com/utafrali/BookReviewGo/pkg/tracing"
)

const tracerName = "github.com/utafrali/BookReviewGo/internal/service"

// recomputeStripes is the number of locks recomputes of different books
// are spread over.
const recomputeStripes = 64

// Aggregator keeps a book's averageRating and reviewCount in line with its
// reviews.
type Aggregator struct {
	reviews  repository.ReviewRepository
	books    repository.BookRepository
	producer *event.Producer
	logger   *slog.Logger
	tracer   trace.Tracer

	// locks serialize recomputes of the same book so a slower, older read
	// of the stats cannot overwrite a newer aggregate.
	locks [recomputeStripes]sync.Mutex
}

// NewAggregator creates a new rating aggregator.
func NewAggregator(reviews repository.ReviewRepository, books repository.BookRepository, producer *event.Producer, logger *slog.Logger) *Aggregator {
	return &Aggregator{
		reviews:  reviews,
		books:    books,
		producer: producer,
		logger:   logger,
		tracer:   tracing.Tracer(tracerName),
	}
}

// Recompute derives the aggregate for bookID from its current reviews and
// stores it on the book. Running it twice in a row writes the same values.
// Recomputes of one book run one at a time, so once review changes stop the
// last recompute has seen all of them.
func (a *Aggregator) Recompute(ctx context.Context, bookID string) (domain.RatingAggregate, error) {
	ctx, span := a.tracer.Start(ctx, "Aggregator.Recompute",
		trace.WithAttributes(attribute.String("book.id", bookID)))
	defer span.End()

	lock := a.lockFor(bookID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	defer func() { ratingRecomputeDuration.Observe(time.Since(start).Seconds()) }()

	count, mean, err := a.reviews.Stats(ctx, bookID)
	if err != nil {
		tracing.RecordError(span, err)
		return domain.RatingAggregate{}, fmt.Errorf("review stats for book %s: %w", bookID, err)
	}

	agg := domain.NewRatingAggregate(count, mean)
	if err := a.books.UpdateRating(ctx, bookID, agg); err != nil {
		tracing.RecordError(span, err)
		return domain.RatingAggregate{}, fmt.Errorf("update rating of book %s: %w", bookID, err)
	}

	span.SetAttributes(
		attribute.Float64("book.average_rating", agg.AverageRating),
		attribute.Int("book.review_count", agg.ReviewCount),
	)

	if err := a.producer.PublishRatingUpdated(ctx, bookID, agg); err != nil {
		a.logger.WarnContext(ctx, "failed to publish rating updated event",
			slog.String("book_id", bookID),
			slog.String("error", err.Error()),
		)
	}

	return agg, nil
}

func (a *Aggregator) lockFor(bookID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(bookID))
	return &a.locks[h.Sum32()%recomputeStripes]
}
