package event

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/utafrali/BookReviewGo/internal/domain"
	pkgkafka "github.com/utafrali/BookReviewGo/pkg/kafka"
	"github.com/utafrali/BookReviewGo/pkg/logger"
)

// Aggregate types.
const (
	AggregateTypeUser   = "user"
	AggregateTypeBook   = "book"
	AggregateTypeReview = "review"
)

// Verbs.
const (
	VerbRegistered    = "registered"
	VerbCreated       = "created"
	VerbDeleted       = "deleted"
	VerbRatingUpdated = "rating_updated"
)

// SourceBookReviewAPI identifies events originating from this service.
const SourceBookReviewAPI = "bookreview-api"

// UserRegisteredData is the payload for a user.registered event.
type UserRegisteredData struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// BookCreatedData is the payload for a book.created event.
type BookCreatedData struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// ReviewData is the payload for review.created and review.deleted events.
type ReviewData struct {
	ID     string `json:"id"`
	BookID string `json:"book_id"`
	UserID string `json:"user_id"`
	Rating int    `json:"rating"`
}

// RatingUpdatedData is the payload for a book.rating_updated event.
type RatingUpdatedData struct {
	BookID        string  `json:"book_id"`
	AverageRating float64 `json:"average_rating"`
	ReviewCount   int     `json:"review_count"`
}

// Publisher writes an event envelope to the broker.
type Publisher interface {
	Publish(ctx context.Context, event *pkgkafka.Event) error
}

// Producer publishes book review domain events. A Producer without a
// publisher drops every event.
type Producer struct {
	publisher Publisher
	logger    *slog.Logger
}

// NewProducer creates a producer that publishes through p.
func NewProducer(p Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: p, logger: logger}
}

// NewNoopProducer creates a producer that drops every event.
func NewNoopProducer(logger *slog.Logger) *Producer {
	return &Producer{logger: logger}
}

// PublishUserRegistered publishes a user.registered event.
func (p *Producer) PublishUserRegistered(ctx context.Context, u *domain.User) error {
	return p.publish(ctx, AggregateTypeUser, VerbRegistered, u.ID, UserRegisteredData{
		ID:       u.ID,
		Username: u.Username,
		Email:    u.Email,
	})
}

// PublishBookCreated publishes a book.created event.
func (p *Producer) PublishBookCreated(ctx context.Context, b *domain.Book) error {
	return p.publish(ctx, AggregateTypeBook, VerbCreated, b.ID, BookCreatedData{
		ID:     b.ID,
		Title:  b.Title,
		Author: b.Author,
		Genre:  b.Genre,
	})
}

// PublishReviewCreated publishes a review.created event.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, AggregateTypeReview, VerbCreated, r.ID, reviewData(r))
}

// PublishReviewDeleted publishes a review.deleted event.
func (p *Producer) PublishReviewDeleted(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, AggregateTypeReview, VerbDeleted, r.ID, reviewData(r))
}

// PublishRatingUpdated publishes a book.rating_updated event.
func (p *Producer) PublishRatingUpdated(ctx context.Context, bookID string, agg domain.RatingAggregate) error {
	return p.publish(ctx, AggregateTypeBook, VerbRatingUpdated, bookID, RatingUpdatedData{
		BookID:        bookID,
		AverageRating: agg.AverageRating,
		ReviewCount:   agg.ReviewCount,
	})
}

func reviewData(r *domain.Review) ReviewData {
	return ReviewData{ID: r.ID, BookID: r.BookID, UserID: r.UserID, Rating: r.Rating}
}

func (p *Producer) publish(ctx context.Context, aggregateType, verb, aggregateID string, data any) error {
	if p == nil || p.publisher == nil {
		return nil
	}

	evt, err := pkgkafka.NewEvent(aggregateType, verb, aggregateID, SourceBookReviewAPI, data)
	if err != nil {
		return fmt.Errorf("create %s.%s event: %w", aggregateType, verb, err)
	}
	if id := logger.CorrelationIDFromContext(ctx); id != "" {
		evt.WithCorrelationID(id)
	}

	if err := p.publisher.Publish(ctx, evt); err != nil {
		return fmt.Errorf("publish %s event: %w", evt.EventType, err)
	}

	p.logger.DebugContext(ctx, "published event",
		slog.String("event_type", evt.EventType),
		slog.String("aggregate_id", aggregateID),
	)
	return nil
}
