package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

type reviewDocument struct {
	ID         string    `bson:"_id"`
	Book       string    `bson:"book"`
	User       string    `bson:"user"`
	Rating     int       `bson:"rating"`
	ReviewText string    `bson:"reviewText"`
	CreatedAt  time.Time `bson:"createdAt"`
	UpdatedAt  time.Time `bson:"updatedAt"`
}

func (d reviewDocument) toDomain() domain.Review {
	return domain.Review{
		ID:        d.ID,
		BookID:    d.Book,
		UserID:    d.User,
		Rating:    d.Rating,
		Text:      d.ReviewText,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type reviewStats struct {
	Count int     `bson:"count"`
	Mean  float64 `bson:"mean"`
}

// ReviewRepository implements repository.ReviewRepository using MongoDB.
type ReviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a new MongoDB-backed review repository.
func NewReviewRepository(db *mongo.Database) *ReviewRepository {
	return &ReviewRepository{coll: db.Collection(ReviewsCollection)}
}

// CreateIfAbsent inserts review. The unique {book, user} index turns a
// second review by the same user into a duplicate key error.
func (r *ReviewRepository) CreateIfAbsent(ctx context.Context, review *domain.Review) error {
	doc := reviewDocument{
		ID:         review.ID,
		Book:       review.BookID,
		User:       review.UserID,
		Rating:     review.Rating,
		ReviewText: review.Text,
		CreatedAt:  review.CreatedAt,
		UpdatedAt:  review.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// GetByID retrieves a review by ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	var doc reviewDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find review: %w", err)
	}
	review := doc.toDomain()
	return &review, nil
}

// Delete removes a review by ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByBook returns every review of a book, oldest first.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	return r.list(ctx, bson.M{"book": bookID}, 1)
}

// ListByUser returns every review written by a user, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return r.list(ctx, bson.M{"user": userID}, -1)
}

func (r *ReviewRepository) list(ctx context.Context, filter bson.M, dir int) ([]domain.Review, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: dir}, {Key: "_id", Value: dir}})

	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find reviews: %w", err)
	}
	var docs []reviewDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode reviews: %w", err)
	}

	reviews := make([]domain.Review, 0, len(docs))
	for _, d := range docs {
		reviews = append(reviews, d.toDomain())
	}
	return reviews, nil
}

// Stats computes the review count and mean rating of a book on the server.
func (r *ReviewRepository) Stats(ctx context.Context, bookID string) (int, float64, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"book": bookID}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"count": bson.M{"$sum": 1},
			"mean":  bson.M{"$avg": "$rating"},
		}}},
	}

	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return 0, 0, fmt.Errorf("aggregate review stats: %w", err)
	}
	var rows []reviewStats
	if err := cur.All(ctx, &rows); err != nil {
		return 0, 0, fmt.Errorf("decode review stats: %w", err)
	}

	if len(rows) == 0 {
		return 0, 0, nil
	}
	return rows[0].Count, rows[0].Mean, nil
}
