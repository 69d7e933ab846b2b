package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/repository"
)

type bookDocument struct {
	ID            string    `bson:"_id"`
	Title         string    `bson:"title"`
	Author        string    `bson:"author"`
	Genre         string    `bson:"genre"`
	AverageRating float64   `bson:"averageRating"`
	ReviewCount   int       `bson:"reviewCount"`
	CreatedAt     time.Time `bson:"createdAt"`
	UpdatedAt     time.Time `bson:"updatedAt"`
}

func (d bookDocument) toDomain() *domain.Book {
	return &domain.Book{
		ID:            d.ID,
		Title:         d.Title,
		Author:        d.Author,
		Genre:         d.Genre,
		AverageRating: d.AverageRating,
		ReviewCount:   d.ReviewCount,
		CreatedAt:     d.CreatedAt,
		UpdatedAt:     d.UpdatedAt,
	}
}

// BookRepository implements repository.BookRepository using MongoDB.
type BookRepository struct {
	coll *mongo.Collection
}

// NewBookRepository creates a new MongoDB-backed book repository.
func NewBookRepository(db *mongo.Database) *BookRepository {
	return &BookRepository{coll: db.Collection(BooksCollection)}
}

// Create inserts a new book.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	doc := bookDocument{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Genre:         b.Genre,
		AverageRating: b.AverageRating,
		ReviewCount:   b.ReviewCount,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetByID retrieves a book by ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	var doc bookDocument
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("find book: %w", err)
	}
	return doc.toDomain(), nil
}

// GetByIDs returns the books with the given IDs keyed by ID.
func (r *BookRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	books := make(map[string]*domain.Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}

	cur, err := r.coll.Find(ctx, idsFilter(ids))
	if err != nil {
		return nil, fmt.Errorf("find books: %w", err)
	}
	var docs []bookDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode books: %w", err)
	}

	for _, d := range docs {
		books[d.ID] = d.toDomain()
	}
	return books, nil
}

// List returns one page of books matching filter and the total match count.
func (r *BookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int64, error) {
	filter = filter.Normalize()
	query := listQuery(filter)

	total, err := r.coll.CountDocuments(ctx, query)
	if err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	dir := -1
	if filter.Ascending() {
		dir = 1
	}
	opts := options.Find().
		SetSort(bson.D{{Key: filter.SortBy, Value: dir}, {Key: "_id", Value: dir}}).
		SetSkip(int64(filter.Skip())).
		SetLimit(int64(filter.Limit))

	cur, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("find books: %w", err)
	}
	var docs []bookDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, 0, fmt.Errorf("decode books: %w", err)
	}

	books := make([]domain.Book, 0, len(docs))
	for _, d := range docs {
		books = append(books, *d.toDomain())
	}
	return books, total, nil
}

// UpdateRating overwrites the derived rating fields of a book.
func (r *BookRepository) UpdateRating(ctx context.Context, id string, agg domain.RatingAggregate) error {
	update := bson.M{"$set": bson.M{
		"averageRating": agg.AverageRating,
		"reviewCount":   agg.ReviewCount,
		"updatedAt":     time.Now().UTC(),
	}}
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("update book rating: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// listQuery builds the match document for filter. The author is matched as
// a literal, case-insensitive substring.
func listQuery(filter repository.BookFilter) bson.M {
	query := bson.M{}
	if filter.Genre != "" {
		query["genre"] = filter.Genre
	}
	if filter.Author != "" {
		query["author"] = bson.M{"$regex": regexp.QuoteMeta(filter.Author), "$options": "i"}
	}
	return query
}
