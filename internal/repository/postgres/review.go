package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/pkg/database"
)

const reviewColumns = `id, book_id, user_id, rating, review_text, created_at, updated_at`

// ReviewRepository implements repository.ReviewRepository using PostgreSQL.
type ReviewRepository struct {
	db database.DBTX
}

// NewReviewRepository creates a new PostgreSQL-backed review repository.
func NewReviewRepository(db database.DBTX) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateIfAbsent inserts review unless (book_id, user_id) already exists.
func (r *ReviewRepository) CreateIfAbsent(ctx context.Context, rv *domain.Review) error {
	query := `
		INSERT INTO reviews (id, book_id, user_id, rating, review_text, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (book_id, user_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query,
		rv.ID,
		rv.BookID,
		rv.UserID,
		rv.Rating,
		rv.Text,
		rv.CreatedAt,
		rv.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrDuplicateReview
	}
	return nil
}

// GetByID retrieves a review by ID.
func (r *ReviewRepository) GetByID(ctx context.Context, id string) (*domain.Review, error) {
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE id = $1`

	rv, err := scanReview(r.db.QueryRow(ctx, query, id))
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

// Delete removes a review by ID.
func (r *ReviewRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM reviews WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete review: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByBook returns every review of a book, oldest first.
func (r *ReviewRepository) ListByBook(ctx context.Context, bookID string) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + `
		FROM reviews
		WHERE book_id = $1
		ORDER BY created_at ASC, id ASC`

	return r.list(ctx, query, bookID)
}

// ListByUser returns every review written by a user, newest first.
func (r *ReviewRepository) ListByUser(ctx context.Context, userID string) ([]domain.Review, error) {
	query := `SELECT ` + reviewColumns + `
		FROM reviews
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, userID)
}

// Stats returns the review count and mean rating of a book.
func (r *ReviewRepository) Stats(ctx context.Context, bookID string) (int, float64, error) {
	query := `
		SELECT COUNT(*), COALESCE(AVG(rating), 0)::float8
		FROM reviews
		WHERE book_id = $1`

	var (
		count int64
		mean  float64
	)
	if err := r.db.QueryRow(ctx, query, bookID).Scan(&count, &mean); err != nil {
		return 0, 0, fmt.Errorf("get review stats: %w", err)
	}
	return int(count), mean, nil
}

func (r *ReviewRepository) list(ctx context.Context, query string, arg string) ([]domain.Review, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []domain.Review{}
	for rows.Next() {
		rv, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		reviews = append(reviews, rv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate review rows: %w", err)
	}
	return reviews, nil
}

func scanReview(row pgx.Row) (domain.Review, error) {
	var rv domain.Review
	err := row.Scan(&rv.ID, &rv.BookID, &rv.UserID, &rv.Rating, &rv.Text, &rv.CreatedAt, &rv.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rv, domain.ErrNotFound
		}
		return rv, fmt.Errorf("scan review: %w", err)
	}
	return rv, nil
}
