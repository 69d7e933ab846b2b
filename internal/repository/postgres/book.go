package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/repository"
	"github.com/utafrali/BookReviewGo/pkg/database"
)

const bookColumns = `id, title, author, genre, average_rating, review_count, created_at, updated_at`

// sortColumns maps list sort fields to columns.
var sortColumns = map[string]string{
	domain.SortByCreatedAt:     "created_at",
	domain.SortByTitle:         "title",
	domain.SortByAuthor:        "author",
	domain.SortByGenre:         "genre",
	domain.SortByAverageRating: "average_rating",
	domain.SortByReviewCount:   "review_count",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// BookRepository implements repository.BookRepository using PostgreSQL.
type BookRepository struct {
	db database.DBTX
}

// NewBookRepository creates a new PostgreSQL-backed book repository.
func NewBookRepository(db database.DBTX) *BookRepository {
	return &BookRepository{db: db}
}

// Create inserts a new book.
func (r *BookRepository) Create(ctx context.Context, b *domain.Book) error {
	query := `
		INSERT INTO books (id, title, author, genre, average_rating, review_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.db.Exec(ctx, query,
		b.ID,
		b.Title,
		b.Author,
		b.Genre,
		b.AverageRating,
		b.ReviewCount,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert book: %w", err)
	}
	return nil
}

// GetByID retrieves a book by ID.
func (r *BookRepository) GetByID(ctx context.Context, id string) (*domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books WHERE id = $1`

	return scanBook(r.db.QueryRow(ctx, query, id))
}

// GetByIDs returns the books with the given IDs keyed by ID.
func (r *BookRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Book, error) {
	books := make(map[string]*domain.Book, len(ids))
	if len(ids) == 0 {
		return books, nil
	}

	query := `SELECT ` + bookColumns + ` FROM books WHERE id = ANY($1)`

	rows, err := r.db.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("list books by id: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		books[b.ID] = b
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate book rows: %w", err)
	}
	return books, nil
}

// List returns one page of books matching filter and the total match count.
func (r *BookRepository) List(ctx context.Context, filter repository.BookFilter) ([]domain.Book, int64, error) {
	filter = filter.Normalize()
	where, args := listConditions(filter)

	var total int64
	countQuery := `SELECT COUNT(*) FROM books` + where
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count books: %w", err)
	}

	dir := "DESC"
	if filter.Ascending() {
		dir = "ASC"
	}
	query := fmt.Sprintf(`SELECT %s FROM books%s ORDER BY %s %s, id %s LIMIT $%d OFFSET $%d`,
		bookColumns, where, sortColumns[filter.SortBy], dir, dir, len(args)+1, len(args)+2,
	)
	args = append(args, filter.Limit, filter.Skip())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list books: %w", err)
	}
	defer rows.Close()

	books := []domain.Book{}
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, 0, err
		}
		books = append(books, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("iterate book rows: %w", err)
	}
	return books, total, nil
}

// UpdateRating overwrites the derived rating fields of a book.
func (r *BookRepository) UpdateRating(ctx context.Context, id string, agg domain.RatingAggregate) error {
	query := `
		UPDATE books
		SET average_rating = $2, review_count = $3, updated_at = $4
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, id, agg.AverageRating, agg.ReviewCount, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update book rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// listConditions builds the WHERE clause for filter. The author is matched
// as a literal, case-insensitive substring.
func listConditions(filter repository.BookFilter) (string, []any) {
	var (
		conditions []string
		args       []any
	)

	if filter.Genre != "" {
		args = append(args, filter.Genre)
		conditions = append(conditions, fmt.Sprintf("genre = $%d", len(args)))
	}
	if filter.Author != "" {
		args = append(args, "%"+likeEscaper.Replace(filter.Author)+"%")
		conditions = append(conditions, fmt.Sprintf("author ILIKE $%d", len(args)))
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

func scanBook(row pgx.Row) (*domain.Book, error) {
	var b domain.Book
	err := row.Scan(
		&b.ID,
		&b.Title,
		&b.Author,
		&b.Genre,
		&b.AverageRating,
		&b.ReviewCount,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("scan book: %w", err)
	}
	return &b, nil
}
