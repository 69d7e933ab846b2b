package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/repository"
	"github.com/utafrali/BookReviewGo/internal/service"
	"github.com/utafrali/BookReviewGo/pkg/httputil"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
	"github.com/utafrali/BookReviewGo/pkg/pagination"
	"github.com/utafrali/BookReviewGo/pkg/validator"
)

// CatalogService serves the catalog.
type CatalogService interface {
	AddBook(ctx context.Context, input service.AddBookInput) (*domain.Book, error)
	ListBooks(ctx context.Context, filter repository.BookFilter) (*service.BookPage, error)
	GetBook(ctx context.Context, id string) (*domain.BookWithReviews, error)
	MyReviews(ctx context.Context, userID string) ([]domain.UserReview, error)
}

// ReviewService writes and removes reviews.
type ReviewService interface {
	AddReview(ctx context.Context, input service.AddReviewInput) (*domain.BookWithReviews, error)
	DeleteReview(ctx context.Context, reviewID, userID string) (*domain.BookWithReviews, error)
}

// BookHandler handles HTTP requests for the book endpoints.
type BookHandler struct {
	catalog CatalogService
	reviews ReviewService
	logger  *slog.Logger
}

// NewBookHandler creates a new book HTTP handler.
func NewBookHandler(catalog CatalogService, reviews ReviewService, logger *slog.Logger) *BookHandler {
	return &BookHandler{catalog: catalog, reviews: reviews, logger: logger}
}

// --- Request DTOs ---

// AddBookRequest is the JSON request body for adding a book.
type AddBookRequest struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Genre  string `json:"genre"`
}

// AddReviewRequest is the JSON request body for reviewing a book.
type AddReviewRequest struct {
	Rating     int    `json:"rating"`
	ReviewText string `json:"reviewText"`
}

// ListBooks handles GET /api/books
func (h *BookHandler) ListBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	p := pagination.FromRequest(r)

	page, err := h.catalog.ListBooks(r.Context(), repository.BookFilter{
		Genre:  q.Get("genre"),
		Author: q.Get("author"),
		SortBy: q.Get("sortBy"),
		Order:  q.Get("order"),
		Page:   p.Page,
		Limit:  p.Limit,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// AddBook handles POST /api/books
func (h *BookHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	var req AddBookRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	book, err := h.catalog.AddBook(r.Context(), service.AddBookInput{
		Title:  req.Title,
		Author: req.Author,
		Genre:  req.Genre,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, book)
}

// GetBook handles GET /api/books/{id}
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	page, err := h.catalog.GetBook(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}

// AddReview handles POST /api/books/{id}/reviews
func (h *BookHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	var req AddReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteValidationError(w, r, err)
		return
	}

	page, err := h.reviews.AddReview(r.Context(), service.AddReviewInput{
		BookID: chi.URLParam(r, "id"),
		UserID: middleware.UserIDFromContext(r.Context()),
		Rating: req.Rating,
		Text:   req.ReviewText,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, page)
}
