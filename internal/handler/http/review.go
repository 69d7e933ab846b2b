package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/BookReviewGo/pkg/httputil"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
)

// ReviewHandler handles HTTP requests for a user's own reviews.
type ReviewHandler struct {
	catalog CatalogService
	reviews ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a new review HTTP handler.
func NewReviewHandler(catalog CatalogService, reviews ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{catalog: catalog, reviews: reviews, logger: logger}
}

// MyReviews handles GET /api/reviews/myreviews
func (h *ReviewHandler) MyReviews(w http.ResponseWriter, r *http.Request) {
	reviews, err := h.catalog.MyReviews(r.Context(), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, reviews)
}

// DeleteReview handles DELETE /api/reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	page, err := h.reviews.DeleteReview(r.Context(), chi.URLParam(r, "id"), middleware.UserIDFromContext(r.Context()))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, page)
}
