package service

import (
	"context"
	"fmt"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/repository"
)

// bookPageLoader assembles a book detail page with every review's author
// populated.
type bookPageLoader struct {
	reviews repository.ReviewRepository
	users   repository.UserRepository
}

func (l bookPageLoader) load(ctx context.Context, book *domain.Book) (*domain.BookWithReviews, error) {
	reviews, err := l.reviews.ListByBook(ctx, book.ID)
	if err != nil {
		return nil, fmt.Errorf("list reviews of book %s: %w", book.ID, err)
	}

	users, err := l.users.GetByIDs(ctx, reviewerIDs(reviews))
	if err != nil {
		return nil, fmt.Errorf("load reviewers of book %s: %w", book.ID, err)
	}

	page := &domain.BookWithReviews{
		Book:    book,
		Reviews: make([]domain.BookReview, 0, len(reviews)),
	}
	for _, r := range reviews {
		page.Reviews = append(page.Reviews, domain.NewBookReview(r, users[r.UserID]))
	}
	return page, nil
}

func reviewerIDs(reviews []domain.Review) []string {
	seen := make(map[string]struct{}, len(reviews))
	ids := make([]string, 0, len(reviews))
	for _, r := range reviews {
		if _, ok := seen[r.UserID]; ok {
			continue
		}
		seen[r.UserID] = struct{}{}
		ids = append(ids, r.UserID)
	}
	return ids
}
