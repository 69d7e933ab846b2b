package service

import (
	"context"
	"sort"
	"sync"

	"github.com/utafrali/BookReviewGo/internal/domain"
	"github.com/utafrali/BookReviewGo/internal/repository"
)

// memStore is an in-memory implementation of the three repositories used
// for multi-step flows.
type memStore struct {
	mu      sync.Mutex
	users   map[string]domain.User
	books   map[string]domain.Book
	reviews map[string]domain.Review
}

func newMemStore() *memStore {
	return &memStore{
		users:   make(map[string]domain.User),
		books:   make(map[string]domain.Book),
		reviews: make(map[string]domain.Review),
	}
}

type memUsers struct{ *memStore }
type memBooks struct{ *memStore }
type memReviews struct{ *memStore }

func (s memUsers) Create(_ context.Context, u *domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return domain.ErrDuplicateUser
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s memUsers) FindByIdentifier(_ context.Context, username, email string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == username || u.Email == email {
			u := u
			return &u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (s memUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &u, nil
}

func (s memUsers) GetByIDs(_ context.Context, ids []string) (map[string]*domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*domain.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			out[id] = &u
		}
	}
	return out, nil
}

func (s memBooks) Create(_ context.Context, b *domain.Book) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.books[b.ID] = *b
	return nil
}

func (s memBooks) GetByID(_ context.Context, id string) (*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &b, nil
}

func (s memBooks) GetByIDs(_ context.Context, ids []string) (map[string]*domain.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]*domain.Book, len(ids))
	for _, id := range ids {
		if b, ok := s.books[id]; ok {
			out[id] = &b
		}
	}
	return out, nil
}

func (s memBooks) List(_ context.Context, f repository.BookFilter) ([]domain.Book, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []domain.Book
	for _, b := range s.books {
		if f.Genre != "" && b.Genre != f.Genre {
			continue
		}
		all = append(all, b)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.Before(all[j].CreatedAt) })
	total := int64(len(all))
	skip := f.Skip()
	if skip >= len(all) {
		return nil, total, nil
	}
	end := skip + f.Limit
	if end > len(all) {
		end = len(all)
	}
	return all[skip:end], total, nil
}

func (s memBooks) UpdateRating(_ context.Context, id string, agg domain.RatingAggregate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.books[id]
	if !ok {
		return domain.ErrNotFound
	}
	agg.Apply(&b)
	s.books[id] = b
	return nil
}

func (s memReviews) CreateIfAbsent(_ context.Context, r *domain.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.reviews {
		if existing.BookID == r.BookID && existing.UserID == r.UserID {
			return domain.ErrDuplicateReview
		}
	}
	s.reviews[r.ID] = *r
	return nil
}

func (s memReviews) GetByID(_ context.Context, id string) (*domain.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.reviews[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &r, nil
}

func (s memReviews) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.reviews[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.reviews, id)
	return nil
}

func (s memReviews) ListByBook(_ context.Context, bookID string) ([]domain.Review, error) {
	return s.filter(func(r domain.Review) bool { return r.BookID == bookID }, true), nil
}

func (s memReviews) ListByUser(_ context.Context, userID string) ([]domain.Review, error) {
	return s.filter(func(r domain.Review) bool { return r.UserID == userID }, false), nil
}

func (s memReviews) Stats(_ context.Context, bookID string) (int, float64, error) {
	reviews := s.filter(func(r domain.Review) bool { return r.BookID == bookID }, true)
	if len(reviews) == 0 {
		return 0, 0, nil
	}
	sum := 0
	for _, r := range reviews {
		sum += r.Rating
	}
	return len(reviews), float64(sum) / float64(len(reviews)), nil
}

func (s memReviews) filter(keep func(domain.Review) bool, ascending bool) []domain.Review {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []domain.Review{}
	for _, r := range s.reviews {
		if keep(r) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if ascending {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}
