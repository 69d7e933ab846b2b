package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupTestRedis(t *testing.T) (*RedisBookCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisBookCache(client, 5*time.Minute), mr
}

func samplePage() *domain.BookWithReviews {
	created := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	return &domain.BookWithReviews{
		Book: &domain.Book{ID: "b1", Title: "Dune", Author: "Herbert", Genre: "Sci-Fi", AverageRating: 4, ReviewCount: 1, CreatedAt: created, UpdatedAt: created},
		Reviews: []domain.BookReview{
			{ID: "r1", Book: "b1", User: domain.ReviewerRef{ID: "u1", Username: "alice"}, Rating: 4, ReviewText: "Great", CreatedAt: created, UpdatedAt: created},
		},
	}
}

// ─── redis ──────────────────────────────────────────────────────────────────

func TestRedisBookCache_SetThenGet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SetBook(ctx, "b1", 0, samplePage()))

	got, err := c.GetBook(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, samplePage(), got)

	assert.True(t, mr.Exists("book:b1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("book:b1"))
}

func TestRedisBookCache_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)

	got, err := c.GetBook(context.Background(), "missing")

	assert.Nil(t, got)
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisBookCache_Expires(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.SetBook(ctx, "b1", 0, samplePage()))

	mr.FastForward(6 * time.Minute)

	_, err := c.GetBook(ctx, "b1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}

func TestRedisBookCache_Invalidate(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.SetBook(ctx, "b1", 0, samplePage()))

	require.NoError(t, c.InvalidateBook(ctx, "b1"))

	assert.False(t, mr.Exists("book:b1"))
	require.NoError(t, c.InvalidateBook(ctx, "never-cached"))
}

func TestRedisBookCache_GenerationGuardsSet(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	// A review lands while a reader that started at gen is still loading.
	require.NoError(t, c.InvalidateBook(ctx, "b1"))

	err = c.SetBook(ctx, "b1", gen, samplePage())
	assert.ErrorIs(t, err, ErrStaleGeneration)
	assert.False(t, mr.Exists("book:b1"))

	gen, err = c.Generation(ctx, "b1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	assert.Positive(t, mr.TTL("bookgen:b1"))

	require.NoError(t, c.SetBook(ctx, "b1", gen, samplePage()))
	assert.True(t, mr.Exists("book:b1"))
	assert.Equal(t, 5*time.Minute, mr.TTL("book:b1"))
}

func TestRedisBookCache_CorruptEntry(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("book:b1", "{not json"))

	_, err := c.GetBook(context.Background(), "b1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

// ─── breaker ────────────────────────────────────────────────────────────────

type fakeCache struct {
	err   error
	calls int
}

func (f *fakeCache) GetBook(context.Context, string) (*domain.BookWithReviews, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return samplePage(), nil
}

func (f *fakeCache) Generation(context.Context, string) (int64, error) {
	f.calls++
	if f.err != nil {
		return 0, f.err
	}
	return 0, nil
}

func (f *fakeCache) SetBook(context.Context, string, int64, *domain.BookWithReviews) error {
	f.calls++
	return f.err
}

func (f *fakeCache) InvalidateBook(context.Context, string) error {
	f.calls++
	return f.err
}

func newTestBreaker(next BookCache) *BreakerCache {
	cfg := DefaultBreakerConfig("test-cache")
	cfg.MinRequests = 3
	cfg.Timeout = time.Hour
	return NewBreakerCache(next, cfg, testLogger())
}

func TestBreakerCache_PassesThrough(t *testing.T) {
	next := &fakeCache{}
	c := newTestBreaker(next)

	got, err := c.GetBook(context.Background(), "b1")

	require.NoError(t, err)
	assert.Equal(t, "b1", got.Book.ID)
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestBreakerCache_MissesDoNotTrip(t *testing.T) {
	next := &fakeCache{err: ErrCacheMiss}
	c := newTestBreaker(next)

	for i := 0; i < 10; i++ {
		_, err := c.GetBook(context.Background(), "b1")
		assert.ErrorIs(t, err, ErrCacheMiss)
	}

	assert.Equal(t, gobreaker.StateClosed, c.State())
	assert.Equal(t, 10, next.calls)
}

func TestBreakerCache_OpensAfterFailures(t *testing.T) {
	next := &fakeCache{err: errors.New("connection refused")}
	c := newTestBreaker(next)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := c.GetBook(ctx, "b1")
		require.Error(t, err)
	}
	require.Equal(t, gobreaker.StateOpen, c.State())

	// Open breaker: nothing reaches the backend.
	_, err := c.GetBook(ctx, "b1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Generation(ctx, "b1")
	assert.ErrorIs(t, err, ErrBypassed)
	assert.NoError(t, c.SetBook(ctx, "b1", 0, samplePage()))
	assert.NoError(t, c.InvalidateBook(ctx, "b1"))
	assert.Equal(t, 3, next.calls)
}

func TestBreakerCache_StaleGenerationDoesNotTrip(t *testing.T) {
	next := &fakeCache{err: ErrStaleGeneration}
	c := newTestBreaker(next)

	for i := 0; i < 10; i++ {
		assert.ErrorIs(t, c.SetBook(context.Background(), "b1", 0, samplePage()), ErrStaleGeneration)
	}
	assert.Equal(t, gobreaker.StateClosed, c.State())
}

func TestNoopCache(t *testing.T) {
	var c BookCache = NoopCache{}
	ctx := context.Background()

	_, err := c.GetBook(ctx, "b1")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = c.Generation(ctx, "b1")
	assert.ErrorIs(t, err, ErrBypassed)
	assert.NoError(t, c.SetBook(ctx, "b1", 0, samplePage()))
	assert.NoError(t, c.InvalidateBook(ctx, "b1"))
}
