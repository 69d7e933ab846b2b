package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

const (
	bookKeyPrefix       = "book:"
	generationKeyPrefix = "bookgen:"

	// generationTTL outlives any page and any in-flight read by a wide
	// margin. It is refreshed on every invalidation.
	generationTTL = 24 * time.Hour
)

// setIfGeneration stores a page only while the book's generation still
// equals the one the reader started from. A missing generation counts as 0.
var setIfGeneration = redis.NewScript(`
local current = redis.call('GET', KEYS[2]) or '0'
if current ~= ARGV[1] then
	return 0
end
if tonumber(ARGV[3]) > 0 then
	redis.call('SET', KEYS[1], ARGV[2], 'PX', ARGV[3])
else
	redis.call('SET', KEYS[1], ARGV[2])
end
return 1
`)

// RedisBookCache implements BookCache using Redis.
type RedisBookCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBookCache creates a Redis-backed book cache whose entries expire
// after ttl.
func NewRedisBookCache(client *redis.Client, ttl time.Duration) *RedisBookCache {
	return &RedisBookCache{client: client, ttl: ttl}
}

// GetBook returns the cached page for a book.
func (c *RedisBookCache) GetBook(ctx context.Context, id string) (*domain.BookWithReviews, error) {
	data, err := c.client.Get(ctx, bookKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get book: %w", err)
	}

	var page domain.BookWithReviews
	if err := json.Unmarshal(data, &page); err != nil {
		return nil, fmt.Errorf("unmarshal book page: %w", err)
	}
	return &page, nil
}

// Generation returns the book's current generation, 0 if it was never
// invalidated.
func (c *RedisBookCache) Generation(ctx context.Context, id string) (int64, error) {
	gen, err := c.client.Get(ctx, generationKeyPrefix+id).Int64()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get book generation: %w", err)
	}
	return gen, nil
}

// SetBook stores the page for a book with the configured TTL, unless the
// book's generation moved past generation.
func (c *RedisBookCache) SetBook(ctx context.Context, id string, generation int64, page *domain.BookWithReviews) error {
	data, err := json.Marshal(page)
	if err != nil {
		return fmt.Errorf("marshal book page: %w", err)
	}

	stored, err := setIfGeneration.Run(ctx, c.client,
		[]string{bookKeyPrefix + id, generationKeyPrefix + id},
		generation, data, c.ttl.Milliseconds(),
	).Int()
	if err != nil {
		return fmt.Errorf("redis set book: %w", err)
	}
	if stored == 0 {
		return ErrStaleGeneration
	}
	return nil
}

// InvalidateBook drops the cached page for a book and advances its
// generation in one transaction.
func (c *RedisBookCache) InvalidateBook(ctx context.Context, id string) error {
	genKey := generationKeyPrefix + id
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, bookKeyPrefix+id)
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate book: %w", err)
	}
	return nil
}
