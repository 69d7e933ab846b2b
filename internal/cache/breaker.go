package cache

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/sony/gobreaker/v2"

	"github.com/utafrali/BookReviewGo/internal/domain"
)

var breakerState = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Name: "cache_circuit_breaker_state",
		Help: "Current state of the cache circuit breaker (0=closed, 1=half-open, 2=open)",
	},
	[]string{"name"},
)

// BreakerConfig holds configuration for the cache circuit breaker.
type BreakerConfig struct {
	// Name identifies this breaker in metrics and logs.
	Name string

	// MaxRequests is the number of trial calls allowed while half-open.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state for clearing counts.
	Interval time.Duration

	// Timeout is how long the breaker stays open before going half-open.
	Timeout time.Duration

	// FailureRatio trips the breaker once this share of calls has failed.
	FailureRatio float64

	// MinRequests is the number of calls needed before the ratio is evaluated.
	MinRequests uint32
}

// DefaultBreakerConfig returns defaults for a cache breaker.
func DefaultBreakerConfig(name string) BreakerConfig {
	return BreakerConfig{
		Name:         name,
		MaxRequests:  1,
		Interval:     60 * time.Second,
		Timeout:      30 * time.Second,
		FailureRatio: 0.5,
		MinRequests:  5,
	}
}

func stateToFloat(state gobreaker.State) float64 {
	switch state {
	case gobreaker.StateClosed:
		return 0
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return -1
	}
}

// BreakerCache wraps a BookCache with a circuit breaker. While the breaker
// is open, reads miss and writes are skipped so callers go straight to the
// store. Misses and stale generations do not count as failures.
type BreakerCache struct {
	next    BookCache
	breaker *gobreaker.CircuitBreaker[*domain.BookWithReviews]
	logger  *slog.Logger
}

// NewBreakerCache wraps next with a circuit breaker configured by cfg.
func NewBreakerCache(next BookCache, cfg BreakerConfig, logger *slog.Logger) *BreakerCache {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			return float64(counts.TotalFailures)/float64(counts.Requests) >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("cache circuit breaker state change",
				slog.String("breaker", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()),
			)
			breakerState.WithLabelValues(name).Set(stateToFloat(to))
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrCacheMiss) || errors.Is(err, ErrStaleGeneration)
		},
	}

	breakerState.WithLabelValues(cfg.Name).Set(0)

	return &BreakerCache{
		next:    next,
		breaker: gobreaker.NewCircuitBreaker[*domain.BookWithReviews](settings),
		logger:  logger,
	}
}

// GetBook reads through the breaker. An open breaker reports a miss.
func (c *BreakerCache) GetBook(ctx context.Context, id string) (*domain.BookWithReviews, error) {
	page, err := c.breaker.Execute(func() (*domain.BookWithReviews, error) {
		return c.next.GetBook(ctx, id)
	})
	if isRejected(err) {
		return nil, ErrCacheMiss
	}
	return page, err
}

// Generation reads through the breaker. An open breaker reports
// ErrBypassed so callers skip caching what they load.
func (c *BreakerCache) Generation(ctx context.Context, id string) (int64, error) {
	var gen int64
	_, err := c.breaker.Execute(func() (*domain.BookWithReviews, error) {
		var err error
		gen, err = c.next.Generation(ctx, id)
		return nil, err
	})
	if isRejected(err) {
		return 0, ErrBypassed
	}
	return gen, err
}

// SetBook writes through the breaker. Writes are dropped while it is open.
func (c *BreakerCache) SetBook(ctx context.Context, id string, generation int64, page *domain.BookWithReviews) error {
	_, err := c.breaker.Execute(func() (*domain.BookWithReviews, error) {
		return nil, c.next.SetBook(ctx, id, generation, page)
	})
	if isRejected(err) {
		return nil
	}
	return err
}

// InvalidateBook deletes through the breaker. Deletes are dropped while it
// is open; the entry then lives until its TTL.
func (c *BreakerCache) InvalidateBook(ctx context.Context, id string) error {
	_, err := c.breaker.Execute(func() (*domain.BookWithReviews, error) {
		return nil, c.next.InvalidateBook(ctx, id)
	})
	if isRejected(err) {
		c.logger.WarnContext(ctx, "cache invalidation skipped, breaker open", slog.String("book_id", id))
		return nil
	}
	return err
}

// State returns the current breaker state.
func (c *BreakerCache) State() gobreaker.State {
	return c.breaker.State()
}

func isRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}
