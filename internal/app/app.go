package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/utafrali/BookReviewGo/internal/auth"
	"github.com/utafrali/BookReviewGo/internal/cache"
	"github.com/utafrali/BookReviewGo/internal/config"
	"github.com/utafrali/BookReviewGo/internal/event"
	handler "github.com/utafrali/BookReviewGo/internal/handler/http"
	"github.com/utafrali/BookReviewGo/internal/service"
	"github.com/utafrali/BookReviewGo/pkg/database"
	"github.com/utafrali/BookReviewGo/pkg/health"
	pkgkafka "github.com/utafrali/BookReviewGo/pkg/kafka"
	"github.com/utafrali/BookReviewGo/pkg/middleware"
	"github.com/utafrali/BookReviewGo/pkg/tracing"
)

// ServiceName identifies this process in logs, traces and metrics.
const ServiceName = "bookreview-api"

// App wires together all dependencies and runs the book review API.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	stores         *stores
	redis          *redis.Client
	producer       *pkgkafka.Producer
	tracerShutdown func(context.Context) error
	httpServer     *http.Server
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	a := &App{cfg: cfg, logger: logger}

	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: "1.0.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}
	a.tracerShutdown = tracerShutdown

	database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)

	healthHandler := health.NewHandler()

	// Primary store.
	st, err := openStores(ctx, cfg, logger)
	if err != nil {
		_ = a.tracerShutdown(context.Background())
		return nil, err
	}
	a.stores = st
	healthHandler.Register(cfg.StorageDriver, st.ping)

	// Read cache.
	var bookCache cache.BookCache = cache.NoopCache{}
	if cfg.RedisEnabled {
		redisCfg := database.DefaultRedisConfig()
		redisCfg.Host = cfg.RedisHost
		redisCfg.Port = cfg.RedisPort
		redisCfg.Password = cfg.RedisPassword
		redisCfg.DB = cfg.RedisDB

		client, err := database.NewRedisClient(ctx, redisCfg, logger)
		if err != nil {
			// The API works without its cache.
			logger.Warn("redis unavailable, book cache disabled", slog.String("error", err.Error()))
		} else {
			a.redis = client
			bookCache = cache.NewBreakerCache(
				cache.NewRedisBookCache(client, cfg.CacheTTL),
				cache.DefaultBreakerConfig("redis-book-cache"),
				logger,
			)
			healthHandler.RegisterOptional("redis", func(ctx context.Context) error {
				return client.Ping(ctx).Err()
			})
			logger.Info("book cache enabled",
				slog.String("addr", redisCfg.Addr()),
				slog.Duration("ttl", cfg.CacheTTL),
			)
		}
	}

	// Domain events.
	eventProducer := event.NewNoopProducer(logger)
	if cfg.KafkaEnabled {
		a.producer = pkgkafka.NewProducer(pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers), logger)
		eventProducer = event.NewProducer(a.producer, logger)
		healthHandler.RegisterOptional("kafka", a.producer.Ping)
		logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))
	}

	// Build the dependency graph.
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTExpiry)
	hasher := auth.NewBcryptHasher(cfg.BcryptCost)

	aggregator := service.NewAggregator(st.reviews, st.books, eventProducer, logger)
	authService := service.NewAuthService(st.users, hasher, tokens, eventProducer, logger)
	reviewService := service.NewReviewService(st.books, st.reviews, st.users, aggregator, bookCache, eventProducer, logger)
	catalogService := service.NewCatalogService(st.books, st.reviews, st.users, bookCache, eventProducer, logger)

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowedOrigins = cfg.CORSAllowedOrigins

	router := handler.NewRouter(
		handler.Services{Auth: authService, Catalog: catalogService, Reviews: reviewService},
		tokens.Verify,
		healthHandler,
		corsCfg,
		logger,
	)

	a.httpServer = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      35 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if st.pool != nil {
		if err := database.RegisterPoolMetrics(prometheus.DefaultRegisterer, st.pool, ServiceName); err != nil {
			logger.Warn("failed to register pool metrics", slog.String("error", err.Error()))
		}
	}

	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
			slog.String("storage_driver", a.cfg.StorageDriver),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		a.closeDependencies()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
	}

	a.closeDependencies()

	a.logger.Info("application shutdown complete")
	return nil
}

func (a *App) closeDependencies() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if a.producer != nil {
		if err := a.producer.Close(); err != nil {
			a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		}
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Error("redis close error", slog.String("error", err.Error()))
		}
	}

	a.stores.close(ctx, a.logger)

	if err := a.tracerShutdown(ctx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
	}
}
