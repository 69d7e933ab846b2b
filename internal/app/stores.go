package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/utafrali/BookReviewGo/internal/config"
	"github.com/utafrali/BookReviewGo/internal/repository"
	mongorepo "github.com/utafrali/BookReviewGo/internal/repository/mongo"
	"github.com/utafrali/BookReviewGo/internal/repository/postgres"
	"github.com/utafrali/BookReviewGo/migrations"
	"github.com/utafrali/BookReviewGo/pkg/database"
)

// stores holds the repositories of the configured storage driver.
type stores struct {
	users   repository.UserRepository
	books   repository.BookRepository
	reviews repository.ReviewRepository

	mongo *mongo.Client
	pool  *pgxpool.Pool
}

func openStores(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	switch cfg.StorageDriver {
	case config.DriverPostgres:
		return openPostgres(ctx, cfg, logger)
	default:
		return openMongo(ctx, cfg, logger)
	}
}

func openMongo(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	mongoCfg := database.DefaultMongoConfig()
	mongoCfg.URI = cfg.MongoURI
	mongoCfg.Database = cfg.MongoDatabase

	client, err := database.NewMongoClient(ctx, mongoCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	db := client.Database(mongoCfg.Database)
	if err := mongorepo.EnsureIndexes(ctx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ensure mongodb indexes: %w", err)
	}
	logger.Info("connected to MongoDB", slog.String("database", mongoCfg.Database))

	return &stores{
		users:   mongorepo.NewUserRepository(db),
		books:   mongorepo.NewBookRepository(db),
		reviews: mongorepo.NewReviewRepository(db),
		mongo:   client,
	}, nil
}

func openPostgres(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*stores, error) {
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Hour,
		MaxConnIdleTime: 30 * time.Minute,
	}

	pool, err := database.NewPostgresPool(ctx, pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)

	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &stores{
		users:   postgres.NewUserRepository(pool),
		books:   postgres.NewBookRepository(pool),
		reviews: postgres.NewReviewRepository(pool),
		pool:    pool,
	}, nil
}

func (s *stores) ping(ctx context.Context) error {
	switch {
	case s.pool != nil:
		return s.pool.Ping(ctx)
	case s.mongo != nil:
		return s.mongo.Ping(ctx, readpref.Primary())
	default:
		return fmt.Errorf("no store configured")
	}
}

func (s *stores) close(ctx context.Context, logger *slog.Logger) {
	if s == nil {
		return
	}
	if s.pool != nil {
		s.pool.Close()
	}
	if s.mongo != nil {
		if err := s.mongo.Disconnect(ctx); err != nil {
			logger.Error("mongodb disconnect error", slog.String("error", err.Error()))
		}
	}
}
