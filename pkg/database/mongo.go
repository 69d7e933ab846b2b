package database

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// MongoConfig holds MongoDB connection settings.
type MongoConfig struct {
	URI            string
	Database       string
	MaxPoolSize    uint64
	ConnectTimeout time.Duration
}

// DefaultMongoConfig returns local development defaults.
func DefaultMongoConfig() MongoConfig {
	return MongoConfig{
		URI:            "mongodb://localhost:27017",
		Database:       "bookreview",
		MaxPoolSize:    50,
		ConnectTimeout: 10 * time.Second,
	}
}

// NewMongoClient connects to MongoDB and pings the primary, retrying
// transient failures three times with backoff. Commands are traced and
// slow ones logged through the same hooks as Postgres queries.
func NewMongoClient(ctx context.Context, cfg MongoConfig, logger *slog.Logger) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetConnectTimeout(cfg.ConnectTimeout).
		SetServerSelectionTimeout(cfg.ConnectTimeout).
		SetMonitor(NewCommandMonitor())

	var client *mongo.Client
	err := connectWithRetry(ctx, logger, "mongodb", nil, func(ctx context.Context) error {
		c, err := mongo.Connect(ctx, opts)
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		if err := c.Ping(ctx, readpref.Primary()); err != nil {
			_ = c.Disconnect(context.Background())
			return fmt.Errorf("ping: %w", err)
		}
		client = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return client, nil
}

// NewCommandMonitor returns a driver monitor that wraps each command in a
// TraceQuery span. Handshake and heartbeat commands are skipped.
func NewCommandMonitor() *event.CommandMonitor {
	var inflight sync.Map // request id -> func(error)

	finish := func(requestID int64, err error) {
		if end, ok := inflight.LoadAndDelete(requestID); ok {
			end.(func(error))(err)
		}
	}

	return &event.CommandMonitor{
		Started: func(ctx context.Context, evt *event.CommandStartedEvent) {
			switch evt.CommandName {
			case "hello", "isMaster", "ismaster", "ping", "saslStart", "saslContinue", "endSessions":
				return
			}
			_, end := TraceQuery(ctx, "mongodb", evt.CommandName, evt.DatabaseName+"."+collectionOf(evt))
			inflight.Store(evt.RequestID, end)
		},
		Succeeded: func(_ context.Context, evt *event.CommandSucceededEvent) {
			finish(evt.RequestID, nil)
		},
		Failed: func(_ context.Context, evt *event.CommandFailedEvent) {
			finish(evt.RequestID, fmt.Errorf("%s: %s", evt.CommandName, evt.Failure))
		},
	}
}

// collectionOf returns the collection a command targets, which the driver
// puts under the command-name key.
func collectionOf(evt *event.CommandStartedEvent) string {
	v, err := evt.Command.LookupErr(evt.CommandName)
	if err != nil {
		return ""
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return ""
}
