package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/xxxsen/issuetracker/internal/config"
)

const (
	usersCollection    = "users"
	issuesCollection   = "issues"
	commentsCollection = "comments"
)

var ErrFailedToConnect = errors.New("failed to connect to mongo")

// Open connects to mongo, retrying the configured number of times.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*mongo.Client, error) {
	timeout := time.Duration(cfg.ConnectTimeoutSeconds) * time.Second
	interval := time.Duration(cfg.RetryIntervalSeconds) * time.Second
	var lastErr error
	for attempt := 1; attempt <= cfg.RetryAttempts; attempt++ {
		client, err := mongo.Connect(
			options.Client().
				ApplyURI(cfg.URI).
				SetConnectTimeout(timeout).
				SetMaxPoolSize(cfg.MaxPoolSize).
				SetRetryWrites(true).
				SetRetryReads(true),
		)
		if err == nil {
			pingCtx, cancel := context.WithTimeout(ctx, timeout)
			err = client.Ping(pingCtx, nil)
			cancel()
			if err == nil {
				return client, nil
			}
			_ = client.Disconnect(ctx)
		}
		lastErr = err
		logutil.GetLogger(ctx).Warn("mongo connect failed",
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if attempt == cfg.RetryAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, errors.Join(ErrFailedToConnect, ctx.Err())
		case <-time.After(interval):
		}
	}
	return nil, errors.Join(ErrFailedToConnect, lastErr)
}

// EnsureIndexes creates the uniqueness indexes the repos rely on.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	unique := func(key string) mongo.IndexModel {
		return mongo.IndexModel{
			Keys:    bson.D{{Key: key, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
	}
	plan := map[string][]mongo.IndexModel{
		usersCollection:  {unique("userId"), unique("email")},
		issuesCollection: {unique("issueId"), {Keys: bson.D{{Key: "reportedOn", Value: -1}}}},
		commentsCollection: {unique("commentId"), {Keys: bson.D{
			{Key: "issueId", Value: 1},
			{Key: "commentedOn", Value: 1},
		}}},
	}
	for name, models := range plan {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("create indexes on %s: %w", name, err)
		}
	}
	return nil
}

func Healthcheck(client *mongo.Client) func(context.Context) error {
	return func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	}
}
