package connection

import (
	"context"
	"fmt"
	"time"

	"netloc/internal/config"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// newMongoDB creates new MongoDB client
func newMongoDB(ctx context.Context, cfg *config.MongoDBConfig) (*mongo.Client, error) {
	if cfg == nil || cfg.URI == "" {
		return nil, fmt.Errorf("mongodb configuration is nil or empty")
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("mongodb client creation error: %w", err)
	}

	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongodb connect error: %w", err)
	}

	return client, nil
}
