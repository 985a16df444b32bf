package notify

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Inserter is the part of a MongoDB collection the reporter uses
type Inserter interface {
	InsertOne(ctx context.Context, document any, opts ...*options.InsertOneOptions) (*mongo.InsertOneResult, error)
}

// MongoDB inserts every change into a collection
type MongoDB struct {
	collection Inserter
}

// NewMongoDB creates new MongoDB reporter
func NewMongoDB(collection Inserter) (*MongoDB, error) {
	if collection == nil {
		return nil, fmt.Errorf("mongodb collection is nil")
	}
	return &MongoDB{collection: collection}, nil
}

// Name returns the reporter name
func (n *MongoDB) Name() string { return "mongodb" }

// Report inserts the change
func (n *MongoDB) Report(ctx context.Context, p *Payload) error {
	if _, err := n.collection.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("mongodb insert failed: %w", err)
	}
	return nil
}
