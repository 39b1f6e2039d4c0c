package db

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

type NewMongoClientParams struct {
	URI            string
	ConnectTimeout time.Duration
}

// NewMongoClient connects and pings the primary, the client is safe for concurrent use.
func NewMongoClient(ctx context.Context, params NewMongoClientParams) (*mongo.Client, error) {
	if params.URI == "" {
		return nil, fmt.Errorf("mongo uri not set")
	}
	if params.ConnectTimeout == 0 {
		params.ConnectTimeout = 10 * time.Second
	}

	clientOpts := options.Client().
		ApplyURI(params.URI).
		SetConnectTimeout(params.ConnectTimeout).
		SetServerSelectionTimeout(params.ConnectTimeout)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, params.ConnectTimeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	return client, nil
}
