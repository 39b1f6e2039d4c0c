package db

import (
	"context"
	"fmt"

	"github.com/surrealdb/surrealdb.go"
)

type NewSurrealDBParams struct {
	URL       string
	Namespace string
	Database  string
	Username  string
	Password  string
}

// NewSurrealDB connects, signs in as the given user and selects the namespace and database.
func NewSurrealDB(ctx context.Context, params NewSurrealDBParams) (*surrealdb.DB, error) {
	sdb, err := surrealdb.FromEndpointURLString(ctx, params.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to surrealdb [%s]: %w", params.URL, err)
	}

	if params.Username != "" {
		if _, err := sdb.SignIn(ctx, surrealdb.Auth{
			Username: params.Username,
			Password: params.Password,
		}); err != nil {
			_ = sdb.Close(ctx)
			return nil, fmt.Errorf("surrealdb sign in: %w", err)
		}
	}

	if err := sdb.Use(ctx, params.Namespace, params.Database); err != nil {
		_ = sdb.Close(ctx)
		return nil, fmt.Errorf("surrealdb use %s/%s: %w", params.Namespace, params.Database, err)
	}

	return sdb, nil
}
