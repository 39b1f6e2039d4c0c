package internal

import (
	"context"
	"fmt"

	"github.com/IBM/pgxpoolprometheus"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"

	"github.com/2beens/edublog/internal/config"
	"github.com/2beens/edublog/internal/db"
	"github.com/2beens/edublog/internal/posts"
	"github.com/2beens/edublog/internal/repo/memory"
	"github.com/2beens/edublog/internal/repo/mongo"
	"github.com/2beens/edublog/internal/repo/psql"
	"github.com/2beens/edublog/internal/repo/surreal"
)

type NewPostsStoreParams struct {
	Config           *config.Config
	SurrealPassword  string
	PostgresPassword string
	TracingEnabled   bool
}

// NewPostsStore connects to the configured backend and prepares its schema/indexes.
// The returned collector is nil for backends without pool metrics.
func NewPostsStore(ctx context.Context, params NewPostsStoreParams) (posts.Store, prometheus.Collector, error) {
	cfg := params.Config
	log.Debugf("using posts store: %s", cfg.Store)

	switch cfg.Store {
	case config.StoreMemory:
		return memory.NewStore(), nil, nil

	case config.StoreMongo:
		client, err := db.NewMongoClient(ctx, db.NewMongoClientParams{
			URI: cfg.MongoURI,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new mongo client: %w", err)
		}
		store := mongo.NewStore(client, cfg.MongoDBName)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, nil, err
		}
		return store, nil, nil

	case config.StoreSurreal:
		sdb, err := db.NewSurrealDB(ctx, db.NewSurrealDBParams{
			URL:       cfg.SurrealURL,
			Namespace: cfg.SurrealNamespace,
			Database:  cfg.SurrealDatabase,
			Username:  cfg.SurrealUser,
			Password:  params.SurrealPassword,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new surrealdb: %w", err)
		}
		store := surreal.NewStore(sdb)
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = store.Close(context.Background())
			return nil, nil, err
		}
		return store, nil, nil

	case config.StorePostgres:
		dbPool, err := db.NewDBPool(ctx, db.NewDBPoolParams{
			DBHost:         cfg.PostgresHost,
			DBPort:         cfg.PostgresPort,
			DBName:         cfg.PostgresDBName,
			DBPassword:     params.PostgresPassword,
			TracingEnabled: params.TracingEnabled,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("new db pool: %w", err)
		}
		if err := dbPool.Ping(ctx); err != nil {
			log.Warnf("failed to ping db: %s", err)
		}

		store := psql.NewStore(dbPool)
		if err := store.Migrate(ctx); err != nil {
			dbPool.Close()
			return nil, nil, err
		}

		pgxpoolCollector := pgxpoolprometheus.NewCollector(
			dbPool,
			map[string]string{"db_name": cfg.PostgresDBName},
		)
		return store, pgxpoolCollector, nil

	default:
		return nil, nil, fmt.Errorf("unknown store: [%s]", cfg.Store)
	}
}
