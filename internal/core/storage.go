package core

import (
	"context"
	"fmt"

	"greenleaf/internal/config"
	"greenleaf/internal/infra/persistence/memory"
	"greenleaf/internal/infra/persistence/mongo"
	"greenleaf/internal/infra/persistence/postgres"
	"greenleaf/internal/infra/persistence/sqlite"
	"greenleaf/pkg/domain"
)

// StorageDriver identifies a concrete sample store implementation.
type StorageDriver string

const (
	StorageMemory   StorageDriver = "memory"   // in-memory only (tests / ephemeral)
	StorageSQLite   StorageDriver = "sqlite"   // embedded sqlite file
	StoragePostgres StorageDriver = "postgres" // PostgreSQL server
	StorageMongo    StorageDriver = "mongo"    // MongoDB collection
)

// OpenSampleStore selects a backend from cfg.Driver, defaulting to sqlite.
func OpenSampleStore(ctx context.Context, cfg config.StorageConfig) (domain.SampleStore, error) {
	driver := StorageDriver(cfg.Driver)
	if driver == "" {
		driver = StorageSQLite
	}
	var (
		store domain.SampleStore
		err   error
	)
	switch driver {
	case StorageMemory:
		return memory.NewStore(), nil
	case StorageSQLite:
		var st *sqlite.Store
		st, err = sqlite.NewStore(cfg.SQLitePath)
		store = st
	case StoragePostgres:
		var st *postgres.Store
		st, err = postgres.NewStore(ctx, cfg.PostgresDSN)
		store = st
	case StorageMongo:
		var st *mongo.Store
		st, err = mongo.NewStore(ctx, cfg.MongoURI, cfg.MongoDB)
		store = st
	default:
		return nil, fmt.Errorf("unknown storage driver %s", cfg.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", driver, err)
	}
	return store, nil
}
