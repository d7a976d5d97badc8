package core

import (
	"context"
	"fmt"
	"os"
	"strings"

	kvfile "creocore/internal/infra/kv/file"
	kvpostgres "creocore/internal/infra/kv/postgres"
	kvsqlite "creocore/internal/infra/kv/sqlite"
	"creocore/internal/infra/persistence/durable"
	"creocore/internal/infra/persistence/memory"
	"creocore/pkg/domain"
)

// Environment variables selecting and configuring the persistence driver.
const (
	EnvStorageDriver = "CREOCORE_STORAGE_DRIVER"
	EnvSQLitePath    = "CREOCORE_SQLITE_PATH"
	EnvPostgresDSN   = "CREOCORE_POSTGRES_DSN"
	EnvFilePath      = "CREOCORE_FILE_PATH"
)

// Supported storage drivers.
const (
	StorageDriverMemory   = "memory"
	StorageDriverFile     = "file"
	StorageDriverSQLite   = "sqlite"
	StorageDriverPostgres = "postgres"
)

// OpenPersistentStore builds the store selected by CREOCORE_STORAGE_DRIVER.
// Unset defaults to sqlite. The memory driver keeps nothing across restarts;
// the other three hydrate from their key-value slots on open.
func OpenPersistentStore(ctx context.Context, engine *domain.RulesEngine, logger Logger) (domain.PersistentStore, error) {
	if logger == nil {
		logger = noopLogger{}
	}
	driver := strings.ToLower(strings.TrimSpace(os.Getenv(EnvStorageDriver)))
	if driver == "" {
		driver = StorageDriverSQLite
	}
	switch driver {
	case StorageDriverMemory:
		return memory.NewStore(engine), nil
	case StorageDriverFile:
		root := os.Getenv(EnvFilePath)
		if root == "" {
			root = "creocore-data"
		}
		kv, err := kvfile.New(root)
		if err != nil {
			return nil, fmt.Errorf("open file store: %w", err)
		}
		return durable.New(ctx, kv, engine, durable.WithLogger(logger))
	case StorageDriverSQLite:
		kv, err := kvsqlite.New(os.Getenv(EnvSQLitePath))
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return durable.New(ctx, kv, engine, durable.WithLogger(logger))
	case StorageDriverPostgres:
		kv, err := kvpostgres.New(ctx, os.Getenv(EnvPostgresDSN))
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		return durable.New(ctx, kv, engine, durable.WithLogger(logger))
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", driver)
	}
}
