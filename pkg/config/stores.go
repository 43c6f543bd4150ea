package config

import (
	"context"
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/cachestore/badger"
	"github.com/marmos91/feedpager/pkg/cachestore/memory"
	"github.com/marmos91/feedpager/pkg/cachestore/s3"
	"github.com/marmos91/feedpager/pkg/cachestore/sql"
	"github.com/marmos91/feedpager/pkg/metrics"
)

// CreateCacheStore opens the cache store selected by cfg.Type. When metrics
// are enabled the store reports its operations to Prometheus.
func CreateCacheStore(ctx context.Context, cfg CacheConfig) (cachestore.Store, error) {
	t, err := cachestore.ParseType(cfg.Type)
	if err != nil {
		return nil, err
	}

	logger.Debug("Opening cache store", logger.StoreType(string(t)))

	store, err := openStore(ctx, t, cfg)
	if err != nil {
		return nil, err
	}
	return cachestore.Instrument(store, string(t), metrics.NewStoreMetrics()), nil
}

func openStore(ctx context.Context, t cachestore.Type, cfg CacheConfig) (cachestore.Store, error) {
	switch t {
	case cachestore.TypeMemory:
		return memory.New(), nil
	case cachestore.TypeBadger:
		return createBadgerStore(cfg)
	case cachestore.TypeSQLite:
		return createSQLStore(cfg.SQLite, sql.DatabaseTypeSQLite)
	case cachestore.TypePostgres:
		return createSQLStore(cfg.Postgres, sql.DatabaseTypePostgres)
	case cachestore.TypeS3:
		return createS3Store(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", cachestore.ErrUnknownStoreType, cfg.Type)
	}
}

// createBadgerStore creates a BadgerDB-backed store.
func createBadgerStore(cfg CacheConfig) (cachestore.Store, error) {
	var badgerCfg badger.Config
	if err := mapstructure.Decode(cfg.Badger, &badgerCfg); err != nil {
		return nil, fmt.Errorf("invalid badger config: %w", err)
	}
	if badgerCfg.Path == "" && !badgerCfg.InMemory {
		return nil, fmt.Errorf("badger cache store requires path or in_memory to be set")
	}

	store, err := badger.New(badgerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache store: %w", err)
	}
	return store, nil
}

// createSQLStore creates a SQLite or PostgreSQL store. raw holds the
// backend section, e.g. {path: ...} for SQLite or {host: ..., user: ...}
// for PostgreSQL.
func createSQLStore(raw map[string]any, dbType sql.DatabaseType) (cachestore.Store, error) {
	sqlCfg := sql.Config{Type: dbType}

	var err error
	switch dbType {
	case sql.DatabaseTypeSQLite:
		err = mapstructure.Decode(raw, &sqlCfg.SQLite)
	case sql.DatabaseTypePostgres:
		err = mapstructure.Decode(raw, &sqlCfg.Postgres)
	}
	if err != nil {
		return nil, fmt.Errorf("invalid %s config: %w", dbType, err)
	}

	sqlCfg.ApplyDefaults()
	if err := sqlCfg.Validate(); err != nil {
		return nil, err
	}

	store, err := sql.New(&sqlCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s cache store: %w", dbType, err)
	}
	return store, nil
}

// createS3Store creates an S3-backed store.
func createS3Store(ctx context.Context, cfg CacheConfig) (cachestore.Store, error) {
	var s3Cfg s3.Config
	if err := mapstructure.Decode(cfg.S3, &s3Cfg); err != nil {
		return nil, fmt.Errorf("invalid s3 config: %w", err)
	}
	if s3Cfg.Bucket == "" {
		return nil, fmt.Errorf("S3 cache store requires bucket to be set")
	}

	store, err := s3.NewFromConfig(ctx, s3Cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open s3 cache store: %w", err)
	}
	return store, nil
}
