package config

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/marmos91/feedpager/pkg/cachestore"
)

func TestCreateCacheStore(t *testing.T) {
	tmpDir := t.TempDir()

	tests := []struct {
		name string
		cfg  CacheConfig
	}{
		{"memory", CacheConfig{Type: "memory"}},
		{"badger on disk", CacheConfig{Type: "badger", Badger: map[string]any{"path": filepath.Join(tmpDir, "badger")}}},
		{"badger in memory", CacheConfig{Type: "badger", Badger: map[string]any{"in_memory": true}}},
		{"sqlite", CacheConfig{Type: "sqlite", SQLite: map[string]any{"path": filepath.Join(tmpDir, "cache.db")}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()

			store, err := CreateCacheStore(ctx, tt.cfg)
			if err != nil {
				t.Fatalf("CreateCacheStore failed: %v", err)
			}
			defer func() { _ = store.Close() }()

			if err := store.HealthCheck(ctx); err != nil {
				t.Errorf("HealthCheck failed: %v", err)
			}
			if err := store.Set(ctx, "k", []byte("v")); err != nil {
				t.Fatalf("Set failed: %v", err)
			}
			entry, ok, err := store.Get(ctx, "k")
			if err != nil || !ok || string(entry.Value) != "v" {
				t.Errorf("Get returned (%q, %v, %v)", entry.Value, ok, err)
			}
		})
	}
}

func TestCreateCacheStore_Errors(t *testing.T) {
	ctx := context.Background()

	_, err := CreateCacheStore(ctx, CacheConfig{Type: "redis"})
	if !errors.Is(err, cachestore.ErrUnknownStoreType) {
		t.Errorf("Expected ErrUnknownStoreType, got %v", err)
	}

	if _, err := CreateCacheStore(ctx, CacheConfig{Type: "badger"}); err == nil {
		t.Error("Expected error for badger without path")
	}

	if _, err := CreateCacheStore(ctx, CacheConfig{Type: "s3"}); err == nil {
		t.Error("Expected error for s3 without bucket")
	}

	if _, err := CreateCacheStore(ctx, CacheConfig{Type: "postgres"}); err == nil {
		t.Error("Expected error for postgres without host")
	}

	_, err = CreateCacheStore(ctx, CacheConfig{Type: "badger", Badger: map[string]any{"in_memory": "maybe"}})
	if err == nil {
		t.Error("Expected decode error for a non-boolean in_memory")
	}
}
