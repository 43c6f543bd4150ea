// Package cachestore provides the byte-level key/value stores that back the
// pager's cache tier.
package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Common errors returned by Store implementations.
var (
	// ErrStoreClosed is returned when operations are attempted on a closed store.
	ErrStoreClosed = errors.New("store is closed")

	// ErrEmptyKey is returned when an operation is given an empty key.
	ErrEmptyKey = errors.New("empty cache key")

	// ErrUnknownStoreType is returned by Open for an unsupported backend.
	ErrUnknownStoreType = errors.New("unknown cache store type")
)

// Entry is a stored value together with its last write time.
type Entry struct {
	Key       string
	Value     []byte
	UpdatedAt time.Time
}

// EntryInfo describes an entry without its value.
type EntryInfo struct {
	Key       string
	Size      int64
	UpdatedAt time.Time
}

// Store defines the interface for cache storage backends.
//
// Keys are the cache keys of pager queries, optionally namespaced:
// "{namespace}/{path}?{sorted params}". Values are opaque bytes.
type Store interface {
	// Get returns the entry for key. found is false on a miss; a miss is
	// never an error.
	Get(ctx context.Context, key string) (entry Entry, found bool, err error)

	// Set stores value under key, replacing any previous entry.
	Set(ctx context.Context, key string, value []byte) error

	// Delete removes key. Returns nil if the key doesn't exist.
	Delete(ctx context.Context, key string) error

	// DeleteByPrefix removes all entries whose key starts with prefix and
	// returns how many were removed.
	DeleteByPrefix(ctx context.Context, prefix string) (int, error)

	// List describes all entries whose key starts with prefix, sorted by key.
	List(ctx context.Context, prefix string) ([]EntryInfo, error)

	// Close releases any resources held by the store.
	Close() error

	// HealthCheck verifies the store is accessible and operational.
	HealthCheck(ctx context.Context) error
}

// ValidateKey rejects keys no backend can store.
func ValidateKey(key string) error {
	if key == "" {
		return ErrEmptyKey
	}
	return nil
}

// Type names a Store backend.
type Type string

const (
	TypeMemory   Type = "memory"
	TypeBadger   Type = "badger"
	TypeSQLite   Type = "sqlite"
	TypePostgres Type = "postgres"
	TypeS3       Type = "s3"
)

// ParseType validates a backend name.
func ParseType(s string) (Type, error) {
	switch t := Type(s); t {
	case TypeMemory, TypeBadger, TypeSQLite, TypePostgres, TypeS3:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStoreType, s)
	}
}
