// Package badger provides a cache store backed by an embedded BadgerDB.
package badger

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/cachestore"
)

// keyPrefix namespaces cache entries inside the database.
const keyPrefix = "cache:"

// headerSize is the size of the write timestamp stored before each value.
const headerSize = 8

// Config configures a BadgerDB cache store.
type Config struct {
	// Path is the database directory.
	Path string `mapstructure:"path" yaml:"path"`

	// InMemory runs Badger without touching disk. Path is ignored.
	InMemory bool `mapstructure:"in_memory" yaml:"in_memory"`

	// SyncWrites fsyncs every write.
	SyncWrites bool `mapstructure:"sync_writes" yaml:"sync_writes"`
}

// Store is a cachestore.Store backed by BadgerDB.
type Store struct {
	db  *badgerdb.DB
	now func() time.Time
}

// New opens (or creates) the database described by cfg.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" && !cfg.InMemory {
		return nil, errors.New("badger cache store: path is required")
	}

	opts := badgerdb.DefaultOptions(cfg.Path).
		WithInMemory(cfg.InMemory).
		WithSyncWrites(cfg.SyncWrites).
		WithLogger(nil)
	if cfg.InMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badgerdb.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger cache store: %w", err)
	}

	logger.Debug("Badger cache store opened",
		logger.StoreType(string(cachestore.TypeBadger)),
		"path", cfg.Path,
		"in_memory", cfg.InMemory)

	return &Store{db: db, now: time.Now}, nil
}

func dbKey(key string) []byte {
	return []byte(keyPrefix + key)
}

func encodeValue(value []byte, at time.Time) []byte {
	buf := make([]byte, headerSize+len(value))
	binary.BigEndian.PutUint64(buf[:headerSize], uint64(at.UnixNano()))
	copy(buf[headerSize:], value)
	return buf
}

func decodeValue(raw []byte) ([]byte, time.Time, error) {
	if len(raw) < headerSize {
		return nil, time.Time{}, fmt.Errorf("corrupt cache entry: %d bytes", len(raw))
	}
	at := time.Unix(0, int64(binary.BigEndian.Uint64(raw[:headerSize])))
	value := make([]byte, len(raw)-headerSize)
	copy(value, raw[headerSize:])
	return value, at, nil
}

// Get returns the entry for key.
func (s *Store) Get(ctx context.Context, key string) (cachestore.Entry, bool, error) {
	if err := ctx.Err(); err != nil {
		return cachestore.Entry{}, false, err
	}

	var entry cachestore.Entry
	found := false
	err := s.db.View(func(txn *badgerdb.Txn) error {
		item, err := txn.Get(dbKey(key))
		if err == badgerdb.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}

		return item.Value(func(val []byte) error {
			value, at, err := decodeValue(val)
			if err != nil {
				return err
			}
			entry = cachestore.Entry{Key: key, Value: value, UpdatedAt: at}
			found = true
			return nil
		})
	})
	if err != nil {
		return cachestore.Entry{}, false, mapError(err)
	}
	return entry, found, nil
}

// Set stores value under key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := cachestore.ValidateKey(key); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Set(dbKey(key), encodeValue(value, s.now()))
	})
	return mapError(err)
}

// Delete removes key.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badgerdb.Txn) error {
		return txn.Delete(dbKey(key))
	})
	return mapError(err)
}

// DeleteByPrefix removes all entries with the given prefix.
func (s *Store) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	infos, err := s.List(ctx, prefix)
	if err != nil {
		return 0, err
	}
	if len(infos) == 0 {
		return 0, nil
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	for _, info := range infos {
		if err := wb.Delete(dbKey(info.Key)); err != nil {
			return 0, mapError(err)
		}
	}
	if err := wb.Flush(); err != nil {
		return 0, mapError(err)
	}
	return len(infos), nil
}

// List describes all entries with the given prefix, in key order.
func (s *Store) List(ctx context.Context, prefix string) ([]cachestore.EntryInfo, error) {
	infos := make([]cachestore.EntryInfo, 0)

	err := s.db.View(func(txn *badgerdb.Txn) error {
		opts := badgerdb.DefaultIteratorOptions
		opts.Prefix = dbKey(prefix)
		opts.PrefetchValues = true

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if len(infos)%100 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}

			item := it.Item()
			key := strings.TrimPrefix(string(item.Key()), keyPrefix)
			err := item.Value(func(val []byte) error {
				if len(val) < headerSize {
					return fmt.Errorf("corrupt cache entry %q", key)
				}
				infos = append(infos, cachestore.EntryInfo{
					Key:       key,
					Size:      int64(len(val) - headerSize),
					UpdatedAt: time.Unix(0, int64(binary.BigEndian.Uint64(val[:headerSize]))),
				})
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError(err)
	}
	return infos, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// HealthCheck verifies the database can serve a read transaction.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return cachestore.ErrStoreClosed
	}
	err := s.db.View(func(txn *badgerdb.Txn) error {
		return nil
	})
	if err != nil {
		return fmt.Errorf("healthcheck failed: %w", err)
	}
	return nil
}

func mapError(err error) error {
	if errors.Is(err, badgerdb.ErrDBClosed) {
		return cachestore.ErrStoreClosed
	}
	return err
}

var _ cachestore.Store = (*Store)(nil)
