package pager

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/cachestore"
)

// Codec converts a page of items to and from the bytes held by a cache
// store. It is supplied explicitly by the caller.
type Codec[T any] interface {
	Encode(items []T) ([]byte, error)
	Decode(data []byte) ([]T, error)
}

// JSONCodec encodes pages as a JSON array.
type JSONCodec[T any] struct{}

// Encode implements Codec.
func (JSONCodec[T]) Encode(items []T) ([]byte, error) {
	if items == nil {
		items = []T{}
	}
	return json.Marshal(items)
}

// Decode implements Codec. Empty input decodes to an empty page.
func (JSONCodec[T]) Decode(data []byte) ([]T, error) {
	items := []T{}
	if len(data) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CodecStore adapts a byte-level cachestore.Store to CacheStore.
type CodecStore[T any] struct {
	store     cachestore.Store
	codec     Codec[T]
	namespace string
	maxAge    time.Duration
	maxSize   int
	now       func() time.Time
}

// CodecStoreOption configures a CodecStore.
type CodecStoreOption[T any] func(*CodecStore[T])

// WithNamespace prefixes every cache key with ns + "/".
func WithNamespace[T any](ns string) CodecStoreOption[T] {
	return func(s *CodecStore[T]) {
		if ns != "" {
			s.namespace = ns + "/"
		}
	}
}

// WithMaxAge treats entries older than d as a miss. Zero keeps entries forever.
func WithMaxAge[T any](d time.Duration) CodecStoreOption[T] {
	return func(s *CodecStore[T]) {
		s.maxAge = d
	}
}

// WithMaxEntrySize refuses to persist pages that encode to more than n
// bytes. Zero means no limit.
func WithMaxEntrySize[T any](n int) CodecStoreOption[T] {
	return func(s *CodecStore[T]) {
		s.maxSize = n
	}
}

// NewCodecStore creates a CacheStore over store using codec.
func NewCodecStore[T any](store cachestore.Store, codec Codec[T], opts ...CodecStoreOption[T]) *CodecStore[T] {
	s := &CodecStore[T]{
		store: store,
		codec: codec,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the store key used for q.
func (s *CodecStore[T]) Key(q Query) string {
	return s.namespace + q.CacheKey()
}

// Read implements CacheStore. Misses and expired entries yield an empty page.
func (s *CodecStore[T]) Read(ctx context.Context, q Query) ([]T, error) {
	key := s.Key(q)

	entry, found, err := s.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("cache get %q: %w", key, err)
	}
	if !found {
		logger.DebugCtx(ctx, "Cache miss", logger.CacheKey(key), logger.CacheHit(false))
		return []T{}, nil
	}

	if s.maxAge > 0 && s.now().Sub(entry.UpdatedAt) > s.maxAge {
		logger.DebugCtx(ctx, "Cache entry expired",
			logger.CacheKey(key),
			"age", s.now().Sub(entry.UpdatedAt).String())
		return []T{}, nil
	}

	items, err := s.codec.Decode(entry.Value)
	if err != nil {
		return nil, fmt.Errorf("cache decode %q: %w", key, err)
	}

	logger.DebugCtx(ctx, "Cache hit",
		logger.CacheKey(key),
		logger.CacheHit(true),
		logger.Items(len(items)),
		logger.EntryBytes(len(entry.Value)))
	return items, nil
}

// Write implements CacheStore.
func (s *CodecStore[T]) Write(ctx context.Context, q Query, items []T) error {
	key := s.Key(q)

	data, err := s.codec.Encode(items)
	if err != nil {
		return fmt.Errorf("cache encode %q: %w", key, err)
	}
	if s.maxSize > 0 && len(data) > s.maxSize {
		return fmt.Errorf("cache set %q: %w: %d > %d bytes", key, ErrEntryTooLarge, len(data), s.maxSize)
	}
	if err := s.store.Set(ctx, key, data); err != nil {
		return fmt.Errorf("cache set %q: %w", key, err)
	}
	return nil
}

var _ CacheStore[struct{}] = (*CodecStore[struct{}])(nil)
