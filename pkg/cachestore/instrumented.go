package cachestore

import (
	"context"
	"time"
)

// Operation names reported to Metrics.
const (
	OpGet            = "get"
	OpSet            = "set"
	OpDelete         = "delete"
	OpDeleteByPrefix = "delete_by_prefix"
	OpList           = "list"
)

// Metrics observes store operations. Implementations must be safe for
// concurrent use.
type Metrics interface {
	// ObserveOperation records one operation with its duration and outcome.
	ObserveOperation(backend, operation string, duration time.Duration, err error)

	// RecordBytes records value bytes read or written.
	RecordBytes(backend, operation string, bytes int64)

	// RecordLookup records whether a Get found its key.
	RecordLookup(backend string, hit bool)
}

// Instrument wraps s so every operation is reported to m under backend.
// It returns s unchanged when m is nil.
func Instrument(s Store, backend string, m Metrics) Store {
	if m == nil {
		return s
	}
	return &instrumentedStore{Store: s, backend: backend, metrics: m}
}

type instrumentedStore struct {
	Store
	backend string
	metrics Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.metrics.ObserveOperation(s.backend, op, time.Since(start), err)
}

func (s *instrumentedStore) Get(ctx context.Context, key string) (Entry, bool, error) {
	start := time.Now()
	entry, found, err := s.Store.Get(ctx, key)
	s.observe(OpGet, start, err)
	if err == nil {
		s.metrics.RecordLookup(s.backend, found)
		if found {
			s.metrics.RecordBytes(s.backend, OpGet, int64(len(entry.Value)))
		}
	}
	return entry, found, err
}

func (s *instrumentedStore) Set(ctx context.Context, key string, value []byte) error {
	start := time.Now()
	err := s.Store.Set(ctx, key, value)
	s.observe(OpSet, start, err)
	if err == nil {
		s.metrics.RecordBytes(s.backend, OpSet, int64(len(value)))
	}
	return err
}

func (s *instrumentedStore) Delete(ctx context.Context, key string) error {
	start := time.Now()
	err := s.Store.Delete(ctx, key)
	s.observe(OpDelete, start, err)
	return err
}

func (s *instrumentedStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	start := time.Now()
	n, err := s.Store.DeleteByPrefix(ctx, prefix)
	s.observe(OpDeleteByPrefix, start, err)
	return n, err
}

func (s *instrumentedStore) List(ctx context.Context, prefix string) ([]EntryInfo, error) {
	start := time.Now()
	entries, err := s.Store.List(ctx, prefix)
	s.observe(OpList, start, err)
	return entries, err
}
