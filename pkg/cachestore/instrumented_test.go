package cachestore_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/cachestore/memory"
)

type recordingMetrics struct {
	mu     sync.Mutex
	ops    []string
	bytes  map[string]int64
	hits   int
	misses int
}

func (m *recordingMetrics) ObserveOperation(backend, op string, _ time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.ops = append(m.ops, backend+":"+op+":"+status)
}

func (m *recordingMetrics) RecordBytes(_, op string, n int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.bytes == nil {
		m.bytes = map[string]int64{}
	}
	m.bytes[op] += n
}

func (m *recordingMetrics) RecordLookup(_ string, hit bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if hit {
		m.hits++
	} else {
		m.misses++
	}
}

func TestInstrument_NilMetricsReturnsStore(t *testing.T) {
	s := memory.New()
	assert.Same(t, s, cachestore.Instrument(s, "memory", nil))
}

func TestInstrument_ReportsOperations(t *testing.T) {
	m := &recordingMetrics{}
	s := cachestore.Instrument(memory.New(), "memory", m)
	ctx := t.Context()

	require.NoError(t, s.Set(ctx, "feed/a", []byte("abc")))
	_, found, err := s.Get(ctx, "feed/a")
	require.NoError(t, err)
	require.True(t, found)
	_, _, err = s.Get(ctx, "feed/missing")
	require.NoError(t, err)
	_, err = s.List(ctx, "feed/")
	require.NoError(t, err)
	n, err := s.DeleteByPrefix(ctx, "feed/")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	require.NoError(t, s.Delete(ctx, "feed/a"))

	require.NoError(t, s.Close())
	assert.Error(t, s.Set(ctx, "feed/a", []byte("x")))

	assert.Equal(t, []string{
		"memory:set:ok",
		"memory:get:ok",
		"memory:get:ok",
		"memory:list:ok",
		"memory:delete_by_prefix:ok",
		"memory:delete:ok",
		"memory:set:error",
	}, m.ops)
	assert.Equal(t, map[string]int64{"set": 3, "get": 3}, m.bytes)
	assert.Equal(t, 1, m.hits)
	assert.Equal(t, 1, m.misses)
}
