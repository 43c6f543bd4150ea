// Package storetest provides a conformance suite for cachestore.Store
// implementations.
package storetest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/feedpager/pkg/cachestore"
)

// StoreFactory creates a fresh Store for each test. The factory registers
// its own cleanup with t.Cleanup.
type StoreFactory func(t *testing.T) cachestore.Store

// RunConformanceSuite runs every conformance test against stores built by
// factory. Each subtest gets a fresh store.
func RunConformanceSuite(t *testing.T, factory StoreFactory) {
	t.Helper()

	t.Run("SetAndGet", func(t *testing.T) { testSetAndGet(t, factory(t)) })
	t.Run("Miss", func(t *testing.T) { testMiss(t, factory(t)) })
	t.Run("Overwrite", func(t *testing.T) { testOverwrite(t, factory(t)) })
	t.Run("Delete", func(t *testing.T) { testDelete(t, factory(t)) })
	t.Run("ListAndDeleteByPrefix", func(t *testing.T) { testListAndDeleteByPrefix(t, factory(t)) })
	t.Run("EmptyValue", func(t *testing.T) { testEmptyValue(t, factory(t)) })
	t.Run("EmptyKey", func(t *testing.T) { testEmptyKey(t, factory(t)) })
	t.Run("HealthCheck", func(t *testing.T) { testHealthCheck(t, factory(t)) })
}

func testSetAndGet(t *testing.T, s cachestore.Store) {
	ctx := t.Context()
	key := "home/feed?feedId=0&feedType=1&pageCount=20"
	value := []byte(`[{"id":1},{"id":2}]`)

	before := time.Now().Add(-time.Second)
	require.NoError(t, s.Set(ctx, key, value))

	entry, found, err := s.Get(ctx, key)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, key, entry.Key)
	assert.Equal(t, value, entry.Value)
	assert.True(t, entry.UpdatedAt.After(before), "UpdatedAt %v should be recent", entry.UpdatedAt)
}

func testMiss(t *testing.T, s cachestore.Store) {
	entry, found, err := s.Get(t.Context(), "does/not/exist")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, entry.Value)
}

func testOverwrite(t *testing.T, s cachestore.Store) {
	ctx := t.Context()
	require.NoError(t, s.Set(ctx, "k", []byte("first")))
	require.NoError(t, s.Set(ctx, "k", []byte("second")))

	entry, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []byte("second"), entry.Value)
}

func testDelete(t *testing.T, s cachestore.Store) {
	ctx := t.Context()
	require.NoError(t, s.Set(ctx, "k", []byte("v")))
	require.NoError(t, s.Delete(ctx, "k"))

	_, found, err := s.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, found)

	// Deleting a missing key is not an error
	assert.NoError(t, s.Delete(ctx, "k"))
}

func testListAndDeleteByPrefix(t *testing.T, s cachestore.Store) {
	ctx := t.Context()
	for _, key := range []string{"a/2", "a/1", "b/1"} {
		require.NoError(t, s.Set(ctx, key, []byte(key)))
	}

	infos, err := s.List(ctx, "a/")
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.Equal(t, "a/1", infos[0].Key)
	assert.Equal(t, "a/2", infos[1].Key)
	assert.Equal(t, int64(3), infos[0].Size)

	all, err := s.List(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)

	removed, err := s.DeleteByPrefix(ctx, "a/")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := s.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "b/1", remaining[0].Key)
}

func testEmptyValue(t *testing.T, s cachestore.Store) {
	ctx := t.Context()
	require.NoError(t, s.Set(ctx, "empty", []byte{}))

	entry, found, err := s.Get(ctx, "empty")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, entry.Value)
}

func testEmptyKey(t *testing.T, s cachestore.Store) {
	err := s.Set(t.Context(), "", []byte("v"))
	assert.ErrorIs(t, err, cachestore.ErrEmptyKey)
}

func testHealthCheck(t *testing.T, s cachestore.Store) {
	assert.NoError(t, s.HealthCheck(t.Context()))
}
