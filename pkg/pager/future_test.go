package pager

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFuture_SingleClaim(t *testing.T) {
	t.Parallel()

	f := newFuture[int](newPageRequest(StartKey, 10, PhaseInitial))
	assert.True(t, f.claim())
	assert.False(t, f.claim())
	assert.True(t, f.isClaimed())
	assert.False(t, f.Ready(), "claimed is not answered")

	f.complete([]int{1, 2}, nil)
	assert.True(t, f.Ready())

	items, err := f.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, items)
}

func TestFuture_NilItemsBecomeEmpty(t *testing.T) {
	t.Parallel()

	f := newFuture[int](newPageRequest(StartKey, 10, PhaseForward))
	f.claim()
	f.complete(nil, nil)

	items, err, ok := f.Result()
	require.True(t, ok)
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestFuture_WaitHonorsContext(t *testing.T) {
	t.Parallel()

	f := newFuture[int](newPageRequest(StartKey, 10, PhaseInitial))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	_, _, ok := f.Result()
	assert.False(t, ok)
}

func TestFailedFuture(t *testing.T) {
	t.Parallel()

	req := newPageRequest("5", 10, PhaseInitial)
	f := failedFuture[int](req, ErrAlreadyInitialized)

	assert.Equal(t, req, f.Request())
	assert.False(t, f.claim())
	_, err := f.Wait(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
}
