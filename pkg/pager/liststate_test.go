package pager

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListState_Accumulates(t *testing.T) {
	t.Parallel()

	l := NewListState[item](itemKey)
	assert.False(t, l.HasData())
	_, ok := l.NextKey()
	assert.False(t, ok)

	initial := newPageRequest(StartKey, 3, PhaseInitial)
	l.OnPreview(initial, makeItems(0, 2))
	assert.Equal(t, makeItems(0, 2), l.Visible(), "preview shows until answered")
	assert.False(t, l.HasData())

	l.OnResult(initial, makeItems(0, 3))
	assert.Equal(t, makeItems(0, 3), l.Visible())
	assert.True(t, l.HasData())

	key, ok := l.NextKey()
	assert.True(t, ok)
	assert.Equal(t, PageKey("3"), key)

	l.OnBoundary(Boundary{Key: key, HasMore: true})
	l.OnResult(newPageRequest(key, 3, PhaseForward), makeItems(3, 3))
	assert.Equal(t, 6, l.Len())
	assert.True(t, l.HasMore())

	l.OnBoundary(Boundary{Key: "6", HasMore: false})
	l.OnResult(newPageRequest("6", 3, PhaseForward), nil)
	assert.False(t, l.HasMore())
	assert.True(t, l.HasData(), "an empty last page keeps existing items")
	assert.Equal(t, makeItems(0, 2), l.Preview())
}

func TestListState_EmptyFirstPage(t *testing.T) {
	t.Parallel()

	l := NewListState[item](nil)
	l.OnResult(newPageRequest(StartKey, 20, PhaseInitial), []item{})

	assert.False(t, l.HasData())
	assert.False(t, l.HasMore())
	_, ok := l.NextKey()
	assert.False(t, ok)
}

func TestListState_KeepsLastError(t *testing.T) {
	t.Parallel()

	l := NewListState[item](itemKey)
	assert.Nil(t, l.LastError())

	pe := newPageError(NetworkFault, newPageRequest(StartKey, 20, PhaseInitial), errBoom)
	l.OnError(pe)
	assert.Same(t, pe, l.LastError())
}

func TestListState_KeepsPreviewWhenFirstPageFails(t *testing.T) {
	t.Parallel()

	l := NewListState[item](itemKey)
	initial := newPageRequest(StartKey, 20, PhaseInitial)
	l.OnPreview(initial, makeItems(0, 5))
	l.OnError(newPageError(NetworkFault, initial, errBoom))
	l.OnResult(initial, []item{})

	assert.Equal(t, makeItems(0, 5), l.Visible())
	assert.True(t, l.HasData())
	assert.Empty(t, l.Items())
	assert.NotNil(t, l.LastError())
	assert.False(t, l.CanRetryForward())
}

func TestListState_EmptyFirstPageWithoutFaultHidesPreview(t *testing.T) {
	t.Parallel()

	l := NewListState[item](itemKey)
	initial := newPageRequest(StartKey, 20, PhaseInitial)
	l.OnPreview(initial, makeItems(0, 5))
	l.OnResult(initial, []item{})

	assert.Empty(t, l.Visible())
	assert.False(t, l.HasData())
}

func TestListState_ForwardRetry(t *testing.T) {
	t.Parallel()

	l := NewListState[item](itemKey)
	l.OnResult(newPageRequest(StartKey, 3, PhaseInitial), makeItems(0, 3))

	failed := newPageRequest("3", 3, PhaseForward)
	l.OnError(newPageError(NetworkFault, failed, errBoom))
	l.OnBoundary(Boundary{Key: "3", HasMore: false})
	l.OnResult(failed, []item{})

	assert.True(t, l.CanRetryForward())
	assert.False(t, l.HasMore())
	key, ok := l.NextKey()
	require.True(t, ok)
	assert.Equal(t, PageKey("3"), key)

	retry := newPageRequest(key, 3, PhaseForward)
	l.OnBoundary(Boundary{Key: key, HasMore: true})
	l.OnResult(retry, makeItems(3, 3))
	assert.False(t, l.CanRetryForward())
	assert.True(t, l.HasMore())
	assert.Equal(t, 6, l.Len())
}
