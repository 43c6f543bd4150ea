package pager

import "sync"

// KeyFunc derives the page key of an item, used as the cursor for the next
// forward page.
type KeyFunc[T any] func(item T) PageKey

// ListState is an Observer that accumulates the pages of one session.
//
// Authoritative pages and the cache preview are kept apart: Items holds
// only answered pages, Preview holds the last cache snapshot of the first
// page. Visible returns what a list should display right now.
type ListState[T any] struct {
	key KeyFunc[T]

	mu            sync.RWMutex
	items         []T
	preview       []T
	answered      bool
	lastPageEmpty bool
	hasMore       bool
	lastErr       *PageError

	// initialFailed and forwardFailed are set when the last page of that
	// phase was answered empty because of a network fault.
	initialFailed bool
	forwardFailed bool
}

var _ Observer[struct{}] = (*ListState[struct{}])(nil)

// NewListState creates an empty list. key may be nil if NextKey is unused.
func NewListState[T any](key KeyFunc[T]) *ListState[T] {
	return &ListState[T]{
		key:     key,
		hasMore: true,
	}
}

// OnResult appends an answered page. The INITIAL page replaces the list.
// OnError for a failed request arrives before its OnResult.
func (l *ListState[T]) OnResult(req PageRequest, items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()

	failed := len(items) == 0 && l.lastErr != nil &&
		l.lastErr.Kind == NetworkFault && l.lastErr.RequestID == req.ID

	switch req.Phase {
	case PhaseInitial:
		l.items = append([]T(nil), items...)
		l.answered = true
		l.hasMore = len(items) > 0
		l.initialFailed = failed
	case PhaseForward:
		l.items = append(l.items, items...)
		l.forwardFailed = failed
	}
	l.lastPageEmpty = len(items) == 0
}

// OnPreview records the cache snapshot of the first page.
func (l *ListState[T]) OnPreview(_ PageRequest, items []T) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.preview = append([]T(nil), items...)
}

// OnBoundary records whether more pages are available.
func (l *ListState[T]) OnBoundary(b Boundary) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hasMore = b.HasMore
}

// OnError keeps the last network fault so a caller can offer a retry.
func (l *ListState[T]) OnError(err *PageError) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lastErr = err
}

// Items returns the answered items.
func (l *ListState[T]) Items() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.items...)
}

// Preview returns the cache snapshot of the first page, if any.
func (l *ListState[T]) Preview() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]T(nil), l.preview...)
}

// Visible returns the answered items, or the preview until the first page
// has been answered. When the network failed the first page the preview
// stays visible.
func (l *ListState[T]) Visible() []T {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.showsPreview() {
		return append([]T(nil), l.preview...)
	}
	return append([]T(nil), l.items...)
}

func (l *ListState[T]) showsPreview() bool {
	return !l.answered || (l.initialFailed && len(l.items) == 0)
}

// HasData reports whether the list should show content rather than its
// empty view: the last page was non-empty, the list already holds items, or
// a cache preview is kept on screen after a failed first page.
func (l *ListState[T]) HasData() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.answered && l.initialFailed && len(l.items) == 0 {
		return len(l.preview) > 0
	}
	return (l.answered && !l.lastPageEmpty) || len(l.items) > 0
}

// CanRetryForward reports whether the last forward page failed on the
// network, so the same page can be requested again with NextKey.
func (l *ListState[T]) CanRetryForward() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.forwardFailed
}

// HasMore reports the last boundary signal.
func (l *ListState[T]) HasMore() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.hasMore
}

// LastError returns the last reported network fault, or nil.
func (l *ListState[T]) LastError() *PageError {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.lastErr
}

// NextKey returns the cursor for the next forward page: the key of the
// last answered item. ok is false when the list is empty or no KeyFunc was
// given.
func (l *ListState[T]) NextKey() (PageKey, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.key == nil || len(l.items) == 0 {
		return StartKey, false
	}
	return l.key(l.items[len(l.items)-1]), true
}

// Len returns the number of answered items.
func (l *ListState[T]) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.items)
}
