package pager

import (
	"context"
	"sync/atomic"
)

// Future is the single answer to a PageRequest. It is fulfilled exactly
// once by the Session that issued it.
type Future[T any] struct {
	req  PageRequest
	done chan struct{}

	// claimed is set by the first party allowed to answer. Any later
	// attempt is a protocol violation.
	claimed atomic.Bool

	items []T
	err   error
}

func newFuture[T any](req PageRequest) *Future[T] {
	return &Future[T]{
		req:  req,
		done: make(chan struct{}),
	}
}

// failedFuture returns a future already completed with err.
func failedFuture[T any](req PageRequest, err error) *Future[T] {
	f := newFuture[T](req)
	f.claim()
	f.complete(nil, err)
	return f
}

// Request returns the request this future answers.
func (f *Future[T]) Request() PageRequest {
	return f.req
}

// Done is closed once the future is answered.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// Ready reports whether the future has been answered.
func (f *Future[T]) Ready() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future is answered or ctx ends. A network failure
// still yields (empty, nil); failures are reported on Observer.OnError.
// The error is non-nil only for ctx expiry, ErrSessionClosed or
// ErrAlreadyInitialized.
func (f *Future[T]) Wait(ctx context.Context) ([]T, error) {
	select {
	case <-f.done:
		return f.items, f.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Result returns the answer without blocking; ok is false while pending.
func (f *Future[T]) Result() (items []T, err error, ok bool) {
	if !f.Ready() {
		return nil, nil, false
	}
	return f.items, f.err, true
}

// claim reserves the right to answer. It returns false when the future was
// already claimed.
func (f *Future[T]) claim() bool {
	return f.claimed.CompareAndSwap(false, true)
}

// isClaimed reports whether an answer is already committed.
func (f *Future[T]) isClaimed() bool {
	return f.claimed.Load()
}

// complete publishes the answer. Only the claimer may call it.
func (f *Future[T]) complete(items []T, err error) {
	if items == nil && err == nil {
		items = []T{}
	}
	f.items = items
	f.err = err
	close(f.done)
}
