package pager

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel/trace"
)

// requestSink routes the outcomes of one request back to its session.
//
// mu serializes preview and answer delivery for the request so a preview
// can never reach the observer after the answer.
type requestSink[T any] struct {
	session *Session[T]
	future  *Future[T]
	token   uint64
	span    trace.Span
	cancel  context.CancelFunc

	mu sync.Mutex
}

var _ Sinks[struct{}] = (*requestSink[struct{}])(nil)

// Provisional delivers a cache preview, if it is still useful.
func (rs *requestSink[T]) Provisional(out FetchOutcome[T]) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.session.deliverPreview(rs.token, rs.future, out)
}

// Authoritative answers the request.
func (rs *requestSink[T]) Authoritative(out FetchOutcome[T]) {
	rs.mu.Lock()
	defer rs.mu.Unlock()

	rs.session.deliverAnswer(rs.token, rs.future, out)
	rs.finish()
}

// finish releases the request's span and fetch context.
func (rs *requestSink[T]) finish() {
	if rs.span != nil {
		rs.span.End()
	}
	if rs.cancel != nil {
		rs.cancel()
	}
}
