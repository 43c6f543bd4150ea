package logger

import (
	"context"
	"time"
)

type contextKey struct{}

var logContextKey = contextKey{}

// LogContext holds request-scoped logging fields for a page load.
type LogContext struct {
	TraceID   string    // OpenTelemetry trace ID
	SpanID    string    // OpenTelemetry span ID
	Session   string    // Pager session identifier
	RequestID string    // Page request identifier
	Phase     string    // INITIAL, FORWARD, BACKWARD
	PageKey   string    // Pagination cursor
	Origin    string    // cache or network, set per fetch step
	StartTime time.Time // For duration calculation
}

// WithContext returns a new context carrying lc.
func WithContext(ctx context.Context, lc *LogContext) context.Context {
	return context.WithValue(ctx, logContextKey, lc)
}

// FromContext retrieves the LogContext from ctx, or nil if not present.
func FromContext(ctx context.Context) *LogContext {
	if ctx == nil {
		return nil
	}
	lc, _ := ctx.Value(logContextKey).(*LogContext)
	return lc
}

// NewLogContext creates a LogContext for a pager session.
func NewLogContext(session string) *LogContext {
	return &LogContext{
		Session:   session,
		StartTime: time.Now(),
	}
}

// Clone creates a copy of the LogContext.
func (lc *LogContext) Clone() *LogContext {
	if lc == nil {
		return nil
	}
	clone := *lc
	return &clone
}

// WithRequest returns a copy scoped to one page request.
func (lc *LogContext) WithRequest(requestID, phase, pageKey string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.RequestID = requestID
		clone.Phase = phase
		clone.PageKey = pageKey
		clone.StartTime = time.Now()
	}
	return clone
}

// WithOrigin returns a copy scoped to one fetch step.
func (lc *LogContext) WithOrigin(origin string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.Origin = origin
	}
	return clone
}

// WithTrace returns a copy with trace info set.
func (lc *LogContext) WithTrace(traceID, spanID string) *LogContext {
	clone := lc.Clone()
	if clone != nil {
		clone.TraceID = traceID
		clone.SpanID = spanID
	}
	return clone
}

// DurationMs returns the duration since StartTime in milliseconds.
func (lc *LogContext) DurationMs() float64 {
	if lc == nil || lc.StartTime.IsZero() {
		return 0
	}
	return float64(time.Since(lc.StartTime).Microseconds()) / 1000.0
}
