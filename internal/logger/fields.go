package logger

import (
	"log/slog"
)

// Standard field keys for structured logging.
// Use these keys consistently so pager logs can be aggregated and queried.
const (
	// ========================================================================
	// Distributed Tracing
	// ========================================================================
	KeyTraceID = "trace_id" // OpenTelemetry trace ID for request correlation
	KeySpanID  = "span_id"  // OpenTelemetry span ID for operation tracking

	// ========================================================================
	// Paging
	// ========================================================================
	KeySession   = "session"    // Pager session identifier
	KeyRequestID = "request_id" // Page request identifier
	KeyPhase     = "phase"      // INITIAL, FORWARD, BACKWARD
	KeyPageKey   = "page_key"   // Pagination cursor
	KeyPageSize  = "page_size"  // Requested page size
	KeyStrategy  = "strategy"   // Cache strategy
	KeyOrigin    = "origin"     // Fetch tier: cache, network
	KeyItems     = "items"      // Number of items in an outcome
	KeyHasMore   = "has_more"   // Boundary signal
	KeyState     = "state"      // Coordinator state

	// ========================================================================
	// Cache Layer
	// ========================================================================
	KeyCacheKey   = "cache_key"   // Cache entry key
	KeyCacheHit   = "cache_hit"   // Cache hit indicator
	KeyStoreType  = "store_type"  // Store type: memory, badger, sqlite, postgres, s3
	KeyBucket     = "bucket"      // Object storage bucket
	KeyEntryBytes = "entry_bytes" // Encoded entry size

	// ========================================================================
	// Network
	// ========================================================================
	KeyURL        = "url"         // Request URL
	KeyStatusCode = "status_code" // HTTP status code
	KeyMethod     = "method"      // HTTP method
	KeyClientIP   = "client_ip"   // Client IP address

	// ========================================================================
	// Operation Metadata
	// ========================================================================
	KeyDurationMs = "duration_ms" // Operation duration in milliseconds
	KeyError      = "error"       // Error message
	KeyErrorKind  = "error_kind"  // Pager error category
	KeyOperation  = "operation"   // Sub-operation type
)

// ============================================================================
// Field constructors for type safety
// ============================================================================

// TraceID returns a slog.Attr for OpenTelemetry trace ID
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// SpanID returns a slog.Attr for OpenTelemetry span ID
func SpanID(id string) slog.Attr {
	return slog.String(KeySpanID, id)
}

// Session returns a slog.Attr for the pager session identifier
func Session(id string) slog.Attr {
	return slog.String(KeySession, id)
}

// RequestID returns a slog.Attr for the page request identifier
func RequestID(id string) slog.Attr {
	return slog.String(KeyRequestID, id)
}

// Phase returns a slog.Attr for the request phase
func Phase(phase string) slog.Attr {
	return slog.String(KeyPhase, phase)
}

// PageKey returns a slog.Attr for the pagination cursor
func PageKey(key string) slog.Attr {
	return slog.String(KeyPageKey, key)
}

// PageSize returns a slog.Attr for the requested page size
func PageSize(n int) slog.Attr {
	return slog.Int(KeyPageSize, n)
}

// Strategy returns a slog.Attr for the cache strategy
func Strategy(s string) slog.Attr {
	return slog.String(KeyStrategy, s)
}

// Origin returns a slog.Attr for the fetch tier
func Origin(o string) slog.Attr {
	return slog.String(KeyOrigin, o)
}

// Items returns a slog.Attr for an item count
func Items(n int) slog.Attr {
	return slog.Int(KeyItems, n)
}

// HasMore returns a slog.Attr for a boundary signal
func HasMore(more bool) slog.Attr {
	return slog.Bool(KeyHasMore, more)
}

// State returns a slog.Attr for coordinator state
func State(s string) slog.Attr {
	return slog.String(KeyState, s)
}

// CacheKey returns a slog.Attr for a cache entry key
func CacheKey(k string) slog.Attr {
	return slog.String(KeyCacheKey, k)
}

// CacheHit returns a slog.Attr for cache hit indicator
func CacheHit(hit bool) slog.Attr {
	return slog.Bool(KeyCacheHit, hit)
}

// StoreType returns a slog.Attr for store type
func StoreType(t string) slog.Attr {
	return slog.String(KeyStoreType, t)
}

// Bucket returns a slog.Attr for an object storage bucket
func Bucket(name string) slog.Attr {
	return slog.String(KeyBucket, name)
}

// EntryBytes returns a slog.Attr for encoded entry size
func EntryBytes(n int) slog.Attr {
	return slog.Int(KeyEntryBytes, n)
}

// URL returns a slog.Attr for a request URL
func URL(u string) slog.Attr {
	return slog.String(KeyURL, u)
}

// StatusCode returns a slog.Attr for an HTTP status code
func StatusCode(code int) slog.Attr {
	return slog.Int(KeyStatusCode, code)
}

// DurationMs returns a slog.Attr for duration in milliseconds
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorKind returns a slog.Attr for a pager error category
func ErrorKind(kind string) slog.Attr {
	return slog.String(KeyErrorKind, kind)
}

// Operation returns a slog.Attr for sub-operation type
func Operation(op string) slog.Attr {
	return slog.String(KeyOperation, op)
}
