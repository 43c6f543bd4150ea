package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Attribute keys for paging spans.
const (
	AttrSession   = "pager.session"
	AttrRequestID = "pager.request_id"
	AttrPhase     = "pager.phase"
	AttrPageKey   = "pager.page_key"
	AttrPageSize  = "pager.page_size"
	AttrStrategy  = "pager.strategy"
	AttrOrigin    = "pager.origin"
	AttrAuthority = "pager.authoritative"
	AttrItems     = "pager.items"
	AttrHasMore   = "pager.has_more"

	AttrCacheKey  = "cache.key"
	AttrCacheHit  = "cache.hit"
	AttrStoreType = "cache.store_type"

	AttrHTTPURL    = "http.url"
	AttrHTTPStatus = "http.status_code"
)

// Span names.
const (
	SpanLoadInitial  = "pager.load_initial"
	SpanLoadForward  = "pager.load_forward"
	SpanFetchCache   = "pager.fetch.cache"
	SpanFetchNetwork = "pager.fetch.network"
	SpanCachePersist = "pager.cache.persist"
	SpanFeedRequest  = "feed.request"
)

// Session returns an attribute for the pager session id
func Session(id string) attribute.KeyValue {
	return attribute.String(AttrSession, id)
}

// RequestID returns an attribute for the page request id
func RequestID(id string) attribute.KeyValue {
	return attribute.String(AttrRequestID, id)
}

// Phase returns an attribute for the request phase
func Phase(p string) attribute.KeyValue {
	return attribute.String(AttrPhase, p)
}

// PageKey returns an attribute for the pagination cursor
func PageKey(k string) attribute.KeyValue {
	return attribute.String(AttrPageKey, k)
}

// PageSize returns an attribute for the requested page size
func PageSize(n int) attribute.KeyValue {
	return attribute.Int(AttrPageSize, n)
}

// Origin returns an attribute for the fetch tier
func Origin(o string) attribute.KeyValue {
	return attribute.String(AttrOrigin, o)
}

// Authoritative returns an attribute marking the answering step
func Authoritative(a bool) attribute.KeyValue {
	return attribute.Bool(AttrAuthority, a)
}

// Items returns an attribute for an item count
func Items(n int) attribute.KeyValue {
	return attribute.Int(AttrItems, n)
}

// HasMore returns an attribute for a boundary signal
func HasMore(more bool) attribute.KeyValue {
	return attribute.Bool(AttrHasMore, more)
}

// CacheKey returns an attribute for a cache entry key
func CacheKey(k string) attribute.KeyValue {
	return attribute.String(AttrCacheKey, k)
}

// CacheHit returns an attribute for cache hit indicator
func CacheHit(hit bool) attribute.KeyValue {
	return attribute.Bool(AttrCacheHit, hit)
}

// StoreType returns an attribute for the cache store backend
func StoreType(t string) attribute.KeyValue {
	return attribute.String(AttrStoreType, t)
}

// HTTPURL returns an attribute for a request URL
func HTTPURL(u string) attribute.KeyValue {
	return attribute.String(AttrHTTPURL, u)
}

// HTTPStatus returns an attribute for an HTTP status code
func HTTPStatus(code int) attribute.KeyValue {
	return attribute.Int(AttrHTTPStatus, code)
}

// StartFetchSpan starts a span for one fetch step.
func StartFetchSpan(ctx context.Context, origin string, authoritative bool, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	name := SpanFetchNetwork
	if origin == "cache" {
		name = SpanFetchCache
	}
	all := append([]attribute.KeyValue{Origin(origin), Authoritative(authoritative)}, attrs...)
	return StartSpan(ctx, name, trace.WithAttributes(all...))
}
