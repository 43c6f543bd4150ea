package pager

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// Query describes one logical page fetch: an endpoint path plus ordered
// parameters. Cache and network steps each receive their own Clone so they
// never share mutable request state.
type Query struct {
	Path     string
	Strategy Strategy

	keys   []string
	params map[string]string
}

// QueryBuilder builds the query for a page. The Session calls it once per
// request; the loader clones the result per step.
type QueryBuilder func(key PageKey, size int) Query

// NewQuery creates an empty query for path.
func NewQuery(path string) Query {
	return Query{
		Path:     path,
		Strategy: CacheThenNet,
		params:   make(map[string]string),
	}
}

// Add returns a copy of q with a parameter set, keeping first-insertion
// order. Values are formatted with %v.
func (q Query) Add(key string, value any) Query {
	q = q.Clone()
	if _, exists := q.params[key]; !exists {
		q.keys = append(q.keys, key)
	}
	q.params[key] = fmt.Sprint(value)
	return q
}

// WithStrategy returns the query with strategy set.
func (q Query) WithStrategy(s Strategy) Query {
	q.Strategy = s
	return q
}

// Get returns a parameter value.
func (q Query) Get(key string) (string, bool) {
	v, ok := q.params[key]
	return v, ok
}

// Keys returns parameter names in insertion order.
func (q Query) Keys() []string {
	out := make([]string, len(q.keys))
	copy(out, q.keys)
	return out
}

// Clone returns an independent copy of q.
func (q Query) Clone() Query {
	c := Query{
		Path:     q.Path,
		Strategy: q.Strategy,
		keys:     make([]string, len(q.keys)),
		params:   make(map[string]string, len(q.params)),
	}
	copy(c.keys, q.keys)
	for k, v := range q.params {
		c.params[k] = v
	}
	return c
}

// Values returns the parameters as url.Values.
func (q Query) Values() url.Values {
	v := make(url.Values, len(q.params))
	for _, k := range q.keys {
		v.Set(k, q.params[k])
	}
	return v
}

// CacheKey identifies the query in a cache store. Parameters are sorted so
// insertion order does not split entries.
func (q Query) CacheKey() string {
	keys := q.Keys()
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(q.Path)
	for i, k := range keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(q.params[k]))
	}
	return b.String()
}

// String returns the path with encoded parameters in insertion order.
func (q Query) String() string {
	if len(q.keys) == 0 {
		return q.Path
	}

	var b strings.Builder
	b.WriteString(q.Path)
	for i, k := range q.keys {
		if i == 0 {
			b.WriteByte('?')
		} else {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(k))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(q.params[k]))
	}
	return b.String()
}
