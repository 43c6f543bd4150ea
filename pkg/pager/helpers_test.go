package pager

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

const waitTimeout = 2 * time.Second

type item struct {
	ID    int    `json:"id"`
	Title string `json:"title"`
}

func itemKey(it item) PageKey {
	return PageKey(strconv.Itoa(it.ID))
}

// makeItems returns n items with ids after key.
func makeItems(after, n int) []item {
	items := make([]item, n)
	for i := range items {
		id := after + i + 1
		items[i] = item{ID: id, Title: fmt.Sprintf("post %d", id)}
	}
	return items
}

func buildFeedQuery(key PageKey, size int) Query {
	return NewQuery("home/feed").
		Add("feedType", 1).
		Add("feedId", key.String()).
		Add("pageCount", size)
}

// fakeNetwork serves pages of consecutive ids. hook, when set, runs before
// every Execute and may block.
type fakeNetwork struct {
	mu    sync.Mutex
	total int
	err   error
	hook  func(ctx context.Context, q Query) error

	calls atomic.Int32
}

func (n *fakeNetwork) setHook(hook func(ctx context.Context, q Query) error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hook = hook
}

func (n *fakeNetwork) Execute(ctx context.Context, q Query) ([]item, error) {
	n.calls.Add(1)

	n.mu.Lock()
	hook, err, total := n.hook, n.err, n.total
	n.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, q); err != nil {
			return nil, err
		}
	}
	if err != nil {
		return nil, err
	}

	after := 0
	if v, _ := q.Get("feedId"); v != "" {
		after, _ = strconv.Atoi(v)
	}
	size := 20
	if v, _ := q.Get("pageCount"); v != "" {
		size, _ = strconv.Atoi(v)
	}
	n2 := min(size, max(total-after, 0))
	return makeItems(after, n2), nil
}

// fakeCache is a map-backed CacheStore with injectable faults.
type fakeCache struct {
	mu       sync.Mutex
	pages    map[string][]item
	readErr  error
	writeErr error
	readHook func(ctx context.Context)

	reads  atomic.Int32
	writes atomic.Int32
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: make(map[string][]item)}
}

func (c *fakeCache) Read(ctx context.Context, q Query) ([]item, error) {
	c.reads.Add(1)

	c.mu.Lock()
	hook := c.readHook
	c.mu.Unlock()
	if hook != nil {
		hook(ctx)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.readErr != nil {
		return nil, c.readErr
	}
	return append([]item(nil), c.pages[q.CacheKey()]...), nil
}

func (c *fakeCache) Write(ctx context.Context, q Query, items []item) error {
	c.writes.Add(1)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.writeErr != nil {
		return c.writeErr
	}
	c.pages[q.CacheKey()] = append([]item(nil), items...)
	return nil
}

// recorder is an Observer that keeps every signal in arrival order.
type recorder struct {
	mu       sync.Mutex
	events   []string
	results  map[PageRequest][]item
	previews map[PageRequest][]item
	bounds   []Boundary
	errs     []*PageError

	onResult  func(req PageRequest, items []item)
	onPreview func(req PageRequest, items []item)
}

func newRecorder() *recorder {
	return &recorder{
		results:  make(map[PageRequest][]item),
		previews: make(map[PageRequest][]item),
	}
}

func (r *recorder) OnResult(req PageRequest, items []item) {
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf("result:%s:%d", req.Phase, len(items)))
	r.results[req] = items
	hook := r.onResult
	r.mu.Unlock()
	if hook != nil {
		hook(req, items)
	}
}

func (r *recorder) OnPreview(req PageRequest, items []item) {
	r.mu.Lock()
	r.events = append(r.events, fmt.Sprintf("preview:%d", len(items)))
	r.previews[req] = items
	hook := r.onPreview
	r.mu.Unlock()
	if hook != nil {
		hook(req, items)
	}
}

func (r *recorder) OnBoundary(b Boundary) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, fmt.Sprintf("boundary:%t", b.HasMore))
	r.bounds = append(r.bounds, b)
}

func (r *recorder) OnError(err *PageError) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, "error:"+err.Kind.String())
	r.errs = append(r.errs, err)
}

func (r *recorder) Events() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.events...)
}

func (r *recorder) ResultCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.results)
}

func (r *recorder) PreviewCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.previews)
}

func (r *recorder) Errors() []*PageError {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*PageError(nil), r.errs...)
}

func (r *recorder) Boundaries() []Boundary {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Boundary(nil), r.bounds...)
}

func (r *recorder) Preview(req PageRequest) ([]item, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	items, ok := r.previews[req]
	return items, ok
}

// fakeMetrics counts calls.
type fakeMetrics struct {
	fetches      atomic.Int32
	persistOK    atomic.Int32
	persistFail  atomic.Int32
	answers      atomic.Int32
	rejected     atomic.Int32
	previewsOK   atomic.Int32
	previewsDrop atomic.Int32
	violations   atomic.Int32
	inFlight     atomic.Int32
}

func (m *fakeMetrics) ObserveFetch(Origin, string, int, time.Duration) { m.fetches.Add(1) }

func (m *fakeMetrics) RecordCachePersist(ok bool) {
	if ok {
		m.persistOK.Add(1)
	} else {
		m.persistFail.Add(1)
	}
}

func (m *fakeMetrics) RecordAnswer(Phase, int) { m.answers.Add(1) }
func (m *fakeMetrics) RecordForwardRejected() { m.rejected.Add(1) }
func (m *fakeMetrics) RecordProtocolViolation() { m.violations.Add(1) }
func (m *fakeMetrics) SetInFlight(delta int) { m.inFlight.Add(int32(delta)) }

func (m *fakeMetrics) RecordPreview(delivered bool) {
	if delivered {
		m.previewsOK.Add(1)
	} else {
		m.previewsDrop.Add(1)
	}
}

var _ Metrics = (*fakeMetrics)(nil)

type fixture struct {
	cache   *fakeCache
	network *fakeNetwork
	metrics *fakeMetrics
	loader  *Loader[item]
	obs     *recorder
	session *Session[item]
}

func newFixture(t *testing.T, strategy Strategy) *fixture {
	t.Helper()

	f := &fixture{
		cache:   newFakeCache(),
		network: &fakeNetwork{total: 100},
		metrics: &fakeMetrics{},
		obs:     newRecorder(),
	}
	f.loader = NewLoader[item](f.cache, f.network, DefaultLoaderConfig(), f.metrics)
	f.loader.Start(context.Background())
	t.Cleanup(func() { f.loader.Stop(waitTimeout) })

	f.session = f.newSession(t, strategy, false)
	return f
}

func (f *fixture) newSession(t *testing.T, strategy Strategy, strict bool) *Session[item] {
	t.Helper()

	cfg := DefaultConfig()
	cfg.Strategy = strategy
	cfg.Strict = strict
	s, err := NewSession[item](f.loader, buildFeedQuery, f.obs, cfg)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

// drain waits until every queued fetch step has run.
func (f *fixture) drain(t *testing.T) {
	t.Helper()
	require.Eventually(t, func() bool { return f.loader.Pending() == 0 }, waitTimeout, 5*time.Millisecond)
}

func wait(t *testing.T, fut *Future[item]) []item {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitTimeout)
	defer cancel()
	items, err := fut.Wait(ctx)
	require.NoError(t, err)
	return items
}

var errBoom = errors.New("boom")
