package pager

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/feedpager/pkg/cachestore/memory"
)

// Cache fault on the first page: no preview, one answer, no error signal.
func TestSession_InitialCacheFaultIsSwallowed(t *testing.T) {
	f := newFixture(t, CacheThenNet)
	f.cache.readErr = errBoom

	items := wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))
	f.drain(t)

	assert.Len(t, items, 20)
	assert.Equal(t, 0, f.obs.PreviewCount())
	assert.Equal(t, 1, f.obs.ResultCount())
	assert.Empty(t, f.obs.Errors())
	assert.Equal(t, StateIdle, f.session.State())
}

// Two forward loads before the first resolves: the second answers empty
// at once and leaves the flag alone; a later load proceeds normally.
func TestSession_ForwardGating(t *testing.T) {
	f := newFixture(t, CacheThenNet)
	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))

	release := make(chan struct{})
	f.network.setHook(func(ctx context.Context, q Query) error {
		select {
		case <-release:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	first := f.session.LoadForward(context.Background(), "105", 20)
	require.True(t, f.session.InFlight())
	assert.Equal(t, StateLoadingForward, f.session.State())

	second := f.session.LoadForward(context.Background(), "105", 20)
	require.True(t, second.Ready(), "rejected load must be answered immediately")
	items, err, ok := second.Result()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.True(t, f.session.InFlight())
	assert.Equal(t, StateLoadingForward, f.session.State())
	assert.Equal(t, int32(1), f.metrics.rejected.Load())

	close(release)
	assert.Len(t, wait(t, first), 0) // total is 100, key 105 is past the end
	assert.False(t, f.session.InFlight())
	assert.Equal(t, StateIdle, f.session.State())

	f.network.setHook(nil)
	third := f.session.LoadForward(context.Background(), "20", 20)
	assert.Len(t, wait(t, third), 20)
	assert.False(t, f.session.InFlight())
	assert.Equal(t, int32(0), f.metrics.inFlight.Load())
}

// An empty forward page: boundary(false) first, then the empty answer.
func TestSession_ForwardEmptyPageSignalsBoundary(t *testing.T) {
	f := newFixture(t, NetOnly)
	f.network.total = 20
	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))

	fut := f.session.LoadForward(context.Background(), "20", 20)
	assert.Empty(t, wait(t, fut))

	assert.Equal(t, []string{
		"result:INITIAL:20",
		"boundary:false",
		"result:FORWARD:0",
	}, f.obs.Events())
	assert.Equal(t, []Boundary{{Key: "20", HasMore: false}}, f.obs.Boundaries())
}

func TestSession_ForwardNonEmptyPageSignalsMore(t *testing.T) {
	f := newFixture(t, NetOnly)
	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))

	items := wait(t, f.session.LoadForward(context.Background(), "20", 20))
	require.Len(t, items, 20)
	assert.Equal(t, 21, items[0].ID)
	assert.Equal(t, []Boundary{{Key: "20", HasMore: true}}, f.obs.Boundaries())
}

// NET_CACHE persists the network page so a later session previews it.
func TestSession_PersistedPageIsPreviewedLater(t *testing.T) {
	store := NewCodecStore[item](memory.New(), JSONCodec[item]{}, WithNamespace[item]("test"))
	network := &fakeNetwork{total: 100}
	m := &fakeMetrics{}
	loader := NewLoader[item](store, network, DefaultLoaderConfig(), m)
	loader.Start(context.Background())
	t.Cleanup(func() { loader.Stop(waitTimeout) })

	cfg := DefaultConfig()
	cfg.Strategy = NetCache

	first, err := NewSession[item](loader, buildFeedQuery, newRecorder(), cfg)
	require.NoError(t, err)
	answered := wait(t, first.LoadInitial(context.Background(), StartKey, 20))
	require.Len(t, answered, 20)
	first.Close()

	// The write-back lands after the answer and survives Close.
	require.Eventually(t, func() bool { return m.persistOK.Load() == 1 }, waitTimeout, time.Millisecond)

	// Hold the network until the preview has been delivered.
	previewed := make(chan struct{})
	network.setHook(func(ctx context.Context, q Query) error {
		select {
		case <-previewed:
		case <-time.After(waitTimeout):
		}
		return nil
	})

	obs := newRecorder()
	obs.onPreview = func(PageRequest, []item) { close(previewed) }
	second, err := NewSession[item](loader, buildFeedQuery, obs, cfg)
	require.NoError(t, err)
	defer second.Close()

	fut := second.LoadInitial(context.Background(), StartKey, 20)
	wait(t, fut)

	preview, ok := obs.Preview(fut.Request())
	require.True(t, ok, "expected a preview")
	assert.Equal(t, answered, preview)
	assert.Equal(t, []string{"preview:20", "result:INITIAL:20"}, obs.Events())
}

func TestSession_PreviewAfterAnswerIsDropped(t *testing.T) {
	f := newFixture(t, CacheThenNet)
	q := buildFeedQuery(StartKey, 20)
	f.cache.pages[q.CacheKey()] = makeItems(0, 5)

	answered := make(chan struct{})
	f.obs.onResult = func(PageRequest, []item) { close(answered) }
	f.cache.readHook = func(ctx context.Context) {
		select {
		case <-answered:
		case <-time.After(waitTimeout):
		}
	}

	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))
	f.drain(t)

	assert.Equal(t, 0, f.obs.PreviewCount())
	assert.Equal(t, int32(1), f.metrics.previewsDrop.Load())
	assert.Equal(t, []string{"result:INITIAL:20"}, f.obs.Events())
}

func TestSession_EmptyCacheDoesNotPreview(t *testing.T) {
	f := newFixture(t, CacheThenNet)

	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))
	f.drain(t)

	assert.Equal(t, 0, f.obs.PreviewCount())
	assert.Equal(t, int32(1), f.cache.reads.Load())
	assert.Equal(t, int32(1), f.cache.writes.Load())
}

func TestSession_NetworkFaultAnswersEmptyAndReports(t *testing.T) {
	f := newFixture(t, NetOnly)
	f.network.err = errBoom

	items := wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))
	assert.Empty(t, items)

	errs := f.obs.Errors()
	require.Len(t, errs, 1)
	assert.Equal(t, NetworkFault, errs[0].Kind)
	assert.Equal(t, PhaseInitial, errs[0].Phase)
	assert.ErrorIs(t, errs[0], errBoom)
	assert.Equal(t, 1, f.obs.ResultCount())
	assert.Equal(t, StateIdle, f.session.State())
}

func TestSession_ForwardNetworkFaultClearsInFlight(t *testing.T) {
	f := newFixture(t, NetOnly)
	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))

	f.network.mu.Lock()
	f.network.err = errBoom
	f.network.mu.Unlock()

	assert.Empty(t, wait(t, f.session.LoadForward(context.Background(), "20", 20)))
	assert.False(t, f.session.InFlight())
	assert.Equal(t, []Boundary{{Key: "20", HasMore: false}}, f.obs.Boundaries())
	require.Len(t, f.obs.Errors(), 1)
	assert.Equal(t, PhaseForward, f.obs.Errors()[0].Phase)
}

func TestSession_PersistFailureIsAbsorbed(t *testing.T) {
	f := newFixture(t, NetCache)
	f.cache.writeErr = errBoom

	assert.Len(t, wait(t, f.session.LoadInitial(context.Background(), StartKey, 20)), 20)
	assert.Empty(t, f.obs.Errors())
	require.Eventually(t, func() bool { return f.metrics.persistFail.Load() == 1 }, waitTimeout, time.Millisecond)
}

// hangingCache is a cache whose writes block until released or cancelled.
type hangingCache struct {
	*fakeCache
	release chan struct{}
}

func (c *hangingCache) Write(ctx context.Context, q Query, items []item) error {
	select {
	case <-c.release:
		return c.fakeCache.Write(ctx, q, items)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func TestSession_SlowWriteBackDoesNotDelayAnswer(t *testing.T) {
	cache := &hangingCache{fakeCache: newFakeCache(), release: make(chan struct{})}
	m := &fakeMetrics{}

	cfg := DefaultLoaderConfig()
	cfg.FetchTimeout = 500 * time.Millisecond
	loader := NewLoader[item](cache, &fakeNetwork{total: 100}, cfg, m)
	loader.Start(context.Background())
	t.Cleanup(func() { loader.Stop(waitTimeout) })

	scfg := DefaultConfig()
	scfg.Strategy = NetCache
	s, err := NewSession[item](loader, buildFeedQuery, newRecorder(), scfg)
	require.NoError(t, err)
	defer s.Close()

	fut := s.LoadInitial(context.Background(), StartKey, 20)
	select {
	case <-fut.Done():
	case <-time.After(cfg.FetchTimeout / 2):
		t.Fatal("answer held back by the cache write-back")
	}
	items, err, ok := fut.Result()
	require.True(t, ok)
	require.NoError(t, err)
	assert.Len(t, items, 20)

	// The hung write is cut off by the fetch timeout and absorbed.
	require.Eventually(t, func() bool { return m.persistFail.Load() == 1 }, waitTimeout, 5*time.Millisecond)
	assert.Zero(t, m.persistOK.Load())
	close(cache.release)
}

func TestSession_CacheOnly(t *testing.T) {
	f := newFixture(t, CacheOnly)
	q := buildFeedQuery(StartKey, 20)
	f.cache.pages[q.CacheKey()] = makeItems(0, 3)

	assert.Len(t, wait(t, f.session.LoadInitial(context.Background(), StartKey, 20)), 3)
	assert.Equal(t, 0, f.obs.PreviewCount())

	assert.Empty(t, wait(t, f.session.LoadForward(context.Background(), "3", 20)))
	assert.Equal(t, []Boundary{{Key: "3", HasMore: false}}, f.obs.Boundaries())
	assert.Equal(t, int32(0), f.network.calls.Load())
	assert.False(t, f.session.InFlight())
}

func TestSession_SecondInitialFails(t *testing.T) {
	f := newFixture(t, NetOnly)
	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))

	_, err := f.session.LoadInitial(context.Background(), StartKey, 20).Wait(context.Background())
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, 1, f.obs.ResultCount())
}

func TestSession_ForwardBeforeInitialIsRejected(t *testing.T) {
	f := newFixture(t, NetOnly)

	fut := f.session.LoadForward(context.Background(), "20", 20)
	require.True(t, fut.Ready())
	assert.Empty(t, wait(t, fut))
	assert.False(t, f.session.InFlight())
	assert.Equal(t, StateInitial, f.session.State())
	assert.Empty(t, f.obs.Boundaries())
	assert.Equal(t, int32(0), f.network.calls.Load())
}

func TestSession_BackwardIsAlwaysEmpty(t *testing.T) {
	f := newFixture(t, CacheThenNet)

	fut := f.session.LoadBackward(context.Background(), "40")
	require.True(t, fut.Ready())
	assert.Empty(t, wait(t, fut))
	assert.Equal(t, []string{"result:BACKWARD:0"}, f.obs.Events())
	assert.Equal(t, StateInitial, f.session.State())
}

func TestSession_CloseFailsPendingAndDropsLateOutcomes(t *testing.T) {
	f := newFixture(t, CacheThenNet)
	q := buildFeedQuery(StartKey, 20)
	f.cache.pages[q.CacheKey()] = makeItems(0, 5)

	release := make(chan struct{})
	hold := func(ctx context.Context) {
		<-release
	}
	f.cache.readHook = hold
	f.network.setHook(func(ctx context.Context, q Query) error {
		hold(ctx)
		return nil
	})

	fut := f.session.LoadInitial(context.Background(), StartKey, 20)
	f.session.Close()

	_, err := fut.Wait(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.True(t, f.session.Closed())

	close(release)
	f.drain(t)

	assert.Empty(t, f.obs.Events(), "no signal may be routed after Close")

	_, err = f.session.LoadForward(context.Background(), "20", 20).Wait(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
	_, err = f.session.LoadInitial(context.Background(), StartKey, 20).Wait(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)

	f.session.Close() // idempotent
}

func TestSession_CloseCancelsFetchContext(t *testing.T) {
	f := newFixture(t, NetOnly)

	started := make(chan struct{})
	cancelled := make(chan struct{})
	f.network.setHook(func(ctx context.Context, q Query) error {
		close(started)
		<-ctx.Done()
		close(cancelled)
		return ctx.Err()
	})

	fut := f.session.LoadInitial(context.Background(), StartKey, 20)
	<-started
	f.session.Close()

	select {
	case <-cancelled:
	case <-time.After(waitTimeout):
		t.Fatal("fetch context was not cancelled by Close")
	}
	_, err := fut.Wait(context.Background())
	assert.ErrorIs(t, err, ErrSessionClosed)
}

func TestSession_CallerCancellationDoesNotAbortFetch(t *testing.T) {
	f := newFixture(t, NetOnly)

	ctx, cancel := context.WithCancel(context.Background())
	fut := f.session.LoadInitial(ctx, StartKey, 20)
	cancel()

	assert.Len(t, wait(t, fut), 20)
}

func TestSession_ConcurrentForwardLoadsAdmitOne(t *testing.T) {
	f := newFixture(t, NetOnly)
	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))

	release := make(chan struct{})
	f.network.setHook(func(ctx context.Context, q Query) error {
		<-release
		return nil
	})
	callsBefore := f.network.calls.Load()

	const n = 32
	futures := make([]*Future[item], n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			futures[i] = f.session.LoadForward(context.Background(), "20", 20)
		}()
	}
	wg.Wait()

	pending := 0
	for _, fut := range futures {
		if !fut.Ready() {
			pending++
		}
	}
	assert.Equal(t, 1, pending, "exactly one forward load may be in flight")

	close(release)
	for _, fut := range futures {
		wait(t, fut)
	}
	assert.Equal(t, callsBefore+1, f.network.calls.Load())
	assert.Len(t, f.obs.Boundaries(), 1)
	assert.Equal(t, int32(n-1), f.metrics.rejected.Load())
}

func TestSession_EveryRequestAnsweredOnce(t *testing.T) {
	f := newFixture(t, CacheThenNet)
	q := buildFeedQuery(StartKey, 20)
	f.cache.pages[q.CacheKey()] = makeItems(0, 20)

	wait(t, f.session.LoadInitial(context.Background(), StartKey, 20))
	key := PageKey("20")
	for range 4 {
		items := wait(t, f.session.LoadForward(context.Background(), key, 20))
		if len(items) > 0 {
			key = itemKey(items[len(items)-1])
		}
	}
	f.drain(t)

	assert.Equal(t, 5, f.obs.ResultCount())
	assert.Equal(t, int32(5), f.metrics.answers.Load())
	assert.Equal(t, int32(0), f.metrics.violations.Load())
	assert.LessOrEqual(t, f.obs.PreviewCount(), 1)
}

func TestSession_StrictModePanicsOnSecondAnswer(t *testing.T) {
	f := newFixture(t, NetOnly)
	s := f.newSession(t, NetOnly, true)

	fut := s.LoadBackward(context.Background(), StartKey)
	require.True(t, fut.Ready())

	defer func() {
		r := recover()
		require.NotNil(t, r, "expected a panic")
		pe, ok := r.(*PageError)
		require.True(t, ok, "panic value should be *PageError, got %T", r)
		assert.Equal(t, ProtocolViolation, pe.Kind)
		assert.ErrorIs(t, pe, ErrAlreadyAnswered)
	}()
	s.deliverAnswer(s.token, fut, FetchOutcome[item]{Origin: OriginNetwork, Succeeded: true})
}

func TestSession_LenientModeIgnoresSecondAnswer(t *testing.T) {
	f := newFixture(t, NetOnly)

	fut := f.session.LoadBackward(context.Background(), StartKey)
	require.True(t, fut.Ready())

	delivered := f.session.deliverAnswer(f.session.token, fut, FetchOutcome[item]{
		Origin:    OriginNetwork,
		Items:     makeItems(0, 2),
		Succeeded: true,
	})

	assert.False(t, delivered)
	assert.Equal(t, int32(1), f.metrics.violations.Load())
	assert.Equal(t, []string{"result:BACKWARD:0"}, f.obs.Events())
	items, _, _ := fut.Result()
	assert.Empty(t, items)
}

func TestNewSession_Validation(t *testing.T) {
	loader := NewLoader[item](nil, nil, DefaultLoaderConfig(), nil)

	_, err := NewSession[item](nil, buildFeedQuery, nil, DefaultConfig())
	assert.Error(t, err)

	_, err = NewSession[item](loader, nil, nil, DefaultConfig())
	assert.Error(t, err)

	bad := DefaultConfig()
	bad.Strategy = Strategy(42)
	_, err = NewSession[item](loader, buildFeedQuery, nil, bad)
	assert.ErrorIs(t, err, ErrUnknownStrategy)

	s, err := NewSession[item](loader, buildFeedQuery, nil, Config{Strategy: NetOnly})
	require.NoError(t, err)
	defer s.Close()
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, DefaultPageSize, s.config.PageSize)
}

// A failed first page keeps the cache preview on screen.
func TestSession_FirstPageFaultKeepsPreviewVisible(t *testing.T) {
	f := newFixture(t, CacheThenNet)
	q := buildFeedQuery(StartKey, 20)
	f.cache.pages[q.CacheKey()] = makeItems(0, 5)

	list := NewListState[item](itemKey)
	f.network.setHook(func(ctx context.Context, _ Query) error {
		// Fail only once the preview is on screen.
		deadline := time.After(waitTimeout)
		for len(list.Preview()) == 0 {
			select {
			case <-deadline:
				return errBoom
			case <-time.After(time.Millisecond):
			}
		}
		return errBoom
	})

	cfg := DefaultConfig()
	cfg.Strategy = CacheThenNet
	s, err := NewSession[item](f.loader, buildFeedQuery, list, cfg)
	require.NoError(t, err)
	defer s.Close()

	assert.Empty(t, wait(t, s.LoadInitial(context.Background(), StartKey, 20)))
	require.NotNil(t, list.LastError())
	assert.Equal(t, makeItems(0, 5), list.Visible())
	assert.True(t, list.HasData())
}
