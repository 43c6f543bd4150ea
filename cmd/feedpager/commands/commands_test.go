package commands

import (
	"bytes"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/feedpager/internal/cli/output"
	"github.com/marmos91/feedpager/pkg/config"
	"github.com/marmos91/feedpager/pkg/feedserver"
)

func newFeed(t *testing.T, cfg feedserver.Config) string {
	t.Helper()
	srv, err := feedserver.NewServer(cfg, feedserver.NewCatalog(cfg.Posts, time.Now()), nil)
	require.NoError(t, err)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts.URL
}

func newTestBrowser(t *testing.T, baseURL string) (*browser, *bytes.Buffer) {
	t.Helper()
	cfg := config.GetDefaultConfig()
	cfg.Cache.Type = "memory"
	cfg.Feed.BaseURL = baseURL
	cfg.Session.PageSize = 2
	cfg.ShutdownTimeout = time.Second

	p, err := newPipeline(t.Context(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })

	var buf bytes.Buffer
	b, err := newBrowser(p, output.NewPrinter(&buf, output.FormatTable, false), 0)
	require.NoError(t, err)
	t.Cleanup(b.close)
	return b, &buf
}

func TestBrowserRun(t *testing.T) {
	// Latency keeps the network answer behind the cache preview.
	url := newFeed(t, feedserver.Config{Posts: 5, Latency: 50 * time.Millisecond})
	b, buf := newTestBrowser(t, url)

	require.NoError(t, b.run(t.Context(), 0))
	out := buf.String()
	assert.Contains(t, out, "post #5")
	assert.Contains(t, out, "post #1")
	assert.Contains(t, out, "end of feed")
	assert.NotContains(t, out, "cache preview")

	buf.Reset()
	require.NoError(t, b.reset())
	require.NoError(t, b.run(t.Context(), 1))
	out = buf.String()
	assert.Contains(t, out, "cache preview: 2 posts")
	assert.Contains(t, out, "post #4")
	assert.NotContains(t, out, "post #3")
	assert.NotContains(t, out, "end of feed")
}

func TestBrowserReportsNetworkFault(t *testing.T) {
	url := newFeed(t, feedserver.Config{Posts: 5, FailEvery: 1})
	b, buf := newTestBrowser(t, url)

	items, err := b.first(t.Context())
	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Contains(t, buf.String(), "network request failed")

	_, ok, err := b.next(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBrowserRetriesFailedPage(t *testing.T) {
	// Every second feed request fails: the first page loads, the next one
	// fails and its retry succeeds.
	url := newFeed(t, feedserver.Config{Posts: 5, FailEvery: 2})
	b, buf := newTestBrowser(t, url)

	items, err := b.first(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 2)

	items, ok, err := b.next(t.Context())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, items)
	assert.Contains(t, buf.String(), "network request failed")
	assert.False(t, b.list.HasMore())
	require.True(t, b.list.CanRetryForward())

	_, ok, err = b.next(t.Context())
	require.NoError(t, err)
	assert.False(t, ok, "next is not offered after a failure")

	items, ok, err = b.retry(t.Context())
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, int64(3), items[0].ID)
	assert.Equal(t, 4, b.list.Len(), "loaded posts are kept")
	assert.False(t, b.list.CanRetryForward())
	assert.True(t, b.list.HasMore())

	_, ok, err = b.retry(t.Context())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestBrowserKeepsCachedPostsWhenFirstPageFails(t *testing.T) {
	// Request 1 succeeds and fills the cache; request 2 fails.
	url := newFeed(t, feedserver.Config{Posts: 5, FailEvery: 2, Latency: 50 * time.Millisecond})
	b, buf := newTestBrowser(t, url)

	items, err := b.first(t.Context())
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.Eventually(t, func() bool {
		keys, err := b.pipeline.store.List(t.Context(), "")
		return err == nil && len(keys) > 0
	}, 2*time.Second, 10*time.Millisecond)

	buf.Reset()
	require.NoError(t, b.reset())
	items, err = b.first(t.Context())
	require.NoError(t, err)
	assert.Len(t, items, 2, "cached posts stay visible")
	assert.True(t, b.list.HasData())
	assert.Contains(t, buf.String(), "network request failed")
	assert.Contains(t, buf.String(), "showing 2 cached posts")
}

func TestCacheKeyPrefix(t *testing.T) {
	assert.Equal(t, "custom", cacheKeyPrefix("custom", "feed"))
	assert.Equal(t, "feed/", cacheKeyPrefix("", "feed"))
	assert.Equal(t, "", cacheKeyPrefix("", ""))
}

func TestApplyServeFlags(t *testing.T) {
	defer func() {
		servePort, servePosts, serveFailEvery, serveLatency = 0, 0, -1, -1
	}()

	c := feedserver.Config{Port: 8080, Posts: 200, FailEvery: 3, Latency: time.Second}
	servePort, servePosts, serveFailEvery, serveLatency = 0, 0, -1, -1
	applyServeFlags(&c)
	assert.Equal(t, feedserver.Config{Port: 8080, Posts: 200, FailEvery: 3, Latency: time.Second}, c)

	servePort, servePosts, serveFailEvery, serveLatency = 9000, 10, 0, 0
	applyServeFlags(&c)
	assert.Equal(t, feedserver.Config{Port: 9000, Posts: 10}, c)
}

func TestTailLines(t *testing.T) {
	log := strings.Join([]string{
		`[2026-01-01 10:00:00.000] [INFO] one`,
		`[2026-01-01 11:00:00.000] [INFO] two`,
		`{"time":"2030-01-01T12:00:00Z","level":"INFO","msg":"three"}`,
		`no timestamp`,
	}, "\n")

	lines, err := tailLines(strings.NewReader(log), 2, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, []string{
		`{"time":"2030-01-01T12:00:00Z","level":"INFO","msg":"three"}`,
		`no timestamp`,
	}, lines)

	since := time.Date(2026, 1, 1, 10, 30, 0, 0, time.Local)
	lines, err = tailLines(strings.NewReader(log), 10, since)
	require.NoError(t, err)
	assert.Equal(t, []string{`[2026-01-01 11:00:00.000] [INFO] two`}, lines[:1])
	assert.Len(t, lines, 3)

	lines, err = tailLines(strings.NewReader(log), 0, time.Time{})
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLineTime(t *testing.T) {
	assert.Equal(t,
		time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC),
		lineTime(`{"time":"2026-03-04T05:06:07Z","msg":"x"}`).UTC())
	assert.Equal(t,
		time.Date(2026, 3, 4, 5, 6, 7, 8e6, time.Local),
		lineTime(`[2026-03-04 05:06:07.008] [DEBUG] x`))
	assert.True(t, lineTime("plain").IsZero())
	assert.True(t, lineTime("{broken").IsZero())
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	t.Cleanup(func() { versionCmd.SetOut(nil); versionShort = false })

	versionShort = true
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, Version+"\n", buf.String())
}
