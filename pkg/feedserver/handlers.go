package feedserver

import (
	"net/http"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/feed"
	"github.com/marmos91/feedpager/pkg/feedclient"
	"github.com/marmos91/feedpager/pkg/metrics"
)

// FeedHandler serves pages of a Catalog.
type FeedHandler struct {
	catalog  *Catalog
	config   Config
	metrics  metrics.HTTPMetrics
	requests atomic.Int64
}

// NewFeedHandler creates a handler for catalog.
func NewFeedHandler(catalog *Catalog, config Config, m metrics.HTTPMetrics) *FeedHandler {
	config.ApplyDefaults()
	return &FeedHandler{
		catalog: catalog,
		config:  config,
		metrics: m,
	}
}

// Page handles GET /feeds/queryHotFeedsList.
//
// Query parameters: feedType (default "all"), userId, feedId (cursor, 0 for
// the first page) and pageCount (default 10).
func (h *FeedHandler) Page(w http.ResponseWriter, r *http.Request) {
	n := h.requests.Add(1)

	if h.config.Latency > 0 {
		select {
		case <-time.After(h.config.Latency):
		case <-r.Context().Done():
			return
		}
	}

	if h.config.FailEvery > 0 && n%int64(h.config.FailEvery) == 0 {
		if h.metrics != nil {
			h.metrics.RecordInjectedFault(routePattern(r))
		}
		logger.WarnCtx(r.Context(), "Injected feed fault", "request", n)
		writeError(w, http.StatusServiceUnavailable, feedclient.CodeUnavailable, "injected fault")
		return
	}

	params := r.URL.Query()

	afterID, err := parseInt(params.Get(feed.ParamFeedID), 0)
	if err != nil || afterID < 0 {
		writeError(w, http.StatusBadRequest, feedclient.CodeBadRequest, "feedId must be a non-negative integer")
		return
	}

	count, err := parseInt(params.Get(feed.ParamPageCount), 10)
	if err != nil || count < 1 || count > int64(h.config.MaxPageCount) {
		writeError(w, http.StatusBadRequest, feedclient.CodeBadRequest,
			"pageCount must be between 1 and "+strconv.Itoa(h.config.MaxPageCount))
		return
	}

	page := h.catalog.Page(params.Get(feed.ParamFeedType), afterID, int(count))
	writeJSON(w, http.StatusOK, feed.NewEnvelope(page))
}

// Health handles GET /health.
func (h *FeedHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Posts:     h.catalog.Len(),
	})
}

func parseInt(s string, def int64) (int64, error) {
	if s == "" {
		return def, nil
	}
	return strconv.ParseInt(s, 10, 64)
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}
