package feedserver

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/feed"
	pkgmetrics "github.com/marmos91/feedpager/pkg/metrics"
)

// NewRouter creates the chi router with middleware and routes.
//
// Routes:
//   - GET /health - Liveness probe
//   - GET /metrics - Prometheus metrics (404 when metrics are disabled)
//   - GET /feeds/queryHotFeedsList - Feed pages, behind RequireToken when tokens is non-nil
func NewRouter(h *FeedHandler, tokens *TokenService, m pkgmetrics.HTTPMetrics) http.Handler {
	r := chi.NewRouter()

	// Middleware stack - order matters
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(m))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(h.config.RequestTimeout))

	r.Get("/health", h.Health)
	r.Handle("/metrics", pkgmetrics.Handler())

	r.Group(func(r chi.Router) {
		if tokens != nil {
			r.Use(RequireToken(tokens))
		}
		r.Get(feed.DefaultPath, h.Page)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/health", http.StatusTemporaryRedirect)
	})

	return r
}

// requestLogger logs each request with the internal logger and records it
// in m when m is non-nil.
func requestLogger(m pkgmetrics.HTTPMetrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			requestID := middleware.GetReqID(r.Context())

			logger.Debug("Feed request started",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
			)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			if m != nil {
				m.ObserveRequest(routePattern(r), status, duration)
			}

			logger.Info("Feed request completed",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", ww.BytesWritten(),
				"duration", duration.String(),
			)
		})
	}
}
