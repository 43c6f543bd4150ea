package prometheus

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/feedpager/pkg/metrics"
)

func init() {
	metrics.RegisterHTTPMetricsConstructor(NewHTTPMetrics)
}

// httpMetrics is the Prometheus implementation of metrics.HTTPMetrics.
type httpMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	faults   *prometheus.CounterVec
}

// NewHTTPMetrics creates a new Prometheus-backed metrics.HTTPMetrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewHTTPMetrics() metrics.HTTPMetrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &httpMetrics{
		requests: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_http_requests_total",
				Help: "Total number of feed server requests by route and status code",
			},
			[]string{"route", "code"},
		),
		duration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedpager_http_request_duration_milliseconds",
				Help:    "Duration of feed server requests in milliseconds",
				Buckets: []float64{0.5, 1, 5, 10, 50, 100, 500, 1000},
			},
			[]string{"route"},
		),
		faults: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_http_injected_faults_total",
				Help: "Responses failed on purpose by fault injection",
			},
			[]string{"route"},
		),
	}
}

func (m *httpMetrics) ObserveRequest(route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.duration.WithLabelValues(route).Observe(duration.Seconds() * 1000)
}

func (m *httpMetrics) RecordInjectedFault(route string) {
	if m == nil {
		return
	}
	m.faults.WithLabelValues(route).Inc()
}
