package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/feedpager/pkg/metrics"
	"github.com/marmos91/feedpager/pkg/pager"
)

func init() {
	metrics.RegisterPagerMetricsConstructor(NewPagerMetrics)
}

// pagerMetrics is the Prometheus implementation of pager.Metrics.
type pagerMetrics struct {
	fetches        *prometheus.CounterVec
	fetchDuration  *prometheus.HistogramVec
	fetchItems     *prometheus.HistogramVec
	persists       *prometheus.CounterVec
	answers        *prometheus.CounterVec
	answerItems    *prometheus.HistogramVec
	rejected       prometheus.Counter
	previews       *prometheus.CounterVec
	violations     prometheus.Counter
	forwardsActive prometheus.Gauge
}

// NewPagerMetrics creates a new Prometheus-backed pager.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewPagerMetrics() pager.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()
	itemBuckets := []float64{0, 1, 5, 10, 20, 50, 100}

	return &pagerMetrics{
		fetches: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_fetch_total",
				Help: "Total number of fetch steps by origin and result",
			},
			[]string{"origin", "result"}, // result: "ok", "empty", "fault"
		),
		fetchDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "feedpager_fetch_duration_milliseconds",
				Help: "Duration of fetch steps in milliseconds",
				Buckets: []float64{
					0.5,   // 500us - memory cache
					1,     // 1ms
					5,     // 5ms - disk cache
					10,    // 10ms
					50,    // 50ms
					100,   // 100ms - typical network page
					250,   // 250ms
					500,   // 500ms
					1000,  // 1s
					5000,  // 5s - slow network
					30000, // 30s - default fetch timeout
				},
			},
			[]string{"origin"},
		),
		fetchItems: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedpager_fetch_items",
				Help:    "Distribution of items returned per fetch step",
				Buckets: itemBuckets,
			},
			[]string{"origin"},
		),
		persists: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_cache_persist_total",
				Help: "Total number of network pages written back to the cache",
			},
			[]string{"status"}, // "success", "error"
		),
		answers: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_answers_total",
				Help: "Total number of authoritative answers by phase",
			},
			[]string{"phase"},
		),
		answerItems: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "feedpager_answer_items",
				Help:    "Distribution of items per authoritative answer",
				Buckets: itemBuckets,
			},
			[]string{"phase"},
		),
		rejected: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "feedpager_forward_rejected_total",
				Help: "Forward loads answered empty because another one was in flight",
			},
		),
		previews: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_previews_total",
				Help: "Cache previews by outcome",
			},
			[]string{"outcome"}, // "delivered", "superseded"
		),
		violations: promauto.With(reg).NewCounter(
			prometheus.CounterOpts{
				Name: "feedpager_protocol_violations_total",
				Help: "Ignored attempts to answer a page request twice",
			},
		),
		forwardsActive: promauto.With(reg).NewGauge(
			prometheus.GaugeOpts{
				Name: "feedpager_forward_in_flight",
				Help: "Number of sessions with a forward load in flight",
			},
		),
	}
}

func (m *pagerMetrics) ObserveFetch(origin pager.Origin, result string, items int, duration time.Duration) {
	if m == nil {
		return
	}

	o := origin.String()
	m.fetches.WithLabelValues(o, result).Inc()
	m.fetchDuration.WithLabelValues(o).Observe(duration.Seconds() * 1000)
	m.fetchItems.WithLabelValues(o).Observe(float64(items))
}

func (m *pagerMetrics) RecordCachePersist(success bool) {
	if m == nil {
		return
	}

	status := "success"
	if !success {
		status = "error"
	}
	m.persists.WithLabelValues(status).Inc()
}

func (m *pagerMetrics) RecordAnswer(phase pager.Phase, items int) {
	if m == nil {
		return
	}

	p := phase.String()
	m.answers.WithLabelValues(p).Inc()
	m.answerItems.WithLabelValues(p).Observe(float64(items))
}

func (m *pagerMetrics) RecordForwardRejected() {
	if m == nil {
		return
	}
	m.rejected.Inc()
}

func (m *pagerMetrics) RecordPreview(delivered bool) {
	if m == nil {
		return
	}

	outcome := "delivered"
	if !delivered {
		outcome = "superseded"
	}
	m.previews.WithLabelValues(outcome).Inc()
}

func (m *pagerMetrics) RecordProtocolViolation() {
	if m == nil {
		return
	}
	m.violations.Inc()
}

func (m *pagerMetrics) SetInFlight(delta int) {
	if m == nil {
		return
	}
	m.forwardsActive.Add(float64(delta))
}
