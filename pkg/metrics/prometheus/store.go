package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/marmos91/feedpager/pkg/cachestore"
	"github.com/marmos91/feedpager/pkg/metrics"
)

func init() {
	metrics.RegisterStoreMetricsConstructor(NewStoreMetrics)
}

// storeMetrics is the Prometheus implementation of cachestore.Metrics.
type storeMetrics struct {
	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	bytesTransferred  *prometheus.CounterVec
	lookups           *prometheus.CounterVec
}

// NewStoreMetrics creates a new Prometheus-backed cachestore.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called).
func NewStoreMetrics() cachestore.Metrics {
	if !metrics.IsEnabled() {
		return nil
	}

	reg := metrics.GetRegistry()

	return &storeMetrics{
		operationsTotal: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_cachestore_operations_total",
				Help: "Total number of cache store operations by backend, operation and status",
			},
			[]string{"backend", "operation", "status"},
		),
		operationDuration: promauto.With(reg).NewHistogramVec(
			prometheus.HistogramOpts{
				Name: "feedpager_cachestore_operation_duration_milliseconds",
				Help: "Duration of cache store operations in milliseconds",
				Buckets: []float64{
					0.1,  // in-memory
					1,    // badger
					5,    // sqlite
					10,   // postgres on localhost
					50,   // remote database
					100,  // S3 same region
					500,  // S3 cross region
					1000, // 1s
				},
			},
			[]string{"backend", "operation"},
		),
		bytesTransferred: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_cachestore_bytes_total",
				Help: "Total value bytes read from and written to the cache store",
			},
			[]string{"backend", "operation"},
		),
		lookups: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "feedpager_cachestore_lookups_total",
				Help: "Cache store lookups by result (hit or miss)",
			},
			[]string{"backend", "result"},
		),
	}
}

func (m *storeMetrics) ObserveOperation(backend, operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.operationsTotal.WithLabelValues(backend, operation, status).Inc()
	m.operationDuration.WithLabelValues(backend, operation).Observe(duration.Seconds() * 1000)
}

func (m *storeMetrics) RecordBytes(backend, operation string, bytes int64) {
	if m == nil {
		return
	}
	m.bytesTransferred.WithLabelValues(backend, operation).Add(float64(bytes))
}

func (m *storeMetrics) RecordLookup(backend string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.lookups.WithLabelValues(backend, result).Inc()
}
