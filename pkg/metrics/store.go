package metrics

import (
	"github.com/marmos91/feedpager/pkg/cachestore"
)

// NewStoreMetrics creates a Prometheus-backed cachestore.Metrics, or nil
// when metrics are not enabled. Pass the result to cachestore.Instrument;
// a nil collector leaves the store unwrapped.
func NewStoreMetrics() cachestore.Metrics {
	if !IsEnabled() || newPrometheusStoreMetrics == nil {
		return nil
	}
	return newPrometheusStoreMetrics()
}

var newPrometheusStoreMetrics func() cachestore.Metrics

// RegisterStoreMetricsConstructor registers the Prometheus store metrics
// constructor. Called by pkg/metrics/prometheus during initialization.
func RegisterStoreMetricsConstructor(constructor func() cachestore.Metrics) {
	newPrometheusStoreMetrics = constructor
}
