package metrics

import "time"

// HTTPMetrics instruments the feed server.
type HTTPMetrics interface {
	// ObserveRequest records one served request.
	ObserveRequest(route string, status int, duration time.Duration)

	// RecordInjectedFault counts responses failed on purpose by fault injection.
	RecordInjectedFault(route string)
}

// NewHTTPMetrics creates a Prometheus-backed HTTPMetrics, or nil when
// metrics are not enabled.
func NewHTTPMetrics() HTTPMetrics {
	if !IsEnabled() || newPrometheusHTTPMetrics == nil {
		return nil
	}
	return newPrometheusHTTPMetrics()
}

var newPrometheusHTTPMetrics func() HTTPMetrics

// RegisterHTTPMetricsConstructor registers the Prometheus HTTP metrics
// constructor. Called by pkg/metrics/prometheus during initialization.
func RegisterHTTPMetricsConstructor(constructor func() HTTPMetrics) {
	newPrometheusHTTPMetrics = constructor
}
