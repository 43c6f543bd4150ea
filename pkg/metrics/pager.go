package metrics

import (
	"github.com/marmos91/feedpager/pkg/pager"
)

// NewPagerMetrics creates a Prometheus-backed pager.Metrics.
//
// Returns nil if metrics are not enabled (InitRegistry not called). A nil
// value passed to pager.NewLoader disables instrumentation at zero cost.
//
// Example usage:
//
//	metrics.InitRegistry()
//	loader := pager.NewLoader(store, client, cfg, metrics.NewPagerMetrics())
func NewPagerMetrics() pager.Metrics {
	if !IsEnabled() || newPrometheusPagerMetrics == nil {
		return nil
	}
	return newPrometheusPagerMetrics()
}

// newPrometheusPagerMetrics is implemented in pkg/metrics/prometheus/pager.go.
// The indirection keeps this package free of an import cycle.
var newPrometheusPagerMetrics func() pager.Metrics

// RegisterPagerMetricsConstructor registers the Prometheus pager metrics
// constructor. Called by pkg/metrics/prometheus during initialization.
func RegisterPagerMetricsConstructor(constructor func() pager.Metrics) {
	newPrometheusPagerMetrics = constructor
}
