package config

import (
	"github.com/marmos91/feedpager/internal/logger"
	"github.com/marmos91/feedpager/pkg/metrics"
)

// InitializeMetrics enables the metrics registry when cfg.Enabled is set.
// It must run before any collector is created; collectors created earlier
// stay nil.
func InitializeMetrics(cfg MetricsConfig) bool {
	if !cfg.Enabled {
		logger.Debug("Metrics collection disabled")
		return false
	}

	metrics.InitRegistry()
	logger.Info("Metrics collection enabled", "port", cfg.Port)
	return true
}
