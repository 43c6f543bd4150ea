package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/marmos91/feedpager/pkg/feed"
	"github.com/marmos91/feedpager/pkg/pager"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
//
// Default Strategy:
//   - Zero values (0, "", false, nil) are replaced with defaults
//   - Explicit values are preserved
//
// Session.Strategy and Loader.FetchTimeout have meaningful zero values, so
// they are not defaulted here. Load takes them from GetDefaultConfig when
// neither the file nor the environment sets them.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	applyMetricsDefaults(&cfg.Metrics)
	applyFeedDefaults(&cfg.Feed)
	applyCacheDefaults(&cfg.Cache)
	applySessionDefaults(&cfg.Session)
	applyLoaderDefaults(&cfg.Loader)
	cfg.Server.ApplyDefaults()
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stdout"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	applyProfilingDefaults(&cfg.Profiling)
}

// applyProfilingDefaults sets Pyroscope profiling defaults.
func applyProfilingDefaults(cfg *ProfilingConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:4040"
	}

	if len(cfg.ProfileTypes) == 0 {
		cfg.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

// applyMetricsDefaults sets metrics defaults.
// Port defaults to 9090 if metrics are enabled.
func applyMetricsDefaults(cfg *MetricsConfig) {
	if cfg.Enabled && cfg.Port == 0 {
		cfg.Port = 9090
	}
}

func applyFeedDefaults(cfg *FeedConfig) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if cfg.Path == "" {
		cfg.Path = feed.DefaultPath
	}
	if cfg.FeedType == "" {
		cfg.FeedType = "all"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
}

// applyCacheDefaults sets cache defaults. The badger store lives under
// $XDG_CACHE_HOME/feedpager unless a path is configured.
func applyCacheDefaults(cfg *CacheConfig) {
	if cfg.Type == "" {
		cfg.Type = "badger"
	}
	if cfg.Namespace == "" {
		cfg.Namespace = "feed"
	}
	if cfg.Type == "badger" {
		if cfg.Badger == nil {
			cfg.Badger = map[string]any{}
		}
		if _, ok := cfg.Badger["path"]; !ok {
			if inMemory, _ := cfg.Badger["in_memory"].(bool); !inMemory {
				cfg.Badger["path"] = filepath.Join(cacheDir(), "badger")
			}
		}
	}
}

func applySessionDefaults(cfg *SessionConfig) {
	if cfg.PageSize == 0 {
		cfg.PageSize = pager.DefaultPageSize
	}
}

func applyLoaderDefaults(cfg *pager.LoaderConfig) {
	if cfg.Workers == 0 {
		cfg.Workers = pager.DefaultWorkers
	}
	if cfg.QueueSize == 0 {
		cfg.QueueSize = pager.DefaultQueueSize
	}
}

// cacheDir returns $XDG_CACHE_HOME/feedpager, falling back to
// ~/.cache/feedpager.
func cacheDir() string {
	if xdgCache := os.Getenv("XDG_CACHE_HOME"); xdgCache != "" {
		return filepath.Join(xdgCache, "feedpager")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".feedpager-cache")
	}
	return filepath.Join(home, ".cache", "feedpager")
}

// GetDefaultConfig returns a Config struct with all default values applied.
//
// This is useful for:
//   - Generating sample configuration files
//   - Testing
//   - Documentation
func GetDefaultConfig() *Config {
	cfg := &Config{
		Session: SessionConfig{
			Strategy: pager.CacheThenNet,
		},
		Loader: pager.LoaderConfig{
			FetchTimeout: pager.DefaultFetchTimeout,
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
