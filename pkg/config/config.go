package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/marmos91/feedpager/internal/bytesize"
	"github.com/marmos91/feedpager/pkg/feedserver"
	"github.com/marmos91/feedpager/pkg/pager"
)

// Config represents the feedpager configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (FEEDPAGER_*)
//  3. Configuration file (YAML or TOML)
//  4. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry distributed tracing
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Metrics contains Prometheus metrics server configuration
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`

	// Feed selects the remote feed the pager reads from
	Feed FeedConfig `mapstructure:"feed" yaml:"feed"`

	// Cache selects the cache store backing the cache tier
	Cache CacheConfig `mapstructure:"cache" yaml:"cache"`

	// Session controls paging behavior
	Session SessionConfig `mapstructure:"session" yaml:"session"`

	// Loader sizes the fetch worker pool
	Loader pager.LoaderConfig `mapstructure:"loader" yaml:"loader"`

	// Server configures the demo feed server started by 'feedpager serve'
	Server feedserver.Config `mapstructure:"server" yaml:"server"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
// When enabled, trace data is exported to an OTLP-compatible collector.
type TelemetryConfig struct {
	// Enabled controls whether distributed tracing is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure controls whether to use insecure (non-TLS) connection
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate controls the trace sampling rate (0.0 to 1.0)
	// Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled
	// Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server endpoint (URL)
	// Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes specifies which profile types to collect
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// MetricsConfig configures the Prometheus metrics HTTP server.
// When Enabled is false, no metrics are collected.
type MetricsConfig struct {
	// Enabled controls whether metrics collection and HTTP server are enabled
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Port is the HTTP port for the metrics endpoint
	// Default: 9090
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`
}

// FeedConfig selects the remote feed.
type FeedConfig struct {
	// BaseURL is the root of the feed API
	// Default: "http://localhost:8080"
	BaseURL string `mapstructure:"base_url" validate:"required,url" yaml:"base_url"`

	// Path is the feed endpoint
	// Default: "/feeds/queryHotFeedsList"
	Path string `mapstructure:"path" validate:"required" yaml:"path"`

	// FeedType filters posts: all, text, image, video
	// Default: "all"
	FeedType string `mapstructure:"feed_type" validate:"omitempty,oneof=all text image video" yaml:"feed_type"`

	// UserID is sent as the userId parameter
	UserID int64 `mapstructure:"user_id" yaml:"user_id"`

	// Token is sent as a Bearer token when set
	Token string `mapstructure:"token" yaml:"token"`

	// Timeout bounds a single HTTP request
	// Default: 30s
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// CacheConfig selects the cache store backing the cache tier.
//
// Backend settings are kept as raw maps and decoded by CreateCacheStore
// into the backend's own Config type.
type CacheConfig struct {
	// Type is the store backend: memory, badger, sqlite, postgres, s3
	// Default: "badger"
	Type string `mapstructure:"type" validate:"required,oneof=memory badger sqlite postgres s3" yaml:"type"`

	// Namespace prefixes every cache key
	// Default: "feed"
	Namespace string `mapstructure:"namespace" yaml:"namespace"`

	// MaxAge turns older entries into misses. 0 keeps entries forever.
	MaxAge time.Duration `mapstructure:"max_age" validate:"gte=0" yaml:"max_age"`

	// MaxEntrySize skips caching pages that encode to more bytes, e.g. "1MiB".
	// 0 means no limit.
	MaxEntrySize bytesize.Size `mapstructure:"max_entry_size" yaml:"max_entry_size"`

	Badger   map[string]any `mapstructure:"badger" yaml:"badger,omitempty"`
	SQLite   map[string]any `mapstructure:"sqlite" yaml:"sqlite,omitempty"`
	Postgres map[string]any `mapstructure:"postgres" yaml:"postgres,omitempty"`
	S3       map[string]any `mapstructure:"s3" yaml:"s3,omitempty"`
}

// SessionConfig controls paging behavior.
type SessionConfig struct {
	// Strategy is the cache strategy of the first page:
	// CACHE_ONLY, NET_ONLY, NET_CACHE, CACHE_THEN_NET
	// Default: CACHE_THEN_NET
	Strategy pager.Strategy `mapstructure:"strategy" yaml:"strategy"`

	// PageSize is the default number of items per page
	// Default: 20
	PageSize int `mapstructure:"page_size" validate:"gte=0" yaml:"page_size"`

	// Strict panics on protocol violations instead of logging them
	Strict bool `mapstructure:"strict" yaml:"strict"`
}

// PagerConfig converts the section to a pager.Config.
func (c SessionConfig) PagerConfig(name string) pager.Config {
	return pager.Config{
		Name:     name,
		Strategy: c.Strategy,
		PageSize: c.PageSize,
		Strict:   c.Strict,
	}
}

// Load loads configuration from file, environment, and defaults.
//
// Configuration precedence (highest to lowest):
//  1. Environment variables (FEEDPAGER_*)
//  2. Configuration file
//  3. Default values
func Load(configPath string) (*Config, error) {
	v := viper.New()

	setupViper(v, configPath)

	if err := setViperDefaults(v); err != nil {
		return nil, err
	}

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	return decode(v)
}

// decode unmarshals, defaults and validates the current viper state.
func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration with helpful error messages.
// It checks if the config file exists and provides user-friendly instructions if not.
func MustLoad(configPath string) (*Config, error) {
	if configPath == "" {
		if !DefaultConfigExists() {
			return nil, fmt.Errorf("no configuration file found at default location: %s\n\n"+
				"Please initialize a configuration file first:\n"+
				"  feedpager config init\n\n"+
				"Or specify a custom config file:\n"+
				"  feedpager <command> --config /path/to/config.yaml",
				GetDefaultConfigPath())
		}
		configPath = GetDefaultConfigPath()
	} else {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  feedpager config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves the configuration to the specified file path in YAML.
func SaveConfig(cfg *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// 0600: the file may hold a feed token or a signing secret.
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// setupViper configures viper with environment variables and config file settings.
func setupViper(v *viper.Viper, configPath string) {
	// Example: FEEDPAGER_LOGGING_LEVEL=DEBUG
	v.SetEnvPrefix("FEEDPAGER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Default location: $XDG_CONFIG_HOME/feedpager/config.{yaml,toml}
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// setViperDefaults registers every key of the default config so that
// environment variables resolve even without a config file.
func setViperDefaults(v *viper.Viper) error {
	data, err := yaml.Marshal(GetDefaultConfig())
	if err != nil {
		return fmt.Errorf("failed to marshal defaults: %w", err)
	}

	var tree map[string]any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to unmarshal defaults: %w", err)
	}

	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, val := range m {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if sub, ok := val.(map[string]any); ok {
				walk(key, sub)
				continue
			}
			v.SetDefault(key, val)
		}
	}
	walk("", tree)
	return nil
}

// readConfigFile reads the configuration file if it exists.
// Returns (fileFound, error) where fileFound indicates if a config file was found.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return false, nil
		}
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}

	return true, nil
}

// configDecodeHooks returns a combined decode hook for all custom types:
// time.Duration strings and text-encoded types such as pager.Strategy.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.TextUnmarshallerHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook returns a mapstructure decode hook that converts strings
// to time.Duration. This enables config files to use human-readable durations
// like "30s", "5m", "1h".
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			// Raw integers are nanoseconds
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns the configuration directory path.
//
// Uses XDG_CONFIG_HOME if set, otherwise ~/.config, or falls back to current
// directory (.) if home directory cannot be determined.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "feedpager")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}

	return filepath.Join(home, ".config", "feedpager")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
