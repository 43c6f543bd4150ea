package feedserver

import "time"

// Config configures the demo feed server.
//
// When Auth.Enabled is true every feed request must carry a Bearer token
// signed with Auth.Secret. FailEvery > 0 fails every n-th feed request with
// 503 so clients can exercise their retry paths.
type Config struct {
	// Port is the HTTP port.
	// Default: 8080
	Port int `mapstructure:"port" validate:"omitempty,min=1,max=65535" yaml:"port"`

	// ReadTimeout is the maximum duration for reading the entire request.
	// Default: 10s
	ReadTimeout time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes of the response.
	// Default: 10s
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 60s
	IdleTimeout time.Duration `mapstructure:"idle_timeout" yaml:"idle_timeout"`

	// RequestTimeout bounds handler execution.
	// Default: 30s
	RequestTimeout time.Duration `mapstructure:"request_timeout" yaml:"request_timeout"`

	// Posts is the size of the generated catalog.
	// Default: 200
	Posts int `mapstructure:"posts" validate:"omitempty,min=0" yaml:"posts"`

	// Latency is added to every feed response.
	Latency time.Duration `mapstructure:"latency" yaml:"latency"`

	// FailEvery fails every n-th feed request. 0 disables fault injection.
	FailEvery int `mapstructure:"fail_every" validate:"omitempty,min=0" yaml:"fail_every"`

	// MaxPageCount caps pageCount.
	// Default: 100
	MaxPageCount int `mapstructure:"max_page_count" validate:"omitempty,min=1" yaml:"max_page_count"`

	Auth AuthConfig `mapstructure:"auth" yaml:"auth"`
}

// AuthConfig configures Bearer token authentication.
type AuthConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Secret is the HMAC signing key. Must be at least 32 characters.
	Secret string `mapstructure:"secret" validate:"required_if=Enabled true" yaml:"secret"`

	// Issuer is the token issuer claim.
	// Default: "feedpager"
	Issuer string `mapstructure:"issuer" yaml:"issuer"`

	// TokenDuration is the lifetime of issued tokens.
	// Default: 1h
	TokenDuration time.Duration `mapstructure:"token_duration" yaml:"token_duration"`
}

// ApplyDefaults fills in zero values with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Port <= 0 {
		c.Port = 8080
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 10 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 10 * time.Second
	}
	if c.IdleTimeout == 0 {
		c.IdleTimeout = 60 * time.Second
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.Posts == 0 {
		c.Posts = 200
	}
	if c.MaxPageCount == 0 {
		c.MaxPageCount = 100
	}
	if c.Auth.Issuer == "" {
		c.Auth.Issuer = "feedpager"
	}
	if c.Auth.TokenDuration == 0 {
		c.Auth.TokenDuration = time.Hour
	}
}
