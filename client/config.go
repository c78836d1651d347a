package client

import (
	"github.com/kbukum/apikit/apicall"
	"github.com/kbukum/apikit/config"
	"github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/observability"
	"github.com/kbukum/apikit/resilience"
	"github.com/kbukum/apikit/transport/nethttp"
)

// Config is the complete client configuration.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	API           apicall.Config       `yaml:"api" mapstructure:"api"`
	HTTP          nethttp.Config       `yaml:"http" mapstructure:"http"`
	Observability observability.Config `yaml:"observability" mapstructure:"observability"`
	Resilience    ResilienceConfig     `yaml:"resilience" mapstructure:"resilience"`
	Auth          AuthConfig           `yaml:"auth" mapstructure:"auth"`
	Metrics       MetricsConfig        `yaml:"metrics" mapstructure:"metrics"`
}

// ResilienceConfig enables resilience middleware. Nil sections are off.
type ResilienceConfig struct {
	CircuitBreaker *resilience.CircuitBreakerConfig `yaml:"circuit_breaker" mapstructure:"circuit_breaker"`
	RateLimit      *resilience.RateLimiterConfig    `yaml:"rate_limit" mapstructure:"rate_limit"`
	Bulkhead       *resilience.BulkheadConfig       `yaml:"bulkhead" mapstructure:"bulkhead"`
}

// AuthConfig selects the token store. An empty TokenDir keeps the token
// in memory.
type AuthConfig struct {
	TokenDir string `yaml:"token_dir" mapstructure:"token_dir"`
	// EncryptionKey encrypts the token file when set.
	EncryptionKey string `yaml:"encryption_key" mapstructure:"encryption_key"`
}

// MetricsConfig toggles the Prometheus collector.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled" mapstructure:"enabled"`
}

// GetServiceConfig returns the embedded service section.
func (c *Config) GetServiceConfig() *config.ServiceConfig { return &c.ServiceConfig }

// ApplyDefaults fills unset fields in every section.
func (c *Config) ApplyDefaults() {
	c.ServiceConfig.ApplyDefaults()
	c.API.ApplyDefaults()
	if c.HTTP.Name == "" && c.Name != "" {
		c.HTTP.Name = c.Name + "-http"
	}
	c.HTTP.ApplyDefaults()
	if c.Observability.ServiceName == "" {
		c.Observability.ServiceName = c.Name
	}
	if c.Observability.Environment == "" {
		c.Observability.Environment = c.Environment
	}
	c.Observability.ApplyDefaults()

	r := &c.Resilience
	if r.CircuitBreaker != nil && r.CircuitBreaker.Name == "" {
		r.CircuitBreaker.Name = c.Name
	}
	if r.RateLimit != nil && r.RateLimit.Name == "" {
		r.RateLimit.Name = c.Name
	}
	if r.Bulkhead != nil && r.Bulkhead.Name == "" {
		r.Bulkhead.Name = c.Name
	}
}

// Validate checks every section, naming the one that failed.
func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	sections := []struct {
		name     string
		validate func() error
	}{
		{"api", c.API.Validate},
		{"http", c.HTTP.Validate},
		{"observability", c.Observability.Validate},
	}
	for _, s := range sections {
		if err := s.validate(); err != nil {
			return errors.InvalidConfig(s.name, err.Error()).WithCause(err)
		}
	}
	if c.Auth.EncryptionKey != "" && c.Auth.TokenDir == "" {
		return errors.InvalidConfig("auth", "encryption_key requires token_dir")
	}
	return nil
}

// Load reads the configuration for serviceName from config files and
// the environment, then applies defaults and validates it.
func Load(serviceName string, opts ...config.LoaderOption) (*Config, error) {
	cfg := &Config{}
	if err := config.LoadConfig(serviceName, cfg, opts...); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = serviceName
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
