package nethttp

import (
	"time"

	"github.com/kbukum/apikit/security"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/validation"
	"github.com/kbukum/apikit/version"
)

const (
	defaultTimeout         = 30 * time.Second
	defaultHTTP2PingPeriod = 30 * time.Second
)

// Config configures the net/http backend.
type Config struct {
	// Name identifies the backend in logs and health reports.
	Name string `yaml:"name" mapstructure:"name"`

	// Timeout bounds a non-streaming exchange, body included. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"`

	// ChunkSize is the largest chunk handed to readers. Defaults to
	// transport.DefaultChunkSize.
	ChunkSize int `yaml:"chunk_size" mapstructure:"chunk_size" validate:"gte=0"`

	// UserAgent is set on requests that carry none. Defaults to
	// version.UserAgent(); "-" disables it.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// HTTP2 configures the transport for HTTP/2 with connection health pings.
	HTTP2 bool `yaml:"http2" mapstructure:"http2"`

	TLS *security.TLSConfig `yaml:"tls" mapstructure:"tls"`

	// Throttle spaces outbound requests. Nil disables it.
	Throttle *ThrottleConfig `yaml:"throttle" mapstructure:"throttle"`
}

// ThrottleConfig is a token bucket: RPS tokens per second, up to Burst
// at once.
type ThrottleConfig struct {
	RPS   float64 `yaml:"rps" mapstructure:"rps" validate:"gt=0"`
	Burst int     `yaml:"burst" mapstructure:"burst" validate:"gte=0"`
}

// ApplyDefaults fills in zero-value fields. A Throttle that needs
// defaults is copied first; the caller's struct is left as it was.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "http"
	}
	if c.Timeout == 0 {
		c.Timeout = defaultTimeout
	}
	if c.ChunkSize == 0 {
		c.ChunkSize = transport.DefaultChunkSize
	}
	if c.UserAgent == "" {
		c.UserAgent = version.UserAgent()
	}
	if c.Throttle != nil && c.Throttle.Burst == 0 {
		t := *c.Throttle
		t.Burst = 1
		c.Throttle = &t
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if err := validation.Validate(c); err != nil {
		return err
	}
	return c.TLS.Validate()
}

func (c *Config) userAgent() string {
	if c.UserAgent == "-" {
		return ""
	}
	return c.UserAgent
}
