package apicall

import (
	"maps"

	"github.com/kbukum/apikit/validation"
)

// HeaderPolicy decides how Descriptor headers combine with the defaults.
type HeaderPolicy string

const (
	// HeaderReplace uses the descriptor's headers instead of the defaults
	// whenever it supplies any.
	HeaderReplace HeaderPolicy = "replace"
	// HeaderMerge sets the descriptor's headers over the defaults.
	HeaderMerge HeaderPolicy = "merge"
)

// DefaultMaxErrorBodySize caps how much of a failed response is kept.
const DefaultMaxErrorBodySize int64 = 64 << 10

// DefaultHeaders returns the headers sent when a descriptor has none.
func DefaultHeaders() map[string]string {
	return map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
}

// Config configures a Dispatcher.
type Config struct {
	// BaseURL is prefixed to relative endpoints.
	BaseURL      string       `yaml:"base_url" mapstructure:"base_url" validate:"omitempty,url"`
	HeaderPolicy HeaderPolicy `yaml:"header_policy" mapstructure:"header_policy" validate:"omitempty,oneof=replace merge"`
	// DefaultHeaders replaces DefaultHeaders() when non-nil.
	DefaultHeaders map[string]string `yaml:"default_headers" mapstructure:"default_headers" validate:"omitempty,dive,keys,header_name,endkeys"`
	// MaxErrorBodySize bounds the body kept on an HTTPError.
	MaxErrorBodySize int64 `yaml:"max_error_body_size" mapstructure:"max_error_body_size" validate:"gte=0"`
}

// ApplyDefaults fills unset fields.
func (c *Config) ApplyDefaults() {
	if c.HeaderPolicy == "" {
		c.HeaderPolicy = HeaderReplace
	}
	if c.DefaultHeaders == nil {
		c.DefaultHeaders = DefaultHeaders()
	} else {
		c.DefaultHeaders = maps.Clone(c.DefaultHeaders)
	}
	if c.MaxErrorBodySize == 0 {
		c.MaxErrorBodySize = DefaultMaxErrorBodySize
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	return validation.Validate(c)
}
