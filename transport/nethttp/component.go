package nethttp

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/kbukum/apikit/component"
	"github.com/kbukum/apikit/transport"
)

// Component wraps a Client with lifecycle management for a
// component.Registry. The client is created in Start.
type Component struct {
	config Config
	opts   []Option

	mu     sync.RWMutex
	client *Client
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
	_ transport.Transport   = (*Component)(nil)
)

// NewComponent creates a component for cfg.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, opts: opts}
}

// Name returns the configured backend name.
func (c *Component) Name() string { return c.config.Name }

// Start builds the client.
func (c *Component) Start(_ context.Context) error {
	client, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.client = client
	c.mu.Unlock()
	return nil
}

// Stop drops pooled connections. In-flight streams keep their own.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.client != nil {
		c.client.CloseIdleConnections()
		c.client = nil
	}
	return nil
}

// Health reports healthy once started.
func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if c.Client() == nil {
		h.Status = component.StatusUnhealthy
		h.Message = "not started"
	}
	return h
}

// Describe summarises the backend for startup logs.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("timeout=%s chunk=%dB http2=%t tls=%t", c.config.Timeout, c.config.ChunkSize,
		c.config.HTTP2, c.config.TLS.IsEnabled())
	if c.config.Throttle != nil {
		details += fmt.Sprintf(" throttle=%.0frps", c.config.Throttle.RPS)
	}
	return component.Description{Name: c.Name(), Type: "transport", Details: details}
}

// Client returns the running client, or nil before Start.
func (c *Component) Client() *Client {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.client
}

// Dispatch forwards to the running client.
func (c *Component) Dispatch(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	client := c.Client()
	if client == nil {
		return nil, transport.NewInvalidRequestError(req.Method, req.Endpoint, errNotStarted)
	}
	return client.Dispatch(ctx, req)
}

var errNotStarted = errors.New("nethttp: component not started")
