package client

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/apikit/apicall"
	"github.com/kbukum/apikit/auth"
	"github.com/kbukum/apikit/component"
	"github.com/kbukum/apikit/encryption"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/metrics"
	"github.com/kbukum/apikit/observability"
	"github.com/kbukum/apikit/resilience"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/transport/adapter"
	"github.com/kbukum/apikit/transport/nethttp"
	"github.com/kbukum/apikit/version"
)

// Client owns the components behind a Dispatcher and their lifecycle.
//
// Middleware runs outermost first: tracing, circuit breaker, bulkhead,
// rate limit, then any WithMiddleware additions.
type Client struct {
	cfg        *Config
	log        *logger.Logger
	components *component.Registry
	http       *nethttp.Component
	transport  transport.Transport
	dispatcher *apicall.Dispatcher
	tokens     auth.TokenStore
	collector  *metrics.Collector
	breaker    *resilience.CircuitBreaker

	onStart []Hook
	onStop  []Hook
}

// New validates cfg and assembles a client. Nothing touches the network
// until Start.
func New(cfg *Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	c := &Client{cfg: cfg, log: o.logger}
	if c.log == nil {
		c.log = logger.New(&cfg.Logging, cfg.Name)
	}
	c.components = component.NewRegistry(c.log)

	tokens, err := c.tokenStore(o)
	if err != nil {
		return nil, err
	}
	c.tokens = tokens

	if err := c.components.Register(observability.NewComponent(cfg.Observability)); err != nil {
		return nil, err
	}
	base := o.base
	if base == nil {
		c.http = nethttp.NewComponent(cfg.HTTP, nethttp.WithLogger(c.log))
		if err := c.components.Register(c.http); err != nil {
			return nil, err
		}
		base = c.http
	}

	if cfg.Metrics.Enabled {
		reg := o.registerer
		if reg == nil {
			reg = prometheus.NewRegistry()
		}
		c.collector = metrics.NewCollector(reg)
	}

	adapterOpts := []adapter.Option{
		adapter.WithRequestInterceptor(adapter.RequestID(), adapter.BearerToken(c.tokens)),
		adapter.WithRequestInterceptor(o.requests...),
		adapter.WithResponseInterceptor(o.responses...),
		adapter.WithMiddleware(c.middleware(o)...),
	}
	if cfg.Debug {
		adapterOpts = append(adapterOpts, adapter.WithLogging(c.log))
	}
	c.transport, err = adapter.New(base, adapterOpts...)
	if err != nil {
		return nil, err
	}

	observers, err := c.observers(o)
	if err != nil {
		return nil, err
	}
	c.dispatcher, err = apicall.NewDispatcher(c.transport, cfg.API,
		apicall.WithLogger(c.log),
		apicall.WithObserver(apicall.Observers(observers...)),
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Client) tokenStore(o *options) (auth.TokenStore, error) {
	if o.tokens != nil {
		return o.tokens, nil
	}
	if c.cfg.Auth.TokenDir == "" {
		return auth.NewMemoryStore(), nil
	}
	var fileOpts []auth.FileOption
	if key := c.cfg.Auth.EncryptionKey; key != "" {
		enc, err := encryption.New(key)
		if err != nil {
			return nil, fmt.Errorf("token encryption: %w", err)
		}
		fileOpts = append(fileOpts, auth.WithEncryptor(enc))
	}
	return auth.NewFileStore(c.cfg.Auth.TokenDir, fileOpts...)
}

func (c *Client) middleware(o *options) []transport.Middleware {
	var mws []transport.Middleware
	if c.cfg.Observability.Enabled {
		mws = append(mws, observability.TracingMiddleware())
	}
	r := c.cfg.Resilience
	if r.CircuitBreaker != nil {
		cbCfg := *r.CircuitBreaker
		if c.collector != nil && cbCfg.OnStateChange == nil {
			cbCfg.OnStateChange = c.collector.RecordBreakerState
		}
		c.breaker = resilience.NewCircuitBreaker(cbCfg)
		mws = append(mws, adapter.CircuitBreaker(c.breaker))
	}
	if r.Bulkhead != nil {
		mws = append(mws, adapter.Bulkhead(resilience.NewBulkhead(*r.Bulkhead)))
	}
	if r.RateLimit != nil {
		mws = append(mws, adapter.RateLimit(resilience.NewRateLimiter(*r.RateLimit)))
	}
	return append(mws, o.middleware...)
}

func (c *Client) observers(o *options) ([]apicall.Observer, error) {
	var obs []apicall.Observer
	if c.collector != nil {
		obs = append(obs, c.collector)
	}
	if c.cfg.Observability.Enabled {
		// The global meter forwards to the provider installed on Start.
		dm, err := observability.NewDispatchMeter(observability.Meter(observability.InstrumentationName))
		if err != nil {
			return nil, err
		}
		obs = append(obs, dm)
	}
	return append(obs, o.observers...), nil
}

// Start starts every component, then runs OnStart hooks.
func (c *Client) Start(ctx context.Context) error {
	start := time.Now()
	if err := c.components.StartAll(ctx); err != nil {
		return err
	}
	if err := runHooks(ctx, c.onStart); err != nil {
		return fmt.Errorf("onStart: %w", err)
	}
	c.log.Info("client started", logger.Fields(
		"name", c.cfg.Name,
		"version", version.Short(),
		"base_url", c.cfg.API.BaseURL,
		logger.FieldDuration, time.Since(start).Milliseconds(),
	))
	return nil
}

// Stop runs OnStop hooks and stops components in reverse order. Errors
// from both are joined.
func (c *Client) Stop(ctx context.Context) error {
	hookErr := runHooks(ctx, c.onStop)
	if hookErr != nil {
		c.log.Error("onStop hook failed", logger.ErrorFields("stop", hookErr))
	}
	return errors.Join(hookErr, c.components.StopAll(ctx))
}

// Health reports the aggregated component health.
func (c *Client) Health(ctx context.Context) observability.ServiceHealth {
	return observability.Summarize(c.cfg.Name, version.Short(), c.components.HealthAll(ctx))
}

// Define registers an API on the client's dispatcher.
func (c *Client) Define(apiName string, factory apicall.OptionsFunc) (*apicall.Handle, error) {
	return c.dispatcher.Define(apiName, factory)
}

// Config returns the validated configuration.
func (c *Client) Config() *Config { return c.cfg }

func (c *Client) Logger() *logger.Logger { return c.log }

func (c *Client) Dispatcher() *apicall.Dispatcher { return c.dispatcher }

// Transport returns the fully decorated transport the dispatcher uses.
func (c *Client) Transport() transport.Transport { return c.transport }

func (c *Client) Tokens() auth.TokenStore { return c.tokens }

func (c *Client) Components() *component.Registry { return c.components }

// Metrics returns the Prometheus collector, nil unless Config.Metrics is
// enabled.
func (c *Client) Metrics() *metrics.Collector { return c.collector }

// CircuitBreaker returns the breaker, nil unless configured.
func (c *Client) CircuitBreaker() *resilience.CircuitBreaker { return c.breaker }
