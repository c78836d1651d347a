package client

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kbukum/apikit/apicall"
	"github.com/kbukum/apikit/auth"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/transport/adapter"
)

// Option configures a Client during New.
type Option func(*options)

type options struct {
	logger     *logger.Logger
	tokens     auth.TokenStore
	base       transport.Transport
	registerer prometheus.Registerer
	observers  []apicall.Observer
	requests   []adapter.RequestInterceptor
	responses  []adapter.ResponseInterceptor
	middleware []transport.Middleware
}

// WithLogger sets the client logger. By default one is built from
// Config.Logging.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithTokenStore overrides the store selected by Config.Auth.
func WithTokenStore(s auth.TokenStore) Option {
	return func(o *options) { o.tokens = s }
}

// WithTransport replaces the HTTP backend. The HTTP component is then
// not registered.
func WithTransport(t transport.Transport) Option {
	return func(o *options) { o.base = t }
}

// WithRegisterer sets where Prometheus metrics are registered.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithObserver adds dispatch observers after the built-in ones.
func WithObserver(obs ...apicall.Observer) Option {
	return func(o *options) { o.observers = append(o.observers, obs...) }
}

// WithRequestInterceptor adds request interceptors after the built-in ones.
func WithRequestInterceptor(ics ...adapter.RequestInterceptor) Option {
	return func(o *options) { o.requests = append(o.requests, ics...) }
}

// WithResponseInterceptor adds response interceptors.
func WithResponseInterceptor(ics ...adapter.ResponseInterceptor) Option {
	return func(o *options) { o.responses = append(o.responses, ics...) }
}

// WithMiddleware adds transport middleware inside the built-in ones.
func WithMiddleware(mws ...transport.Middleware) Option {
	return func(o *options) { o.middleware = append(o.middleware, mws...) }
}
