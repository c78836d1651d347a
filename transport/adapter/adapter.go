package adapter

import (
	"context"
	"net/http"
	"strings"

	"github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/transport"
)

// RequestInterceptor inspects or rewrites an outgoing request. It may
// return a derived context that the rest of the call runs under.
type RequestInterceptor func(ctx context.Context, req *transport.Request) (context.Context, error)

// ResponseInterceptor inspects a received response. Returning an error
// closes the response and fails the call.
type ResponseInterceptor func(ctx context.Context, req *transport.Request, resp *transport.Response) error

// Adapter is a transport.Transport built from a base transport plus
// interceptors and middleware. It is safe for concurrent use once built.
type Adapter struct {
	next       transport.Transport
	baseURL    string
	headers    http.Header
	requests   []RequestInterceptor
	responses  []ResponseInterceptor
	middleware []transport.Middleware
}

var _ transport.Transport = (*Adapter)(nil)

// Option configures an Adapter.
type Option func(*Adapter)

// WithBaseURL prefixes relative endpoints.
func WithBaseURL(baseURL string) Option {
	return func(a *Adapter) { a.baseURL = strings.TrimRight(baseURL, "/") }
}

// WithDefaultHeaders sets headers that requests do not already carry.
func WithDefaultHeaders(headers map[string]string) Option {
	return func(a *Adapter) {
		for k, v := range headers {
			a.headers.Set(k, v)
		}
	}
}

// WithRequestInterceptor appends request interceptors.
func WithRequestInterceptor(ics ...RequestInterceptor) Option {
	return func(a *Adapter) { a.requests = append(a.requests, ics...) }
}

// WithResponseInterceptor appends response interceptors.
func WithResponseInterceptor(ics ...ResponseInterceptor) Option {
	return func(a *Adapter) { a.responses = append(a.responses, ics...) }
}

// WithMiddleware appends middleware around the base transport. The
// first middleware given is outermost.
func WithMiddleware(mws ...transport.Middleware) Option {
	return func(a *Adapter) { a.middleware = append(a.middleware, mws...) }
}

// New builds an Adapter over base.
func New(base transport.Transport, opts ...Option) (*Adapter, error) {
	if base == nil {
		return nil, errors.MissingField("transport")
	}
	a := &Adapter{headers: make(http.Header)}
	for _, opt := range opts {
		opt(a)
	}
	a.next = transport.Chain(base, a.middleware...)
	return a, nil
}

// Dispatch runs the interceptors and middleware around one exchange.
// The caller's request is never modified.
func (a *Adapter) Dispatch(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	r := req.Clone()
	r.Endpoint = a.resolve(r.Endpoint)
	for k, v := range a.headers {
		if _, ok := r.Header[k]; !ok {
			r.Header[k] = append([]string(nil), v...)
		}
	}

	var err error
	for _, ic := range a.requests {
		if ctx, err = ic(ctx, r); err != nil {
			return nil, err
		}
	}

	resp, err := a.next.Dispatch(ctx, r)
	if err != nil {
		return nil, err
	}
	for _, ic := range a.responses {
		if err := ic(ctx, r, resp); err != nil {
			_ = resp.Close()
			return nil, err
		}
	}
	return resp, nil
}

func (a *Adapter) resolve(endpoint string) string {
	if a.baseURL == "" || strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return a.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}
