package transport

import (
	"context"
	"io"
	"net/http"
)

// Transport performs a single request/response exchange.
type Transport interface {
	Dispatch(ctx context.Context, req *Request) (*Response, error)
}

// Func adapts a function to Transport.
type Func func(ctx context.Context, req *Request) (*Response, error)

func (f Func) Dispatch(ctx context.Context, req *Request) (*Response, error) { return f(ctx, req) }

// Middleware decorates a Transport.
type Middleware func(Transport) Transport

// Chain wraps base so that the first middleware is outermost.
func Chain(base Transport, mws ...Middleware) Transport {
	for i := len(mws) - 1; i >= 0; i-- {
		if mws[i] != nil {
			base = mws[i](base)
		}
	}
	return base
}

// Request is a fully built outbound request.
type Request struct {
	Endpoint string
	Method   string
	Header   http.Header
	// Body is nil when no body is sent.
	Body io.Reader
	// Streaming asks the backend not to bound the exchange with its own
	// request timeout; the context still applies.
	Streaming bool
}

// Clone returns a copy with its own header map. The body is shared.
func (r *Request) Clone() *Request {
	c := *r
	c.Header = r.Header.Clone()
	if c.Header == nil {
		c.Header = make(http.Header)
	}
	return &c
}

// Response is what a Transport returns for a received reply.
type Response struct {
	Status     int
	StatusText string
	Header     http.Header
	// Body is nil when the response carries no body. The receiver must
	// Close a non-nil Body.
	Body ChunkReader
}

// OK reports whether Status is 2xx.
func (r *Response) OK() bool { return r.Status >= 200 && r.Status < 300 }

// Close closes the body if there is one.
func (r *Response) Close() error {
	if r == nil || r.Body == nil {
		return nil
	}
	return r.Body.Close()
}
