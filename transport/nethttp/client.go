package nethttp

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/http2"
	"golang.org/x/time/rate"

	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/transport"
)

// Client implements transport.Transport on net/http.
type Client struct {
	config    Config
	http      *http.Client
	stream    *http.Client
	transport *http.Transport
	log       *logger.Logger
}

var _ transport.Transport = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithLogger sets the logger. The default is the "nethttp" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(c *Client) { c.log = l }
}

// New builds a Client from cfg.
func New(cfg Config, opts ...Option) (*Client, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	base := http.DefaultTransport.(*http.Transport).Clone()
	tlsCfg, err := cfg.TLS.Build()
	if err != nil {
		return nil, err
	}
	if tlsCfg != nil {
		base.TLSClientConfig = tlsCfg
	}
	if cfg.HTTP2 {
		h2, err := http2.ConfigureTransports(base)
		if err != nil {
			return nil, fmt.Errorf("nethttp: configure http2: %w", err)
		}
		h2.ReadIdleTimeout = defaultHTTP2PingPeriod
	}

	var rt http.RoundTripper = base
	if cfg.Throttle != nil {
		rt = &throttle{
			next:    base,
			limiter: rate.NewLimiter(rate.Limit(cfg.Throttle.RPS), cfg.Throttle.Burst),
		}
	}

	c := &Client{
		config:    cfg,
		http:      &http.Client{Transport: rt, Timeout: cfg.Timeout},
		stream:    &http.Client{Transport: rt},
		transport: base,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.log == nil {
		c.log = logger.Get("nethttp")
	}
	return c, nil
}

// Dispatch sends req. Non-2xx statuses are not errors at this layer.
func (c *Client) Dispatch(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Endpoint, req.Body)
	if err != nil {
		return nil, transport.NewInvalidRequestError(req.Method, req.Endpoint, err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}
	if ua := c.config.userAgent(); ua != "" && httpReq.Header.Get("User-Agent") == "" {
		httpReq.Header.Set("User-Agent", ua)
	}

	client := c.http
	if req.Streaming {
		client = c.stream
	}
	resp, err := client.Do(httpReq)
	if err != nil {
		terr := transport.NewError(req.Method, req.Endpoint, err)
		fields := logger.RequestFields("", req.Method, req.Endpoint, req.Streaming)
		fields["code"] = string(terr.Code)
		c.log.WithContext(ctx).Debug("http exchange failed", fields)
		return nil, terr
	}

	out := &transport.Response{
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Header:     resp.Header,
	}
	if resp.Body == nil || nullBody(req.Method, resp.StatusCode) {
		if resp.Body != nil {
			_ = resp.Body.Close()
		}
		return out, nil
	}
	out.Body = transport.NewChunkReader(resp.Body, c.config.ChunkSize)
	return out, nil
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.transport.CloseIdleConnections()
}

// Config returns the effective configuration.
func (c *Client) Config() Config { return c.config }

// nullBody reports whether the exchange cannot carry a response body.
// A 200 with Content-Length 0 still has one; it is just empty.
func nullBody(method string, status int) bool {
	if method == http.MethodHead {
		return true
	}
	switch {
	case status >= 100 && status < 200:
		return true
	case status == http.StatusNoContent, status == http.StatusResetContent, status == http.StatusNotModified:
		return true
	}
	return false
}

// statusText strips the numeric prefix from resp.Status ("404 Not Found").
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		text = http.StatusText(resp.StatusCode)
	}
	return text
}

// throttle delays each round trip until the limiter grants a token.
type throttle struct {
	next    http.RoundTripper
	limiter *rate.Limiter
}

func (t *throttle) RoundTrip(req *http.Request) (*http.Response, error) {
	if err := t.limiter.Wait(req.Context()); err != nil {
		if ctxErr := req.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		// Wait refuses up front when the deadline is too close for a token.
		return nil, fmt.Errorf("nethttp: throttled: %w (%v)", context.DeadlineExceeded, err)
	}
	return t.next.RoundTrip(req)
}
