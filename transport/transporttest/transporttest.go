// Package transporttest provides in-memory transports and bodies for
// tests of code built on transport.Transport.
package transporttest

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"

	"github.com/kbukum/apikit/transport"
)

// RecordedRequest is a dispatched request with its body read.
type RecordedRequest struct {
	Endpoint  string
	Method    string
	Header    http.Header
	Body      []byte
	Streaming bool
}

// Mock is a Transport that records requests and replays scripted
// responses in order. When the script runs out, the last entry repeats.
type Mock struct {
	mu       sync.Mutex
	script   []func() (*transport.Response, error)
	requests []RecordedRequest
}

// NewMock creates an empty mock; Dispatch fails until a reply is queued.
func NewMock() *Mock { return &Mock{} }

// Reply queues a response built fresh for each use, so bodies are never
// shared between dispatches.
func (m *Mock) Reply(fn func() *transport.Response) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, func() (*transport.Response, error) { return fn(), nil })
	return m
}

// Fail queues a dispatch error.
func (m *Mock) Fail(err error) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.script = append(m.script, func() (*transport.Response, error) { return nil, err })
	return m
}

// Dispatch implements transport.Transport.
func (m *Mock) Dispatch(ctx context.Context, req *transport.Request) (*transport.Response, error) {
	rec := RecordedRequest{
		Endpoint:  req.Endpoint,
		Method:    req.Method,
		Header:    req.Header.Clone(),
		Streaming: req.Streaming,
	}
	if req.Body != nil {
		body, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, err
		}
		rec.Body = body
	}

	m.mu.Lock()
	m.requests = append(m.requests, rec)
	var next func() (*transport.Response, error)
	switch {
	case len(m.script) > 1:
		next, m.script = m.script[0], m.script[1:]
	case len(m.script) == 1:
		next = m.script[0]
	}
	m.mu.Unlock()

	if next == nil {
		return nil, errors.New("transporttest: no reply scripted")
	}
	if err := ctx.Err(); err != nil {
		return nil, transport.NewError(req.Method, req.Endpoint, err)
	}
	return next()
}

// Requests returns a copy of the recorded requests.
func (m *Mock) Requests() []RecordedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]RecordedRequest(nil), m.requests...)
}

// Calls returns the number of dispatches.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// JSON builds a response whose body is v encoded as JSON.
func JSON(status int, v any) *transport.Response {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return Raw(status, "application/json", data)
}

// Raw builds a response with a single-chunk body.
func Raw(status int, contentType string, body []byte) *transport.Response {
	resp := Status(status)
	resp.Header.Set("Content-Type", contentType)
	resp.Body = &Body{ChunkReader: transport.NewBytesBody(body)}
	return resp
}

// Chunks builds a 200 response streaming the given strings as separate chunks.
func Chunks(parts ...string) *transport.Response {
	chunks := make([][]byte, len(parts))
	for i, p := range parts {
		chunks[i] = []byte(p)
	}
	resp := Status(http.StatusOK)
	resp.Body = &Body{ChunkReader: transport.NewBytesBody(chunks...)}
	return resp
}

// Status builds a bodiless response.
func Status(status int) *transport.Response {
	return &transport.Response{
		Status:     status,
		StatusText: http.StatusText(status),
		Header:     make(http.Header),
	}
}

// Body wraps a ChunkReader and records how it was used.
type Body struct {
	transport.ChunkReader

	mu     sync.Mutex
	reads  int
	closed bool
}

func (b *Body) Next(ctx context.Context) (transport.Chunk, bool, error) {
	b.mu.Lock()
	b.reads++
	b.mu.Unlock()
	return b.ChunkReader.Next(ctx)
}

func (b *Body) Close() error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	return b.ChunkReader.Close()
}

// Reads returns the number of Next calls.
func (b *Body) Reads() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.reads
}

// Closed reports whether Close was called.
func (b *Body) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// FailingBody yields the given chunks and then fails with err.
func FailingBody(err error, parts ...string) *Body {
	return &Body{ChunkReader: &failing{err: err, rest: parts}}
}

type failing struct {
	err  error
	rest []string
}

func (f *failing) Next(context.Context) (transport.Chunk, bool, error) {
	if len(f.rest) == 0 {
		return nil, false, f.err
	}
	c := f.rest[0]
	f.rest = f.rest[1:]
	return transport.Chunk(c), true, nil
}

func (f *failing) Close() error { return nil }
