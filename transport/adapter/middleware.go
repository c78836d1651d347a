package adapter

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/apikit/resilience"
	"github.com/kbukum/apikit/transport"
)

// CircuitBreaker fails fast with resilience.ErrCircuitOpen while cb is
// open. Transport errors, 5xx responses and body read failures count as
// failures. The outcome of a response with a body is recorded when the
// body is closed.
func CircuitBreaker(cb *resilience.CircuitBreaker) transport.Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			done, err := cb.Allow()
			if err != nil {
				return nil, err
			}
			resp, err := next.Dispatch(ctx, req)
			switch {
			case err != nil:
				done(false)
				return nil, err
			case resp.Status >= 500:
				done(false)
				return resp, nil
			case resp.Body == nil:
				done(true)
				return resp, nil
			}
			resp.Body = guard(resp.Body, done)
			return resp, nil
		})
	}
}

// RateLimit takes a token from rl before each dispatch.
func RateLimit(rl *resilience.RateLimiter) transport.Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			if err := rl.Take(ctx); err != nil {
				return nil, err
			}
			return next.Dispatch(ctx, req)
		})
	}
}

// Bulkhead bounds concurrent exchanges. A slot is held until the
// response body is closed.
func Bulkhead(b *resilience.Bulkhead) transport.Middleware {
	return func(next transport.Transport) transport.Transport {
		return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			release, err := b.Acquire(ctx)
			if err != nil {
				return nil, err
			}
			resp, err := next.Dispatch(ctx, req)
			if err != nil {
				release()
				return nil, err
			}
			if resp.Body == nil {
				release()
				return resp, nil
			}
			resp.Body = guard(resp.Body, func(bool) { release() })
			return resp, nil
		})
	}
}

// guardedBody reports once, on Close, whether every read succeeded.
type guardedBody struct {
	transport.ChunkReader
	failed atomic.Bool
	once   sync.Once
	done   func(ok bool)
}

func guard(body transport.ChunkReader, done func(ok bool)) *guardedBody {
	return &guardedBody{ChunkReader: body, done: done}
}

func (g *guardedBody) Next(ctx context.Context) (transport.Chunk, bool, error) {
	chunk, ok, err := g.ChunkReader.Next(ctx)
	if err != nil {
		g.failed.Store(true)
	}
	return chunk, ok, err
}

func (g *guardedBody) Close() error {
	err := g.ChunkReader.Close()
	g.once.Do(func() { g.done(!g.failed.Load()) })
	return err
}
