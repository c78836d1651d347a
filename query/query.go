package query

import (
	"context"
	"maps"
	"sync"

	"github.com/kbukum/apikit/apicall"
	"github.com/kbukum/apikit/util"
)

// Options configures a Query.
type Options struct {
	// ResourceName selects part of the response for Data, as a dotted
	// path. Empty selects the whole response.
	ResourceName string
	// ManualLoad turns Load into a no-op, leaving the first dispatch to
	// Fetch or Refresh.
	ManualLoad bool
	// InitialParams are used until Fetch replaces them.
	InitialParams apicall.Params
}

// Query holds the state of a read against one handle. It is safe for
// concurrent use.
type Query struct {
	handle *apicall.Handle
	opts   Options

	mu       sync.RWMutex
	params   apicall.Params
	raw      any
	err      error
	seq      uint64
	inflight int
	loaded   bool
}

// New creates an idle Query; nothing is dispatched until Load, Fetch or
// Refresh.
func New(handle *apicall.Handle, opts Options) *Query {
	return &Query{handle: handle, opts: opts, params: maps.Clone(opts.InitialParams)}
}

// Load runs the initial fetch with the current parameters. It does
// nothing with ManualLoad set or once a fetch has completed.
func (q *Query) Load(ctx context.Context) error {
	q.mu.RLock()
	skip := q.opts.ManualLoad || q.loaded
	q.mu.RUnlock()
	if skip {
		return nil
	}
	return q.run(ctx)
}

// Fetch stores params and refetches when they are non-empty. Empty
// params are stored without dispatching.
func (q *Query) Fetch(ctx context.Context, params apicall.Params) error {
	q.mu.Lock()
	q.params = maps.Clone(params)
	q.mu.Unlock()
	if len(params) == 0 {
		return nil
	}
	return q.run(ctx)
}

// Refresh repeats the fetch with the current parameters.
func (q *Query) Refresh(ctx context.Context) error {
	return q.run(ctx)
}

func (q *Query) run(ctx context.Context) error {
	q.mu.Lock()
	q.seq++
	seq := q.seq
	q.inflight++
	params := maps.Clone(q.params)
	q.mu.Unlock()

	raw, err := q.handle.QueryFn(ctx, params, nil)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inflight--
	if seq != q.seq {
		return err
	}
	q.loaded = true
	q.err = err
	if err == nil {
		q.raw = raw
	}
	return err
}

// Params returns a copy of the current parameters.
func (q *Query) Params() apicall.Params {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return maps.Clone(q.params)
}

// RawData returns the last successful response.
func (q *Query) RawData() any {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.raw
}

// Data returns the ResourceName selection of RawData, or nil when the
// path does not exist.
func (q *Query) Data() any {
	return selectResource(q.RawData(), q.opts.ResourceName)
}

// Err returns the error of the latest completed call, nil after a success.
func (q *Query) Err() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.err
}

// Loading reports a call in flight before any has completed.
func (q *Query) Loading() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.inflight > 0 && !q.loaded
}

// Refreshing reports a call in flight after one has completed.
func (q *Query) Refreshing() bool {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.inflight > 0 && q.loaded
}

func selectResource(raw any, path string) any {
	v, _ := util.Lookup(raw, path)
	return v
}
