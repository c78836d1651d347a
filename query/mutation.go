package query

import (
	"context"
	"sync"

	"github.com/kbukum/apikit/apicall"
)

// MutationOptions configures a Mutation.
type MutationOptions struct {
	ResourceName string
	// OnStreaming is the sink for streaming descriptors.
	OnStreaming apicall.Sink
	OnSuccess   func(data any)
	OnError     func(err error)
}

// Mutation runs a write against one handle and keeps its last result.
// It is safe for concurrent use.
type Mutation struct {
	handle *apicall.Handle
	opts   MutationOptions

	mu      sync.RWMutex
	raw     any
	err     error
	seq     uint64
	pending int
}

// NewMutation creates an idle Mutation.
func NewMutation(handle *apicall.Handle, opts MutationOptions) *Mutation {
	return &Mutation{handle: handle, opts: opts}
}

// Mutate dispatches with params and returns the raw result. OnSuccess or
// OnError is called before Mutate returns.
func (m *Mutation) Mutate(ctx context.Context, params apicall.Params) (any, error) {
	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.pending++
	m.mu.Unlock()

	raw, err := m.handle.QueryFn(ctx, params, m.opts.OnStreaming)

	m.mu.Lock()
	m.pending--
	if seq == m.seq {
		m.raw, m.err = raw, err
	}
	m.mu.Unlock()

	if err != nil {
		if m.opts.OnError != nil {
			m.opts.OnError(err)
		}
		return nil, err
	}
	if m.opts.OnSuccess != nil {
		m.opts.OnSuccess(raw)
	}
	return raw, nil
}

// RawData returns the latest result; nil after a failure.
func (m *Mutation) RawData() any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.raw
}

// Data returns the ResourceName selection of RawData.
func (m *Mutation) Data() any {
	return selectResource(m.RawData(), m.opts.ResourceName)
}

// Err returns the error of the latest mutation.
func (m *Mutation) Err() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.err
}

// Pending reports whether a mutation is in flight.
func (m *Mutation) Pending() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pending > 0
}

// Reset clears the stored result and error.
func (m *Mutation) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.raw, m.err = nil, nil
}
