package apicall

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/validation"
)

// Handle binds one logical endpoint to a Dispatcher. It carries no
// per-call state and is safe for concurrent use.
type Handle struct {
	apiName    string
	factory    OptionsFunc
	dispatcher *Dispatcher
}

// Define creates a Handle. The name must be non-empty and the factory
// and dispatcher non-nil.
func Define(apiName string, factory OptionsFunc, dispatcher *Dispatcher) (*Handle, error) {
	v := validation.New().
		Required("api_name", apiName).
		NotNil("factory", factory).
		NotNil("dispatcher", dispatcher)
	if err := v.Validate(); err != nil {
		return nil, errors.InvalidDefinition(strings.TrimSpace(apiName), err.Message).WithCause(err)
	}
	return &Handle{apiName: apiName, factory: factory, dispatcher: dispatcher}, nil
}

// Define is shorthand for Define(apiName, factory, d).
func (d *Dispatcher) Define(apiName string, factory OptionsFunc) (*Handle, error) {
	return Define(apiName, factory, d)
}

// APIName returns the name given at definition.
func (h *Handle) APIName() string { return h.apiName }

// Descriptor applies the factory to params without dispatching.
func (h *Handle) Descriptor(params Params) Descriptor {
	if params == nil {
		params = Params{}
	}
	return h.factory(params)
}

// QueryFn builds the descriptor for params and executes it. onStreaming
// receives chunks when the descriptor is streaming; a streaming call
// without it fails with ErrSinkRequired once a body is known to exist.
func (h *Handle) QueryFn(ctx context.Context, params Params, onStreaming Sink) (any, error) {
	return h.dispatcher.Dispatch(ctx, h.apiName, h.Descriptor(params), onStreaming)
}

// QueryFunc returns QueryFn as a plain function value.
func (h *Handle) QueryFunc() QueryFunc { return h.QueryFn }

// QueryAs executes a non-streaming handle and decodes the JSON body into T.
func QueryAs[T any](ctx context.Context, h *Handle, params Params) (T, error) {
	var zero T
	desc := h.Descriptor(params)
	if desc.Streaming {
		return zero, errors.InvalidInput("streaming", "QueryAs cannot decode a streaming call").
			WithDetail("api", h.apiName)
	}

	v, err := h.dispatcher.execute(ctx, h.apiName, desc, nil, func(data []byte) (any, error) {
		var out T
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	if err != nil || v == nil {
		return zero, err
	}
	return v.(T), nil
}
