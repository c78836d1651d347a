package apicall

import (
	"context"
	"net/http"

	"github.com/kbukum/apikit/transport"
)

// Method is an HTTP method accepted in a Descriptor.
type Method string

const (
	MethodGet     Method = http.MethodGet
	MethodPost    Method = http.MethodPost
	MethodPut     Method = http.MethodPut
	MethodPatch   Method = http.MethodPatch
	MethodDelete  Method = http.MethodDelete
	MethodHead    Method = http.MethodHead
	MethodOptions Method = http.MethodOptions
)

// Descriptor is the resolved description of one invocation.
type Descriptor struct {
	Endpoint string `json:"endpoint" validate:"required"`
	Method   Method `json:"method" validate:"required,oneof=GET POST PUT PATCH DELETE HEAD OPTIONS"`
	// Body is nil (no body), an io.Reader or []byte (sent as is), a
	// *transport.MultipartBody, or any other value encoded as JSON.
	Body      any  `json:"-"`
	Streaming bool `json:"streaming"`
	// Headers, when non-nil, are combined with the configured defaults
	// according to the HeaderPolicy.
	Headers map[string]string `json:"headers,omitempty" validate:"omitempty,dive,keys,header_name,endkeys"`
}

// Params are the caller's per-invocation parameters.
type Params map[string]any

// OptionsFunc maps parameters to a Descriptor. It must be pure.
type OptionsFunc func(Params) Descriptor

// Sink receives streamed chunks synchronously, in arrival order. The
// next chunk is not read until Sink returns.
type Sink func(transport.Chunk)

// QueryFunc is the signature of Handle.QueryFn, for frameworks that take
// a plain function.
type QueryFunc func(ctx context.Context, params Params, onStreaming Sink) (any, error)
