package apicall

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/validation"
)

// Builder turns Descriptors into transport requests. It is stateless
// after construction and safe for concurrent use.
type Builder struct {
	baseURL  string
	policy   HeaderPolicy
	defaults http.Header
}

// NewBuilder creates a Builder from cfg. cfg must already have defaults
// applied.
func NewBuilder(cfg Config) *Builder {
	defaults := make(http.Header, len(cfg.DefaultHeaders))
	for k, v := range cfg.DefaultHeaders {
		defaults.Set(k, v)
	}
	return &Builder{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		policy:   cfg.HeaderPolicy,
		defaults: defaults,
	}
}

// Build validates d and produces the request to dispatch.
func (b *Builder) Build(d Descriptor) (*transport.Request, error) {
	if err := validation.Validate(&d); err != nil {
		return nil, err
	}

	header := b.headers(d.Headers)
	body, contentType, err := encodeBody(d.Body)
	if err != nil {
		return nil, errors.InvalidInput("body", err.Error()).WithCause(err)
	}
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	return &transport.Request{
		Endpoint:  b.resolve(d.Endpoint),
		Method:    string(d.Method),
		Header:    header,
		Body:      body,
		Streaming: d.Streaming,
	}, nil
}

func (b *Builder) headers(explicit map[string]string) http.Header {
	var h http.Header
	if explicit == nil || b.policy == HeaderMerge {
		h = b.defaults.Clone()
	} else {
		h = make(http.Header, len(explicit))
	}
	for k, v := range explicit {
		h.Set(k, v)
	}
	return h
}

func (b *Builder) resolve(endpoint string) string {
	if b.baseURL == "" || strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	return b.baseURL + "/" + strings.TrimLeft(endpoint, "/")
}

// encodeBody picks the wire form of a descriptor body by its Go type.
// Only multipart bodies dictate a Content-Type.
func encodeBody(body any) (io.Reader, string, error) {
	switch v := body.(type) {
	case nil:
		return nil, "", nil
	case *transport.MultipartBody:
		if v == nil {
			return nil, "", nil
		}
		return v.Encode()
	case transport.MultipartBody:
		return v.Encode()
	case io.Reader:
		return v, "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("encode JSON body: %w", err)
		}
		return bytes.NewReader(data), "", nil
	}
}
