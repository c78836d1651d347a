package apicall

import (
	"bytes"
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"strings"
	"testing"

	"github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/transport"
)

func newTestBuilder(cfg Config) *Builder {
	cfg.ApplyDefaults()
	return NewBuilder(cfg)
}

func TestBuilderHeaderPolicy(t *testing.T) {
	tests := []struct {
		name     string
		policy   HeaderPolicy
		explicit map[string]string
		want     http.Header
	}{
		{
			name: "defaults when none supplied",
			want: http.Header{"Accept": {"application/json"}, "Content-Type": {"application/json"}},
		},
		{
			name:     "replace drops defaults",
			policy:   HeaderReplace,
			explicit: map[string]string{"X-Token": "abc"},
			want:     http.Header{"X-Token": {"abc"}},
		},
		{
			name:     "replace with empty set sends nothing",
			policy:   HeaderReplace,
			explicit: map[string]string{},
			want:     http.Header{},
		},
		{
			name:     "merge overlays defaults",
			policy:   HeaderMerge,
			explicit: map[string]string{"content-type": "text/plain", "X-Token": "abc"},
			want: http.Header{
				"Accept":       {"application/json"},
				"Content-Type": {"text/plain"},
				"X-Token":      {"abc"},
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBuilder(Config{HeaderPolicy: tc.policy})
			req, err := b.Build(Descriptor{Endpoint: "/x", Method: MethodGet, Headers: tc.explicit})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if len(req.Header) != len(tc.want) {
				t.Fatalf("headers = %v, want %v", req.Header, tc.want)
			}
			for k := range tc.want {
				if req.Header.Get(k) != tc.want.Get(k) {
					t.Errorf("%s = %q, want %q", k, req.Header.Get(k), tc.want.Get(k))
				}
			}
		})
	}
}

func TestBuilderDefaultsAreConfiguration(t *testing.T) {
	b := newTestBuilder(Config{DefaultHeaders: map[string]string{"Accept": "application/x-ndjson"}})
	req, _ := b.Build(Descriptor{Endpoint: "/x", Method: MethodGet})
	if req.Header.Get("Accept") != "application/x-ndjson" || req.Header.Get("Content-Type") != "" {
		t.Errorf("unexpected headers %v", req.Header)
	}

	other := newTestBuilder(Config{})
	req, _ = other.Build(Descriptor{Endpoint: "/x", Method: MethodGet})
	if req.Header.Get("Accept") != "application/json" {
		t.Error("builders must not share default headers")
	}
}

func TestBuilderRequestsDoNotShareHeaders(t *testing.T) {
	b := newTestBuilder(Config{HeaderPolicy: HeaderMerge})
	r1, _ := b.Build(Descriptor{Endpoint: "/x", Method: MethodGet})
	r1.Header.Set("Accept", "mutated")
	r2, _ := b.Build(Descriptor{Endpoint: "/x", Method: MethodGet})
	if r2.Header.Get("Accept") != "application/json" {
		t.Error("mutating one request leaked into the next")
	}
}

func TestBuilderBaseURL(t *testing.T) {
	tests := []struct {
		base, endpoint, want string
	}{
		{"", "/api/test", "/api/test"},
		{"https://api.example.com", "/users", "https://api.example.com/users"},
		{"https://api.example.com/v1/", "users", "https://api.example.com/v1/users"},
		{"https://api.example.com", "http://other.example.com/x", "http://other.example.com/x"},
	}
	for _, tc := range tests {
		b := newTestBuilder(Config{BaseURL: tc.base})
		req, err := b.Build(Descriptor{Endpoint: tc.endpoint, Method: MethodGet})
		if err != nil {
			t.Fatal(err)
		}
		if req.Endpoint != tc.want {
			t.Errorf("resolve(%q, %q) = %q, want %q", tc.base, tc.endpoint, req.Endpoint, tc.want)
		}
	}
}

func readBody(t *testing.T, r io.Reader) string {
	t.Helper()
	if r == nil {
		return ""
	}
	data, err := io.ReadAll(r)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

func TestBuilderBodyEncoding(t *testing.T) {
	reader := strings.NewReader("raw stream")

	tests := []struct {
		name     string
		body     any
		wantBody string
		sameBody io.Reader
	}{
		{name: "nil", body: nil, wantBody: ""},
		{name: "struct as JSON", body: struct {
			Name string `json:"name"`
		}{"ada"}, wantBody: `{"name":"ada"}`},
		{name: "map as JSON", body: map[string]any{"n": 1}, wantBody: `{"n":1}`},
		{name: "string as JSON", body: "hi", wantBody: `"hi"`},
		{name: "raw message", body: json.RawMessage(`{"pre":"encoded"}`), wantBody: `{"pre":"encoded"}`},
		{name: "bytes pass through", body: []byte{0x00, 0xff}, wantBody: "\x00\xff"},
		{name: "reader pass through", body: reader, sameBody: reader},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := newTestBuilder(Config{})
			req, err := b.Build(Descriptor{Endpoint: "/x", Method: MethodPost, Body: tc.body})
			if err != nil {
				t.Fatalf("Build: %v", err)
			}
			if tc.sameBody != nil {
				if req.Body != tc.sameBody {
					t.Error("reader must be passed through unchanged")
				}
				return
			}
			if tc.body == nil && req.Body != nil {
				t.Error("nil body must send no body")
			}
			if got := readBody(t, req.Body); got != tc.wantBody {
				t.Errorf("body = %q, want %q", got, tc.wantBody)
			}
			if req.Header.Get("Content-Type") != "application/json" {
				t.Errorf("content type changed to %q", req.Header.Get("Content-Type"))
			}
		})
	}
}

func TestBuilderMultipartOverridesContentType(t *testing.T) {
	b := newTestBuilder(Config{})
	body := &transport.MultipartBody{
		Fields: map[string]string{"title": "clip"},
		Files:  []transport.FileField{{FieldName: "audio", FileName: "a.wav", Data: []byte("RIFF")}},
	}
	req, err := b.Build(Descriptor{Endpoint: "/upload", Method: MethodPost, Body: body})
	if err != nil {
		t.Fatal(err)
	}
	mediaType, params, err := mime.ParseMediaType(req.Header.Get("Content-Type"))
	if err != nil || mediaType != "multipart/form-data" || params["boundary"] == "" {
		t.Fatalf("content type %q", req.Header.Get("Content-Type"))
	}
	if !bytes.Contains([]byte(readBody(t, req.Body)), []byte("RIFF")) {
		t.Error("file data missing from body")
	}
	if req.Header.Get("Accept") != "application/json" {
		t.Error("other default headers must remain")
	}
}

func TestBuilderNilMultipartSendsNoBody(t *testing.T) {
	b := newTestBuilder(Config{})
	req, err := b.Build(Descriptor{Endpoint: "/upload", Method: MethodPost, Body: (*transport.MultipartBody)(nil)})
	if err != nil {
		t.Fatal(err)
	}
	if req.Body != nil {
		t.Error("nil multipart body must send no body")
	}
	if req.Header.Get("Content-Type") != "application/json" {
		t.Errorf("content type = %q", req.Header.Get("Content-Type"))
	}
}

func TestBuilderValidation(t *testing.T) {
	b := newTestBuilder(Config{})
	_, err := b.Build(Descriptor{Method: "BREW"})
	appErr, ok := errors.AsAppError(err)
	if !ok || appErr.Code != errors.ErrCodeInvalidInput {
		t.Fatalf("expected INVALID_INPUT, got %v", err)
	}
	for _, want := range []string{"endpoint", "method"} {
		if !strings.Contains(appErr.Message, want) {
			t.Errorf("message %q lacks %q", appErr.Message, want)
		}
	}
}

func TestConfigDefaults(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.HeaderPolicy != HeaderReplace || cfg.MaxErrorBodySize != DefaultMaxErrorBodySize || len(cfg.DefaultHeaders) != 2 {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}

	custom := map[string]string{"Accept": "text/plain"}
	cfg = Config{DefaultHeaders: custom}
	cfg.ApplyDefaults()
	cfg.DefaultHeaders["Accept"] = "changed"
	if custom["Accept"] != "text/plain" {
		t.Error("ApplyDefaults must copy caller headers")
	}
}
