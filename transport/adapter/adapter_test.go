package adapter_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/kbukum/apikit/auth"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/transport/adapter"
	"github.com/kbukum/apikit/transport/transporttest"
)

func ok() *transport.Response { return transporttest.JSON(http.StatusOK, "ok") }

func get(endpoint string) *transport.Request {
	return &transport.Request{Endpoint: endpoint, Method: http.MethodGet, Header: make(http.Header)}
}

func newAdapter(t *testing.T, base transport.Transport, opts ...adapter.Option) *adapter.Adapter {
	t.Helper()
	a, err := adapter.New(base, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return a
}

func TestNewRequiresTransport(t *testing.T) {
	if _, err := adapter.New(nil); err == nil {
		t.Error("expected error for nil transport")
	}
}

func TestBaseURLAndDefaultHeaders(t *testing.T) {
	mock := transporttest.NewMock().Reply(ok)
	a := newAdapter(t, mock,
		adapter.WithBaseURL("https://api.example.com/"),
		adapter.WithDefaultHeaders(map[string]string{"X-Client": "apikit", "Accept": "text/plain"}),
	)

	req := get("/users")
	req.Header.Set("Accept", "application/json")
	resp, err := a.Dispatch(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Close()

	got := mock.Requests()[0]
	if got.Endpoint != "https://api.example.com/users" {
		t.Errorf("endpoint = %q", got.Endpoint)
	}
	if got.Header.Get("X-Client") != "apikit" || got.Header.Get("Accept") != "application/json" {
		t.Errorf("headers = %v", got.Header)
	}
	if req.Endpoint != "/users" || req.Header.Get("X-Client") != "" {
		t.Error("caller's request was modified")
	}

	a.Dispatch(context.Background(), get("http://other.example.com/x"))
	if mock.Requests()[1].Endpoint != "http://other.example.com/x" {
		t.Error("absolute endpoints must not be prefixed")
	}
}

func TestInterceptorOrder(t *testing.T) {
	var order []string
	mock := transporttest.NewMock().Reply(ok)
	reqIC := func(name string) adapter.RequestInterceptor {
		return func(ctx context.Context, req *transport.Request) (context.Context, error) {
			order = append(order, name)
			req.Header.Add("X-Trace", name)
			return ctx, nil
		}
	}
	respIC := func(name string) adapter.ResponseInterceptor {
		return func(context.Context, *transport.Request, *transport.Response) error {
			order = append(order, name)
			return nil
		}
	}
	mw := func(next transport.Transport) transport.Transport {
		return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			order = append(order, "mw")
			return next.Dispatch(ctx, req)
		})
	}

	a := newAdapter(t, mock,
		adapter.WithRequestInterceptor(reqIC("req1"), reqIC("req2")),
		adapter.WithResponseInterceptor(respIC("resp1"), respIC("resp2")),
		adapter.WithMiddleware(mw),
	)
	if _, err := a.Dispatch(context.Background(), get("/x")); err != nil {
		t.Fatal(err)
	}
	if strings.Join(order, ",") != "req1,req2,mw,resp1,resp2" {
		t.Errorf("order = %v", order)
	}
	if got := mock.Requests()[0].Header["X-Trace"]; strings.Join(got, ",") != "req1,req2" {
		t.Errorf("X-Trace = %v", got)
	}
}

func TestInterceptorsCanFail(t *testing.T) {
	boom := errors.New("boom")

	t.Run("request", func(t *testing.T) {
		mock := transporttest.NewMock().Reply(ok)
		a := newAdapter(t, mock, adapter.WithRequestInterceptor(
			func(ctx context.Context, _ *transport.Request) (context.Context, error) { return ctx, boom },
		))
		if _, err := a.Dispatch(context.Background(), get("/x")); !errors.Is(err, boom) {
			t.Errorf("got %v", err)
		}
		if mock.Calls() != 0 {
			t.Error("request must not be sent")
		}
	})

	t.Run("response", func(t *testing.T) {
		body := transporttest.Raw(http.StatusOK, "text/plain", []byte("x"))
		a := newAdapter(t, transporttest.NewMock().Reply(func() *transport.Response { return body }),
			adapter.WithResponseInterceptor(
				func(context.Context, *transport.Request, *transport.Response) error { return boom },
			))
		resp, err := a.Dispatch(context.Background(), get("/x"))
		if !errors.Is(err, boom) || resp != nil {
			t.Errorf("got %v %v", resp, err)
		}
		if !body.Body.(*transporttest.Body).Closed() {
			t.Error("rejected response must be closed")
		}
	})

	t.Run("transport error passes through", func(t *testing.T) {
		a := newAdapter(t, transporttest.NewMock().Fail(boom))
		if _, err := a.Dispatch(context.Background(), get("/x")); err != boom {
			t.Errorf("got %v", err)
		}
	})
}

func TestJSONHeaders(t *testing.T) {
	mock := transporttest.NewMock().Reply(ok)
	a := newAdapter(t, mock, adapter.WithRequestInterceptor(adapter.JSONHeaders()))

	a.Dispatch(context.Background(), get("/x"))
	multipart := get("/upload")
	multipart.Header.Set("Content-Type", "multipart/form-data; boundary=abc")
	multipart.Header.Set("Accept", "text/html")
	a.Dispatch(context.Background(), multipart)

	reqs := mock.Requests()
	if reqs[0].Header.Get("Accept") != "application/json" || reqs[0].Header.Get("Content-Type") != "application/json" {
		t.Errorf("headers = %v", reqs[0].Header)
	}
	if reqs[1].Header.Get("Accept") != "application/json" || !strings.HasPrefix(reqs[1].Header.Get("Content-Type"), "multipart/") {
		t.Errorf("headers = %v", reqs[1].Header)
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	capture := func(ctx context.Context, _ *transport.Request) (context.Context, error) {
		seen, _ = logger.RequestIDFromContext(ctx)
		return ctx, nil
	}
	mock := transporttest.NewMock().Reply(ok)
	a := newAdapter(t, mock, adapter.WithRequestInterceptor(adapter.RequestID(), capture))

	a.Dispatch(context.Background(), get("/x"))
	generated := mock.Requests()[0].Header.Get(adapter.HeaderRequestID)
	if _, err := uuid.Parse(generated); err != nil {
		t.Errorf("expected a UUID, got %q", generated)
	}
	if seen != generated {
		t.Errorf("context id %q != header id %q", seen, generated)
	}

	a.Dispatch(logger.ContextWithRequestID(context.Background(), "from-ctx"), get("/x"))
	if got := mock.Requests()[1].Header.Get(adapter.HeaderRequestID); got != "from-ctx" {
		t.Errorf("context id not reused: %q", got)
	}

	explicit := get("/x")
	explicit.Header.Set(adapter.HeaderRequestID, "explicit")
	a.Dispatch(context.Background(), explicit)
	if got := mock.Requests()[2].Header.Get(adapter.HeaderRequestID); got != "explicit" || seen != "explicit" {
		t.Errorf("explicit id not kept: %q / %q", got, seen)
	}
}

func token(t *testing.T, exp time.Time) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"exp": exp.Unix()}).SignedString([]byte("k"))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type brokenStore struct{ auth.MemoryStore }

func (*brokenStore) Token(context.Context) (string, error) { return "", errors.New("disk on fire") }

func TestBearerToken(t *testing.T) {
	valid := token(t, time.Now().Add(time.Hour))
	expired := token(t, time.Now().Add(-time.Hour))

	tests := []struct {
		name   string
		stored string
		preset string
		want   string
	}{
		{name: "empty store"},
		{name: "valid jwt", stored: valid, want: "Bearer " + valid},
		{name: "expired jwt", stored: expired},
		{name: "opaque token", stored: "opaque", want: "Bearer opaque"},
		{name: "explicit header wins", stored: valid, preset: "Basic abc", want: "Basic abc"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store := auth.NewMemoryStore()
			if tc.stored != "" {
				store.SetToken(context.Background(), tc.stored)
			}
			mock := transporttest.NewMock().Reply(ok)
			a := newAdapter(t, mock, adapter.WithRequestInterceptor(adapter.BearerToken(store)))

			req := get("/x")
			if tc.preset != "" {
				req.Header.Set("Authorization", tc.preset)
			}
			if _, err := a.Dispatch(context.Background(), req); err != nil {
				t.Fatal(err)
			}
			if got := mock.Requests()[0].Header.Get("Authorization"); got != tc.want {
				t.Errorf("Authorization = %q, want %q", got, tc.want)
			}
		})
	}

	t.Run("store failure fails the call", func(t *testing.T) {
		mock := transporttest.NewMock().Reply(ok)
		a := newAdapter(t, mock, adapter.WithRequestInterceptor(adapter.BearerToken(&brokenStore{})))
		if _, err := a.Dispatch(context.Background(), get("/x")); err == nil || mock.Calls() != 0 {
			t.Errorf("expected failure before dispatch, got %v", err)
		}
	})
}

func TestLoggingMasksCredentials(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&logger.Config{Level: "debug", Format: "json", Writer: &buf}, "test")
	mock := transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Status(503) })
	a := newAdapter(t, mock, adapter.WithLogging(log))

	req := get("/secure")
	req.Header.Set("Authorization", "Bearer supersecrettoken")
	resp, err := a.Dispatch(context.Background(), req)
	if err != nil || resp.Status != 503 {
		t.Fatalf("got %v %v", resp, err)
	}

	out := buf.String()
	if strings.Contains(out, "supersecrettoken") {
		t.Error("token leaked into logs")
	}
	for _, want := range []string{`"endpoint":"/secure"`, `"status":503`, `"level":"warn"`, `"authorization":"Bearer supe***"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output lacks %s:\n%s", want, out)
		}
	}
}
