package apicall_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/kbukum/apikit/apicall"
	apperrors "github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/transport/transporttest"
	"github.com/kbukum/apikit/util"
)

func TestDefineValidation(t *testing.T) {
	d := newDispatcher(t, transporttest.NewMock())
	factory := func(apicall.Params) apicall.Descriptor { return getTest }

	tests := []struct {
		name       string
		apiName    string
		factory    apicall.OptionsFunc
		dispatcher *apicall.Dispatcher
	}{
		{"empty name", " ", factory, d},
		{"nil factory", "users", nil, d},
		{"nil dispatcher", "users", factory, nil},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := apicall.Define(tc.apiName, tc.factory, tc.dispatcher)
			if !apperrors.HasCode(err, apperrors.ErrCodeInvalidDefinition) {
				t.Errorf("expected INVALID_DEFINITION, got %v", err)
			}
		})
	}

	h, err := apicall.Define("users", factory, d)
	if err != nil || h.APIName() != "users" {
		t.Fatalf("Define: %v", err)
	}
}

func TestFactoryReceivesParams(t *testing.T) {
	mock := transporttest.NewMock().Reply(func() *transport.Response { return transporttest.JSON(200, true) })
	d := newDispatcher(t, mock)

	h, _ := d.Define("users.search", func(p apicall.Params) apicall.Descriptor {
		return apicall.Descriptor{
			Endpoint: util.GenerateEndpoint("/users", map[string]any{"q": p["q"], "tag": p["tags"]}),
			Method:   apicall.MethodGet,
		}
	})
	if _, err := h.QueryFn(context.Background(), apicall.Params{"q": "ada l", "tags": []string{"a", "b"}}, nil); err != nil {
		t.Fatal(err)
	}
	if got := mock.Requests()[0].Endpoint; got != "/users?q=ada%20l&tag[]=a&tag[]=b" {
		t.Errorf("endpoint = %q", got)
	}

	if h.Descriptor(nil).Endpoint != "/users" {
		t.Error("nil params must reach the factory as an empty map")
	}
}

func TestQueryFuncMatchesQueryFn(t *testing.T) {
	mock := transporttest.NewMock().Reply(func() *transport.Response { return transporttest.JSON(200, "ok") })
	h := define(t, newDispatcher(t, mock), getTest)

	var fn apicall.QueryFunc = h.QueryFunc()
	got, err := fn(context.Background(), nil, nil)
	if err != nil || got != "ok" {
		t.Errorf("got %v %v", got, err)
	}
}

type user struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

func TestQueryAs(t *testing.T) {
	mock := transporttest.NewMock().Reply(func() *transport.Response {
		return transporttest.JSON(200, []map[string]any{{"id": 1, "name": "ada"}})
	})
	h := define(t, newDispatcher(t, mock), getTest)

	users, err := apicall.QueryAs[[]user](context.Background(), h, nil)
	if err != nil {
		t.Fatalf("QueryAs: %v", err)
	}
	if len(users) != 1 || users[0] != (user{ID: 1, Name: "ada"}) {
		t.Errorf("got %+v", users)
	}
}

func TestQueryAsErrors(t *testing.T) {
	t.Run("type mismatch is a parse error", func(t *testing.T) {
		mock := transporttest.NewMock().Reply(func() *transport.Response { return transporttest.JSON(200, "str") })
		_, err := apicall.QueryAs[user](context.Background(), define(t, newDispatcher(t, mock), getTest), nil)
		if !apicall.IsParseError(err) {
			t.Errorf("expected parse error, got %v", err)
		}
	})

	t.Run("http error", func(t *testing.T) {
		mock := transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Status(404) })
		_, err := apicall.QueryAs[user](context.Background(), define(t, newDispatcher(t, mock), getTest), nil)
		if code, ok := apicall.StatusCode(err); !ok || code != 404 {
			t.Errorf("expected 404, got %v", err)
		}
	})

	t.Run("streaming rejected", func(t *testing.T) {
		mock := transporttest.NewMock()
		_, err := apicall.QueryAs[user](context.Background(), define(t, newDispatcher(t, mock), streamTest), nil)
		if !apperrors.HasCode(err, apperrors.ErrCodeInvalidInput) || mock.Calls() != 0 {
			t.Errorf("expected INVALID_INPUT without dispatch, got %v", err)
		}
	})

	t.Run("no content", func(t *testing.T) {
		mock := transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Status(204) })
		u, err := apicall.QueryAs[*user](context.Background(), define(t, newDispatcher(t, mock), getTest), nil)
		if err != nil || u != nil {
			t.Errorf("expected zero value, got %v %v", u, err)
		}
	})
}

type recordingObserver struct {
	events  []string
	results []apicall.Result
}

func (o *recordingObserver) DispatchStarted(_ context.Context, call apicall.CallInfo) {
	o.events = append(o.events, "start:"+call.API)
}

func (o *recordingObserver) ChunkDelivered(_ context.Context, _ apicall.CallInfo, size int) {
	o.events = append(o.events, fmt.Sprintf("chunk:%d", size))
}

func (o *recordingObserver) DispatchFinished(_ context.Context, _ apicall.CallInfo, r apicall.Result) {
	o.events = append(o.events, "finish:"+string(r.Outcome))
	o.results = append(o.results, r)
}

func TestObserverOutcomes(t *testing.T) {
	tests := []struct {
		name    string
		mock    *transporttest.Mock
		desc    apicall.Descriptor
		sink    apicall.Sink
		events  string
		outcome apicall.Outcome
	}{
		{
			name:    "resolved stream",
			mock:    transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Chunks("ab", "c") }),
			desc:    streamTest,
			sink:    func(transport.Chunk) {},
			events:  "[start:test chunk:2 chunk:1 finish:resolved]",
			outcome: apicall.OutcomeResolved,
		},
		{
			name:    "http error",
			mock:    transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Status(500) }),
			desc:    getTest,
			events:  "[start:test finish:http_error]",
			outcome: apicall.OutcomeHTTPError,
		},
		{
			name:    "protocol error",
			mock:    transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Chunks("x") }),
			desc:    streamTest,
			events:  "[start:test finish:protocol_error]",
			outcome: apicall.OutcomeProtocolError,
		},
		{
			name:    "transport error",
			mock:    transporttest.NewMock().Fail(errors.New("dial")),
			desc:    getTest,
			events:  "[start:test finish:transport_error]",
			outcome: apicall.OutcomeTransportError,
		},
		{
			name:    "parse error",
			mock:    transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Raw(200, "text/html", []byte("<html>")) }),
			desc:    getTest,
			events:  "[start:test finish:parse_error]",
			outcome: apicall.OutcomeParseError,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			obs := &recordingObserver{}
			second := &recordingObserver{}
			h := define(t, newDispatcher(t, tc.mock, apicall.WithObserver(obs), apicall.WithObserver(second)), tc.desc)
			h.QueryFn(context.Background(), nil, tc.sink)

			if fmt.Sprint(obs.events) != tc.events {
				t.Errorf("events = %v, want %s", obs.events, tc.events)
			}
			if fmt.Sprint(second.events) != tc.events {
				t.Errorf("second observer events = %v", second.events)
			}
			r := obs.results[0]
			if r.Outcome != tc.outcome || r.Duration < 0 {
				t.Errorf("unexpected result %+v", r)
			}
			if (r.Err == nil) != (tc.outcome == apicall.OutcomeResolved) {
				t.Errorf("result error %v inconsistent with outcome", r.Err)
			}
		})
	}
}

func TestChunksStopsEarly(t *testing.T) {
	body := transport.NewBytesBody([]byte("a"), []byte("b"), []byte("c"))
	var got []string
	for c, err := range apicall.Chunks(context.Background(), body) {
		if err != nil {
			t.Fatal(err)
		}
		got = append(got, string(c))
		if len(got) == 2 {
			break
		}
	}
	if fmt.Sprint(got) != "[a b]" {
		t.Errorf("got %v", got)
	}
	rest, _, _ := body.Next(context.Background())
	if string(rest) != "c" {
		t.Error("breaking must leave the remaining chunks unread")
	}
}

func TestContextReachesTransport(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	type key struct{}
	ctx = context.WithValue(ctx, key{}, "v")

	var seen any
	d, _ := apicall.NewDispatcher(transport.Func(func(c context.Context, _ *transport.Request) (*transport.Response, error) {
		seen = c.Value(key{})
		return transporttest.JSON(200, nil), nil
	}), apicall.Config{})
	h := define(t, d, getTest)
	h.QueryFn(ctx, nil, nil)
	if seen != "v" {
		t.Error("context not forwarded to transport")
	}
}
