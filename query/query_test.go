package query_test

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/kbukum/apikit/apicall"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/query"
	"github.com/kbukum/apikit/transport"
	"github.com/kbukum/apikit/transport/transporttest"
	"github.com/kbukum/apikit/util"
)

func usersHandle(t *testing.T, tr transport.Transport) *apicall.Handle {
	t.Helper()
	d, err := apicall.NewDispatcher(tr, apicall.Config{}, apicall.WithLogger(logger.Nop()))
	if err != nil {
		t.Fatal(err)
	}
	h, err := d.Define("users", func(p apicall.Params) apicall.Descriptor {
		return apicall.Descriptor{Endpoint: util.GenerateEndpoint("/users", p), Method: apicall.MethodGet}
	})
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func page(names ...string) func() *transport.Response {
	return func() *transport.Response {
		items := make([]map[string]any, len(names))
		for i, n := range names {
			items[i] = map[string]any{"name": n}
		}
		return transporttest.JSON(http.StatusOK, map[string]any{"data": map[string]any{"items": items}})
	}
}

func TestLoadRespectsManualLoad(t *testing.T) {
	mock := transporttest.NewMock().Reply(page("ada"))
	ctx := context.Background()

	idle := query.New(usersHandle(t, mock), query.Options{ManualLoad: true})
	if err := idle.Load(ctx); err != nil || mock.Calls() != 0 {
		t.Fatalf("Load with ManualLoad dispatched: calls=%d err=%v", mock.Calls(), err)
	}

	q := query.New(usersHandle(t, mock), query.Options{
		ResourceName:  "data.items[0].name",
		InitialParams: apicall.Params{"page": 1},
	})
	if err := q.Load(ctx); err != nil {
		t.Fatal(err)
	}
	if q.Data() != "ada" {
		t.Errorf("Data = %v", q.Data())
	}
	if mock.Requests()[0].Endpoint != "/users?page=1" {
		t.Errorf("endpoint = %s", mock.Requests()[0].Endpoint)
	}

	q.Load(ctx)
	if mock.Calls() != 1 {
		t.Error("Load must only run the initial fetch")
	}
}

func TestFetchAndRefresh(t *testing.T) {
	mock := transporttest.NewMock().Reply(page("a")).Reply(page("b")).Reply(page("c"))
	q := query.New(usersHandle(t, mock), query.Options{ResourceName: "data.items"})
	ctx := context.Background()

	if err := q.Fetch(ctx, nil); err != nil || mock.Calls() != 0 {
		t.Fatal("empty params must not dispatch")
	}
	if err := q.Fetch(ctx, apicall.Params{"q": "x"}); err != nil {
		t.Fatal(err)
	}
	if err := q.Refresh(ctx); err != nil {
		t.Fatal(err)
	}

	reqs := mock.Requests()
	if len(reqs) != 2 || reqs[0].Endpoint != "/users?q=x" || reqs[1].Endpoint != "/users?q=x" {
		t.Errorf("requests = %+v", reqs)
	}
	items, ok := q.Data().([]any)
	if !ok || items[0].(map[string]any)["name"] != "b" {
		t.Errorf("Data = %v", q.Data())
	}
	if q.Params()["q"] != "x" {
		t.Errorf("Params = %v", q.Params())
	}
	raw := q.RawData().(map[string]any)
	if _, ok := raw["data"]; !ok {
		t.Error("RawData must hold the whole response")
	}
}

func TestErrorKeepsPreviousData(t *testing.T) {
	mock := transporttest.NewMock().
		Reply(page("a")).
		Reply(func() *transport.Response { return transporttest.Status(http.StatusInternalServerError) }).
		Reply(page("z"))
	q := query.New(usersHandle(t, mock), query.Options{ResourceName: "data.items[0].name"})
	ctx := context.Background()

	q.Load(ctx)
	err := q.Refresh(ctx)
	if code, ok := apicall.StatusCode(err); !ok || code != 500 {
		t.Fatalf("expected 500, got %v", err)
	}
	if q.Err() == nil || q.Data() != "a" {
		t.Errorf("err=%v data=%v", q.Err(), q.Data())
	}

	q.Refresh(ctx)
	if q.Err() != nil || q.Data() != "z" {
		t.Errorf("success must clear the error, got %v", q.Err())
	}
}

func TestMissingResourceIsNil(t *testing.T) {
	q := query.New(usersHandle(t, transporttest.NewMock().Reply(page())), query.Options{
		ResourceName: "data.items[0].name",
	})
	if err := q.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if q.Data() != nil {
		t.Errorf("Data = %v", q.Data())
	}
}

func TestLoadingAndRefreshing(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{}, 2)
	tr := transport.Func(func(ctx context.Context, _ *transport.Request) (*transport.Response, error) {
		entered <- struct{}{}
		<-release
		return page("a")(), nil
	})
	q := query.New(usersHandle(t, tr), query.Options{})
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- q.Load(ctx) }()
	<-entered
	if !q.Loading() || q.Refreshing() {
		t.Errorf("first load: loading=%v refreshing=%v", q.Loading(), q.Refreshing())
	}
	release <- struct{}{}
	<-done

	go func() { done <- q.Refresh(ctx) }()
	<-entered
	if q.Loading() || !q.Refreshing() {
		t.Errorf("refresh: loading=%v refreshing=%v", q.Loading(), q.Refreshing())
	}
	release <- struct{}{}
	<-done
	if q.Loading() || q.Refreshing() {
		t.Error("state must settle when idle")
	}
}

func TestStaleResultIsDiscarded(t *testing.T) {
	slowRelease := make(chan struct{})
	slowEntered := make(chan struct{})
	tr := transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
		if strings.Contains(req.Endpoint, "slow") {
			close(slowEntered)
			<-slowRelease
			return page("stale")(), nil
		}
		return page("fresh")(), nil
	})
	q := query.New(usersHandle(t, tr), query.Options{ResourceName: "data.items[0].name"})
	ctx := context.Background()

	done := make(chan error)
	go func() { done <- q.Fetch(ctx, apicall.Params{"q": "slow"}) }()
	<-slowEntered
	if err := q.Fetch(ctx, apicall.Params{"q": "fast"}); err != nil {
		t.Fatal(err)
	}
	close(slowRelease)
	<-done

	if q.Data() != "fresh" {
		t.Errorf("Data = %v, an older call overwrote a newer one", q.Data())
	}
}

func TestMutation(t *testing.T) {
	mock := transporttest.NewMock().
		Reply(func() *transport.Response {
			return transporttest.JSON(http.StatusCreated, map[string]any{"data": map[string]any{"id": 7}})
		}).
		Reply(func() *transport.Response { return transporttest.Status(http.StatusConflict) })
	d, _ := apicall.NewDispatcher(mock, apicall.Config{}, apicall.WithLogger(logger.Nop()))
	h, _ := d.Define("users.create", func(p apicall.Params) apicall.Descriptor {
		return apicall.Descriptor{Endpoint: "/users", Method: apicall.MethodPost, Body: p}
	})

	var succeeded, failed int
	m := query.NewMutation(h, query.MutationOptions{
		ResourceName: "data.id",
		OnSuccess:    func(any) { succeeded++ },
		OnError:      func(error) { failed++ },
	})
	ctx := context.Background()

	if _, err := m.Mutate(ctx, apicall.Params{"name": "ada"}); err != nil {
		t.Fatal(err)
	}
	if m.Data() != 7.0 || m.Pending() || succeeded != 1 {
		t.Errorf("data=%v pending=%v succeeded=%d", m.Data(), m.Pending(), succeeded)
	}
	if string(mock.Requests()[0].Body) != `{"name":"ada"}` {
		t.Errorf("body = %s", mock.Requests()[0].Body)
	}

	_, err := m.Mutate(ctx, apicall.Params{"name": "ada"})
	if code, _ := apicall.StatusCode(err); code != http.StatusConflict || failed != 1 {
		t.Errorf("err=%v failed=%d", err, failed)
	}
	if m.RawData() != nil || !errors.Is(m.Err(), err) {
		t.Error("failure must replace the stored result")
	}

	m.Reset()
	if m.Err() != nil || m.RawData() != nil {
		t.Error("Reset must clear state")
	}
}

func TestMutationStreams(t *testing.T) {
	mock := transporttest.NewMock().Reply(func() *transport.Response { return transporttest.Chunks("a", "b") })
	d, _ := apicall.NewDispatcher(mock, apicall.Config{}, apicall.WithLogger(logger.Nop()))
	h, _ := d.Define("generate", func(apicall.Params) apicall.Descriptor {
		return apicall.Descriptor{Endpoint: "/generate", Method: apicall.MethodPost, Streaming: true}
	})

	var got strings.Builder
	m := query.NewMutation(h, query.MutationOptions{OnStreaming: func(c transport.Chunk) { got.Write(c) }})
	raw, err := m.Mutate(context.Background(), nil)
	if err != nil || raw != nil {
		t.Fatalf("raw=%v err=%v", raw, err)
	}
	if got.String() != "ab" {
		t.Errorf("streamed %q", got.String())
	}

	noSink := query.NewMutation(h, query.MutationOptions{})
	if _, err := noSink.Mutate(context.Background(), nil); !apicall.IsProtocolError(err) {
		t.Errorf("expected protocol error, got %v", err)
	}
}
