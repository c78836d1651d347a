package apicall

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	apperrors "github.com/kbukum/apikit/errors"
	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/transport"
)

// Dispatcher executes descriptors against a Transport. It holds only
// configuration; every call allocates its own request, response and
// reader state.
type Dispatcher struct {
	transport  transport.Transport
	builder    *Builder
	maxErrBody int64
	log        *logger.Logger
	observer   Observer
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher's logger. The default is the
// "apicall" component logger.
func WithLogger(l *logger.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithObserver adds an observer. Repeated use fans out to all of them.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = Observers(d.observer, o) }
}

// NewDispatcher validates cfg and binds it to t.
func NewDispatcher(t transport.Transport, cfg Config, opts ...Option) (*Dispatcher, error) {
	if t == nil {
		return nil, apperrors.MissingField("transport")
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d := &Dispatcher{
		transport:  t,
		builder:    NewBuilder(cfg),
		maxErrBody: cfg.MaxErrorBodySize,
		observer:   Observers(),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.log == nil {
		d.log = logger.Get("apicall")
	}
	return d, nil
}

// Dispatch executes one descriptor. sink is only consulted for
// streaming descriptors.
func (d *Dispatcher) Dispatch(ctx context.Context, apiName string, desc Descriptor, sink Sink) (any, error) {
	return d.execute(ctx, apiName, desc, sink, decodeAny)
}

type decodeFunc func(data []byte) (any, error)

func decodeAny(data []byte) (any, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

func (d *Dispatcher) execute(ctx context.Context, apiName string, desc Descriptor, sink Sink, decode decodeFunc) (any, error) {
	req, err := d.builder.Build(desc)
	if err != nil {
		if appErr, ok := apperrors.AsAppError(err); ok {
			appErr.WithDetail("api", apiName)
		}
		return nil, err
	}

	call := CallInfo{API: apiName, Method: desc.Method, Endpoint: req.Endpoint, Streaming: desc.Streaming}
	log := d.log.WithContext(ctx)
	log.Debug("dispatch", logger.RequestFields(apiName, req.Method, req.Endpoint, req.Streaming))

	d.observer.DispatchStarted(ctx, call)
	start := time.Now()

	var res Result
	value, err := d.roundTrip(ctx, call, req, sink, decode, &res)

	res.Duration = time.Since(start)
	res.Err = err
	d.observer.DispatchFinished(ctx, call, res)

	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldAPI, apiName,
		logger.FieldOutcome, string(res.Outcome),
		logger.FieldStatus, res.Status,
		logger.FieldChunks, res.Chunks,
	), res.Duration)
	if err != nil {
		log.Warn("dispatch failed", logger.MergeWithError(fields, err))
	} else {
		log.Debug("dispatch done", fields)
	}
	return value, err
}

// roundTrip is the per-call state machine. It records the outcome in res.
func (d *Dispatcher) roundTrip(ctx context.Context, call CallInfo, req *transport.Request, sink Sink, decode decodeFunc, res *Result) (any, error) {
	resp, err := d.transport.Dispatch(ctx, req)
	if err != nil {
		res.Outcome = OutcomeTransportError
		return nil, err
	}
	defer func() {
		if cerr := resp.Close(); cerr != nil {
			d.log.Debug("close response body", logger.ErrorFields("close", cerr))
		}
	}()
	res.Status = resp.Status

	if !resp.OK() {
		res.Outcome = OutcomeHTTPError
		return nil, d.httpError(ctx, resp)
	}

	if req.Streaming {
		if err := d.stream(ctx, call, resp, sink, res); err != nil {
			return nil, err
		}
		res.Outcome = OutcomeResolved
		return nil, nil
	}

	var data []byte
	if resp.Body != nil {
		data, err = transport.ReadAll(ctx, resp.Body, 0)
		if err != nil {
			res.Outcome = OutcomeTransportError
			return nil, err
		}
	}
	res.Bytes = int64(len(data))
	if len(data) == 0 && (resp.Status == http.StatusNoContent || req.Method == http.MethodHead) {
		res.Outcome = OutcomeResolved
		return nil, nil
	}

	value, err := decode(data)
	if err != nil {
		res.Outcome = OutcomeParseError
		return nil, &parseError{api: call.API, err: err}
	}
	res.Outcome = OutcomeResolved
	return value, nil
}

func (d *Dispatcher) stream(ctx context.Context, call CallInfo, resp *transport.Response, sink Sink, res *Result) error {
	if resp.Body == nil {
		res.Outcome = OutcomeProtocolError
		return &ProtocolError{Err: ErrNoBody}
	}
	if sink == nil {
		res.Outcome = OutcomeProtocolError
		return &ProtocolError{Err: ErrSinkRequired}
	}

	for chunk, err := range Chunks(ctx, resp.Body) {
		if err != nil {
			res.Outcome = OutcomeTransportError
			return err
		}
		res.Chunks++
		res.Bytes += int64(len(chunk))
		d.observer.ChunkDelivered(ctx, call, len(chunk))
		sink(chunk)
	}
	return nil
}

// httpError builds the rejection for a non-2xx response. Reading or
// parsing the body is best effort.
func (d *Dispatcher) httpError(ctx context.Context, resp *transport.Response) error {
	he := &HTTPError{Status: resp.Status, StatusText: resp.StatusText}
	if he.StatusText == "" {
		he.StatusText = http.StatusText(resp.Status)
	}
	if resp.Body == nil {
		return he
	}

	body, err := transport.ReadAll(ctx, resp.Body, d.maxErrBody)
	if err != nil && !errors.Is(err, context.Canceled) {
		d.log.Debug("read error body", logger.ErrorFields("read_error_body", err))
	}
	if len(body) > 0 {
		he.Body = body
		var data any
		if json.Unmarshal(body, &data) == nil {
			he.Data = data
		}
	}
	return he
}
