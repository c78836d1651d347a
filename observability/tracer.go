package observability

import (
	"context"
	"fmt"
	"strconv"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/apikit/logger"
	"github.com/kbukum/apikit/transport"
)

// InstrumentationName names the tracer and meter used by this package.
const InstrumentationName = "github.com/kbukum/apikit/observability"

// Span attribute keys.
const (
	AttrHTTPMethod = "http.request.method"
	AttrHTTPStatus = "http.response.status_code"
	AttrURL        = "url.full"
	AttrStreaming  = "apikit.streaming"
	AttrChunks     = "apikit.chunks"
	AttrErrorCode  = "apikit.error.code"
)

// InitTracer installs a global tracer provider exporting to cfg.Endpoint
// and the W3C trace-context and baggage propagators.
func InitTracer(ctx context.Context, cfg Config) (*sdktrace.TracerProvider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	exporter, err := otlptracehttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sampler(cfg.SampleRate))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.Get("observability").Info("tracer initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.SampleRate,
	))
	return tp, nil
}

func sampler(rate float64) sdktrace.Sampler {
	switch {
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	case rate <= 0:
		return sdktrace.NeverSample()
	default:
		return sdktrace.TraceIDRatioBased(rate)
	}
}

// newResource is schemaless so it merges with the SDK default resource
// whatever semconv version that one uses.
func newResource(cfg Config) (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
}

// Tracer returns a named tracer from the global provider.
func Tracer(name string) trace.Tracer {
	return otel.Tracer(name)
}

// TracingOption configures TracingMiddleware.
type TracingOption func(*tracingConfig)

type tracingConfig struct {
	provider   trace.TracerProvider
	propagator propagation.TextMapPropagator
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) TracingOption {
	return func(c *tracingConfig) { c.provider = tp }
}

// WithPropagator overrides the global propagator.
func WithPropagator(p propagation.TextMapPropagator) TracingOption {
	return func(c *tracingConfig) { c.propagator = p }
}

// TracingMiddleware records a client span per exchange and injects the
// trace context into the request headers. For responses with a body the
// span ends when the body is closed. Transport errors and 5xx statuses
// mark the span as failed.
func TracingMiddleware(opts ...TracingOption) transport.Middleware {
	cfg := tracingConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	return func(next transport.Transport) transport.Transport {
		return transport.Func(func(ctx context.Context, req *transport.Request) (*transport.Response, error) {
			provider, propagator := cfg.provider, cfg.propagator
			if provider == nil {
				provider = otel.GetTracerProvider()
			}
			if propagator == nil {
				propagator = otel.GetTextMapPropagator()
			}

			ctx, span := provider.Tracer(InstrumentationName).Start(ctx, "HTTP "+req.Method,
				trace.WithSpanKind(trace.SpanKindClient),
				trace.WithAttributes(
					attribute.String(AttrHTTPMethod, req.Method),
					attribute.String(AttrURL, req.Endpoint),
					attribute.Bool(AttrStreaming, req.Streaming),
				),
			)
			if sc := span.SpanContext(); sc.IsValid() {
				ctx = logger.ContextWithTrace(ctx, sc.TraceID().String(), sc.SpanID().String())
			}

			r := req.Clone()
			propagator.Inject(ctx, propagation.HeaderCarrier(r.Header))

			resp, err := next.Dispatch(ctx, r)
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
				if code := transportCode(err); code != "" {
					span.SetAttributes(attribute.String(AttrErrorCode, code))
				}
				span.End()
				return nil, err
			}

			span.SetAttributes(attribute.Int(AttrHTTPStatus, resp.Status))
			if resp.Status >= 500 {
				span.SetStatus(codes.Error, strconv.Itoa(resp.Status))
			}
			if resp.Body == nil {
				span.End()
				return resp, nil
			}
			resp.Body = &spanBody{ChunkReader: resp.Body, span: span}
			return resp, nil
		})
	}
}

func transportCode(err error) string {
	switch {
	case transport.IsTimeout(err):
		return string(transport.ErrCodeTimeout)
	case transport.IsCanceled(err):
		return string(transport.ErrCodeCanceled)
	case transport.IsConnection(err):
		return string(transport.ErrCodeConnection)
	}
	return ""
}

// spanBody ends its span on Close, recording chunk count and read errors.
type spanBody struct {
	transport.ChunkReader
	span   trace.Span
	chunks int
	once   sync.Once
}

func (b *spanBody) Next(ctx context.Context) (transport.Chunk, bool, error) {
	chunk, ok, err := b.ChunkReader.Next(ctx)
	if ok {
		b.chunks++
	}
	if err != nil {
		b.span.RecordError(err)
		b.span.SetStatus(codes.Error, err.Error())
	}
	return chunk, ok, err
}

func (b *spanBody) Close() error {
	err := b.ChunkReader.Close()
	b.once.Do(func() {
		b.span.SetAttributes(attribute.Int(AttrChunks, b.chunks))
		b.span.End()
	})
	return err
}
