package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/apikit/apicall"
	"github.com/kbukum/apikit/logger"
)

// InitMeter installs a global meter provider that exports every
// cfg.Interval to cfg.Endpoint.
func InitMeter(ctx context.Context, cfg Config) (*sdkmetric.MeterProvider, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.Interval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("meter initialized", logger.Fields(
		"service", cfg.ServiceName,
		"endpoint", cfg.Endpoint,
		"interval", cfg.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metric instrument names.
const (
	MetricDispatchCount    = "apikit.dispatch.count"
	MetricDispatchDuration = "apikit.dispatch.duration"
	MetricDispatchActive   = "apikit.dispatch.active"
	MetricChunks           = "apikit.stream.chunks"
	MetricChunkBytes       = "apikit.stream.bytes"
)

// DispatchMeter records dispatches as OpenTelemetry metrics.
type DispatchMeter struct {
	count    metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	chunks   metric.Int64Counter
	bytes    metric.Int64Counter
}

var _ apicall.Observer = (*DispatchMeter)(nil)

// NewDispatchMeter creates the instruments on meter.
func NewDispatchMeter(meter metric.Meter) (*DispatchMeter, error) {
	count, err := meter.Int64Counter(MetricDispatchCount,
		metric.WithDescription("Finished dispatches by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricDispatchCount, err)
	}

	duration, err := meter.Float64Histogram(MetricDispatchDuration,
		metric.WithDescription("Dispatch duration, including streamed body delivery"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricDispatchDuration, err)
	}

	active, err := meter.Int64UpDownCounter(MetricDispatchActive,
		metric.WithDescription("Dispatches in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s gauge: %w", MetricDispatchActive, err)
	}

	chunks, err := meter.Int64Counter(MetricChunks,
		metric.WithDescription("Chunks delivered to streaming sinks"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChunks, err)
	}

	bytes, err := meter.Int64Counter(MetricChunkBytes,
		metric.WithDescription("Bytes delivered to streaming sinks"),
		metric.WithUnit("By"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricChunkBytes, err)
	}

	return &DispatchMeter{count: count, duration: duration, active: active, chunks: chunks, bytes: bytes}, nil
}

func (m *DispatchMeter) DispatchStarted(ctx context.Context, call apicall.CallInfo) {
	m.active.Add(ctx, 1, metric.WithAttributes(attribute.String("api", call.API)))
}

func (m *DispatchMeter) ChunkDelivered(ctx context.Context, call apicall.CallInfo, size int) {
	attrs := metric.WithAttributes(attribute.String("api", call.API))
	m.chunks.Add(ctx, 1, attrs)
	m.bytes.Add(ctx, int64(size), attrs)
}

func (m *DispatchMeter) DispatchFinished(ctx context.Context, call apicall.CallInfo, result apicall.Result) {
	m.active.Add(ctx, -1, metric.WithAttributes(attribute.String("api", call.API)))
	m.count.Add(ctx, 1, metric.WithAttributes(
		attribute.String("api", call.API),
		attribute.String("method", string(call.Method)),
		attribute.String("outcome", string(result.Outcome)),
		attribute.Bool("streaming", call.Streaming),
	))
	m.duration.Record(ctx, result.Duration.Seconds(), metric.WithAttributes(
		attribute.String("api", call.API),
		attribute.String("outcome", string(result.Outcome)),
	))
}
