// Package observability wires OpenTelemetry tracing and metrics into
// outbound calls.
//
// Providers export over OTLP/HTTP:
//
//	tp, err := observability.InitTracer(ctx, cfg)
//	defer tp.Shutdown(ctx)
//	mp, err := observability.InitMeter(ctx, cfg)
//	defer mp.Shutdown(ctx)
//
// TracingMiddleware opens a client span per exchange and propagates the
// trace context in request headers. DispatchMeter is an apicall.Observer
// that records dispatch counts, durations and streamed chunks:
//
//	meter, err := observability.NewDispatchMeter(observability.Meter("apikit"))
//	d, err := apicall.NewDispatcher(tr, cfg, apicall.WithObserver(meter))
//
// Summarize folds component health into one service-level report.
package observability
