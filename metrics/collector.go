package metrics

import (
	"context"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kbukum/apikit/apicall"
	"github.com/kbukum/apikit/resilience"
)

const namespace = "apikit"

// Collector records dispatch lifecycle metrics. It is safe for concurrent
// use and a nil *Collector records nothing.
type Collector struct {
	dispatches   *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	inFlight     *prometheus.GaugeVec
	chunks       *prometheus.CounterVec
	chunkBytes   *prometheus.CounterVec
	breakerState *prometheus.GaugeVec

	registerer prometheus.Registerer
	gatherer   prometheus.Gatherer
}

// NewCollector registers the apikit metrics on reg. When reg is nil the
// default registerer is used.
func NewCollector(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	c := &Collector{
		dispatches: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Finished dispatches by API, method, outcome and status.",
		}, []string{"api", "method", "outcome", "status"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Dispatch duration in seconds, including body consumption.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"api", "method", "outcome"}),
		inFlight: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "dispatch_in_flight",
			Help:      "Dispatches currently in flight.",
		}, []string{"api"}),
		chunks: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunks_total",
			Help:      "Streaming chunks delivered to sinks.",
		}, []string{"api"}),
		chunkBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chunk_bytes_total",
			Help:      "Bytes of streaming chunks delivered to sinks.",
		}, []string{"api"}),
		breakerState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "circuit_breaker_state",
			Help:      "Circuit breaker state (0=closed, 1=open, 2=half-open).",
		}, []string{"name"}),
		registerer: reg,
	}
	if g, ok := reg.(prometheus.Gatherer); ok {
		c.gatherer = g
	} else {
		c.gatherer = prometheus.DefaultGatherer
	}
	return c
}

// DispatchStarted implements apicall.Observer.
func (c *Collector) DispatchStarted(_ context.Context, call apicall.CallInfo) {
	if c == nil {
		return
	}
	c.inFlight.WithLabelValues(call.API).Inc()
}

// ChunkDelivered implements apicall.Observer.
func (c *Collector) ChunkDelivered(_ context.Context, call apicall.CallInfo, size int) {
	if c == nil {
		return
	}
	c.chunks.WithLabelValues(call.API).Inc()
	c.chunkBytes.WithLabelValues(call.API).Add(float64(size))
}

// DispatchFinished implements apicall.Observer.
func (c *Collector) DispatchFinished(_ context.Context, call apicall.CallInfo, res apicall.Result) {
	if c == nil {
		return
	}
	status := ""
	if res.Status > 0 {
		status = strconv.Itoa(res.Status)
	}
	method, outcome := string(call.Method), string(res.Outcome)
	c.inFlight.WithLabelValues(call.API).Dec()
	c.dispatches.WithLabelValues(call.API, method, outcome, status).Inc()
	c.duration.WithLabelValues(call.API, method, outcome).Observe(res.Duration.Seconds())
}

// RecordBreakerState has the signature of
// resilience.CircuitBreakerConfig.OnStateChange.
func (c *Collector) RecordBreakerState(name string, _, to resilience.State) {
	if c == nil {
		return
	}
	c.breakerState.WithLabelValues(name).Set(float64(to))
}

// Handler serves the registry the collector was created with.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// Registerer returns the registerer passed to NewCollector.
func (c *Collector) Registerer() prometheus.Registerer { return c.registerer }
