// Package metrics exports dispatch and resilience metrics to Prometheus.
//
// A Collector is an apicall.Observer; pass it to apicall.WithObserver and
// expose it with Handler:
//
//	mc := metrics.NewCollector(prometheus.NewRegistry())
//	d, _ := apicall.NewDispatcher(t, cfg, apicall.WithObserver(mc))
//	http.Handle("/metrics", mc.Handler())
package metrics
