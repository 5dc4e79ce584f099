package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "r2gate"

// Metrics provides a self-contained Prometheus registry with the HTTP and
// storage collectors used by the gateway.
type Metrics struct {
	reg *prometheus.Registry

	inflight prometheus.Gauge
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec

	storageOps     *prometheus.CounterVec
	storageLatency *prometheus.HistogramVec
	storageBytes   *prometheus.CounterVec
}

// New creates a Metrics instance with a fresh registry and registers collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()

	m := &Metrics{
		reg: reg,
		inflight: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of inflight HTTP requests.",
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests processed, partitioned by status code, method and route.",
		}, []string{"code", "method", "route"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of latencies for HTTP requests.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"code", "method", "route"}),
		storageOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operations_total",
			Help:      "Total number of object storage operations, partitioned by operation and outcome.",
		}, []string{"operation", "outcome"}),
		storageLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "operation_duration_seconds",
			Help:      "Histogram of object storage operation latencies.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		storageBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "bytes_total",
			Help:      "Total payload bytes moved, partitioned by direction (in, out).",
		}, []string{"direction"}),
	}

	reg.MustRegister(
		m.inflight, m.requests, m.latency,
		m.storageOps, m.storageLatency, m.storageBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler returns an http.Handler that serves Prometheus metrics using the internal registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Registry returns the underlying Prometheus registry for advanced usage.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.reg
}

// RequestStarted increments the inflight gauge; the returned func records
// the finished request.
func (m *Metrics) RequestStarted() func(code, method, route string) {
	start := time.Now()
	m.inflight.Inc()
	return func(code, method, route string) {
		m.inflight.Dec()
		m.requests.WithLabelValues(code, method, route).Inc()
		m.latency.WithLabelValues(code, method, route).Observe(time.Since(start).Seconds())
	}
}

// ObserveStorage records one storage operation. A nil receiver is a no-op.
func (m *Metrics) ObserveStorage(operation string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.storageOps.WithLabelValues(operation, outcome).Inc()
	m.storageLatency.WithLabelValues(operation).Observe(elapsed.Seconds())
}

// AddBytes counts payload bytes for direction "in" (uploads) or "out" (downloads).
func (m *Metrics) AddBytes(direction string, n int) {
	if m == nil {
		return
	}
	m.storageBytes.WithLabelValues(direction).Add(float64(n))
}
