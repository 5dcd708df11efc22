package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rl1809/cart-sync/internal/core/domain"
)

const namespace = "cartsync"

var latencyBuckets = []float64{5, 10, 25, 50, 100, 250, 500, 1000, 2500, 5000}

type Metrics struct {
	Operations  *prometheus.CounterVec
	OperationMS *prometheus.HistogramVec
	Requests    *prometheus.CounterVec
	LatencyMS   *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New registers the service collectors on reg. A nil reg gets a fresh
// registry that also carries the Go and process collectors.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "operations_total",
			Help:      "Cart operations by terminal outcome.",
		}, []string{"operation", "outcome"}),
		OperationMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "operation_duration_ms",
			Help:      "Cart operation latency in milliseconds.",
			Buckets:   latencyBuckets,
		}, []string{"operation"}),
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests.",
		}, []string{"handler", "status"}),
		LatencyMS: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_ms",
			Help:      "HTTP request latency in milliseconds.",
			Buckets:   latencyBuckets,
		}, []string{"handler"}),
		registry: reg,
	}

	reg.MustRegister(m.Operations, m.OperationMS, m.Requests, m.LatencyMS)
	return m
}

// RecordOutcome implements port.OutcomeRecorder.
func (m *Metrics) RecordOutcome(op domain.Operation, outcome domain.Outcome, elapsed time.Duration) {
	m.Operations.WithLabelValues(string(op), string(outcome)).Inc()
	m.OperationMS.WithLabelValues(string(op)).Observe(float64(elapsed.Milliseconds()))
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
