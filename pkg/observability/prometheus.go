package observability

import (
	"context"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mindweave"

// Prometheus records hook events as Prometheus metrics. It implements
// EngineHooks, CacheHooks and HTTPHooks.
type Prometheus struct {
	operations     *prometheus.CounterVec
	opLatency      *prometheus.HistogramVec
	layouts        *prometheus.CounterVec
	layoutDuration *prometheus.HistogramVec
	layoutNodes    *prometheus.HistogramVec
	exports        *prometheus.CounterVec
	exportBytes    *prometheus.HistogramVec
	cacheEvents    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	httpInFlight   prometheus.Gauge
}

// NewPrometheus registers the metric set with reg.
func NewPrometheus(reg prometheus.Registerer) *Prometheus {
	f := promauto.With(reg)
	return &Prometheus{
		operations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operations_total",
			Help:      "Edits submitted to the engine by kind and outcome",
		}, []string{"kind", "outcome"}),
		opLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "engine",
			Name:      "operation_duration_seconds",
			Help:      "Time to admit and apply an edit",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1},
		}, []string{"kind"}),
		layouts: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "runs_total",
			Help:      "Layout computations by algorithm and status",
		}, []string{"algorithm", "status"}),
		layoutDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "duration_seconds",
			Help:      "Layout computation time",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"algorithm"}),
		layoutNodes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "layout",
			Name:      "nodes",
			Help:      "Nodes per layout computation",
			Buckets:   prometheus.ExponentialBuckets(1, 4, 7),
		}, []string{"algorithm"}),
		exports: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "total",
			Help:      "Exports by format and status",
		}, []string{"format", "status"}),
		exportBytes: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "export",
			Name:      "bytes",
			Help:      "Size of exported documents",
			Buckets:   prometheus.ExponentialBuckets(256, 4, 8),
		}, []string{"format"}),
		cacheEvents: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "events_total",
			Help:      "Cache hits, misses and writes by key type",
		}, []string{"key_type", "event"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP responses by route and status code",
		}, []string{"method", "route", "code"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		httpInFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Requests currently being served",
		}),
	}
}

func (p *Prometheus) OnOperation(_ context.Context, kind, outcome string, d time.Duration) {
	p.operations.WithLabelValues(kind, outcome).Inc()
	p.opLatency.WithLabelValues(kind).Observe(d.Seconds())
}

func (p *Prometheus) OnLayoutStart(_ context.Context, algorithm string, nodeCount int) {
	p.layoutNodes.WithLabelValues(algorithm).Observe(float64(nodeCount))
}

func (p *Prometheus) OnLayoutComplete(_ context.Context, algorithm string, d time.Duration, err error) {
	p.layouts.WithLabelValues(algorithm, status(err)).Inc()
	p.layoutDuration.WithLabelValues(algorithm).Observe(d.Seconds())
}

func (p *Prometheus) OnExport(_ context.Context, format string, size int, _ time.Duration, err error) {
	p.exports.WithLabelValues(format, status(err)).Inc()
	if err == nil {
		p.exportBytes.WithLabelValues(format).Observe(float64(size))
	}
}

func (p *Prometheus) OnCacheHit(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "hit").Inc()
}

func (p *Prometheus) OnCacheMiss(_ context.Context, keyType string) {
	p.cacheEvents.WithLabelValues(keyType, "miss").Inc()
}

func (p *Prometheus) OnCacheSet(_ context.Context, keyType string, _ int) {
	p.cacheEvents.WithLabelValues(keyType, "set").Inc()
}

func (p *Prometheus) OnRequest(context.Context, string, string) {
	p.httpInFlight.Inc()
}

func (p *Prometheus) OnResponse(_ context.Context, method, route string, code int, d time.Duration) {
	p.httpInFlight.Dec()
	p.httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	p.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

var (
	_ EngineHooks = (*Prometheus)(nil)
	_ CacheHooks  = (*Prometheus)(nil)
	_ HTTPHooks   = (*Prometheus)(nil)
)
