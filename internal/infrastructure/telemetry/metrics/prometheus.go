package metrics

import (
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// prometheusMetrics implements Metrics on top of a dedicated registry, so
// /metrics exposition is independent of the default global registry and
// safe to mount even when other packages also touch prometheus globals.
type prometheusMetrics struct {
	registry *prometheus.Registry
	counters sync.Map
	histos   sync.Map

	httpTotal    *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec

	bufferUsage   prometheus.Gauge
	spansDropped  prometheus.Counter
	writerBatches prometheus.Counter
	dbConnected   prometheus.Gauge
}

var _ Metrics = (*prometheusMetrics)(nil)

// NewPrometheusMetrics builds a Metrics implementation backed by
// client_golang, pre-registering the collector's domain gauges/counters
// (hikari_buffer_usage_ratio, hikari_spans_dropped_total,
// hikari_db_writer_batches_total, hikari_db_connected) alongside generic
// HTTP counters/histograms.
func NewPrometheusMetrics(namespace string) (Metrics, error) {
	reg := prometheus.NewRegistry()

	m := &prometheusMetrics{
		registry: reg,
		httpTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests handled.",
		}, []string{"method", "route", "status"}),
		httpDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		bufferUsage: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "hikari_buffer_usage_ratio",
			Help: "Current write buffer depth as a fraction of capacity.",
		}),
		spansDropped: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hikari_spans_dropped_total",
			Help: "Total spans dropped due to buffer overflow.",
		}),
		writerBatches: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "hikari_db_writer_batches_total",
			Help: "Total batches persisted by the background writer.",
		}),
		dbConnected: promauto.With(reg).NewGauge(prometheus.GaugeOpts{
			Name: "hikari_db_connected",
			Help: "1 if the last writer batch succeeded, 0 otherwise.",
		}),
	}

	return m, nil
}

// Registry exposes the underlying registry so the HTTP bootstrap layer
// can mount promhttp.HandlerFor(m.Registry(), ...) at /metrics.
func (m *prometheusMetrics) Registry() *prometheus.Registry {
	return m.registry
}

// SetBufferUsage updates the hikari_buffer_usage_ratio gauge. No code in
// this repository calls it or the other domain setters below, so these
// series report their initial values.
func (m *prometheusMetrics) SetBufferUsage(ratio float64) {
	m.bufferUsage.Set(ratio)
}

// AddSpansDropped increments hikari_spans_dropped_total by delta.
func (m *prometheusMetrics) AddSpansDropped(delta float64) {
	m.spansDropped.Add(delta)
}

// IncWriterBatches increments hikari_db_writer_batches_total by one.
func (m *prometheusMetrics) IncWriterBatches() {
	m.writerBatches.Inc()
}

// SetDBConnected updates the hikari_db_connected gauge.
func (m *prometheusMetrics) SetDBConnected(connected bool) {
	if connected {
		m.dbConnected.Set(1)
		return
	}
	m.dbConnected.Set(0)
}

func (m *prometheusMetrics) Incr(name string, tags []string) {
	name = sanitizePromName(name)
	v, _ := m.counters.LoadOrStore(name, promauto.With(m.registry).NewCounter(prometheus.CounterOpts{
		Name: name,
		Help: "Counter for " + name,
	}))
	v.(prometheus.Counter).Inc()
}

func (m *prometheusMetrics) Distribution(name string, value float64, tags []string) {
	name = sanitizePromName(name)
	v, _ := m.histos.LoadOrStore(name, promauto.With(m.registry).NewHistogram(prometheus.HistogramOpts{
		Name:    name,
		Help:    "Distribution for " + name,
		Buckets: prometheus.DefBuckets,
	}))
	v.(prometheus.Histogram).Observe(value)
}

func (m *prometheusMetrics) Timing(name string, value time.Duration, tags []string) {
	m.Distribution(name+"_seconds", value.Seconds(), tags)
}

func (m *prometheusMetrics) RecordHTTP(method, path, routePath string, statusCode int, duration float64) {
	status := statusBucket(statusCode)
	m.httpTotal.WithLabelValues(method, routePath, status).Inc()
	m.httpDuration.WithLabelValues(method, routePath, status).Observe(duration)
}

func (m *prometheusMetrics) Close() error { return nil }

func sanitizePromName(name string) string {
	return strings.ReplaceAll(name, ".", "_")
}

func statusBucket(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}
