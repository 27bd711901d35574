// Package metrics records table operations as Prometheus metrics and serves
// them over HTTP.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"kakebo/internal/cache"
	"kakebo/internal/core"
)

const namespace = "kakebo"

// Metrics owns a private registry so tests and multiple instances never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	operations *prometheus.CounterVec
	duration   *prometheus.HistogramVec
	errors     *prometheus.CounterVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		operations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "operations_total",
			Help:      "Total backend operations by table, operation and result.",
		}, []string{"table", "operation", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "operation_duration_seconds",
			Help:      "Backend operation latency in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 15},
		}, []string{"table", "operation"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "table",
			Name:      "errors_total",
			Help:      "Total failed backend operations by error type.",
		}, []string{"table", "error_type"}),
	}
}

// Registry exposes the registry for handlers and tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observe implements table.Observer.
func (m *Metrics) Observe(tableID, operation string, elapsed time.Duration, err error) {
	result := "ok"
	if err != nil {
		result = "error"
		m.errors.WithLabelValues(tableID, core.Kind(err)).Inc()
	}
	m.operations.WithLabelValues(tableID, operation, result).Inc()
	m.duration.WithLabelValues(tableID, operation).Observe(elapsed.Seconds())
}

// StatsSource is implemented by *cache.LRUCache.
type StatsSource interface {
	Stats() cache.Stats
	Size() int
}

// WatchCache exports the hit, miss and eviction counters of a cache.
func (m *Metrics) WatchCache(name string, c StatsSource) {
	stats := c.Stats
	labels := prometheus.Labels{"cache": name}
	factory := promauto.With(m.registry)
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "cache", Name: "hits_total",
		Help: "Cache hits.", ConstLabels: labels,
	}, func() float64 { return float64(stats().Hits) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "cache", Name: "misses_total",
		Help: "Cache misses.", ConstLabels: labels,
	}, func() float64 { return float64(stats().Misses) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace, Subsystem: "cache", Name: "evictions_total",
		Help: "Cache evictions.", ConstLabels: labels,
	}, func() float64 { return float64(stats().Evictions) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace, Subsystem: "cache", Name: "entries",
		Help: "Entries currently cached.", ConstLabels: labels,
	}, func() float64 { return float64(c.Size()) })
}
