package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry encapsulates all metrics and provides a clean interface
// for recording metrics without global state
type Registry struct {
	registry *prometheus.Registry

	// Publisher metrics
	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec

	// Subscriber metrics
	persistTotal    *prometheus.CounterVec
	persistDuration *prometheus.HistogramVec

	// System health metrics
	systemInfo *prometheus.GaugeVec
	startTime  prometheus.Gauge
}

// NewRegistry creates a new metrics registry with all metrics initialized
func NewRegistry() *Registry {
	registry := prometheus.NewRegistry()

	r := &Registry{
		registry: registry,

		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_publish_total",
				Help: "Total number of publish calls",
			},
			[]string{"bus", "status"}, // status: success, error
		),

		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_publish_duration_seconds",
				Help:    "Time spent publishing events",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"bus"},
		),

		persistTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "relay_persist_total",
				Help: "Total number of record writes",
			},
			[]string{"table", "status"}, // status: success, error
		),

		persistDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "relay_persist_duration_seconds",
				Help:    "Time spent writing records",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
			},
			[]string{"table"},
		),

		systemInfo: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "relay_system_info",
				Help: "System information (value is always 1, labels contain info)",
			},
			[]string{"component", "version"},
		),

		startTime: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "relay_start_time_seconds",
				Help: "Unix timestamp when the application started",
			},
		),
	}

	// add default Go metrics (memory, GC, goroutines, etc.)
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	registry.MustRegister(
		r.publishTotal,
		r.publishDuration,
		r.persistTotal,
		r.persistDuration,
		r.systemInfo,
		r.startTime,
	)

	r.startTime.SetToCurrentTime()

	return r
}

// Handler returns an HTTP handler for the Prometheus metrics endpoint
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		Registry:          r.registry,
	})
}

// RecordPublish records a publish call to an event bus
func (r *Registry) RecordPublish(bus string, duration time.Duration, err error) {
	r.publishTotal.WithLabelValues(bus, status(err)).Inc()
	r.publishDuration.WithLabelValues(bus).Observe(duration.Seconds())
}

// RecordPersist records a record write
func (r *Registry) RecordPersist(table string, duration time.Duration, err error) {
	r.persistTotal.WithLabelValues(table, status(err)).Inc()
	r.persistDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// SetSystemInfo sets system information metrics
func (r *Registry) SetSystemInfo(component, version string) {
	r.systemInfo.WithLabelValues(component, version).Set(1)
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
