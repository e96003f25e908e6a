package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type WorkerMetrics struct {
	registry *prometheus.Registry

	previewTotal    *prometheus.CounterVec
	previewDuration *prometheus.HistogramVec
	previewInFlight prometheus.Gauge
	eventLag        *prometheus.HistogramVec
}

func NewWorkerMetrics(service string) *WorkerMetrics {
	registry := prometheus.NewRegistry()

	previewTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dms",
			Subsystem: "worker",
			Name:      "preview_total",
			Help:      "Total processed preview jobs by status.",
		},
		[]string{"service", "status"},
	)
	previewDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dms",
			Subsystem: "worker",
			Name:      "preview_duration_seconds",
			Help:      "Preview job duration in seconds by status.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "status"},
	)
	previewInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dms",
			Subsystem: "worker",
			Name:      "preview_in_flight",
			Help:      "Number of in-flight preview jobs.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dms",
			Subsystem: "worker",
			Name:      "event_lag_seconds",
			Help:      "Delay between event publication and processing start.",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service"},
	)

	registry.MustRegister(previewTotal, previewDuration, previewInFlight, eventLag)

	return &WorkerMetrics{
		registry:        registry,
		previewTotal:    previewTotal,
		previewDuration: previewDuration,
		previewInFlight: previewInFlight,
		eventLag:        eventLag,
	}
}

func (m *WorkerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *WorkerMetrics) StartPreview() {
	m.previewInFlight.Inc()
}

func (m *WorkerMetrics) FinishPreview(service string, duration time.Duration, err error) {
	m.previewInFlight.Dec()

	status := "success"
	if err != nil {
		status = "error"
	}

	m.previewTotal.WithLabelValues(service, status).Inc()
	m.previewDuration.WithLabelValues(service, status).Observe(duration.Seconds())
}

func (m *WorkerMetrics) ObserveEventLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
}
