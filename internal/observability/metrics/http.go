package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	transitionsTotal *prometheus.CounterVec
	conflictsTotal   *prometheus.CounterVec
	attachmentsTotal *prometheus.CounterVec
	attachmentBytes  *prometheus.HistogramVec
	exportsTotal     *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dms",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dms",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "dms",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dms",
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Total document lifecycle transitions by outcome.",
		},
		[]string{"service", "transition", "outcome"},
	)
	conflictsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dms",
			Subsystem: "workflow",
			Name:      "conflicts_total",
			Help:      "Total transitions rejected by the conditional status update.",
		},
		[]string{"service", "transition"},
	)
	attachmentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dms",
			Subsystem: "files",
			Name:      "attachments_total",
			Help:      "Total attachment operations by action and outcome.",
		},
		[]string{"service", "action", "outcome"},
	)
	attachmentBytes := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "dms",
			Subsystem: "files",
			Name:      "attachment_bytes",
			Help:      "Distribution of uploaded attachment sizes in bytes.",
			Buckets:   prometheus.ExponentialBuckets(1024, 4, 8),
		},
		[]string{"service"},
	)
	exportsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "dms",
			Subsystem: "statistics",
			Name:      "exports_total",
			Help:      "Total statistics workbook exports.",
		},
		[]string{"service", "outcome"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		transitionsTotal,
		conflictsTotal,
		attachmentsTotal,
		attachmentBytes,
		exportsTotal,
	)

	return &HTTPServerMetrics{
		registry:         registry,
		requestTotal:     requestTotal,
		requestDuration:  requestDuration,
		requestInFlight:  requestInFlight,
		transitionsTotal: transitionsTotal,
		conflictsTotal:   conflictsTotal,
		attachmentsTotal: attachmentsTotal,
		attachmentBytes:  attachmentBytes,
		exportsTotal:     exportsTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses IDs so the path label stays low cardinality.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/v1/files/"):
		return "/v1/files/{file_id}"
	case strings.HasPrefix(path, "/v1/documents/"):
		rest := strings.TrimPrefix(path, "/v1/documents/")
		if rest == "mine" || rest == "for-approval" {
			return path
		}
		if action := pathAction(rest); action != "" {
			return "/v1/documents/{document_id}/" + action
		}
		return "/v1/documents/{document_id}"
	default:
		return path
	}
}

func pathAction(rest string) string {
	if i := strings.IndexByte(rest, '/'); i >= 0 {
		return rest[i+1:]
	}
	return ""
}

func (m *HTTPServerMetrics) RecordTransition(service, transition string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.transitionsTotal.WithLabelValues(service, transition, outcome).Inc()
}

func (m *HTTPServerMetrics) RecordConflict(service, transition string) {
	m.conflictsTotal.WithLabelValues(service, transition).Inc()
}

func (m *HTTPServerMetrics) RecordAttachment(service, action string, size int64, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.attachmentsTotal.WithLabelValues(service, action, outcome).Inc()
	if err == nil && action == "upload" && size > 0 {
		m.attachmentBytes.WithLabelValues(service).Observe(float64(size))
	}
}

func (m *HTTPServerMetrics) RecordExport(service string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.exportsTotal.WithLabelValues(service, outcome).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}
