package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giedriusgen/DocumentManagementSystem/internal/core/domain"
	"github.com/giedriusgen/DocumentManagementSystem/internal/core/ports"
	"github.com/giedriusgen/DocumentManagementSystem/internal/observability/metrics"
)

// StatisticsExporter renders collected statistics as an xlsx workbook.
type StatisticsExporter interface {
	Render(stats domain.Statistics) ([]byte, error)
}

// TrafficPolicy bounds inbound request volume.
type TrafficPolicy struct {
	RateLimitRPS   float64
	RateLimitBurst int
	MaxInFlight    int
	InFlightWait   time.Duration
}

type Router struct {
	service  string
	workflow ports.DocumentWorkflow
	finder   ports.DocumentFinder
	files    ports.FileService
	stats    ports.StatisticsService
	exporter StatisticsExporter
	metrics  *metrics.HTTPServerMetrics
	traffic  TrafficPolicy
}

func NewRouter(
	service string,
	workflow ports.DocumentWorkflow,
	finder ports.DocumentFinder,
	files ports.FileService,
	stats ports.StatisticsService,
	exporter StatisticsExporter,
	m *metrics.HTTPServerMetrics,
	traffic TrafficPolicy,
) *Router {
	return &Router{
		service:  service,
		workflow: workflow,
		finder:   finder,
		files:    files,
		stats:    stats,
		exporter: exporter,
		metrics:  m,
		traffic:  traffic,
	}
}

func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", rt.healthz)
	if rt.metrics != nil {
		r.Method(http.MethodGet, "/metrics", rt.metrics.Handler())
	}
	r.Route("/v1", func(r chi.Router) {
		r.Get("/openapi.json", rt.openAPIDocument)

		r.Group(func(r chi.Router) {
			r.Use(identityMiddleware)

			r.Post("/documents", rt.createDocument)
			r.Get("/documents/for-approval", rt.listForApproval)
			r.Get("/documents/mine", rt.listMine)

			r.Route("/documents/{documentID}", func(r chi.Router) {
				r.Get("/", rt.getDocument)
				r.Delete("/", rt.deleteDocument)
				r.Put("/save", rt.saveDocument)
				r.Put("/submit", rt.submitDocument)
				r.Put("/approve", rt.approveDocument)
				r.Put("/reject", rt.rejectDocument)
				r.Post("/files", rt.attachFile)
				r.Get("/files", rt.listFiles)
			})

			r.Get("/files/{fileID}", rt.downloadFile)
			r.Delete("/files/{fileID}", rt.removeFile)

			r.Get("/statistics", rt.getStatistics)
			r.Get("/statistics/export", rt.exportStatistics)
		})
	})

	var handler http.Handler = r
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = rateLimitMiddleware(handler, rt.traffic.RateLimitRPS, rt.traffic.RateLimitBurst)
	handler = backpressureMiddleware(handler, rt.traffic.MaxInFlight, rt.inFlightWait())
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) inFlightWait() time.Duration {
	if rt.traffic.InFlightWait > 0 {
		return rt.traffic.InFlightWait
	}
	return time.Second
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
