package service

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService owns the Prometheus registry and the portal's counters.
type MetricsService struct {
	registry *prometheus.Registry

	documentOps  *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
	exportJobs   *prometheus.CounterVec
}

// NewMetricsService builds the registry with process and Go collectors plus
// the portal-specific instruments.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	documentOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orgportal_document_operations_total",
		Help: "Document engine operations by kind.",
	}, []string{"operation"})

	httpDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "orgportal_http_request_duration_seconds",
		Help:    "HTTP request latency by route, method and status.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route", "method", "status"})

	exportJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "orgportal_export_jobs_total",
		Help: "Activity export jobs by terminal status.",
	}, []string{"status"})

	registry.MustRegister(documentOps, httpDuration, exportJobs)

	return &MetricsService{
		registry:     registry,
		documentOps:  documentOps,
		httpDuration: httpDuration,
		exportJobs:   exportJobs,
	}
}

// ObserveDocumentOperation counts one engine operation.
func (s *MetricsService) ObserveDocumentOperation(operation string) {
	s.documentOps.WithLabelValues(operation).Inc()
}

// ObserveHTTPRequest records one request's latency.
func (s *MetricsService) ObserveHTTPRequest(route, method string, status int, duration time.Duration) {
	s.httpDuration.WithLabelValues(route, method, strconv.Itoa(status)).Observe(duration.Seconds())
}

// ObserveExportJob counts one export job reaching a terminal status.
func (s *MetricsService) ObserveExportJob(status string) {
	s.exportJobs.WithLabelValues(status).Inc()
}

// Handler exposes the registry for scraping.
func (s *MetricsService) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}
