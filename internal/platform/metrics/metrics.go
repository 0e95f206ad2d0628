package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lephu2k6/agri-flow-platform-sub001/internal/platform/logger"
)

// Manager holds the service's Prometheus metrics on its own registry.
type Manager struct {
	Registry *prometheus.Registry

	ListingsCreatedTotal  prometheus.Counter
	ListingsArchivedTotal prometheus.Counter
	CatalogRefreshesTotal *prometheus.CounterVec // outcome: applied, error
	ImageUploadsTotal     *prometheus.CounterVec // outcome: ok, error
	APIErrorsTotal        *prometheus.CounterVec // by handler
	APIRequestLatency     *prometheus.HistogramVec
}

func NewManager(namespace string) *Manager {
	registry := prometheus.NewRegistry()

	m := &Manager{
		Registry: registry,
		ListingsCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_created_total",
			Help:      "Total number of listings created.",
		}),
		ListingsArchivedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "listings_archived_total",
			Help:      "Total number of listings archived.",
		}),
		CatalogRefreshesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "catalog_refreshes_total",
			Help:      "Catalog refresh attempts by outcome.",
		}, []string{"outcome"}),
		ImageUploadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_uploads_total",
			Help:      "Image uploads by outcome.",
		}, []string{"outcome"}),
		APIErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_errors_total",
			Help:      "API errors by handler.",
		}, []string{"handler"}),
		APIRequestLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_latency_seconds",
			Help:      "Latency of API requests by handler.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"handler"}),
	}

	registry.MustRegister(
		m.ListingsCreatedTotal,
		m.ListingsArchivedTotal,
		m.CatalogRefreshesTotal,
		m.ImageUploadsTotal,
		m.APIErrorsTotal,
		m.APIRequestLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// StartServer exposes /metrics on the given port. Blocks; run in a goroutine.
func StartServer(port string, appLogger *logger.Logger, registry *prometheus.Registry) error {
	if port == "" {
		appLogger.Info("metrics server port not configured, server will not start")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	appLogger.Info("metrics server starting", zap.String("port", port))
	server := &http.Server{Addr: ":" + port, Handler: mux}
	return server.ListenAndServe()
}
