package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes application metrics that are safe to scrape via Prometheus.
type Metrics struct {
	registry            *prometheus.Registry
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
	normalizations      *prometheus.CounterVec
	normalizeWarnings   *prometheus.CounterVec
	catalogLoads        *prometheus.CounterVec
	catalogTrees        prometheus.Gauge
}

// New creates a fresh Metrics registry with HTTP, normalization and catalog metrics registered.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "layertree",
		Name:      "http_requests_total",
		Help:      "Count of HTTP requests processed by layertree",
	}, []string{"method", "path", "status"})

	httpRequestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "layertree",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests served by layertree",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	normalizations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "layertree",
		Name:      "normalizations_total",
		Help:      "Tree normalizations by outcome",
	}, []string{"result"})

	normalizeWarnings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "layertree",
		Name:      "normalize_warnings_total",
		Help:      "Non-fatal conditions reported while normalizing trees",
	}, []string{"code"})

	catalogLoads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "layertree",
		Name:      "catalog_loads_total",
		Help:      "Catalog load attempts by outcome",
	}, []string{"result"})

	catalogTrees := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "layertree",
		Name:      "catalog_trees",
		Help:      "Number of trees currently served from the catalog",
	})

	registry.MustRegister(
		httpRequests,
		httpRequestDuration,
		normalizations,
		normalizeWarnings,
		catalogLoads,
		catalogTrees,
	)

	return &Metrics{
		registry:            registry,
		httpRequests:        httpRequests,
		httpRequestDuration: httpRequestDuration,
		normalizations:      normalizations,
		normalizeWarnings:   normalizeWarnings,
		catalogLoads:        catalogLoads,
		catalogTrees:        catalogTrees,
	}
}

// ObserveHTTPRequest records a single HTTP request/response cycle.
func (m *Metrics) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labels := prometheus.Labels{
		"method": method,
		"path":   path,
		"status": strconv.Itoa(status),
	}
	m.httpRequests.With(labels).Inc()
	m.httpRequestDuration.With(labels).Observe(duration.Seconds())
}

// ObserveNormalization records one normalize call. result is "ok" or an error code;
// codes holds the warning code of every reported warning.
func (m *Metrics) ObserveNormalization(result string, codes []string) {
	if m == nil {
		return
	}
	m.normalizations.WithLabelValues(result).Inc()
	for _, c := range codes {
		m.normalizeWarnings.WithLabelValues(c).Inc()
	}
}

func (m *Metrics) ObserveCatalogLoad(ok bool, trees int) {
	if m == nil {
		return
	}
	if !ok {
		m.catalogLoads.WithLabelValues("error").Inc()
		return
	}
	m.catalogLoads.WithLabelValues("ok").Inc()
	m.catalogTrees.Set(float64(trees))
}

// Handler exposes the Prometheus registry over HTTP.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("metrics unavailable"))
		})
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
