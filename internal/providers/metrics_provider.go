package providers

import (
	"flairhq/internal/structures"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"time"
)

type MetricsProviderInterface interface {
	IncRequestsTotal(endpoint string, status int)
	ObserveRequestDuration(endpoint string, duration time.Duration)
	IncCacheHits()
	IncCacheMisses()
	ObserveArchiveDuration(duration time.Duration)
	IncApplications(outcome string)
	IncTextChanges(outcome string)
	IncAbuseSignals(kind string)
	SetAuditBacklog(count int)
}

type MetricsProvider struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	archiveDuration prometheus.Histogram
	applications    *prometheus.CounterVec
	textChanges     *prometheus.CounterVec
	abuseSignals    *prometheus.CounterVec
	auditBacklog    prometheus.Gauge
}

func (m *MetricsProvider) IncRequestsTotal(endpoint string, status int) {
	m.requestsTotal.WithLabelValues(endpoint, httpStatusBucket(status)).Inc()
}

func (m *MetricsProvider) ObserveRequestDuration(endpoint string, duration time.Duration) {
	m.requestDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}

func (m *MetricsProvider) IncCacheHits() {
	m.cacheHits.Inc()
}

func (m *MetricsProvider) IncCacheMisses() {
	m.cacheMisses.Inc()
}

func (m *MetricsProvider) ObserveArchiveDuration(duration time.Duration) {
	m.archiveDuration.Observe(duration.Seconds())
}

func (m *MetricsProvider) IncApplications(outcome string) {
	m.applications.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) IncTextChanges(outcome string) {
	m.textChanges.WithLabelValues(outcome).Inc()
}

func (m *MetricsProvider) IncAbuseSignals(kind string) {
	m.abuseSignals.WithLabelValues(kind).Inc()
}

func (m *MetricsProvider) SetAuditBacklog(count int) {
	m.auditBacklog.Set(float64(count))
}

func httpStatusBucket(code int) string {
	switch {
	case code < 200:
		return "1xx"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}

func NewMetricsProvider(conf *structures.Config) MetricsProviderInterface {
	if !conf.Metrics.Enabled {
		return &noopMetrics{}
	}

	return &MetricsProvider{
		requestsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flairhq_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"endpoint", "status"}),

		requestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "flairhq_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"endpoint"}),

		cacheHits: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flairhq_cache_hits_total",
			Help: "Total number of cache hits",
		}),

		cacheMisses: promauto.NewCounter(prometheus.CounterOpts{
			Name: "flairhq_cache_misses_total",
			Help: "Total number of cache misses",
		}),

		archiveDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "flairhq_archive_duration_seconds",
			Help:    "Duration of moderation log archive runs in seconds",
			Buckets: prometheus.DefBuckets,
		}),

		applications: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flairhq_applications_total",
			Help: "Flair application lifecycle outcomes",
		}, []string{"outcome"}),

		textChanges: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flairhq_text_changes_total",
			Help: "Self-service flair text change outcomes",
		}, []string{"outcome"}),

		abuseSignals: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "flairhq_abuse_signals_total",
			Help: "Abuse signals raised on flair text changes",
		}, []string{"kind"}),

		auditBacklog: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "flairhq_audit_backlog",
			Help: "Moderation events waiting to be written",
		}),
	}
}

// noopMetrics is a no-op implementation for when metrics are disabled.
type noopMetrics struct{}

func (n *noopMetrics) IncRequestsTotal(_ string, _ int)                 {}
func (n *noopMetrics) ObserveRequestDuration(_ string, _ time.Duration) {}
func (n *noopMetrics) IncCacheHits()                                    {}
func (n *noopMetrics) IncCacheMisses()                                  {}
func (n *noopMetrics) ObserveArchiveDuration(_ time.Duration)           {}
func (n *noopMetrics) IncApplications(_ string)                         {}
func (n *noopMetrics) IncTextChanges(_ string)                          {}
func (n *noopMetrics) IncAbuseSignals(_ string)                         {}
func (n *noopMetrics) SetAuditBacklog(_ int)                            {}
