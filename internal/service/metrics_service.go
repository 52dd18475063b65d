package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/academic-planner-api/internal/models"
)

// MetricsService owns the Prometheus registry of the API and the planner domain counters.
type MetricsService struct {
	registry          *prometheus.Registry
	handler           http.Handler
	requestDuration   *prometheus.HistogramVec
	requestTotal      *prometheus.CounterVec
	cacheLatency      prometheus.Observer
	cacheWrite        prometheus.Observer
	cacheHitRatio     prometheus.Gauge
	cacheHits         prometheus.Counter
	cacheMisses       prometheus.Counter
	absenceTransition *prometheus.CounterVec
	periodsClosed     *prometheus.CounterVec
	navigationChanges *prometheus.CounterVec
	documentUploads   *prometheus.CounterVec
	jobOutcomes       *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	transitionCount      uint64
	autoClosedCount      uint64
	navigationCount      uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	absenceTransition := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_absence_transitions_total",
		Help: "Failed-by-absence transitions applied by absence mutations",
	}, []string{"transition"})

	periodsClosed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_periods_closed_total",
		Help: "Periods moved to closed, by trigger",
	}, []string{"trigger"})

	navigationChanges := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_navigation_changes_total",
		Help: "Navigation context switches",
	}, []string{"kind"})

	documentUploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_document_uploads_total",
		Help: "Document uploads by resource type and result",
	}, []string{"resource_type", "result"})

	jobOutcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_jobs_total",
		Help: "Background job executions by type and result",
	}, []string{"type", "result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		absenceTransition, periodsClosed, navigationChanges, documentUploads, jobOutcomes,
		goroutines,
	)

	return &MetricsService{
		registry:          registry,
		handler:           promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:   requestDuration,
		requestTotal:      requestTotal,
		cacheLatency:      cacheLatency,
		cacheWrite:        cacheWrite,
		cacheHitRatio:     cacheHitRatio,
		cacheHits:         cacheHits,
		cacheMisses:       cacheMisses,
		absenceTransition: absenceTransition,
		periodsClosed:     periodsClosed,
		navigationChanges: navigationChanges,
		documentUploads:   documentUploads,
		jobOutcomes:       jobOutcomes,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a lookup and refreshes the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks cache write latency.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// RecordAbsenceTransition counts a failed-by-absence flag change. "none" is ignored.
func (m *MetricsService) RecordAbsenceTransition(transition string) {
	if m == nil || transition == "" || transition == "none" {
		return
	}
	m.absenceTransition.WithLabelValues(transition).Inc()
	atomic.AddUint64(&m.transitionCount, 1)
}

// RecordPeriodsClosed counts periods closed by a trigger (manual or auto).
func (m *MetricsService) RecordPeriodsClosed(trigger string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.periodsClosed.WithLabelValues(trigger).Add(float64(n))
	if trigger == "auto" {
		atomic.AddUint64(&m.autoClosedCount, uint64(n))
	}
}

// RecordNavigationChange counts a navigation context switch.
func (m *MetricsService) RecordNavigationChange(kind string) {
	if m == nil {
		return
	}
	m.navigationChanges.WithLabelValues(kind).Inc()
	atomic.AddUint64(&m.navigationCount, 1)
}

// RecordDocumentUpload counts an upload attempt.
func (m *MetricsService) RecordDocumentUpload(resourceType string, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.documentUploads.WithLabelValues(resourceType, result).Inc()
}

// RecordJob counts a background job execution.
func (m *MetricsService) RecordJob(jobType string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.jobOutcomes.WithLabelValues(jobType, result).Inc()
}

// Snapshot returns aggregated counters for the system metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if lookups := hits + misses; lookups > 0 {
		cacheRatio = float64(hits) / float64(lookups)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		AbsenceTransitions:       atomic.LoadUint64(&m.transitionCount),
		PeriodsAutoClosed:        atomic.LoadUint64(&m.autoClosedCount),
		NavigationChanges:        atomic.LoadUint64(&m.navigationCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
