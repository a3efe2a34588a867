package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/sma-timetable/internal/models"
)

// Engine operation labels for timetable_engine_duration_seconds.
const (
	OperationDetect     = "detect"
	OperationValidate   = "validate"
	OperationSchedule   = "schedule"
	OperationResolve    = "resolve"
	OperationResolveAll = "resolve_all"
	OperationCommit     = "commit"
)

// MetricsSnapshot is a point-in-time summary of the counters kept in memory.
type MetricsSnapshot struct {
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	ConflictsDetected        uint64    `json:"conflicts_detected"`
	SessionsScheduled        uint64    `json:"sessions_scheduled"`
	WorkItemsSkipped         uint64    `json:"work_items_skipped"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer and the timetable engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec
	conflicts       *prometheus.CounterVec
	schedulerItems  *prometheus.CounterVec
	resolverRuns    *prometheus.CounterVec
	engineDuration  *prometheus.HistogramVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	conflictCount        uint64
	createdCount         uint64
	skippedCount         uint64
}

// NewMetricsService registers the Prometheus collectors on a private registry.
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
		Name:    "proposal_cache_latency_seconds",
		Help:    "Latency for proposal cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "proposal_cache_write_seconds",
		Help:    "Latency for proposal cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "proposal_cache_hit_ratio",
		Help: "Ratio of proposal cache hits to total lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proposal_cache_hits_total",
		Help: "Total proposal cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "proposal_cache_misses_total",
		Help: "Total proposal cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	conflicts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_conflicts_detected_total",
		Help: "Conflicts reported by the detector, by type",
	}, []string{"type"})

	schedulerItems := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_scheduler_items_total",
		Help: "Work items processed by the bulk scheduler, by outcome",
	}, []string{"outcome"})

	resolverRuns := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_resolver_runs_total",
		Help: "Conflict repair attempts, by outcome",
	}, []string{"outcome"})

	engineDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_engine_duration_seconds",
		Help:    "Duration of timetable engine operations",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		dbQueryDuration,
		conflicts, schedulerItems, resolverRuns, engineDuration,
		goroutines,
	)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		dbQueryDuration: dbQueryDuration,
		conflicts:       conflicts,
		schedulerItems:  schedulerItems,
		resolverRuns:    resolverRuns,
		engineDuration:  engineDuration,
	}
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

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
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
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveEngine records how long one engine operation took.
func (m *MetricsService) ObserveEngine(operation string, duration time.Duration) {
	if m == nil {
		return
	}
	m.engineDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordConflicts counts detected conflicts by type.
func (m *MetricsService) RecordConflicts(conflicts []models.Conflict) {
	if m == nil {
		return
	}
	for _, c := range conflicts {
		m.conflicts.WithLabelValues(string(c.Type)).Inc()
	}
	atomic.AddUint64(&m.conflictCount, uint64(len(conflicts)))
}

// RecordSchedulerOutcome counts created and skipped work items for one run.
func (m *MetricsService) RecordSchedulerOutcome(created, skipped int) {
	if m == nil {
		return
	}
	m.schedulerItems.WithLabelValues("created").Add(float64(created))
	m.schedulerItems.WithLabelValues("skipped").Add(float64(skipped))
	atomic.AddUint64(&m.createdCount, uint64(created))
	atomic.AddUint64(&m.skippedCount, uint64(skipped))
}

// RecordResolverRun counts repair attempts as resolved or failed.
func (m *MetricsService) RecordResolverRun(resolved, failed int) {
	if m == nil {
		return
	}
	m.resolverRuns.WithLabelValues("resolved").Add(float64(resolved))
	m.resolverRuns.WithLabelValues("failed").Add(float64(failed))
}

// Snapshot returns the aggregated in-memory counters.
func (m *MetricsService) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		CacheHits:                hits,
		CacheMisses:              misses,
		CacheHitRatio:            cacheRatio,
		ConflictsDetected:        atomic.LoadUint64(&m.conflictCount),
		SessionsScheduled:        atomic.LoadUint64(&m.createdCount),
		WorkItemsSkipped:         atomic.LoadUint64(&m.skippedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
