package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes the service's Prometheus instrumentation. All vectors
// hang off a private registry so tests can build isolated instances.
type Metrics struct {
	registry *prometheus.Registry

	scores             *prometheus.CounterVec
	calibrationLookups *prometheus.CounterVec
	cacheEvents        *prometheus.CounterVec
	rateLimitBlocks    prometheus.Counter
	requestDuration    *prometheus.HistogramVec
	scoreDuration      prometheus.Histogram
}

// Score outcomes tracked by the scores counter.
const (
	OutcomeScored = "scored"
	OutcomeVeto   = "veto"
	OutcomeError  = "error"
)

// NewMetrics registers all collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: registry,
		scores: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guildscore",
			Name:      "guilds_scored_total",
			Help:      "Guild scoring requests by outcome.",
		}, []string{"outcome"}),
		calibrationLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guildscore",
			Name:      "calibration_lookups_total",
			Help:      "Calibration cell lookups by result.",
		}, []string{"result"}),
		cacheEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guildscore",
			Name:      "cache_events_total",
			Help:      "Response cache hits and misses.",
		}, []string{"event"}),
		rateLimitBlocks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "guildscore",
			Name:      "rate_limit_blocks_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "guildscore",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "path", "status"}),
		scoreDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guildscore",
			Name:      "score_duration_seconds",
			Help:      "End-to-end guild scoring latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	registry.MustRegister(
		m.scores,
		m.calibrationLookups,
		m.cacheEvents,
		m.rateLimitBlocks,
		m.requestDuration,
		m.scoreDuration,
	)

	return m
}

// Handler serves the registry for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordScore counts one scoring request and its latency.
func (m *Metrics) RecordScore(outcome string, duration time.Duration) {
	m.scores.WithLabelValues(outcome).Inc()
	m.scoreDuration.Observe(duration.Seconds())
}

// IncrementCalibrationHit counts a resolved calibration cell.
func (m *Metrics) IncrementCalibrationHit() {
	m.calibrationLookups.WithLabelValues("hit").Inc()
}

// IncrementCalibrationMiss counts an uncalibrated cell.
func (m *Metrics) IncrementCalibrationMiss() {
	m.calibrationLookups.WithLabelValues("miss").Inc()
}

// IncrementCacheHit counts a response served from the cache.
func (m *Metrics) IncrementCacheHit() {
	m.cacheEvents.WithLabelValues("hit").Inc()
}

// IncrementCacheMiss counts a cache miss.
func (m *Metrics) IncrementCacheMiss() {
	m.cacheEvents.WithLabelValues("miss").Inc()
}

// IncrementRateLimitBlock counts a rejected request.
func (m *Metrics) IncrementRateLimitBlock() {
	m.rateLimitBlocks.Inc()
}

// RecordRequest observes one HTTP request.
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	m.requestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
