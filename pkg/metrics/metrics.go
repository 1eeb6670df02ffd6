// Package metrics 集中定义 Prometheus 指标，注册到默认 registry。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ScoreRequests 搭配打分请求，path: remote / fallback / empty
	ScoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_score_requests_total",
			Help: "Compatibility scoring requests by resolution path",
		},
		[]string{"path"},
	)

	ScoreDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topcare_score_duration_seconds",
			Help:    "Compatibility scoring latency",
			Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"path"},
	)

	// CircuitBreakerState 0=closed, 1=half-open, 2=open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "topcare_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerRequests result: success / failure / rejected
	CircuitBreakerRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_circuit_breaker_requests_total",
			Help: "Requests through circuit breaker by result",
		},
		[]string{"name", "result"},
	)

	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_circuit_breaker_transitions_total",
			Help: "Circuit breaker state transitions",
		},
		[]string{"name", "from_state", "to_state"},
	)

	// FeedPages 分页拉取，outcome: ok / error / discarded
	FeedPages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_feed_pages_total",
			Help: "Feed page fetches by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)

	DegradedRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_degraded_requests_total",
			Help: "Personalized requests served by deterministic ordering",
		},
		[]string{"component"},
	)

	RankDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topcare_rank_duration_seconds",
			Help:    "Ranking pipeline latency by mode",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"mode"},
	)

	TelemetryEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_telemetry_events_total",
			Help: "Telemetry events by kind and outcome",
		},
		[]string{"kind", "outcome"},
	)

	DetailCacheHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_detail_cache_hits_total",
			Help: "Listing detail cache hits by tier",
		},
		[]string{"tier"},
	)

	DetailCacheMisses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "topcare_detail_cache_misses_total",
			Help: "Listing detail cache misses",
		},
	)

	RankOrderCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_rank_order_cache_total",
			Help: "Ranked order cache lookups by result",
		},
		[]string{"result"},
	)

	APIRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "topcare_api_requests_total",
			Help: "HTTP API requests",
		},
		[]string{"method", "route", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "topcare_api_request_duration_seconds",
			Help:    "HTTP API request latency",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)
)

// RecordScore 记录一次打分。
func RecordScore(path string, d time.Duration) {
	ScoreRequests.WithLabelValues(path).Inc()
	ScoreDuration.WithLabelValues(path).Observe(d.Seconds())
}

// RecordFeedPage 记录一次分页拉取。
func RecordFeedPage(mode, outcome string) {
	FeedPages.WithLabelValues(mode, outcome).Inc()
}

// RecordTelemetry 记录一次曝光/点击上报。
func RecordTelemetry(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	TelemetryEvents.WithLabelValues(kind, outcome).Inc()
}

// RecordAPIRequest 记录一次 HTTP 请求。
func RecordAPIRequest(method, route, statusCode string, d time.Duration) {
	APIRequests.WithLabelValues(method, route, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}
