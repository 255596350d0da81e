// Package metrics provides centralized Prometheus metrics for the ingestion
// and search pipeline's four processes.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track request patterns and performance on the search service (C4).
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	ActiveConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_active_connections",
			Help: "Number of active HTTP connections",
		},
	)
)

// Fetcher metrics (C1).
var (
	FetchAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fetch_attempts_total",
			Help: "Total number of fetch attempts by result",
		},
		[]string{"host", "result"}, // result: published, non_200, retry_exhausted
	)

	FetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "fetch_duration_seconds",
			Help:    "Time taken to fetch a single URL, including host-gate wait",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"host"},
	)

	HostGateWait = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fetch_host_gate_wait_seconds",
			Help:    "Time a fetch spent waiting on the per-host minimum-interval gate",
			Buckets: []float64{0, 0.1, 0.5, 1, 2, 4, 8},
		},
	)

	QueuePublishTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "queue_publish_total",
			Help: "Total number of raw-page publish attempts by result",
		},
		[]string{"result"}, // success, failure
	)
)

// Article store metrics (C2).
var (
	ArticlesUpsertedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "articles_upserted_total",
			Help: "Total number of article upserts by outcome",
		},
		[]string{"outcome"}, // inserted, new_version, unchanged
	)

	MessagesConsumedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "raw_pages_consumed_total",
			Help: "Total number of raw page messages consumed by outcome",
		},
		[]string{"outcome"}, // ok, malformed, dead_lettered
	)

	ExtractDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "extract_duration_seconds",
			Help:    "Time taken to extract article fields from raw HTML",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 10),
		},
	)
)

// Indexer metrics (C3).
var (
	IndexerTickDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "indexer_tick_duration_seconds",
			Help:    "Time taken to complete one indexer tick",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
	)

	IndexerDocsIndexedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_documents_indexed_total",
			Help: "Total number of documents bulk-upserted into the search engine",
		},
	)

	IndexerTickErrorsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "indexer_tick_errors_total",
			Help: "Total number of indexer ticks that failed and left the watermark unchanged",
		},
	)

	IndexerWatermarkUnixSeconds = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "indexer_watermark_unix_seconds",
			Help: "The last_indexed watermark, as unix epoch seconds",
		},
	)
)

// Search & personalization metrics (C4/C5).
var (
	SearchRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "search_requests_total",
			Help: "Total number of search requests by mode",
		},
		[]string{"mode"}, // keyword, semantic, blended
	)

	ClickUpdatesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "profile_click_updates_total",
			Help: "Total number of interest-vector updates applied by click feedback",
		},
	)
)

// RecordHTTPRequest records an HTTP request with its metadata.
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}
