// Package metrics provides Prometheus metrics registry and recording
// utilities for the ingestion pipeline.
//
// This package centralizes metrics for the fetcher (C1), article store
// (C2), indexer (C3), and search/personalization service (C4), all
// registered with the Prometheus default registry and exposed via each
// process's /metrics endpoint.
//
// Example usage:
//
//	import "newsfeed/internal/observability/metrics"
//
//	func processTick(n int) {
//	    start := time.Now()
//	    // ... index n documents ...
//	    metrics.IndexerDocsIndexedTotal.Add(float64(n))
//	    metrics.IndexerTickDuration.Observe(time.Since(start).Seconds())
//	}
package metrics
