// Package observability provides structured logging and Prometheus metrics
// shared by the fetcher, store, indexer, and search processes.
//
// Subpackages:
//   - logging: structured logging utilities with slog
//   - metrics: Prometheus metrics registry and recorders
//
// Example usage:
//
//	import (
//	    "newsfeed/internal/observability/logging"
//	    "newsfeed/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.NewLogger()
//	    logger.Info("application started")
//
//	    metrics.ArticlesUpsertedTotal.WithLabelValues("inserted").Inc()
//	}
package observability
