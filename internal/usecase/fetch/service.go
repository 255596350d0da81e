// Package fetch implements C1: seed expansion, per-host rate-limited HTTP
// fetch, and durable publish of raw pages to the queue.
package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"newsfeed/internal/domain/entity"
	"newsfeed/internal/observability/metrics"
	"newsfeed/internal/repository"
)

// PageFetcher performs the raw HTTP GET for a single URL, gated per-host and
// retried internally. It returns the fetched HTML, the final URL after any
// redirects, and how long the call spent waiting on the host gate.
// internal/infra/fetcher.Client satisfies this; it is passed in rather than
// imported directly so this package stays free of a fetcher->fetch->fetcher
// import cycle (fetcher imports this package for its sentinel errors).
type PageFetcher interface {
	Fetch(ctx context.Context, urlStr, host string) (html string, finalURL string, waited time.Duration, err error)
}

// Config controls seed expansion and fetch concurrency for a single run.
type Config struct {
	MaxURLs     int // truncate the flattened seed list to this many URLs; 0 means unlimited
	Concurrency int // global maximum in-flight fetches
}

// Stats summarizes one CrawlSeeds run. Its fields are updated from
// concurrently running fetches, guarded by an internal mutex; read them
// only after CrawlSeeds has returned.
type Stats struct {
	URLs       int
	Published  int
	NonSuccess int
	Dropped    int

	mu sync.Mutex
}

func (s *Stats) incPublished() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Published++
}

func (s *Stats) incNonSuccess() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.NonSuccess++
	s.Dropped++
}

func (s *Stats) incDropped() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Dropped++
}

// Service orchestrates C1: flatten seeds to a bounded URL list, fetch each
// under the host gate and global concurrency cap, and publish successes to
// the queue.
type Service struct {
	Fetcher   PageFetcher
	Publisher repository.QueuePublisher
	Config    Config
}

// NewService builds a Service from its collaborators.
func NewService(fetcher PageFetcher, publisher repository.QueuePublisher, cfg Config) *Service {
	return &Service{Fetcher: fetcher, Publisher: publisher, Config: cfg}
}

// CrawlSeeds fetches urls (already flattened and truncated by the caller,
// per §4.1's seed-expansion contract) under bounded global concurrency,
// publishing one Raw Page Message per successful fetch. A single URL's
// failure (non-200, exhausted retries, or a publish failure) is logged and
// counted, never aborting the run; the service returns only on a
// programming error or context cancellation.
func (s *Service) CrawlSeeds(ctx context.Context, urls []string) (*Stats, error) {
	if s.Config.MaxURLs > 0 && len(urls) > s.Config.MaxURLs {
		urls = urls[:s.Config.MaxURLs]
	}

	concurrency := s.Config.Concurrency
	if concurrency <= 0 {
		concurrency = 10
	}

	stats := &Stats{URLs: len(urls)}
	sem := semaphore.NewWeighted(int64(concurrency))
	eg, egCtx := errgroup.WithContext(ctx)

	for _, u := range urls {
		u := u
		if err := sem.Acquire(egCtx, 1); err != nil {
			break
		}
		eg.Go(func() error {
			defer sem.Release(1)
			s.fetchOne(egCtx, u, stats)
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return stats, fmt.Errorf("crawl seeds: %w", err)
	}
	return stats, nil
}

func (s *Service) fetchOne(ctx context.Context, urlStr string, stats *Stats) {
	host, err := hostOf(urlStr)
	if err != nil {
		slog.Warn("dropping url with unparseable host", slog.String("url", urlStr), slog.Any("error", err))
		stats.incDropped()
		return
	}

	start := time.Now()
	html, _, waited, err := s.Fetcher.Fetch(ctx, urlStr, host)
	metrics.HostGateWait.Observe(waited.Seconds())
	metrics.FetchDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())

	if err != nil {
		if IsNonSuccess(err) {
			metrics.FetchAttemptsTotal.WithLabelValues(host, "non_200").Inc()
			stats.incNonSuccess()
		} else {
			metrics.FetchAttemptsTotal.WithLabelValues(host, "retry_exhausted").Inc()
			stats.incDropped()
		}
		slog.Warn("fetch failed, dropping url",
			slog.String("url", urlStr), slog.String("host", host), slog.Any("error", err))
		return
	}

	msg := entity.RawPage{
		URL:         urlStr,
		HTML:        html,
		FetchedTime: time.Now().UTC().Format(time.RFC3339),
	}
	body, err := json.Marshal(msg)
	if err != nil {
		slog.Error("failed to marshal raw page message", slog.String("url", urlStr), slog.Any("error", err))
		stats.incDropped()
		return
	}

	if err := s.Publisher.Publish(ctx, body); err != nil {
		metrics.QueuePublishTotal.WithLabelValues("failure").Inc()
		slog.Error("publish failed, dropping url", slog.String("url", urlStr), slog.Any("error", err))
		stats.incDropped()
		return
	}

	metrics.QueuePublishTotal.WithLabelValues("success").Inc()
	metrics.FetchAttemptsTotal.WithLabelValues(host, "published").Inc()
	stats.incPublished()
}

func hostOf(urlStr string) (string, error) {
	u, err := url.Parse(urlStr)
	if err != nil {
		return "", fmt.Errorf("parsing url: %w", err)
	}
	if u.Hostname() == "" {
		return "", fmt.Errorf("url has no host")
	}
	return u.Hostname(), nil
}
