package fetch

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"newsfeed/internal/domain/entity"
)

type fakeFetcher struct {
	mu        sync.Mutex
	responses map[string]fakeResponse
	calls     []string
}

type fakeResponse struct {
	html string
	err  error
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{responses: map[string]fakeResponse{}}
}

func (f *fakeFetcher) Fetch(_ context.Context, urlStr, _ string) (string, string, time.Duration, error) {
	f.mu.Lock()
	f.calls = append(f.calls, urlStr)
	resp := f.responses[urlStr]
	f.mu.Unlock()
	return resp.html, urlStr, 0, resp.err
}

type fakePublisher struct {
	mu        sync.Mutex
	published [][]byte
	failAll   bool
}

func (p *fakePublisher) Publish(_ context.Context, body []byte) error {
	if p.failAll {
		return fmt.Errorf("publish rejected")
	}
	p.mu.Lock()
	p.published = append(p.published, body)
	p.mu.Unlock()
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestService_CrawlSeeds_PublishesSuccessfulFetches(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["https://a.example/x"] = fakeResponse{html: "<html><title>T</title></html>"}

	pub := &fakePublisher{}
	svc := NewService(fetcher, pub, Config{Concurrency: 1})

	stats, err := svc.CrawlSeeds(context.Background(), []string{"https://a.example/x"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.URLs)
	assert.Equal(t, 1, stats.Published)
	assert.Equal(t, 0, stats.Dropped)

	require.Len(t, pub.published, 1)
	var msg entity.RawPage
	require.NoError(t, json.Unmarshal(pub.published[0], &msg))
	assert.Equal(t, "https://a.example/x", msg.URL)
	assert.Contains(t, msg.HTML, "<title>T</title>")
	assert.NotEmpty(t, msg.FetchedTime)
}

func TestService_CrawlSeeds_DropsNonSuccessWithoutPublish(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["https://a.example/missing"] = fakeResponse{err: ErrNonSuccess}

	pub := &fakePublisher{}
	svc := NewService(fetcher, pub, Config{Concurrency: 1})

	stats, err := svc.CrawlSeeds(context.Background(), []string{"https://a.example/missing"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.NonSuccess)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 0, stats.Published)
	assert.Empty(t, pub.published)
}

func TestService_CrawlSeeds_DropsOnPublishFailure(t *testing.T) {
	fetcher := newFakeFetcher()
	fetcher.responses["https://a.example/x"] = fakeResponse{html: "<html></html>"}

	pub := &fakePublisher{failAll: true}
	svc := NewService(fetcher, pub, Config{Concurrency: 1})

	stats, err := svc.CrawlSeeds(context.Background(), []string{"https://a.example/x"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Dropped)
	assert.Equal(t, 0, stats.Published)
}

func TestService_CrawlSeeds_TruncatesToMaxURLs(t *testing.T) {
	fetcher := newFakeFetcher()
	urls := []string{"https://a.example/1", "https://a.example/2", "https://a.example/3"}
	for _, u := range urls {
		fetcher.responses[u] = fakeResponse{html: "<html></html>"}
	}

	pub := &fakePublisher{}
	svc := NewService(fetcher, pub, Config{Concurrency: 2, MaxURLs: 1})

	stats, err := svc.CrawlSeeds(context.Background(), urls)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.URLs)
	assert.Equal(t, 1, stats.Published)
}

func TestService_CrawlSeeds_DropsURLWithUnparseableHost(t *testing.T) {
	fetcher := newFakeFetcher()
	pub := &fakePublisher{}
	svc := NewService(fetcher, pub, Config{Concurrency: 1})

	stats, err := svc.CrawlSeeds(context.Background(), []string{"not-a-url"})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Dropped)
	assert.Empty(t, fetcher.calls)
}

func TestService_CrawlSeeds_ConcurrentFetchesAreRaceFree(t *testing.T) {
	fetcher := newFakeFetcher()
	var urls []string
	for i := 0; i < 50; i++ {
		u := fmt.Sprintf("https://a.example/%d", i)
		urls = append(urls, u)
		fetcher.responses[u] = fakeResponse{html: "<html></html>"}
	}

	pub := &fakePublisher{}
	svc := NewService(fetcher, pub, Config{Concurrency: 8})

	stats, err := svc.CrawlSeeds(context.Background(), urls)
	require.NoError(t, err)
	assert.Equal(t, 50, stats.Published)
}
