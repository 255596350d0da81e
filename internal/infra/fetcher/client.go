package fetcher

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net/http"
	"time"

	"newsfeed/internal/resilience/circuitbreaker"
	"newsfeed/internal/resilience/retry"
	"newsfeed/internal/usecase/fetch"
)

// maxBodyBytes bounds how much of a response body is read, independent of
// any Content-Length the server reports.
const maxBodyBytes = 10 << 20 // 10MiB

// Page is the raw result of a single fetch: the response body and the host
// the request was made to, for metrics and the HostGate.
type Page struct {
	URL  string
	HTML string
}

// Client performs C1's raw HTML GET: a per-host gated, globally-bounded,
// retrying, circuit-broken HTTP GET with SSRF validation. It never extracts
// or interprets the page — that is C2's job.
type Client struct {
	http *http.Client
	gate *HostGate
	cb   *circuitbreaker.CircuitBreaker
	cfg  Config
}

// NewClient builds a Client from cfg, wiring the host gate and circuit
// breaker every fetch passes through.
func NewClient(cfg Config) *Client {
	c := &Client{
		gate: NewHostGate(cfg.Interval),
		cb:   circuitbreaker.New(circuitbreaker.FeedFetchConfig()),
		cfg:  cfg,
	}
	c.http = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return fmt.Errorf("%w: %d redirects", fetch.ErrTooManyRedirects, len(via))
			}
			return validateURL(req.URL.String(), cfg.DenyPrivateIPs)
		},
	}
	return c
}

// Fetch retrieves urlStr, gating on its host, retrying transport failures
// with exponential backoff up to cfg.MaxAttempts, and dropping non-200
// responses without retry (§4.1, §7). host is the pre-parsed hostname used
// for the HostGate and metrics; callers derive it once for a whole seed's
// URL batch.
func (c *Client) Fetch(ctx context.Context, urlStr, host string) (*Page, time.Duration, error) {
	if err := validateURL(urlStr, c.cfg.DenyPrivateIPs); err != nil {
		return nil, 0, err
	}

	waited := c.gate.Wait(host)

	retryCfg := retry.Config{
		MaxAttempts:    c.cfg.MaxAttempts,
		InitialDelay:   time.Second,
		MaxDelay:       30 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0,
	}

	var page *Page
	err := retry.WithBackoff(ctx, retryCfg, func() error {
		result, err := c.cb.Execute(func() (interface{}, error) {
			return c.doFetch(ctx, urlStr)
		})
		if err != nil {
			return err
		}
		page = result.(*Page)
		return nil
	})
	if err != nil {
		return nil, waited, err
	}
	return page, waited, nil
}

func (c *Client) doFetch(ctx context.Context, urlStr string) (interface{}, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", fetch.ErrInvalidURL, err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		if reqCtx.Err() == context.DeadlineExceeded {
			return nil, fmt.Errorf("%w: request exceeded %v", fetch.ErrTimeout, c.cfg.Timeout)
		}
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		// Non-200 is dropped without retry, per §4.1/§7: it is not wrapped
		// in a retry.HTTPError for 4xx, only 5xx/408/429 are retryable there.
		return nil, fmt.Errorf("%w: %s returned %d", fetch.ErrNonSuccess, urlStr, resp.StatusCode)
	}

	limited := io.LimitReader(resp.Body, maxBodyBytes+1)
	body, err := io.ReadAll(limited)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if int64(len(body)) > maxBodyBytes {
		return nil, fmt.Errorf("%w: exceeds %d bytes", fetch.ErrBodyTooLarge, maxBodyBytes)
	}

	finalURL := urlStr
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Page{URL: finalURL, HTML: string(bytes.TrimSpace(body))}, nil
}
