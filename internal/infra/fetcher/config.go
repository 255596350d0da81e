// Package fetcher implements C1's HTTP fetch path: a per-host minimum-interval
// gate plus a bounded-concurrency, retrying GET client.
package fetcher

import (
	"fmt"
	"time"

	"newsfeed/pkg/config"
)

// Config controls C1's fetch behavior.
type Config struct {
	// Interval is the minimum time between two fetches of the same host.
	Interval time.Duration

	// Concurrency is the maximum number of fetches in flight across all hosts.
	Concurrency int

	// Timeout is the total per-request HTTP timeout.
	Timeout time.Duration

	// MaxAttempts bounds transport-failure retries (exponential backoff,
	// 2^attempt seconds).
	MaxAttempts int

	// MaxURLs truncates the expanded seed URL list.
	MaxURLs int

	// UserAgent is sent on every request.
	UserAgent string

	// DenyPrivateIPs blocks SSRF-style requests to internal networks.
	DenyPrivateIPs bool
}

// DefaultConfig returns §4.1's defaults: 2.0s per-host interval, 10
// concurrent fetches, 10s HTTP timeout, 3 attempts.
func DefaultConfig() Config {
	return Config{
		Interval:       2 * time.Second,
		Concurrency:    10,
		Timeout:        10 * time.Second,
		MaxAttempts:    3,
		MaxURLs:        1000,
		UserAgent:      "NewsfeedBot/1.0 (+https://newsfeed.example/bot)",
		DenyPrivateIPs: true,
	}
}

// Validate rejects configurations that would make the fetcher meaningless or
// unsafe.
func (c Config) Validate() error {
	if c.Interval < 0 {
		return fmt.Errorf("interval must be non-negative, got %v", c.Interval)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.MaxAttempts < 1 {
		return fmt.Errorf("max attempts must be >= 1, got %d", c.MaxAttempts)
	}
	return nil
}

// LoadConfigFromEnv loads fetch configuration from the environment,
// falling back to DefaultConfig for anything unset or invalid.
//
// Environment variables:
//   - FETCH_INTERVAL (duration, default "2s")
//   - FETCH_CONCURRENCY (int, default 10)
//   - FETCH_TIMEOUT (duration, default "10s")
//   - FETCH_MAX_ATTEMPTS (int, default 3)
//   - FETCH_MAX_URLS (int, default 1000)
//   - FETCH_USER_AGENT (string)
//   - FETCH_DENY_PRIVATE_IPS (bool, default true)
func LoadConfigFromEnv() (Config, error) {
	cfg := DefaultConfig()
	cfg.Interval = config.GetEnvDuration("FETCH_INTERVAL", cfg.Interval)
	cfg.Concurrency = config.GetEnvInt("FETCH_CONCURRENCY", cfg.Concurrency)
	cfg.Timeout = config.GetEnvDuration("FETCH_TIMEOUT", cfg.Timeout)
	cfg.MaxAttempts = config.GetEnvInt("FETCH_MAX_ATTEMPTS", cfg.MaxAttempts)
	cfg.MaxURLs = config.GetEnvInt("FETCH_MAX_URLS", cfg.MaxURLs)
	cfg.UserAgent = config.GetEnvString("FETCH_USER_AGENT", cfg.UserAgent)
	cfg.DenyPrivateIPs = config.GetEnvBool("FETCH_DENY_PRIVATE_IPS", cfg.DenyPrivateIPs)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("fetch config validation failed: %w", err)
	}
	return cfg, nil
}
