// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

/*
Package fetch implements the single retrying HTTP GET used by every crawler.

Each attempt:
  - waits for the host's rate limiter (if one is configured for the host)
  - takes a slot on the host's in-flight semaphore
  - passes through the host's circuit breaker (if enabled)
  - runs under the per-request client timeout

Transient failures are retried with exponential backoff
min(base*2^attempt, max). Everything that does not end in a body is
reported as ErrUnavailable so callers can drop the item and continue.
*/
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/metrics"
)

const (
	defaultMaxBodyBytes = 8 << 20
	errorBodyBytes      = 512
)

// Config controls retry, timeout and per-host limits.
type Config struct {
	Timeout      time.Duration
	MaxAttempts  int
	BaseDelay    time.Duration
	MaxDelay     time.Duration
	HostLimit    int
	UserAgent    string
	Breaker      bool
	RateLimits   map[string]RateLimit // keyed by host, e.g. "api.themoviedb.org"
	MaxBodyBytes int64
}

// FromCrawlConfig builds a fetch Config for the given per-host cap.
func FromCrawlConfig(c config.CrawlConfig, hostLimit int) Config {
	return Config{
		Timeout:     c.RequestTimeout,
		MaxAttempts: c.MaxAttempts,
		BaseDelay:   c.RetryBaseDelay,
		MaxDelay:    c.RetryMaxDelay,
		HostLimit:   hostLimit,
		UserAgent:   c.UserAgent,
		Breaker:     c.BreakerEnabled,
	}
}

// Option customizes a Fetcher.
type Option func(*Fetcher)

// WithTimer replaces the timer used between retries. Tests use it to record
// backoff delays without sleeping.
func WithTimer(t retry.Timer) Option {
	return func(f *Fetcher) { f.timer = t }
}

// Fetcher performs GETs with bounded retry. Safe for concurrent use.
type Fetcher struct {
	client   *http.Client
	cfg      Config
	gate     *hostGate
	breakers *breakers
	timer    retry.Timer
}

// New creates a Fetcher.
func New(cfg Config, opts ...Option) *Fetcher {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	f := &Fetcher{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		gate:   newHostGate(cfg.HostLimit, cfg.RateLimits),
	}
	if cfg.Breaker {
		f.breakers = newBreakers()
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Backoff returns the delay slept before retry number attempt (0-based).
func (f *Fetcher) Backoff(attempt uint) time.Duration {
	d := f.cfg.BaseDelay << attempt
	if d > f.cfg.MaxDelay || d < f.cfg.BaseDelay {
		return f.cfg.MaxDelay
	}
	return d
}

// Get fetches rawURL and returns the response body. Any failure is reported
// as an error wrapping ErrUnavailable, except caller cancellation which
// returns the context's error.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return nil, fmt.Errorf("%w: invalid url %q", ErrUnavailable, rawURL)
	}
	host := u.Host
	log := logging.Ctx(ctx)

	var body []byte
	attempt := 0
	opts := []retry.Option{
		retry.Context(ctx),
		retry.Attempts(uint(f.cfg.MaxAttempts)),
		retry.MaxDelay(f.cfg.MaxDelay),
		// retry-go counts attempts from 1 when asking for a delay.
		retry.DelayType(func(n uint, _ error, _ *retry.Config) time.Duration {
			if n == 0 {
				return f.Backoff(0)
			}
			return f.Backoff(n - 1)
		}),
		retry.RetryIf(IsTransient),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			if int(n)+1 >= f.cfg.MaxAttempts {
				return
			}
			metrics.FetchRetriesTotal.WithLabelValues(host).Inc()
			log.Debug().Str("url", rawURL).Dur("delay", f.Backoff(n)).Msg("Retrying fetch")
		}),
	}
	if f.timer != nil {
		opts = append(opts, retry.WithTimer(f.timer))
	}

	err = retry.Do(func() error {
		attempt++
		b, err := f.attempt(ctx, host, rawURL)
		if err != nil {
			outcome := "fatal"
			if IsTransient(err) {
				outcome = "transient"
			}
			metrics.FetchRequestsTotal.WithLabelValues(host, outcome).Inc()
			log.Warn().Err(err).Str("url", rawURL).Int("attempt", attempt).
				Int("max_attempts", f.cfg.MaxAttempts).Str("outcome", outcome).Msg("Fetch attempt failed")
			return err
		}
		metrics.FetchRequestsTotal.WithLabelValues(host, "ok").Inc()
		body = b
		return nil
	}, opts...)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		metrics.FetchUnavailableTotal.WithLabelValues(host).Inc()
		log.Error().Err(err).Str("url", rawURL).Int("attempts", attempt).Msg("Fetch failed")
		return nil, fmt.Errorf("%w: %s: %w", ErrUnavailable, rawURL, err)
	}
	return body, nil
}

// GetJSON fetches rawURL and decodes the body into v. A body that does not
// decode is treated like any other non-retryable failure.
func (f *Fetcher) GetJSON(ctx context.Context, rawURL string, v interface{}) error {
	body, err := f.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		logging.Ctx(ctx).Error().Err(err).Str("url", rawURL).Msg("Malformed JSON response")
		return fmt.Errorf("%w: decode %s: %w", ErrUnavailable, rawURL, err)
	}
	return nil
}

func (f *Fetcher) attempt(ctx context.Context, host, rawURL string) ([]byte, error) {
	release, err := f.gate.acquire(ctx, host)
	if err != nil {
		return nil, err
	}
	defer release()

	if f.breakers == nil {
		return f.do(ctx, host, rawURL)
	}
	return f.breakers.forHost(host).Execute(func() ([]byte, error) {
		return f.do(ctx, host, rawURL)
	})
}

func (f *Fetcher) do(ctx context.Context, host, rawURL string) ([]byte, error) {
	start := time.Now()
	defer func() {
		metrics.FetchDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if f.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", f.cfg.UserAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyBytes))
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.cfg.MaxBodyBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(body)) > f.cfg.MaxBodyBytes {
		return nil, fmt.Errorf("response body exceeds %d bytes", f.cfg.MaxBodyBytes)
	}
	return body, nil
}
