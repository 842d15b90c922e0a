// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Validate checks that required configuration is present and consistent.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}
	if err := c.validateStores(); err != nil {
		return err
	}
	if err := c.validateCrawl(); err != nil {
		return err
	}
	if err := c.validateTMDB(); err != nil {
		return err
	}
	if c.Cache.StalenessWindow <= 0 {
		return fmt.Errorf("CACHE_STALENESS_WINDOW must be positive, got %v", c.Cache.StalenessWindow)
	}
	if c.Cache.StaticMemoSize < 0 {
		return fmt.Errorf("CACHE_STATIC_MEMO_SIZE must not be negative, got %d", c.Cache.StaticMemoSize)
	}
	if c.Cache.MaintenanceInterval < 0 {
		return fmt.Errorf("CACHE_MAINTENANCE must not be negative, got %v", c.Cache.MaintenanceInterval)
	}
	if c.Recommend.TopN < 1 {
		return fmt.Errorf("RECOMMEND_TOP_N must be at least 1, got %d", c.Recommend.TopN)
	}
	if err := c.validateSecurity(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validateServer() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("HTTP_PORT must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.Timeout <= 0 {
		return fmt.Errorf("HTTP_TIMEOUT must be positive, got %v", c.Server.Timeout)
	}
	return nil
}

func (c *Config) validateStores() error {
	if c.Database.Path == "" {
		return fmt.Errorf("DUCKDB_PATH is required")
	}
	if c.Database.Threads < 0 {
		return fmt.Errorf("DUCKDB_THREADS must be non-negative, got %d", c.Database.Threads)
	}
	if c.UserStore.Path == "" && !c.UserStore.InMemory {
		return fmt.Errorf("USER_STORE_PATH is required unless user_store.in_memory is set")
	}
	return nil
}

func (c *Config) validateCrawl() error {
	cr := c.Crawl
	if err := validateHTTPURL("LETTERBOXD_URL", cr.BaseURL); err != nil {
		return err
	}
	if cr.RequestTimeout <= 0 {
		return fmt.Errorf("CRAWL_TIMEOUT must be positive, got %v", cr.RequestTimeout)
	}
	if cr.MaxAttempts < 1 {
		return fmt.Errorf("CRAWL_MAX_ATTEMPTS must be at least 1, got %d", cr.MaxAttempts)
	}
	if cr.RetryBaseDelay < 0 || cr.RetryMaxDelay < cr.RetryBaseDelay {
		return fmt.Errorf("crawl retry delays invalid: base %v, max %v", cr.RetryBaseDelay, cr.RetryMaxDelay)
	}

	positives := []struct {
		name  string
		value int
	}{
		{"CRAWL_HOST_LIMIT", cr.CrawlerHostLimit},
		{"SOCIAL_HOST_LIMIT", cr.SocialHostLimit},
		{"CRAWL_ITEM_BATCH", cr.ItemBatchSize},
		{"CRAWL_PAGE_BATCH", cr.PageBatchSize},
		{"CRAWL_USER_BATCH", cr.UserBatchSize},
	}
	for _, p := range positives {
		if p.value < 1 {
			return fmt.Errorf("%s must be at least 1, got %d", p.name, p.value)
		}
	}
	if cr.MinItems < 0 || cr.MinReviews < 0 {
		return fmt.Errorf("crawl minimums must be non-negative")
	}
	return nil
}

func (c *Config) validateTMDB() error {
	if err := validateHTTPURL("TMDB_URL", c.TMDB.BaseURL); err != nil {
		return err
	}
	if c.TMDB.RateLimit < 0 {
		return fmt.Errorf("TMDB_RATE_LIMIT must be non-negative, got %v", c.TMDB.RateLimit)
	}
	return nil
}

func (c *Config) validateSecurity() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(c.Logging.Level) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal", "panic", "disabled":
	default:
		return fmt.Errorf("LOG_LEVEL %q is not a valid level", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
		return nil
	default:
		return fmt.Errorf("LOG_FORMAT must be json or console, got %q", c.Logging.Format)
	}
}

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must use http or https, got %q", name, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%s must include a host", name)
	}
	return nil
}
