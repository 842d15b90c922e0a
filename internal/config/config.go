// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package config loads unboxd configuration from built-in defaults, an
// optional YAML file and environment variables, in that order of precedence.
//
// The loaded *Config is passed explicitly to every constructor; there is no
// package-level configuration state.
package config

import "time"

// Config is the root configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Database   DatabaseConfig   `koanf:"database"`
	UserStore  UserStoreConfig  `koanf:"user_store"`
	Crawl      CrawlConfig      `koanf:"crawl"`
	TMDB       TMDBConfig       `koanf:"tmdb"`
	Cache      CacheConfig      `koanf:"cache"`
	Recommend  RecommendConfig  `koanf:"recommend"`
	Security   SecurityConfig   `koanf:"security"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Port int    `koanf:"port"`
	Host string `koanf:"host"`

	// Timeout bounds a whole API request. Crawls of large profiles take
	// minutes, so this is much larger than a typical API timeout.
	Timeout     time.Duration `koanf:"timeout"`
	Environment string        `koanf:"environment"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// DatabaseConfig configures the DuckDB file backing the static and
// semi-static cache tiers.
type DatabaseConfig struct {
	Path      string `koanf:"path"`
	MaxMemory string `koanf:"max_memory"`
	Threads   int    `koanf:"threads"` // 0 = runtime.NumCPU()
}

// UserStoreConfig configures the BadgerDB directory backing the per-user
// dataset tier.
type UserStoreConfig struct {
	Path     string `koanf:"path"`
	InMemory bool   `koanf:"in_memory"`
}

// CrawlConfig controls fetching, retry and batching against Letterboxd.
type CrawlConfig struct {
	BaseURL   string `koanf:"base_url"`
	UserAgent string `koanf:"user_agent"`

	RequestTimeout time.Duration `koanf:"request_timeout"`
	MaxAttempts    int           `koanf:"max_attempts"`
	RetryBaseDelay time.Duration `koanf:"retry_base_delay"`
	RetryMaxDelay  time.Duration `koanf:"retry_max_delay"`

	// Per-host in-flight request caps.
	CrawlerHostLimit int `koanf:"crawler_host_limit"`
	SocialHostLimit  int `koanf:"social_host_limit"`

	ItemBatchSize int `koanf:"item_batch_size"`
	PageBatchSize int `koanf:"page_batch_size"`
	UserBatchSize int `koanf:"user_batch_size"`

	MinItems   int `koanf:"min_items"`
	MinReviews int `koanf:"min_reviews"`

	BreakerEnabled bool `koanf:"breaker_enabled"`
}

// TMDBConfig configures the secondary catalog.
type TMDBConfig struct {
	APIKey    string  `koanf:"api_key"`
	BaseURL   string  `koanf:"base_url"`
	RateLimit float64 `koanf:"rate_limit"` // requests per second, 0 = unlimited
	Burst     int     `koanf:"burst"`
}

// CacheConfig controls tier freshness and the in-process static facet memo.
type CacheConfig struct {
	StalenessWindow time.Duration `koanf:"staleness_window"`
	StaticMemoSize  int           `koanf:"static_memo_size"` // 0 disables the memo

	// MaintenanceInterval spaces DuckDB checkpoints and Badger value log GC.
	// 0 disables the maintenance service.
	MaintenanceInterval time.Duration `koanf:"maintenance_interval"`
}

// RecommendConfig controls the ranking output.
type RecommendConfig struct {
	TopN int `koanf:"top_n"`
}

// SecurityConfig holds CORS and API rate limit settings.
type SecurityConfig struct {
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
	CORSOrigins       []string      `koanf:"cors_origins"`
}

// SupervisorConfig mirrors supervisor.TreeConfig.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold"`
	FailureDecay     float64       `koanf:"failure_decay"`
	FailureBackoff   time.Duration `koanf:"failure_backoff"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout"`
}

// Load reads configuration using the layered koanf loader.
func Load() (*Config, error) {
	return LoadWithKoanf()
}
