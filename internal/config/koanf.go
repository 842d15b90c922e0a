// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/unboxd/config.yaml",
	"/etc/unboxd/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:        8000,
			Host:        "0.0.0.0",
			Timeout:     5 * time.Minute,
			Environment: "development",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Database: DatabaseConfig{
			Path:      "/data/movies.duckdb",
			MaxMemory: "1GB",
		},
		UserStore: UserStoreConfig{
			Path: "/data/users",
		},
		Crawl: CrawlConfig{
			BaseURL:          "https://letterboxd.com",
			UserAgent:        "unboxd/1.0",
			RequestTimeout:   10 * time.Second,
			MaxAttempts:      3,
			RetryBaseDelay:   time.Second,
			RetryMaxDelay:    10 * time.Second,
			CrawlerHostLimit: 3,
			SocialHostLimit:  5,
			ItemBatchSize:    24,
			PageBatchSize:    2,
			UserBatchSize:    10,
			MinItems:         20,
			MinReviews:       10,
			BreakerEnabled:   true,
		},
		TMDB: TMDBConfig{
			BaseURL:   "https://api.themoviedb.org",
			RateLimit: 40,
			Burst:     10,
		},
		Cache: CacheConfig{
			StalenessWindow: 5 * 24 * time.Hour,
			StaticMemoSize:  5000,

			MaintenanceInterval: time.Hour,
		},
		Recommend: RecommendConfig{
			TopN: 10,
		},
		Security: SecurityConfig{
			RateLimitReqs:   30,
			RateLimitWindow: time.Minute,
			CORSOrigins: []string{
				"http://localhost:5173",
				"https://unboxd-frontend.vercel.app",
				"https://unboxdbyabhi.vercel.app",
			},
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// LoadWithKoanf loads configuration with layered sources:
//  1. Built-in defaults
//  2. Optional YAML config file
//  3. Environment variables
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// TMDB_KEY -> tmdb.api_key, HTTP_PORT -> server.port
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

var sliceConfigPaths = []string{
	"security.cors_origins",
}

// processSliceFields splits comma-separated env values for slice fields.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) == 0 {
			continue
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

var envMappings = map[string]string{
	// Server
	"http_port":    "server.port",
	"http_host":    "server.host",
	"http_timeout": "server.timeout",
	"environment":  "server.environment",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Stores
	"duckdb_path":       "database.path",
	"duckdb_max_memory": "database.max_memory",
	"duckdb_threads":    "database.threads",
	"user_store_path":   "user_store.path",

	// Crawl
	"letterboxd_url":        "crawl.base_url",
	"crawl_user_agent":      "crawl.user_agent",
	"crawl_timeout":         "crawl.request_timeout",
	"crawl_max_attempts":    "crawl.max_attempts",
	"crawl_retry_delay":     "crawl.retry_base_delay",
	"crawl_retry_max_delay": "crawl.retry_max_delay",
	"crawl_host_limit":      "crawl.crawler_host_limit",
	"social_host_limit":     "crawl.social_host_limit",
	"crawl_item_batch":      "crawl.item_batch_size",
	"crawl_page_batch":      "crawl.page_batch_size",
	"crawl_user_batch":      "crawl.user_batch_size",
	"crawl_min_items":       "crawl.min_items",
	"crawl_min_reviews":     "crawl.min_reviews",
	"crawl_breaker_enabled": "crawl.breaker_enabled",

	// TMDB
	"tmdb_key":        "tmdb.api_key",
	"tmdb_api_key":    "tmdb.api_key",
	"tmdb_url":        "tmdb.base_url",
	"tmdb_rate_limit": "tmdb.rate_limit",

	// Cache / recommend
	"cache_staleness_window": "cache.staleness_window",
	"cache_static_memo_size": "cache.static_memo_size",
	"cache_maintenance":      "cache.maintenance_interval",
	"recommend_top_n":        "recommend.top_n",

	// Security
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",
	"cors_origins":        "security.cors_origins",
}

// envTransformFunc maps known environment variables to koanf paths.
// Unknown variables map to "" and are dropped by the env provider.
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
