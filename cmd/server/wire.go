// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package main

import (
	"context"

	"github.com/tomtom215/unboxd/internal/api"
	"github.com/tomtom215/unboxd/internal/cache"
	"github.com/tomtom215/unboxd/internal/catalog"
	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/crawl"
	"github.com/tomtom215/unboxd/internal/database"
	"github.com/tomtom215/unboxd/internal/fetch"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/reviews"
	"github.com/tomtom215/unboxd/internal/social"
	"github.com/tomtom215/unboxd/internal/userstore"
)

// buildServices wires the crawlers over the cache tiers.
//
// Watch history crawls and social crawls get separate fetchers so a large
// neighborhood resolution cannot starve a profile crawl of connections.
// TMDB requests share the history fetcher and are paced by its rate limit.
func buildServices(cfg *config.Config, db *database.DB, users *userstore.Store) api.Services {
	tiered := cache.New(cache.Config{
		Static:     db,
		SemiStatic: db,
		UserSets:   users,
		Window:     cfg.Cache.StalenessWindow,
		MemoSize:   cfg.Cache.StaticMemoSize,
	})

	historyFetch := fetch.FromCrawlConfig(cfg.Crawl, cfg.Crawl.CrawlerHostLimit)
	if host := catalog.Host(cfg.TMDB.BaseURL); host != "" && cfg.TMDB.RateLimit > 0 {
		historyFetch.RateLimits = map[string]fetch.RateLimit{
			host: {PerSecond: cfg.TMDB.RateLimit, Burst: cfg.TMDB.Burst},
		}
	}
	historyFetcher := fetch.New(historyFetch)
	socialFetcher := fetch.New(fetch.FromCrawlConfig(cfg.Crawl, cfg.Crawl.SocialHostLimit))

	historySite := crawl.NewSite(historyFetcher, cfg.Crawl.BaseURL)
	socialSite := crawl.NewSite(socialFetcher, cfg.Crawl.BaseURL)

	var cat crawl.Catalog
	if cfg.TMDB.APIKey != "" {
		cat = catalog.NewClient(historyFetcher, cfg.TMDB.BaseURL, cfg.TMDB.APIKey)
	} else {
		logging.Warn().Msg("TMDB_API_KEY not set, catalog metadata disabled")
	}

	resolver := social.NewResolver(socialSite, tiered, social.OptionsFromConfig(cfg.Crawl))

	return api.Services{
		History:  crawl.NewScraper(historySite, cat, tiered, crawl.OptionsFromConfig(cfg.Crawl)),
		Profiles: historySite,
		Reviews:  reviews.NewScraper(socialSite, reviews.OptionsFromConfig(cfg.Crawl)),
		Ranker:   social.NewRanker(resolver, cfg.Recommend.TopN),
		Checks: map[string]api.HealthCheck{
			"duckdb": db.Ping,
			"badger": func(context.Context) error {
				_, err := users.Count()
				return err
			},
		},
	}
}
