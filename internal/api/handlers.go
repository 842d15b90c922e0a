// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

/*
Package api serves the Unboxd HTTP interface.

Endpoints:

	GET /movies-data/?user=          watch history plus its analytics profile
	GET /reviews/?user=              reviews grouped by film
	GET /rank?user=&group=           friend similarity ranking and recommendations
	GET /health, /health/live        dependency and liveness checks
	GET /metrics                     Prometheus exposition

Every JSON body uses the models.APIResponse envelope. Domain failures map to
the short codes the frontend understands (Stat_404, Stat_400, Review_400,
Rank_404, Rank_400); an upstream outage maps to 502 UPSTREAM_UNAVAILABLE.

Handler methods are split across files:
  - handlers.go: Handler, its collaborators and the constructor
  - handlers_profile.go: /movies-data/ and /reviews/
  - handlers_rank.go: /rank
  - handlers_health.go: health probes
  - handlers_helpers.go: response writing and validation helpers
*/
package api

import (
	"context"
	"time"

	"github.com/tomtom215/unboxd/internal/middleware"
	"github.com/tomtom215/unboxd/internal/models"
)

// Version is reported by the health endpoint. Set at link time.
var Version = "dev"

// HistoryScraper crawls a member's full watch history.
type HistoryScraper interface {
	Scrape(ctx context.Context, username string) ([]models.MovieRecord, error)
}

// ProfileSource fetches a member's profile header.
type ProfileSource interface {
	Profile(ctx context.Context, username string) (models.Profile, error)
}

// ReviewScraper collects a member's reviews.
type ReviewScraper interface {
	Scrape(ctx context.Context, username string) (models.ReviewSet, error)
}

// FriendRanker ranks a member's contacts by taste similarity.
type FriendRanker interface {
	Rank(ctx context.Context, username string, group models.Group) (*models.RankingResult, error)
}

// HealthCheck reports whether one dependency is usable.
type HealthCheck func(ctx context.Context) error

// Services are the collaborators a Handler delegates to.
type Services struct {
	History  HistoryScraper
	Profiles ProfileSource
	Reviews  ReviewScraper
	Ranker   FriendRanker

	// Checks are run by /health, keyed by dependency name.
	Checks map[string]HealthCheck
}

// Handler holds the API endpoints.
type Handler struct {
	svc       Services
	perfMon   *middleware.PerformanceMonitor
	startTime time.Time
}

// NewHandler creates a Handler. perfMon may be nil.
func NewHandler(svc Services, perfMon *middleware.PerformanceMonitor) *Handler {
	return &Handler{
		svc:       svc,
		perfMon:   perfMon,
		startTime: time.Now(),
	}
}
