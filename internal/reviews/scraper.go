// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package reviews collects the text of a member's reviews together with the
// members who liked each one.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/crawl"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/metrics"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/parse"
	"github.com/tomtom215/unboxd/internal/scheduler"
)

// ErrInsufficientReviews is returned when a member has reviewed fewer films
// than the configured minimum.
var ErrInsufficientReviews = errors.New("insufficient reviews")

// Options sizes the review crawl.
type Options struct {
	// ItemBatchSize bounds the reviews resolved concurrently on one page.
	ItemBatchSize int
	MinReviews    int
}

// OptionsFromConfig copies the review settings out of the crawl config.
func OptionsFromConfig(c config.CrawlConfig) Options {
	return Options{
		ItemBatchSize: c.ItemBatchSize,
		MinReviews:    c.MinReviews,
	}
}

// Scraper crawls review listings. Safe for concurrent use.
type Scraper struct {
	site *crawl.Site
	opts Options
}

// NewScraper creates a Scraper.
func NewScraper(site *crawl.Site, opts Options) *Scraper {
	return &Scraper{site: site, opts: opts}
}

// permalink is one review on a member's reviews listing.
type permalink struct {
	link   string
	film   string
	number int // 0 for a film's first review
}

// entry is a resolved review tagged with its film.
type entry struct {
	film   string
	review models.Review
}

// Scrape returns every review the member has written, grouped by film slug.
// All listing pages are fetched at once; the per-host cap on the fetcher
// bounds the actual concurrency.
func (s *Scraper) Scrape(ctx context.Context, username string) (set models.ReviewSet, err error) {
	start := time.Now()
	ctx = logging.ContextWithSubject(ctx, username)
	log := logging.Ctx(ctx)
	defer func() { metrics.RecordCrawl("reviews", time.Since(start), err) }()

	pages, err := s.site.PageCount(ctx, s.site.URL(username, "films", "reviews"))
	if err != nil {
		return nil, err
	}
	nums := make([]int, pages)
	for i := range nums {
		nums[i] = i + 1
	}

	results := scheduler.RunBatches(ctx, nums, len(nums), func(ctx context.Context, page int) ([]entry, error) {
		return s.scrapePage(ctx, username, page)
	})
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	set = make(models.ReviewSet)
	for _, page := range scheduler.Successful(results) {
		for _, e := range page {
			set[e.film] = append(set[e.film], e.review)
		}
	}
	if len(set) < s.opts.MinReviews {
		return nil, fmt.Errorf("%w: %s reviewed %d films, need %d", ErrInsufficientReviews, username, len(set), s.opts.MinReviews)
	}
	log.Info().Int("films", len(set)).Dur("duration", time.Since(start)).Msg("Review crawl complete")
	return set, nil
}

func (s *Scraper) scrapePage(ctx context.Context, username string, page int) ([]entry, error) {
	doc, err := s.site.Document(ctx, s.site.URL(username, "films", "reviews", "page", strconv.Itoa(page)))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("page", page).Msg("Skipping review page")
		return nil, err
	}

	var links []permalink
	for _, href := range parse.ReviewLinks(doc) {
		if p, ok := parsePermalink(href); ok {
			links = append(links, p)
		}
	}

	results := scheduler.RunBatches(ctx, links, s.opts.ItemBatchSize, func(ctx context.Context, p permalink) (entry, error) {
		return s.resolve(ctx, username, p)
	})
	if dropped := scheduler.Failed(results); dropped > 0 {
		logging.Ctx(ctx).Warn().Int("page", page).Int("dropped", dropped).Msg("Dropped unavailable reviews")
	}
	return scheduler.Successful(results), nil
}

// resolve fetches the review text and its likers. A review whose text cannot
// be fetched is dropped; missing likers leave the list empty.
func (s *Scraper) resolve(ctx context.Context, username string, p permalink) (entry, error) {
	doc, err := s.site.Document(ctx, s.site.Resolve(p.link))
	if err != nil {
		return entry{}, err
	}
	review := models.Review{Text: parse.ReviewText(doc), LikedBy: []string{}}

	segments := []string{username, "film", p.film}
	if p.number > 0 {
		segments = append(segments, strconv.Itoa(p.number))
	}
	likes, err := s.site.Document(ctx, s.site.URL(append(segments, "likes")...))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Str("film", p.film).Msg("Review likes unavailable")
	} else {
		review.LikedBy = parse.Likers(likes)
	}
	return entry{film: p.film, review: review}, nil
}

// parsePermalink reads the film slug and review number from
// /{user}/film/{slug}/ or /{user}/film/{slug}/{n}/.
func parsePermalink(link string) (permalink, bool) {
	parts := strings.Split(strings.Trim(link, "/"), "/")
	if len(parts) < 2 {
		return permalink{}, false
	}
	last := parts[len(parts)-1]
	if n, err := strconv.Atoi(last); err == nil {
		if len(parts) < 3 {
			return permalink{}, false
		}
		return permalink{link: link, film: parts[len(parts)-2], number: n}, true
	}
	return permalink{link: link, film: last}, true
}
