// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

/*
Package crawl assembles a member's complete watch history.

A crawl runs in four stages:

 1. Discover the number of list pages under /{user}/films/.
 2. Fetch list pages in small batches and read the posters on each.
 3. Resolve every poster into a MovieRecord from three facets: static catalog
    metadata, semi-static community statistics and the member's own activity.
    Static and semi-static facets resolve concurrently; activity follows.
 4. After the first batch of list pages, reject members with too little
    history before doing any more work.

An item whose pages cannot be fetched is dropped; the crawl carries on.
*/
package crawl

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/tomtom215/unboxd/internal/cache"
	"github.com/tomtom215/unboxd/internal/catalog"
	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/metrics"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/parse"
	"github.com/tomtom215/unboxd/internal/scheduler"
)

// Catalog looks up a title in the secondary catalog.
type Catalog interface {
	Movie(ctx context.Context, id int) (*catalog.Movie, error)
}

// Options sizes the crawl.
type Options struct {
	PageBatchSize int
	ItemBatchSize int
	MinItems      int
}

// OptionsFromConfig copies the batching settings out of the crawl config.
func OptionsFromConfig(c config.CrawlConfig) Options {
	return Options{
		PageBatchSize: c.PageBatchSize,
		ItemBatchSize: c.ItemBatchSize,
		MinItems:      c.MinItems,
	}
}

// Scraper crawls watch histories. Safe for concurrent use.
type Scraper struct {
	site    *Site
	catalog Catalog
	films   cache.FilmStore
	opts    Options
	now     func() time.Time
}

// NewScraper creates a Scraper. cat may be nil, in which case catalog
// metadata is never fetched and static facets are not cached.
func NewScraper(site *Site, cat Catalog, films cache.FilmStore, opts Options) *Scraper {
	return &Scraper{
		site:    site,
		catalog: cat,
		films:   films,
		opts:    opts,
		now:     time.Now,
	}
}

// Scrape returns one record per title the member has logged, in list order.
// It fails with ErrProfileNotFound for an unknown member and with
// ErrInsufficientHistory when the first batch of pages yields fewer than
// MinItems records.
func (s *Scraper) Scrape(ctx context.Context, username string) (records []models.MovieRecord, err error) {
	start := s.now()
	ctx = logging.ContextWithSubject(ctx, username)
	log := logging.Ctx(ctx)
	defer func() { metrics.RecordCrawl("movies", time.Since(start), err) }()

	pages, err := s.site.PageCount(ctx, s.site.URL(username, "films"))
	if err != nil {
		return nil, err
	}
	log.Info().Int("pages", pages).Msg("Starting watch history crawl")

	pageNums := make([]int, pages)
	for i := range pageNums {
		pageNums[i] = i + 1
	}

	collected := 0
	results, err := scheduler.Run(ctx, pageNums, scheduler.Options[[]models.MovieRecord]{
		Name:      "list_pages",
		BatchSize: s.opts.PageBatchSize,
		AfterBatch: func(batch int, results []scheduler.Result[[]models.MovieRecord]) error {
			if batch != 0 {
				return nil
			}
			for _, r := range results {
				collected += len(r.Value)
			}
			if collected < s.opts.MinItems {
				return fmt.Errorf("%w: %s has %d titles, need %d", ErrInsufficientHistory, username, collected, s.opts.MinItems)
			}
			return nil
		},
	}, func(ctx context.Context, page int) ([]models.MovieRecord, error) {
		return s.scrapePage(ctx, username, page)
	})
	if err != nil {
		log.Warn().Err(err).Msg("Watch history crawl stopped")
		return nil, err
	}

	for _, page := range scheduler.Successful(results) {
		records = append(records, page...)
	}
	if records == nil {
		records = []models.MovieRecord{}
	}
	log.Info().Int("records", len(records)).Dur("duration", time.Since(start)).Msg("Watch history crawl complete")
	return records, nil
}

// scrapePage resolves every poster on one list page. A page that cannot be
// fetched contributes nothing.
func (s *Scraper) scrapePage(ctx context.Context, username string, page int) ([]models.MovieRecord, error) {
	doc, err := s.site.Document(ctx, s.site.URL(username, "films", "page", strconv.Itoa(page)))
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Int("page", page).Msg("Skipping list page")
		return nil, err
	}
	entries := parse.Listing(doc)

	results := scheduler.RunBatches(ctx, entries, s.opts.ItemBatchSize,
		func(ctx context.Context, e models.ListingEntry) (models.MovieRecord, error) {
			return s.resolveItem(ctx, username, e)
		})

	if dropped := scheduler.Failed(results); dropped > 0 {
		metrics.CrawlItemsDropped.Add(float64(dropped))
		logging.Ctx(ctx).Warn().Int("page", page).Int("dropped", dropped).Msg("Dropped unresolvable titles")
	}
	return scheduler.Successful(results), nil
}
