// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package social

import (
	"context"
	"strconv"

	"github.com/tomtom215/unboxd/internal/cache"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/parse"
	"github.com/tomtom215/unboxd/internal/scheduler"
)

// Dataset returns a member's rating history from the user-set tier when
// fresh, otherwise crawls their film listing and stores the result.
func (r *Resolver) Dataset(ctx context.Context, username string) (models.FriendDataset, error) {
	log := logging.Ctx(ctx).With().Str("member", username).Logger()

	cached, freshness, err := r.users.GetUserSet(ctx, username)
	if err != nil {
		log.Warn().Err(err).Msg("User set lookup failed, crawling")
		freshness = cache.Missing
	}
	if freshness == cache.Fresh {
		return cached, nil
	}

	ds, err := r.crawlDataset(ctx, username)
	if err != nil {
		return models.FriendDataset{}, err
	}

	if freshness == cache.Stale {
		err = r.users.RefreshUserSet(ctx, username, ds)
	} else {
		err = r.users.PutUserSet(ctx, username, ds)
	}
	if err != nil {
		log.Warn().Err(err).Str("freshness", freshness.String()).Msg("Failed to store user set")
	}
	return ds, nil
}

// crawlDataset reads title, link and rating from every list page. Pages that
// cannot be fetched are skipped.
func (r *Resolver) crawlDataset(ctx context.Context, username string) (models.FriendDataset, error) {
	pages, err := r.site.PageCount(ctx, r.site.URL(username, "films"))
	if err != nil {
		return models.FriendDataset{}, err
	}
	nums := make([]int, pages)
	for i := range nums {
		nums[i] = i + 1
	}

	results := scheduler.RunBatches(ctx, nums, r.opts.PageBatchSize, func(ctx context.Context, page int) ([]models.ListingEntry, error) {
		doc, err := r.site.Document(ctx, r.site.URL(username, "films", "page", strconv.Itoa(page)))
		if err != nil {
			return nil, err
		}
		return parse.Listing(doc), nil
	})
	if err := ctx.Err(); err != nil {
		return models.FriendDataset{}, err
	}

	ds := models.FriendDataset{Titles: []string{}, Links: []string{}, Ratings: []float64{}}
	for _, entries := range scheduler.Successful(results) {
		for _, e := range entries {
			ds.Append(e.Title, e.Link, e.UserRating)
		}
	}
	if failed := scheduler.Failed(results); failed > 0 {
		logging.Ctx(ctx).Warn().Str("member", username).Int("pages", failed).Msg("Skipped unavailable list pages")
	}
	return ds, nil
}
