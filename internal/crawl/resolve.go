// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package crawl

import (
	"context"
	"errors"

	"github.com/sourcegraph/conc"

	"github.com/tomtom215/unboxd/internal/cache"
	"github.com/tomtom215/unboxd/internal/catalog"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/parse"
)

// resolveItem builds the record for one poster.
func (s *Scraper) resolveItem(ctx context.Context, username string, entry models.ListingEntry) (models.MovieRecord, error) {
	var (
		static             models.StaticFacet
		semi               models.SemiStaticFacet
		staticErr, semiErr error
		wg                 conc.WaitGroup
	)
	wg.Go(func() { static, staticErr = s.staticFacet(ctx, entry) })
	wg.Go(func() { semi, semiErr = s.semiStaticFacet(ctx, entry.Name) })
	wg.Wait()

	if err := errors.Join(staticErr, semiErr); err != nil {
		return models.MovieRecord{}, err
	}

	activity, err := s.activity(ctx, username, entry.Name)
	if err != nil {
		return models.MovieRecord{}, err
	}
	return models.NewMovieRecord(entry, static, semi, activity), nil
}

// staticFacet reads the write-once tier, or fetches the film page, its
// nanogenres and the catalog record. Only facets backed by a catalog record
// are stored.
func (s *Scraper) staticFacet(ctx context.Context, entry models.ListingEntry) (models.StaticFacet, error) {
	log := logging.Ctx(ctx).With().Str("film", entry.Name).Logger()

	cached, err := s.films.GetStatic(ctx, entry.Name)
	if err != nil {
		log.Warn().Err(err).Msg("Static cache lookup failed, fetching")
	} else if cached != nil {
		return *cached, nil
	}

	doc, err := s.site.Document(ctx, s.site.URL("film", entry.Name))
	if err != nil {
		return models.StaticFacet{}, err
	}
	detail := parse.FilmDetail(doc)

	nanogenres := []string{}
	if ndoc, err := s.site.Document(ctx, s.site.URL("film", entry.Name, "nanogenres")); err != nil {
		log.Warn().Err(err).Msg("Nanogenres unavailable")
	} else {
		nanogenres = parse.Nanogenres(ndoc)
	}

	if detail.TMDBID != nil && s.catalog != nil {
		movie, err := s.catalog.Movie(ctx, *detail.TMDBID)
		switch {
		case err == nil:
			facet := movie.StaticFacet(detail.Director, detail.Actors, detail.Themes, nanogenres)
			if err := s.films.PutStatic(ctx, entry.Name, facet); err != nil {
				log.Warn().Err(err).Msg("Failed to store static facet")
			}
			return facet, nil
		case ctx.Err() != nil:
			return models.StaticFacet{}, ctx.Err()
		case errors.Is(err, catalog.ErrNotFound):
			log.Debug().Int("tmdb_id", *detail.TMDBID).Msg("Title missing from catalog")
		default:
			log.Warn().Err(err).Int("tmdb_id", *detail.TMDBID).Msg("Catalog lookup failed")
		}
	}

	facet := models.UnknownStatic()
	if entry.Title != "" {
		facet.Title = entry.Title
	}
	if detail.Director != "" {
		facet.Director = detail.Director
	} else {
		facet.Director = models.Unknown
	}
	facet.Actors = detail.Actors
	facet.Themes = detail.Themes
	facet.Nanogenres = nanogenres
	return facet, nil
}

// semiStaticFacet returns a fresh snapshot from the cache or fetches a new one.
// A stale row is refreshed in place; a missing row is inserted.
func (s *Scraper) semiStaticFacet(ctx context.Context, name string) (models.SemiStaticFacet, error) {
	log := logging.Ctx(ctx).With().Str("film", name).Logger()

	cached, freshness, err := s.films.GetSemiStatic(ctx, name)
	if err != nil {
		log.Warn().Err(err).Msg("Semi-static cache lookup failed, fetching")
		freshness = cache.Missing
	}
	if freshness == cache.Fresh {
		return cached, nil
	}

	hdoc, err := s.site.Document(ctx, s.site.URL("csi", "film", name, "rating-histogram"))
	if err != nil {
		return models.SemiStaticFacet{}, err
	}
	sdoc, err := s.site.Document(ctx, s.site.URL("csi", "film", name, "stats"))
	if err != nil {
		return models.SemiStaticFacet{}, err
	}

	var f models.SemiStaticFacet
	f.Rating, f.RatingCount = parse.RatingHistogram(hdoc)
	f.Watched, f.Liked, f.Top250 = parse.Stats(sdoc)

	if freshness == cache.Stale {
		err = s.films.RefreshSemiStatic(ctx, name, f)
	} else {
		err = s.films.PutSemiStatic(ctx, name, f)
	}
	if err != nil {
		log.Warn().Err(err).Str("freshness", freshness.String()).Msg("Failed to store semi-static facet")
	}
	return f, nil
}

func (s *Scraper) activity(ctx context.Context, username, name string) (models.ActivityFacet, error) {
	doc, err := s.site.Document(ctx, s.site.URL(username, "film", name, "activity"))
	if err != nil {
		return models.ActivityFacet{}, err
	}
	return parse.Activity(doc), nil
}
