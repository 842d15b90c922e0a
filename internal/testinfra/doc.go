// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package testinfra provides a fake Letterboxd site for tests.
//
// The fake serves the same page shapes the parsers read (profiles, film
// listings, film pages, community statistics, activity, followers, reviews)
// plus the TMDB movie endpoint, all from one httptest server. Members and
// films are registered up front; every request is counted so tests can
// assert cache behavior, and individual paths can be made to fail.
//
//	site := testinfra.NewLetterboxd(t)
//	site.AddMember(testinfra.Member{
//	    Username: "dave",
//	    Films:    testinfra.GenerateFilms("dave", 30),
//	})
//	site.FailPath("/film/dave-007/", http.StatusBadGateway, 0)
//
//	fetcher := fetch.New(cfg)
//	scraper := crawl.NewScraper(crawl.NewSite(fetcher, site.URL()), nil, store, opts)
//
// Paths are normalized with a trailing slash for both FailPath and Hits.
package testinfra
