// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package models holds the data types shared between the crawl pipeline,
// the cache tiers, the recommendation engine and the HTTP API.
package models

import "strings"

// Unknown is the placeholder used for text fields a page or catalog did not provide.
const Unknown = "Unknown"

// MovieRecord is one subject's interaction with one title, assembled from the
// static, semi-static and live activity facets.
type MovieRecord struct {
	// Name is the Letterboxd film slug and the join key across cache tiers.
	Name string `json:"name"`

	// Static facet
	Title            string   `json:"title"`
	TMDBID           *int     `json:"tmdb_id"`
	ReleaseDate      string   `json:"release_date"`
	Countries        []string `json:"countries"`
	SpokenLanguages  []string `json:"spoken_languages"`
	OriginalLanguage string   `json:"original_language"`
	Runtime          *int     `json:"runtime"`
	Genres           []string `json:"genres"`
	Actors           []string `json:"actors"`
	Director         string   `json:"director"`
	Themes           []string `json:"themes"`
	Nanogenres       []string `json:"nanogenres"`

	// Semi-static facet
	CommunityRating      float64 `json:"rating"`
	CommunityRatingCount int     `json:"rating_count"`
	WatchedCount         int     `json:"stats_watched"`
	LikedCount           int     `json:"stats_liked"`
	Top250Rank           int     `json:"stats_rank"`

	// User-specific facet
	LastWatched *string `json:"last_watched"`
	IsRewatched bool    `json:"is_rewatched"`
	UserRating  float64 `json:"user_rating"`
	IsLiked     bool    `json:"is_liked"`
	IsReviewed  bool    `json:"is_reviewed"`
}

// StaticFacet is catalog metadata that never changes once recorded.
type StaticFacet struct {
	Title            string   `json:"title"`
	TMDBID           *int     `json:"tmdb_id"`
	ReleaseDate      string   `json:"release_date"`
	Countries        []string `json:"countries"`
	SpokenLanguages  []string `json:"spoken_languages"`
	OriginalLanguage string   `json:"original_language"`
	Runtime          *int     `json:"runtime"`
	Genres           []string `json:"genres"`
	Actors           []string `json:"actors"`
	Director         string   `json:"director"`
	Themes           []string `json:"themes"`
	Nanogenres       []string `json:"nanogenres"`
}

// SemiStaticFacet is community aggregate data refreshed on the staleness window.
type SemiStaticFacet struct {
	Rating      float64 `json:"rating"`
	RatingCount int     `json:"rating_count"`
	Watched     int     `json:"watched"`
	Liked       int     `json:"liked"`
	Top250      int     `json:"top250"`
}

// ActivityFacet is the subject's own watch activity for one title.
type ActivityFacet struct {
	LastWatched *string `json:"last_watched"`
	IsRewatched bool    `json:"is_rewatched"`
}

// ListingEntry is one poster on a subject's films listing page.
type ListingEntry struct {
	Link       string  `json:"link"`
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	UserRating float64 `json:"user_rating"`
	IsLiked    bool    `json:"is_liked"`
	IsReviewed bool    `json:"is_reviewed"`
}

// UnknownStatic returns the facet used when neither cache nor network could
// supply catalog metadata.
func UnknownStatic() StaticFacet {
	return StaticFacet{
		Title:            Unknown,
		ReleaseDate:      Unknown,
		OriginalLanguage: Unknown,
		Countries:        []string{},
		SpokenLanguages:  []string{},
		Genres:           []string{},
		Actors:           []string{},
		Themes:           []string{},
		Nanogenres:       []string{},
	}
}

// NewMovieRecord merges the three facets with the listing entry.
func NewMovieRecord(entry ListingEntry, static StaticFacet, semi SemiStaticFacet, activity ActivityFacet) MovieRecord {
	return MovieRecord{
		Name:                 entry.Name,
		Title:                static.Title,
		TMDBID:               static.TMDBID,
		ReleaseDate:          static.ReleaseDate,
		Countries:            nonNil(static.Countries),
		SpokenLanguages:      nonNil(static.SpokenLanguages),
		OriginalLanguage:     static.OriginalLanguage,
		Runtime:              static.Runtime,
		Genres:               nonNil(static.Genres),
		Actors:               nonNil(static.Actors),
		Director:             static.Director,
		Themes:               nonNil(static.Themes),
		Nanogenres:           nonNil(static.Nanogenres),
		CommunityRating:      semi.Rating,
		CommunityRatingCount: semi.RatingCount,
		WatchedCount:         semi.Watched,
		LikedCount:           semi.Liked,
		Top250Rank:           semi.Top250,
		LastWatched:          activity.LastWatched,
		IsRewatched:          activity.IsRewatched,
		UserRating:           entry.UserRating,
		IsLiked:              entry.IsLiked,
		IsReviewed:           entry.IsReviewed,
	}
}

// NameFromLink derives the film slug from a listing link. The slug is the
// last non-empty path segment: "/film/heat-1995/" and
// "https://letterboxd.com/film/heat-1995" both yield "heat-1995".
func NameFromLink(link string) string {
	if i := strings.Index(link, "://"); i >= 0 {
		link = link[i+3:]
		if j := strings.IndexByte(link, '/'); j >= 0 {
			link = link[j:]
		} else {
			return ""
		}
	}
	if i := strings.IndexAny(link, "?#"); i >= 0 {
		link = link[:i]
	}
	link = strings.TrimRight(link, "/")
	if i := strings.LastIndexByte(link, '/'); i >= 0 {
		return link[i+1:]
	}
	return link
}

// IsValidRating reports whether r is a half-star rating. Zero means "unrated"
// and is never a valid rating.
func IsValidRating(r float64) bool {
	if r < 0.5 || r > 5 {
		return false
	}
	return r*2 == float64(int(r*2))
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
