// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package catalog looks up film metadata in TMDB.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/tomtom215/unboxd/internal/fetch"
	"github.com/tomtom215/unboxd/internal/models"
)

// ErrNotFound is returned when TMDB answers without a movie id.
var ErrNotFound = errors.New("tmdb: movie not found")

// JSONGetter is the part of the fetcher the client needs.
type JSONGetter interface {
	GetJSON(ctx context.Context, rawURL string, v interface{}) error
}

// Movie is the subset of a TMDB movie record the service keeps.
type Movie struct {
	ID               int
	Title            string
	ReleaseDate      string
	Countries        []string
	SpokenLanguages  []string
	OriginalLanguage string
	Runtime          *int
	Genres           []string
}

type named struct {
	Name        string `json:"name"`
	EnglishName string `json:"english_name"`
}

type movieResponse struct {
	ID                  *int    `json:"id"`
	Title               string  `json:"title"`
	ReleaseDate         string  `json:"release_date"`
	ProductionCountries []named `json:"production_countries"`
	SpokenLanguages     []named `json:"spoken_languages"`
	Runtime             *int    `json:"runtime"`
	OriginalLanguage    string  `json:"original_language"`
	Genres              []named `json:"genres"`
}

// Client calls the TMDB v3 API through the shared fetcher, so requests are
// retried, capped and rate limited like every other upstream call.
type Client struct {
	getter  JSONGetter
	baseURL string
	apiKey  string
}

// NewClient creates a TMDB client. baseURL is the API root without the
// version segment, e.g. https://api.themoviedb.org.
func NewClient(getter JSONGetter, baseURL, apiKey string) *Client {
	return &Client{
		getter:  getter,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  strings.TrimSpace(apiKey),
	}
}

// Host returns the API host, used to key the fetcher's rate limiter.
func Host(baseURL string) string {
	u, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	return u.Host
}

// Movie fetches one movie by TMDB id.
func (c *Client) Movie(ctx context.Context, id int) (*Movie, error) {
	endpoint := c.baseURL + "/3/movie/" + strconv.Itoa(id) + "?" + url.Values{"api_key": {c.apiKey}}.Encode()

	var resp movieResponse
	if err := c.getter.GetJSON(ctx, endpoint, &resp); err != nil {
		if fetch.IsNotFound(err) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, fmt.Errorf("tmdb movie %d: %w", id, err)
	}
	if resp.ID == nil {
		return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	m := &Movie{
		ID:               *resp.ID,
		Title:            orUnknown(resp.Title),
		ReleaseDate:      orUnknown(resp.ReleaseDate),
		OriginalLanguage: orUnknown(resp.OriginalLanguage),
		Runtime:          resp.Runtime,
		Countries:        make([]string, 0, len(resp.ProductionCountries)),
		SpokenLanguages:  make([]string, 0, len(resp.SpokenLanguages)),
		Genres:           make([]string, 0, len(resp.Genres)),
	}
	for _, pc := range resp.ProductionCountries {
		m.Countries = append(m.Countries, pc.Name)
	}
	for _, l := range resp.SpokenLanguages {
		m.SpokenLanguages = append(m.SpokenLanguages, l.EnglishName)
	}
	for _, g := range resp.Genres {
		m.Genres = append(m.Genres, g.Name)
	}
	return m, nil
}

// StaticFacet combines the catalog record with what the film pages provided.
func (m *Movie) StaticFacet(director string, actors, themes, nanogenres []string) models.StaticFacet {
	id := m.ID
	if director == "" {
		director = models.Unknown
	}
	return models.StaticFacet{
		Title:            m.Title,
		TMDBID:           &id,
		ReleaseDate:      m.ReleaseDate,
		Countries:        m.Countries,
		SpokenLanguages:  m.SpokenLanguages,
		OriginalLanguage: m.OriginalLanguage,
		Runtime:          m.Runtime,
		Genres:           m.Genres,
		Actors:           orEmpty(actors),
		Director:         director,
		Themes:           orEmpty(themes),
		Nanogenres:       orEmpty(nanogenres),
	}
}

func orUnknown(s string) string {
	if s == "" {
		return models.Unknown
	}
	return s
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
