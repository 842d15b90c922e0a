// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package crawl

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/unboxd/internal/fetch"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/parse"
)

// Fetcher is the part of fetch.Fetcher the crawlers use.
type Fetcher interface {
	Get(ctx context.Context, rawURL string) ([]byte, error)
}

// Site builds Letterboxd URLs and fetches parsed pages.
type Site struct {
	fetcher Fetcher
	base    string
}

// NewSite creates a Site rooted at baseURL (normally https://letterboxd.com).
func NewSite(f Fetcher, baseURL string) *Site {
	return &Site{fetcher: f, base: strings.TrimRight(baseURL, "/")}
}

// URL joins the base with path segments, escaping each one.
// A trailing slash is always added, matching Letterboxd's canonical links.
func (s *Site) URL(segments ...string) string {
	var b strings.Builder
	b.WriteString(s.base)
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(strings.Trim(seg, "/")))
	}
	b.WriteByte('/')
	return b.String()
}

// Resolve turns a site-relative link such as /film/heat-1995/ into an absolute URL.
func (s *Site) Resolve(link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	return s.base + "/" + strings.TrimLeft(link, "/")
}

// Document fetches rawURL and parses it.
func (s *Site) Document(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := s.fetcher.Get(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	doc, err := parse.Document(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", fetch.ErrUnavailable, rawURL, err)
	}
	return doc, nil
}

// PageCount reads the number of pages under a paginated listing root.
// A 404 means the member does not exist; any other failure falls back to a
// single page.
func (s *Site) PageCount(ctx context.Context, rawURL string) (int, error) {
	doc, err := s.Document(ctx, rawURL)
	if err != nil {
		if fetch.IsNotFound(err) {
			return 0, ErrProfileNotFound
		}
		if ctx.Err() != nil {
			return 0, ctx.Err()
		}
		logging.Ctx(ctx).Warn().Err(err).Str("url", rawURL).Msg("Page count unavailable, assuming one page")
		return 1, nil
	}
	return parse.PageCount(doc), nil
}

// Profile fetches a member's profile header.
func (s *Site) Profile(ctx context.Context, username string) (models.Profile, error) {
	doc, err := s.Document(ctx, s.URL(username))
	if err != nil {
		if fetch.IsNotFound(err) {
			return models.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, username)
		}
		return models.Profile{}, err
	}
	p, found := parse.Profile(doc, username)
	if !found {
		return models.Profile{}, fmt.Errorf("%w: %s", ErrProfileNotFound, username)
	}
	return p, nil
}
