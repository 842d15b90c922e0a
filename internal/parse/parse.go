// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

/*
Package parse extracts fields from Letterboxd HTML pages.

Extractors are best-effort: a missing element yields the zero value for its
field and never fails the page. Only an unparseable document is an error.

Pages and the extractors that read them:

	/{user}/films/page/{n}/             PageCount, Listing
	/{user}/film/{name}/activity/       Activity
	/film/{name}/                       FilmDetail
	/film/{name}/nanogenres/            Nanogenres
	/csi/film/{name}/stats/             Stats
	/csi/film/{name}/rating-histogram/  RatingHistogram
	/{user}/                            Profile
	/{user}/followers/page/{n}/         Contacts
	/{user}/films/reviews/page/{n}/     ReviewLinks
	/{user}/film/{name}/                ReviewText
	/{user}/film/{name}/likes/          Likers
*/
package parse

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document parses an HTML body.
func Document(body []byte) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return doc, nil
}

// PageCount returns the number in the last pagination link, or 1 when the
// listing has no pagination.
func PageCount(doc *goquery.Document) int {
	n, err := strconv.Atoi(strings.TrimSpace(doc.Find("li.paginate-page").Last().Text()))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

var leadingCount = regexp.MustCompile(`^\d[\d,]*`)

// parseCount reads a leading, optionally comma-grouped integer.
func parseCount(s string) (int, bool) {
	m := leadingCount.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	n, err := strconv.Atoi(strings.ReplaceAll(m, ",", ""))
	if err != nil {
		return 0, false
	}
	return n, true
}

func text(sel *goquery.Selection) string {
	return strings.TrimSpace(sel.Text())
}

func texts(sel *goquery.Selection) []string {
	out := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		out = append(out, text(s))
	})
	return out
}
