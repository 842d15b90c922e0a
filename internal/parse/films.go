// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package parse

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/tomtom215/unboxd/internal/models"
)

var ratedClass = regexp.MustCompile(`^rated-(\d+)$`)

// Listing returns the posters on a films listing page in page order.
// Posters without a target link are skipped.
func Listing(doc *goquery.Document) []models.ListingEntry {
	var entries []models.ListingEntry
	doc.Find("li.poster-container").Each(func(_ int, li *goquery.Selection) {
		poster := li.Find("div.poster").First()
		link, ok := poster.Attr("data-target-link")
		if !ok || link == "" {
			return
		}
		title, _ := poster.Find("img").First().Attr("alt")

		entries = append(entries, models.ListingEntry{
			Link:       link,
			Name:       models.NameFromLink(link),
			Title:      strings.TrimSpace(title),
			UserRating: listingRating(li.Find("span.rating").First()),
			IsLiked:    li.Find("span.like.liked-micro, span.icon-liked").Length() > 0,
			IsReviewed: li.Find("a.review-micro").Length() > 0,
		})
	})
	return entries
}

// listingRating converts a "rated-N" class (N half-stars) to stars.
func listingRating(span *goquery.Selection) float64 {
	class, ok := span.Attr("class")
	if !ok {
		return 0
	}
	for _, c := range strings.Fields(class) {
		if m := ratedClass.FindStringSubmatch(c); m != nil {
			n, _ := strconv.Atoi(m[1])
			return float64(n) / 2
		}
	}
	return 0
}

// Activity reads a title's activity page for the subject. The newest entry
// comes first. A title counts as rewatched when any entry says so or when it
// was logged more than once.
func Activity(doc *goquery.Document) models.ActivityFacet {
	var dates []string
	rewatched := false

	doc.Find(".activity-row.-basic").Each(func(_ int, row *goquery.Selection) {
		logged, rewatch := activityWords(row.Text())
		if !logged {
			return
		}
		date, ok := activityDate(row)
		if !ok {
			return
		}
		rewatched = rewatched || rewatch
		dates = append(dates, date)
	})

	if len(dates) == 0 {
		return models.ActivityFacet{}
	}
	return models.ActivityFacet{
		LastWatched: &dates[0],
		IsRewatched: rewatched || len(dates) > 1,
	}
}

func activityWords(s string) (logged, rewatch bool) {
	for _, w := range strings.Fields(strings.ToLower(s)) {
		switch strings.TrimSuffix(w, ",") {
		case "watched", "reviewed":
			logged = true
		case "rewatched":
			logged, rewatch = true, true
		}
	}
	return logged, rewatch
}

func activityDate(row *goquery.Selection) (string, bool) {
	if nobr := row.Find("span.nobr").First(); nobr.Length() > 0 {
		t, err := time.Parse("Jan 2, 2006", text(nobr))
		if err != nil {
			return "", false
		}
		return t.Format(time.DateOnly), true
	}
	raw, ok := row.Find("time").First().Attr("datetime")
	if !ok {
		return "", false
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		if t, err = time.Parse(time.DateOnly, raw); err != nil {
			return "", false
		}
	}
	return t.Format(time.DateOnly), true
}

// Detail is what the film page contributes to the static facet.
type Detail struct {
	Director string
	Actors   []string
	Themes   []string
	TMDBID   *int
}

var tmdbHref = regexp.MustCompile(`/movie/(\d+)`)

// FilmDetail reads crew, cast, themes and the TMDB cross-reference.
func FilmDetail(doc *goquery.Document) Detail {
	cast := doc.Find(".cast-list a")
	d := Detail{
		Director: text(doc.Find("#tab-crew a.text-slug").First()),
		Actors:   texts(cast.Slice(0, min(3, cast.Length()))),
		Themes:   []string{},
	}

	// The second block under the genres tab lists themes, closed by a "Show All" link.
	themes := doc.Find("#tab-genres").First().Find("div").Eq(1).Find("a")
	if n := themes.Length(); n > 1 {
		d.Themes = texts(themes.Slice(0, n-1))
	}

	if href, ok := doc.Find(`a[data-track-action="TMDb"]`).First().Attr("href"); ok {
		if m := tmdbHref.FindStringSubmatch(href); m != nil {
			if id, err := strconv.Atoi(m[1]); err == nil {
				d.TMDBID = &id
			}
		}
	}
	return d
}

// Nanogenres returns the comma-separated headings of the nanogenres page,
// trimmed and de-duplicated in first-seen order.
func Nanogenres(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	out := []string{}
	doc.Find("h2.title").Each(func(_ int, h *goquery.Selection) {
		for _, part := range strings.Split(text(h), ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if _, dup := seen[part]; dup {
				continue
			}
			seen[part] = struct{}{}
			out = append(out, part)
		}
	})
	return out
}

var statCount = regexp.MustCompile(`(\d{1,3}(?:,\d{3})*)\s`)

// Stats reads the watched, liked and top-250 counters.
func Stats(doc *goquery.Document) (watched, liked, top250 int) {
	read := func(class string) int {
		title, ok := doc.Find("a." + class).First().Attr("title")
		if !ok {
			return 0
		}
		m := statCount.FindStringSubmatch(title)
		if m == nil {
			return 0
		}
		n, _ := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		return n
	}
	return read("icon-watched"), read("icon-liked"), read("icon-top250")
}

var displayRating = regexp.MustCompile(`(\d+\.\d+)\s*based on\s*(\d{1,3}(?:,\d{3})*)\s*ratings`)

// RatingHistogram returns the community average and rating count. When the
// page has no published average (too few ratings) the average is computed
// from the histogram bars, bar i being worth (i+1)/2 stars.
func RatingHistogram(doc *goquery.Document) (rating float64, count int) {
	if a := doc.Find("a.display-rating").First(); a.Length() > 0 {
		title, _ := a.Attr("title")
		m := displayRating.FindStringSubmatch(title)
		if m == nil {
			return 0, 0
		}
		rating, _ = strconv.ParseFloat(m[1], 64)
		count, _ = strconv.Atoi(strings.ReplaceAll(m[2], ",", ""))
		return rating, count
	}

	var weighted float64
	doc.Find("li.rating-histogram-bar").Each(func(i int, bar *goquery.Selection) {
		title, ok := bar.Find("a").First().Attr("title")
		if !ok {
			return
		}
		n, ok := parseCount(strings.SplitN(strings.TrimSpace(title), " ", 2)[0])
		if !ok {
			return
		}
		count += n
		weighted += float64(n) * float64(i+1) / 2
	})
	if count == 0 {
		return 0, 0
	}
	return math.Round(weighted/float64(count)*100) / 100, count
}
