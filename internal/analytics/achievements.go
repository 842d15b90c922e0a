// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package analytics

import (
	"github.com/tomtom215/unboxd/internal/models"
)

// allGenres is the size of the TMDB movie genre list.
const allGenres = 20

// tier awards the first badge whose bound the count exceeds. Bounds are
// listed highest first.
type tier struct {
	bounds []int
	badges []string
}

func (t tier) award(n int) (string, bool) {
	for i, b := range t.bounds {
		if n > b {
			return t.badges[i], true
		}
	}
	return "", false
}

var (
	travellerTier = tier{[]int{100, 50, 25}, []string{"Traveller 3", "Traveller 2", "Traveller 1"}}
	linguistTier  = tier{[]int{100, 50, 25}, []string{"Linguist 3", "Linguist 2", "Linguist 1"}}
	themeTier     = tier{[]int{100, 75, 50}, []string{"Theme Explorer 3", "Theme Explorer 2", "Theme Explorer 1"}}
	directorTier  = tier{[]int{100, 50, 25}, []string{"Director Explorer 3", "Director Explorer 2", "Director Explorer 1"}}
	reviewerTier  = tier{[]int{200, 100, 50}, []string{"Reviewer 3", "Reviewer 2", "Reviewer 1"}}
	decadeTier    = tier{[]int{10, 8, 5}, []string{"Time Traveller 3", "Time Traveller 2", "Time Traveller 1"}}
	popularTier   = tier{[]int{150, 100, 50}, []string{"Popular 3", "Popular 2", "Popular 1"}}
	obscureTier   = tier{[]int{75, 50, 25}, []string{"obscure 3", "obscure 2", "obscure 1"}}
)

// Achievements lists the badges earned across the whole history, rated or not.
func Achievements(records []models.MovieRecord) []string {
	var reviewed, top250, obscure int
	decades := make(map[int]struct{})
	for i := range records {
		r := &records[i]
		if r.IsReviewed {
			reviewed++
		}
		if r.Top250Rank != 0 {
			top250++
		}
		if r.WatchedCount < 1000 {
			obscure++
		}
		if y, ok := year(r); ok {
			decades[y/10*10] = struct{}{}
		}
	}

	out := []string{}
	add := func(t tier, n int) {
		if badge, ok := t.award(n); ok {
			out = append(out, badge)
		}
	}

	add(travellerTier, len(distinct(records, countries)))
	add(linguistTier, languageCount(records))
	add(themeTier, len(distinct(records, themes)))
	if len(distinct(records, genres)) == allGenres {
		out = append(out, "Genre Master")
	}
	add(directorTier, len(distinct(records, director)))
	add(reviewerTier, reviewed)
	add(decadeTier, len(decades))
	if top250 == 250 {
		out = append(out, "250 Master")
	} else {
		add(popularTier, top250)
	}
	add(obscureTier, obscure)
	return out
}
