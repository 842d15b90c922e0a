// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package analytics derives the descriptive profile shown next to a member's
// raw watch history: headline counts, monthly activity, taste distributions,
// diversity and obscurity scores, achievements and a viewer archetype.
//
// Every function here is pure. Unrated records (rating 0) are excluded from
// anything that depends on the member's opinion.
package analytics

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/tomtom215/unboxd/internal/models"
)

const (
	// noLanguage is the TMDB spoken-language label for silent films.
	noLanguage = "No Language"

	// smallHistory switches the distribution thresholds to their lower values.
	smallHistory = 50

	likeToWatchLimit  = 10
	likeToWatchFloor  = 10
	wordCloudLimit    = 50
	monthlyTopEntries = 2
)

// Summarize computes the full profile for one member.
func Summarize(records []models.MovieRecord, profile models.Profile) models.ProfileSummary {
	rated := ratedOnly(records)

	return models.ProfileSummary{
		BasicInfo:       basicInfo(records, profile),
		RatingDiff:      ratingDiff(rated),
		Achievements:    Achievements(records),
		LogActivity:     logActivity(records),
		LikeToWatch:     likeToWatch(records),
		HighRatedGenres: highRated(records, genres, threshold(len(records), 1, 10)),
		HighRatedThemes: highRated(records, themes, threshold(len(records), 5, 10)),
		MonthlySummary:  monthlySummary(records),
		DiversityScore:  Diversity(records),
		ObscurityScore:  Obscurity(records),
		WordCloud:       wordCloud(records),
		UserType:        string(Classify(records)),
	}
}

func basicInfo(records []models.MovieRecord, profile models.Profile) models.BasicInfo {
	info := models.BasicInfo{
		ProfileName:       profile.DisplayName,
		ProfilePic:        profile.AvatarURL,
		MovieCount:        len(records),
		LanguageCount:     languageCount(records),
		ThemesCount:       len(distinct(records, themes)),
		CountriesExplored: distinct(records, countries),
	}
	for i := range records {
		r := &records[i]
		if isRated(r) {
			info.RatedMovieCount++
		}
		if r.IsLiked {
			info.LikedMovieCount++
		}
		if r.IsReviewed {
			info.ReviewedCount++
		}
		if r.Top250Rank != 0 {
			info.Top250MovieCount++
		}
	}
	return info
}

func ratingDiff(rated []models.MovieRecord) []float64 {
	out := make([]float64, len(rated))
	for i, r := range rated {
		out[i] = r.UserRating - r.CommunityRating
	}
	return out
}

// logActivity counts watches per calendar month keyed "YYYY-M".
func logActivity(records []models.MovieRecord) map[string]int {
	out := make(map[string]int)
	for i := range records {
		if t, ok := lastWatched(&records[i]); ok {
			out[monthKey(t)]++
		}
	}
	return out
}

func likeToWatch(records []models.MovieRecord) models.LikeToWatch {
	var ratios []models.LikeRatio
	for _, r := range records {
		if r.WatchedCount <= likeToWatchFloor {
			continue
		}
		ratios = append(ratios, models.LikeRatio{
			Title:   r.Title,
			Liked:   r.LikedCount,
			Watched: r.WatchedCount,
			Ratio:   float64(r.LikedCount) / float64(r.WatchedCount),
		})
	}

	high := append([]models.LikeRatio(nil), ratios...)
	sort.SliceStable(high, func(i, j int) bool { return high[i].Ratio > high[j].Ratio })
	low := append([]models.LikeRatio(nil), ratios...)
	sort.SliceStable(low, func(i, j int) bool { return low[i].Ratio < low[j].Ratio })

	return models.LikeToWatch{
		High: truncate(high, likeToWatchLimit),
		Low:  truncate(low, likeToWatchLimit),
	}
}

// highRated returns, for every value of the attribute seen on more than min
// rated records, the share of those ratings at 4 stars or above.
func highRated(records []models.MovieRecord, attr attribute, min int) map[string]float64 {
	type tally struct{ total, high int }
	counts := make(map[string]*tally)
	for i := range records {
		r := &records[i]
		if !isRated(r) {
			continue
		}
		for _, v := range attr(r) {
			t, ok := counts[v]
			if !ok {
				t = &tally{}
				counts[v] = t
			}
			t.total++
			if r.UserRating >= 4 {
				t.high++
			}
		}
	}

	out := make(map[string]float64)
	for v, t := range counts {
		if t.total > min {
			out[v] = float64(t.high) / float64(t.total)
		}
	}
	return out
}

func wordCloud(records []models.MovieRecord) map[string]float64 {
	ratios := highRated(records, nanogenres, threshold(len(records), 3, 10))
	if len(ratios) <= wordCloudLimit {
		return ratios
	}

	keys := make([]string, 0, len(ratios))
	for k := range ratios {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if ratios[keys[i]] != ratios[keys[j]] {
			return ratios[keys[i]] > ratios[keys[j]]
		}
		return keys[i] < keys[j]
	})

	out := make(map[string]float64, wordCloudLimit)
	for _, k := range keys[:wordCloudLimit] {
		out[k] = ratios[k]
	}
	return out
}

// monthlySummary reports, for each month with rated watches, the two most
// frequent values of each attribute that occur more than once.
func monthlySummary(records []models.MovieRecord) []models.MonthSummary {
	var order []string
	byMonth := make(map[string][]*models.MovieRecord)
	for i := range records {
		r := &records[i]
		t, ok := lastWatched(r)
		if !ok {
			continue
		}
		key := monthKey(t)
		if _, seen := byMonth[key]; !seen {
			order = append(order, key)
			byMonth[key] = nil
		}
		if isRated(r) {
			byMonth[key] = append(byMonth[key], r)
		}
	}

	out := make([]models.MonthSummary, 0, len(order))
	for _, key := range order {
		month := byMonth[key]
		if len(month) == 0 {
			continue
		}
		most := make(map[string]map[string]int, len(monthlyAttributes))
		for _, a := range monthlyAttributes {
			most[a.name] = mostFrequent(month, a.values)
		}
		out = append(out, models.MonthSummary{
			Month:       key,
			TotalMovies: len(month),
			MostWatched: most,
		})
	}
	return out
}

var monthlyAttributes = []struct {
	name   string
	values attribute
}{
	{"genre", genres},
	{"country", countries},
	{"language", spokenLanguages},
	{"director", director},
	{"year", releaseYear},
	{"theme", themes},
	{"actor", actors},
}

func mostFrequent(records []*models.MovieRecord, attr attribute) map[string]int {
	counts := make(map[string]int)
	for _, r := range records {
		for _, v := range attr(r) {
			counts[v]++
		}
	}

	type entry struct {
		value string
		n     int
	}
	var entries []entry
	for v, n := range counts {
		if n > 1 {
			entries = append(entries, entry{v, n})
		}
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].n != entries[j].n {
			return entries[i].n > entries[j].n
		}
		return entries[i].value < entries[j].value
	})

	out := make(map[string]int, monthlyTopEntries)
	for i := 0; i < len(entries) && i < monthlyTopEntries; i++ {
		out[entries[i].value] = entries[i].n
	}
	return out
}

// attribute extracts the values of one multi-valued field from a record.
type attribute func(*models.MovieRecord) []string

func genres(r *models.MovieRecord) []string          { return r.Genres }
func themes(r *models.MovieRecord) []string          { return r.Themes }
func nanogenres(r *models.MovieRecord) []string      { return r.Nanogenres }
func countries(r *models.MovieRecord) []string       { return r.Countries }
func spokenLanguages(r *models.MovieRecord) []string { return r.SpokenLanguages }
func actors(r *models.MovieRecord) []string          { return r.Actors }

func director(r *models.MovieRecord) []string {
	if r.Director == "" || r.Director == models.Unknown {
		return nil
	}
	return []string{r.Director}
}

func originalLanguage(r *models.MovieRecord) []string {
	if r.OriginalLanguage == "" || r.OriginalLanguage == models.Unknown {
		return nil
	}
	return []string{r.OriginalLanguage}
}

func releaseYear(r *models.MovieRecord) []string {
	if y, ok := year(r); ok {
		return []string{strconv.Itoa(y)}
	}
	return nil
}

func year(r *models.MovieRecord) (int, bool) {
	if len(r.ReleaseDate) < 4 {
		return 0, false
	}
	y, err := strconv.Atoi(r.ReleaseDate[:4])
	if err != nil {
		return 0, false
	}
	return y, true
}

func releaseDate(r *models.MovieRecord) (time.Time, bool) {
	t, err := time.Parse(time.DateOnly, r.ReleaseDate)
	return t, err == nil
}

func lastWatched(r *models.MovieRecord) (time.Time, bool) {
	if r.LastWatched == nil {
		return time.Time{}, false
	}
	t, err := time.Parse(time.DateOnly, *r.LastWatched)
	return t, err == nil
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%d-%d", t.Year(), int(t.Month()))
}

// distinct returns the attribute's values in first-seen order.
func distinct(records []models.MovieRecord, attr attribute) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for i := range records {
		for _, v := range attr(&records[i]) {
			if v == "" {
				continue
			}
			if _, ok := seen[v]; !ok {
				seen[v] = struct{}{}
				out = append(out, v)
			}
		}
	}
	return out
}

func languageCount(records []models.MovieRecord) int {
	n := 0
	for _, l := range distinct(records, spokenLanguages) {
		if l != noLanguage {
			n++
		}
	}
	return n
}

func isRated(r *models.MovieRecord) bool {
	return models.IsValidRating(r.UserRating)
}

func ratedOnly(records []models.MovieRecord) []models.MovieRecord {
	out := make([]models.MovieRecord, 0, len(records))
	for _, r := range records {
		if isRated(&r) {
			out = append(out, r)
		}
	}
	return out
}

func threshold(n, small, large int) int {
	if n < smallHistory {
		return small
	}
	return large
}

func truncate(s []models.LikeRatio, n int) []models.LikeRatio {
	if s == nil {
		return []models.LikeRatio{}
	}
	if len(s) > n {
		return s[:n]
	}
	return s
}
