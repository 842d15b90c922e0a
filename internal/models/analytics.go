// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package models

// ProfileSummary is the descriptive-statistics view of a finished crawl.
type ProfileSummary struct {
	BasicInfo       BasicInfo          `json:"basic_info"`
	RatingDiff      []float64          `json:"rating_diff"`
	Achievements    []string           `json:"achievements"`
	LogActivity     map[string]int     `json:"log_activity"`
	LikeToWatch     LikeToWatch        `json:"like_to_watch"`
	HighRatedGenres map[string]float64 `json:"high_rated_genres"`
	HighRatedThemes map[string]float64 `json:"high_rated_themes"`
	MonthlySummary  []MonthSummary     `json:"monthly_summary"`
	DiversityScore  float64            `json:"diversity_score"`
	ObscurityScore  float64            `json:"obscurity_score"`
	WordCloud       map[string]float64 `json:"word_cloud"`
	UserType        string             `json:"user_type"`
}

// BasicInfo holds headline counts.
type BasicInfo struct {
	ProfileName       string   `json:"profile_name"`
	ProfilePic        string   `json:"profile_pic"`
	MovieCount        int      `json:"movie_count"`
	RatedMovieCount   int      `json:"rated_movie_count"`
	LikedMovieCount   int      `json:"liked_movie_count"`
	ReviewedCount     int      `json:"reviewed_movie_count"`
	Top250MovieCount  int      `json:"top250_movie_count"`
	LanguageCount     int      `json:"language_count"`
	ThemesCount       int      `json:"themes_count"`
	CountriesExplored []string `json:"countries_explored"`
}

// LikeRatio is one title's liked/watched ratio across the community.
type LikeRatio struct {
	Title   string  `json:"title"`
	Liked   int     `json:"stats_liked"`
	Watched int     `json:"stats_watched"`
	Ratio   float64 `json:"watched_to_like_ratio"`
}

// LikeToWatch lists the most and least liked titles relative to their audience.
type LikeToWatch struct {
	High []LikeRatio `json:"high"`
	Low  []LikeRatio `json:"low"`
}

// MonthSummary aggregates one calendar month of rated watches.
type MonthSummary struct {
	Month       string                    `json:"time"`
	TotalMovies int                       `json:"total_movies"`
	MostWatched map[string]map[string]int `json:"most_watched"`
}
