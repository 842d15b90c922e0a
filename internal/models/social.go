// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package models

import "fmt"

// ContactsPerPage is the number of people Letterboxd lists per followers/following page.
const ContactsPerPage = 25

// Group selects which side of the social graph to resolve.
type Group string

// Social graph groups.
const (
	GroupFollowers Group = "followers"
	GroupFollowing Group = "following"
	GroupBoth      Group = "both"
)

// ParseGroup validates a group name.
func ParseGroup(s string) (Group, error) {
	switch g := Group(s); g {
	case GroupFollowers, GroupFollowing, GroupBoth:
		return g, nil
	default:
		return "", fmt.Errorf("unknown group %q", s)
	}
}

// FriendDataset is the lightweight per-user rating history used for ranking.
// Titles, Links and Ratings are parallel slices.
type FriendDataset struct {
	Titles  []string  `json:"titles"`
	Links   []string  `json:"links"`
	Ratings []float64 `json:"ratings"`
}

// Len returns the number of entries.
func (d FriendDataset) Len() int { return len(d.Links) }

// Valid reports whether the parallel slices have equal lengths.
func (d FriendDataset) Valid() bool {
	return len(d.Titles) == len(d.Links) && len(d.Links) == len(d.Ratings)
}

// Append adds one entry to all three slices.
func (d *FriendDataset) Append(title, link string, rating float64) {
	d.Titles = append(d.Titles, title)
	d.Links = append(d.Links, link)
	d.Ratings = append(d.Ratings, rating)
}

// Contact is one person on a followers or following page.
type Contact struct {
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url,omitempty"`
}

// Profile is the header information on a Letterboxd profile page.
type Profile struct {
	Username       string `json:"username"`
	DisplayName    string `json:"display_name"`
	AvatarURL      string `json:"avatar_url,omitempty"`
	FollowerCount  int    `json:"follower_count"`
	FollowingCount int    `json:"following_count"`
}

// FollowerPages is the number of followers pages to crawl.
func (p Profile) FollowerPages() int { return p.FollowerCount/ContactsPerPage + 1 }

// FollowingPages is the number of following pages to crawl.
func (p Profile) FollowingPages() int { return p.FollowingCount/ContactsPerPage + 1 }

// RankedContact is one entry of the similarity ranking.
type RankedContact struct {
	Username    string  `json:"url"`
	DisplayName string  `json:"name"`
	AvatarURL   string  `json:"pic"`
	Similarity  float64 `json:"similarity"`
}

// Recommendation is one predicted-interest title.
type Recommendation struct {
	Link  string  `json:"url"`
	Title string  `json:"title"`
	Score float64 `json:"rating"`
}

// RankingResult is the output of the friend ranking.
type RankingResult struct {
	Rankings        []RankedContact  `json:"rankings"`
	Recommendations []Recommendation `json:"recommendations"`
}
