// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package models

// Review is the text of one review and the users who liked it.
type Review struct {
	Text    string   `json:"review"`
	LikedBy []string `json:"liked_by"`
}

// ReviewSet groups a subject's reviews by film slug. A film may carry several
// reviews when it was reviewed on more than one watch.
type ReviewSet map[string][]Review
