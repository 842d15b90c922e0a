// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package crawl

import "errors"

var (
	// ErrInsufficientHistory means the member has logged too few films for
	// the crawl to be worth finishing.
	ErrInsufficientHistory = errors.New("insufficient watch history")

	// ErrProfileNotFound means Letterboxd has no member with that username.
	ErrProfileNotFound = errors.New("profile not found")
)
