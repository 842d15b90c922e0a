// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/unboxd/internal/analytics"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/models"
)

// MoviesData handles GET /movies-data/?user=.
//
// Responds with the member's full watch history and the analytics profile
// computed from it.
func (h *Handler) MoviesData(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := parseUserRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, r, "Stat", apiErr)
		return
	}

	ctx := logging.ContextWithSubject(r.Context(), req.User)
	profile, err := h.svc.Profiles.Profile(ctx, req.User)
	if err != nil {
		respondFailure(w, r, "Stat", err)
		return
	}

	records, err := h.svc.History.Scrape(ctx, req.User)
	if err != nil {
		respondFailure(w, r, "Stat", err)
		return
	}

	summary := analytics.Summarize(records, profile)
	respondData(w, r, models.MoviesData{Records: records, Summary: &summary}, start)
}

// Reviews handles GET /reviews/?user=.
func (h *Handler) Reviews(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := parseUserRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, r, "Review", apiErr)
		return
	}

	ctx := logging.ContextWithSubject(r.Context(), req.User)
	set, err := h.svc.Reviews.Scrape(ctx, req.User)
	if err != nil {
		respondFailure(w, r, "Review", err)
		return
	}
	respondData(w, r, set, start)
}
