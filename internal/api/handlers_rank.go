// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package api

import (
	"net/http"
	"time"

	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/models"
)

// Rank handles GET /rank?user=&group=.
//
// Ranks the member's followers, followings or both by rating similarity and
// recommends films those contacts rated that the member has not logged.
func (h *Handler) Rank(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	req := parseRankRequest(r)
	if apiErr := validateRequest(&req); apiErr != nil {
		respondValidation(w, r, "Rank", apiErr)
		return
	}

	group, err := models.ParseGroup(req.Group)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "Rank_400", err.Error(), nil)
		return
	}

	ctx := logging.ContextWithSubject(r.Context(), req.User)
	result, err := h.svc.Ranker.Rank(ctx, req.User, group)
	if err != nil {
		respondFailure(w, r, "Rank", err)
		return
	}
	respondData(w, r, result, start)
}
