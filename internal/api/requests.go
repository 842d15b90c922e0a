// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package api

import (
	"net/http"
	"strings"
)

// UserRequest is the query of the per-member endpoints.
type UserRequest struct {
	User string `validate:"required,username"`
}

// RankRequest is the /rank query.
type RankRequest struct {
	User  string `validate:"required,username"`
	Group string `validate:"required,oneof=followers following both"`
}

func parseUserRequest(r *http.Request) UserRequest {
	return UserRequest{User: strings.TrimSpace(r.URL.Query().Get("user"))}
}

func parseRankRequest(r *http.Request) RankRequest {
	q := r.URL.Query()
	return RankRequest{
		User:  strings.TrimSpace(q.Get("user")),
		Group: strings.ToLower(strings.TrimSpace(q.Get("group"))),
	}
}
