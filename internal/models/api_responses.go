// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package models

import "time"

// APIResponse is the envelope for every HTTP response.
//
// Status is "success" (see Data) or "error" (see Error).
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response timing.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
}

// APIError is a machine-readable error code plus a human-readable message.
// Codes such as Stat_400 and Rank_404 are consumed by the frontend verbatim.
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// MoviesData is the /movies-data payload.
type MoviesData struct {
	Records []MovieRecord   `json:"og_data"`
	Summary *ProfileSummary `json:"processed_data"`
}

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status       string          `json:"status"` // "healthy" or "degraded"
	Version      string          `json:"version"`
	Uptime       float64         `json:"uptime_seconds"`
	Dependencies map[string]bool `json:"dependencies"`
	Endpoints    interface{}     `json:"endpoints,omitempty"`
}
