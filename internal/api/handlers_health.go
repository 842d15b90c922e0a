// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package api

import (
	"context"
	"net/http"
	"sort"
	"time"

	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/models"
)

const healthCheckTimeout = 2 * time.Second

// Health handles GET /health.
//
// Every registered dependency check runs with a short timeout. Any failure
// turns the status to "degraded" and the response to 503.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.svc.Checks))
	for name := range h.svc.Checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := models.HealthStatus{
		Status:       "healthy",
		Version:      Version,
		Uptime:       time.Since(h.startTime).Seconds(),
		Dependencies: make(map[string]bool, len(names)),
	}
	for _, name := range names {
		err := h.svc.Checks[name](ctx)
		status.Dependencies[name] = err == nil
		if err != nil {
			status.Status = "degraded"
			logging.Ctx(r.Context()).Warn().Err(err).Str("dependency", name).Msg("Health check failed")
		}
	}
	if h.perfMon != nil {
		status.Endpoints = h.perfMon.GetStats()
	}

	code := http.StatusOK
	if status.Status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, r, code, &models.APIResponse{
		Status:   "success",
		Data:     status,
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}

// HealthLive handles GET /health/live. It only reports that the process serves.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, r, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"alive":  true,
			"uptime": time.Since(h.startTime).Seconds(),
		},
		Metadata: models.Metadata{Timestamp: time.Now().UTC()},
	})
}
