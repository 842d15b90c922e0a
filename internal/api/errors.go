// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/tomtom215/unboxd/internal/crawl"
	"github.com/tomtom215/unboxd/internal/fetch"
	"github.com/tomtom215/unboxd/internal/reviews"
)

// Error codes shared by every endpoint. Endpoint-specific codes are built
// from the endpoint prefix ("Stat", "Rank", "Review") and the status.
const (
	ErrCodeValidation          = "VALIDATION_ERROR"
	ErrCodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	ErrCodeTimeout             = "TIMEOUT"
	ErrCodeInternal            = "INTERNAL_ERROR"
	ErrCodeMethodNotAllowed    = "METHOD_NOT_ALLOWED"
)

// failure is an error translated for the client.
type failure struct {
	status  int
	code    string
	message string
}

// classify maps a domain error to a response for the endpoint with the
// given code prefix.
func classify(err error, prefix string) failure {
	switch {
	case errors.Is(err, crawl.ErrProfileNotFound):
		return failure{http.StatusNotFound, prefix + "_404", "Letterboxd member not found"}
	case errors.Is(err, crawl.ErrInsufficientHistory):
		return failure{http.StatusBadRequest, prefix + "_400", "Not enough logged films to analyse"}
	case errors.Is(err, reviews.ErrInsufficientReviews):
		return failure{http.StatusBadRequest, prefix + "_400", "At least 10 reviewed films are required"}
	case errors.Is(err, context.DeadlineExceeded):
		return failure{http.StatusGatewayTimeout, ErrCodeTimeout, "Request timed out while crawling Letterboxd"}
	case errors.Is(err, fetch.ErrUnavailable):
		return failure{http.StatusBadGateway, ErrCodeUpstreamUnavailable, "Letterboxd is unavailable, try again later"}
	default:
		return failure{http.StatusInternalServerError, ErrCodeInternal, "Internal server error"}
	}
}
