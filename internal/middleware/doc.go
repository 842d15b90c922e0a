// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

/*
Package middleware provides the HTTP middleware shared by the API router.

  - RequestID: accepts or generates X-Request-ID and seeds the logging context
    with request and correlation IDs.
  - PrometheusMetrics: request counts, durations and in-flight gauge, labelled
    with the chi route pattern so query strings never create new series.
  - Compression: gzip for clients that accept it. Watch history payloads run
    to several megabytes for active members.
  - PerformanceMonitor: a sliding window of request durations per route,
    surfaced on the health endpoint, with slow request logging.

All middleware has the func(http.Handler) http.Handler shape used by chi.
*/
package middleware
