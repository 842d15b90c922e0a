// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package fetch

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/tomtom215/unboxd/internal/metrics"
)

// RateLimit is a token bucket applied to every request against one host.
type RateLimit struct {
	PerSecond float64
	Burst     int
}

// hostGate bounds in-flight requests per host and optionally paces them.
// Semaphores are created lazily the first time a host is seen.
type hostGate struct {
	limit int64
	rates map[string]RateLimit

	mu       sync.Mutex
	sems     map[string]*semaphore.Weighted
	limiters map[string]*rate.Limiter
}

func newHostGate(limit int, rates map[string]RateLimit) *hostGate {
	if limit < 1 {
		limit = 1
	}
	return &hostGate{
		limit:    int64(limit),
		rates:    rates,
		sems:     make(map[string]*semaphore.Weighted),
		limiters: make(map[string]*rate.Limiter),
	}
}

func (g *hostGate) get(host string) (*semaphore.Weighted, *rate.Limiter) {
	g.mu.Lock()
	defer g.mu.Unlock()

	sem, ok := g.sems[host]
	if !ok {
		sem = semaphore.NewWeighted(g.limit)
		g.sems[host] = sem
		if rl, ok := g.rates[host]; ok && rl.PerSecond > 0 {
			burst := rl.Burst
			if burst < 1 {
				burst = 1
			}
			g.limiters[host] = rate.NewLimiter(rate.Limit(rl.PerSecond), burst)
		}
	}
	return sem, g.limiters[host]
}

// acquire waits for the host's rate limiter and a free slot. The returned
// release func must be called exactly once.
func (g *hostGate) acquire(ctx context.Context, host string) (func(), error) {
	sem, limiter := g.get(host)
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	if err := sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	gauge := metrics.FetchInFlight.WithLabelValues(host)
	gauge.Inc()
	return func() {
		gauge.Dec()
		sem.Release(1)
	}, nil
}
