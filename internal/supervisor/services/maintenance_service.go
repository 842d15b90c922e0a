// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package services

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/unboxd/internal/logging"
)

// gcDiscardRatio is the share of a Badger value log file that must be stale
// before GC rewrites it.
const gcDiscardRatio = 0.5

// Checkpointer flushes the DuckDB write-ahead log. Satisfied by *database.DB.
type Checkpointer interface {
	Checkpoint(ctx context.Context) error
}

// ValueLogCollector reclaims Badger value log space. Satisfied by *userstore.Store.
type ValueLogCollector interface {
	GC(discardRatio float64) error
}

// MaintenanceService periodically checkpoints the facet database and
// collects the user store's value log. Either store may be nil.
type MaintenanceService struct {
	db       Checkpointer
	users    ValueLogCollector
	interval time.Duration
	name     string
}

// NewMaintenanceService runs maintenance every interval. Non-positive
// intervals mean one hour.
func NewMaintenanceService(db Checkpointer, users ValueLogCollector, interval time.Duration) *MaintenanceService {
	if interval <= 0 {
		interval = time.Hour
	}
	return &MaintenanceService{
		db:       db,
		users:    users,
		interval: interval,
		name:     "cache-maintenance",
	}
}

// Serve runs a pass every interval until ctx is canceled. A failed pass is
// logged and retried on the next tick; only a panic restarts the service.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := m.RunOnce(ctx); err != nil {
				logging.Warn().Err(err).Str("service", m.name).Msg("Cache maintenance pass failed")
			}
		}
	}
}

// RunOnce performs a single pass. Both stores are attempted even if one fails.
func (m *MaintenanceService) RunOnce(ctx context.Context) error {
	start := time.Now()
	var errs []error
	if m.db != nil {
		if err := m.db.Checkpoint(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if m.users != nil {
		if err := m.users.GC(gcDiscardRatio); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	logging.Debug().Dur("duration", time.Since(start)).Msg("Cache maintenance pass complete")
	return nil
}

func (m *MaintenanceService) String() string {
	return m.name
}
