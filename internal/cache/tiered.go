// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

/*
Package cache puts the three volatility tiers behind one facade.

	static       write-once film metadata            DuckDB, memoized in an LRU
	semi-static  community aggregates, 5-day window  DuckDB
	user-set     per-member rated titles, 5-day      BadgerDB

A semi-static or user-set entry is stale when now - fetchedAt >= window.
Stale entries are still returned so callers can decide to refresh them in
place with the Refresh* methods; Put* is only for first writes and never
overwrites.
*/
package cache

import (
	"context"
	"time"

	"github.com/tomtom215/unboxd/internal/database"
	"github.com/tomtom215/unboxd/internal/metrics"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/userstore"
)

// DefaultWindow is the staleness window for the semi-static and user-set tiers.
const DefaultWindow = 5 * 24 * time.Hour

// Freshness describes a cache lookup.
type Freshness int

const (
	// Missing means the key was never stored.
	Missing Freshness = iota
	// Fresh means the entry is within the staleness window.
	Fresh
	// Stale means the entry exists but has aged out.
	Stale
)

func (f Freshness) String() string {
	switch f {
	case Fresh:
		return "hit"
	case Stale:
		return "stale"
	default:
		return "miss"
	}
}

// IsStale reports whether an entry fetched at ts is out of date at now.
func IsStale(ts, now time.Time, window time.Duration) bool {
	return now.Sub(ts) >= window
}

// StaticStore is the durable static tier.
type StaticStore interface {
	GetStatic(ctx context.Context, name string) (*models.StaticFacet, error)
	PutStatic(ctx context.Context, name string, f models.StaticFacet) error
}

// SemiStaticStore is the durable semi-static tier.
type SemiStaticStore interface {
	GetSemiStatic(ctx context.Context, name string) (*database.SemiStaticRow, error)
	PutSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet, fetchedAt time.Time) error
	RefreshSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet, fetchedAt time.Time) error
}

// UserSetStore is the durable user-set tier.
type UserSetStore interface {
	GetUserSet(ctx context.Context, username string) (*userstore.Row, error)
	PutUserSet(ctx context.Context, username string, ds models.FriendDataset, fetchedAt time.Time) error
	RefreshUserSet(ctx context.Context, username string, ds models.FriendDataset, fetchedAt time.Time) error
}

// FilmStore is what the movie crawl needs from the cache.
type FilmStore interface {
	GetStatic(ctx context.Context, name string) (*models.StaticFacet, error)
	PutStatic(ctx context.Context, name string, f models.StaticFacet) error
	GetSemiStatic(ctx context.Context, name string) (models.SemiStaticFacet, Freshness, error)
	PutSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet) error
	RefreshSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet) error
}

// UserStore is what the social resolver needs from the cache.
type UserStore interface {
	GetUserSet(ctx context.Context, username string) (models.FriendDataset, Freshness, error)
	PutUserSet(ctx context.Context, username string, ds models.FriendDataset) error
	RefreshUserSet(ctx context.Context, username string, ds models.FriendDataset) error
}

// Store is the full facade.
type Store interface {
	FilmStore
	UserStore
}

// Config wires the backends.
type Config struct {
	Static     StaticStore
	SemiStatic SemiStaticStore
	UserSets   UserSetStore

	// Window defaults to DefaultWindow.
	Window time.Duration
	// Clock defaults to time.Now.
	Clock func() time.Time
	// MemoSize bounds the in-process static memo; 0 disables it.
	MemoSize int
}

// Tiered implements Store.
type Tiered struct {
	static   StaticStore
	semi     SemiStaticStore
	userSets UserSetStore
	window   time.Duration
	clock    func() time.Time
	memo     *LRU[models.StaticFacet]
}

var _ Store = (*Tiered)(nil)

// New creates the facade.
func New(cfg Config) *Tiered {
	t := &Tiered{
		static:   cfg.Static,
		semi:     cfg.SemiStatic,
		userSets: cfg.UserSets,
		window:   cfg.Window,
		clock:    cfg.Clock,
	}
	if t.window <= 0 {
		t.window = DefaultWindow
	}
	if t.clock == nil {
		t.clock = time.Now
	}
	if cfg.MemoSize > 0 {
		t.memo = NewLRU[models.StaticFacet](cfg.MemoSize)
	}
	return t
}

// IsStale applies the facade's window and clock to ts.
func (t *Tiered) IsStale(ts time.Time) bool {
	return IsStale(ts, t.clock(), t.window)
}

// GetStatic returns the static facet, or nil on a miss.
func (t *Tiered) GetStatic(ctx context.Context, name string) (*models.StaticFacet, error) {
	if t.memo != nil {
		if f, ok := t.memo.Get(name); ok {
			metrics.RecordCacheLookup("static_memo", "hit")
			return &f, nil
		}
	}

	f, err := t.static.GetStatic(ctx, name)
	if err != nil {
		metrics.RecordCacheLookup("static", "error")
		return nil, err
	}
	if f == nil {
		metrics.RecordCacheLookup("static", "miss")
		return nil, nil
	}
	metrics.RecordCacheLookup("static", "hit")
	if t.memo != nil {
		t.memo.Add(name, *f)
	}
	return f, nil
}

// PutStatic writes the static facet once.
func (t *Tiered) PutStatic(ctx context.Context, name string, f models.StaticFacet) error {
	// Not memoized here: on a duplicate the stored row wins, and the next
	// GetStatic picks that up.
	return t.static.PutStatic(ctx, name, f)
}

// GetSemiStatic returns the semi-static facet and its freshness.
func (t *Tiered) GetSemiStatic(ctx context.Context, name string) (models.SemiStaticFacet, Freshness, error) {
	row, err := t.semi.GetSemiStatic(ctx, name)
	if err != nil {
		metrics.RecordCacheLookup("semi_static", "error")
		return models.SemiStaticFacet{}, Missing, err
	}
	if row == nil {
		metrics.RecordCacheLookup("semi_static", Missing.String())
		return models.SemiStaticFacet{}, Missing, nil
	}
	fr := Fresh
	if t.IsStale(row.FetchedAt) {
		fr = Stale
	}
	metrics.RecordCacheLookup("semi_static", fr.String())
	return row.Facet, fr, nil
}

// PutSemiStatic writes the first snapshot, timestamped now.
func (t *Tiered) PutSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet) error {
	return t.semi.PutSemiStatic(ctx, name, f, t.clock())
}

// RefreshSemiStatic replaces the snapshot in place, timestamped now.
func (t *Tiered) RefreshSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet) error {
	return t.semi.RefreshSemiStatic(ctx, name, f, t.clock())
}

// GetUserSet returns the stored dataset and its freshness.
func (t *Tiered) GetUserSet(ctx context.Context, username string) (models.FriendDataset, Freshness, error) {
	row, err := t.userSets.GetUserSet(ctx, username)
	if err != nil {
		metrics.RecordCacheLookup("user_set", "error")
		return models.FriendDataset{}, Missing, err
	}
	if row == nil {
		metrics.RecordCacheLookup("user_set", Missing.String())
		return models.FriendDataset{}, Missing, nil
	}
	fr := Fresh
	if t.IsStale(row.FetchedAt) {
		fr = Stale
	}
	metrics.RecordCacheLookup("user_set", fr.String())
	return row.Dataset, fr, nil
}

// PutUserSet writes the first dataset for username, timestamped now.
func (t *Tiered) PutUserSet(ctx context.Context, username string, ds models.FriendDataset) error {
	return t.userSets.PutUserSet(ctx, username, ds, t.clock())
}

// RefreshUserSet replaces the dataset for username, timestamped now.
func (t *Tiered) RefreshUserSet(ctx context.Context, username string, ds models.FriendDataset) error {
	return t.userSets.RefreshUserSet(ctx, username, ds, t.clock())
}
