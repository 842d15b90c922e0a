// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package cache

import (
	"context"
	"sync"
	"time"

	"github.com/tomtom215/unboxd/internal/database"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/userstore"
)

// MemoryBackend keeps all three tiers in maps. It follows the same
// write-once rules as the durable stores and is meant for tests and
// throwaway runs.
type MemoryBackend struct {
	mu       sync.RWMutex
	static   map[string]models.StaticFacet
	semi     map[string]database.SemiStaticRow
	userSets map[string]userstore.Row
}

// NewMemoryBackend creates an empty backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{
		static:   make(map[string]models.StaticFacet),
		semi:     make(map[string]database.SemiStaticRow),
		userSets: make(map[string]userstore.Row),
	}
}

// NewMemory returns a Tiered cache over a fresh MemoryBackend.
func NewMemory(window time.Duration, clock func() time.Time) (*Tiered, *MemoryBackend) {
	b := NewMemoryBackend()
	return New(Config{Static: b, SemiStatic: b, UserSets: b, Window: window, Clock: clock}), b
}

func (m *MemoryBackend) GetStatic(_ context.Context, name string) (*models.StaticFacet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	f, ok := m.static[name]
	if !ok {
		return nil, nil
	}
	return &f, nil
}

func (m *MemoryBackend) PutStatic(_ context.Context, name string, f models.StaticFacet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.static[name]; !ok {
		m.static[name] = f
	}
	return nil
}

func (m *MemoryBackend) GetSemiStatic(_ context.Context, name string) (*database.SemiStaticRow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.semi[name]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryBackend) PutSemiStatic(_ context.Context, name string, f models.SemiStaticFacet, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.semi[name]; !ok {
		m.semi[name] = database.SemiStaticRow{FetchedAt: at, Facet: f}
	}
	return nil
}

func (m *MemoryBackend) RefreshSemiStatic(_ context.Context, name string, f models.SemiStaticFacet, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.semi[name] = database.SemiStaticRow{FetchedAt: at, Facet: f}
	return nil
}

func (m *MemoryBackend) GetUserSet(_ context.Context, username string) (*userstore.Row, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.userSets[username]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *MemoryBackend) PutUserSet(_ context.Context, username string, ds models.FriendDataset, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.userSets[username]; !ok {
		m.userSets[username] = userstore.Row{FetchedAt: at, Dataset: ds}
	}
	return nil
}

func (m *MemoryBackend) RefreshUserSet(_ context.Context, username string, ds models.FriendDataset, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userSets[username] = userstore.Row{FetchedAt: at, Dataset: ds}
	return nil
}

// SetSemiStatic writes a row with an arbitrary timestamp, for staging stale data in tests.
func (m *MemoryBackend) SetSemiStatic(name string, f models.SemiStaticFacet, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.semi[name] = database.SemiStaticRow{FetchedAt: at, Facet: f}
}

// SetUserSet writes a user set with an arbitrary timestamp.
func (m *MemoryBackend) SetUserSet(username string, ds models.FriendDataset, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.userSets[username] = userstore.Row{FetchedAt: at, Dataset: ds}
}

// Counts returns the number of entries per tier.
func (m *MemoryBackend) Counts() (static, semi, userSets int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.static), len(m.semi), len(m.userSets)
}
