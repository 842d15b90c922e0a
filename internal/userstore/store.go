// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package userstore keeps each member's rated-title dataset in BadgerDB.
package userstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/metrics"
	"github.com/tomtom215/unboxd/internal/models"
)

const userSetKeyPrefix = "userset:"

// Row is a stored dataset and the time it was crawled.
type Row struct {
	FetchedAt time.Time            `json:"fetched_at"`
	Dataset   models.FriendDataset `json:"dataset"`
}

// Store implements the user-set tier on BadgerDB.
type Store struct {
	db *badger.DB
}

// Open opens the Badger directory, or an in-memory instance when configured.
func Open(cfg *config.UserStoreConfig) (*Store, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = nil // Suppress BadgerDB logs

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger db for user sets: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func key(username string) []byte {
	return []byte(userSetKeyPrefix + username)
}

// GetUserSet returns the stored dataset for username, or nil when absent.
func (s *Store) GetUserSet(ctx context.Context, username string) (*Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var row Row
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(key(username))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &row)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user set %s: %w", username, err)
	}
	return &row, nil
}

// PutUserSet records the first dataset for username. An existing entry is
// logged and left untouched.
func (s *Store) PutUserSet(ctx context.Context, username string, ds models.FriendDataset, fetchedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Row{FetchedAt: fetchedAt.UTC(), Dataset: ds})
	if err != nil {
		return fmt.Errorf("marshal user set: %w", err)
	}

	duplicate := false
	err = s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(key(username))
		if err == nil {
			duplicate = true
			return nil
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}
		return txn.Set(key(username), data)
	})
	if err != nil {
		return fmt.Errorf("put user set %s: %w", username, err)
	}
	if duplicate {
		logging.Ctx(ctx).Warn().Str("username", username).Msg("User set already stored, keeping existing entry")
		metrics.CacheDuplicateInserts.WithLabelValues("user_set").Inc()
	}
	return nil
}

// RefreshUserSet replaces the dataset for username.
func (s *Store) RefreshUserSet(ctx context.Context, username string, ds models.FriendDataset, fetchedAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(Row{FetchedAt: fetchedAt.UTC(), Dataset: ds})
	if err != nil {
		return fmt.Errorf("marshal user set: %w", err)
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key(username), data)
	}); err != nil {
		return fmt.Errorf("refresh user set %s: %w", username, err)
	}
	return nil
}

// Count returns the number of stored user sets.
func (s *Store) Count() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userSetKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			n++
		}
		return nil
	})
	return n, err
}

// GC runs Badger value log garbage collection until a pass reclaims nothing.
func (s *Store) GC(discardRatio float64) error {
	for {
		err := s.db.RunValueLogGC(discardRatio)
		switch {
		case err == nil:
			continue
		case errors.Is(err, badger.ErrNoRewrite), errors.Is(err, badger.ErrGCInMemoryMode):
			return nil
		default:
			return fmt.Errorf("user store value log gc: %w", err)
		}
	}
}
