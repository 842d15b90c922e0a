// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/metrics"
	"github.com/tomtom215/unboxd/internal/models"
)

// SemiStaticRow is a semi-static facet with the time it was fetched.
type SemiStaticRow struct {
	FetchedAt time.Time
	Facet     models.SemiStaticFacet
}

// GetStatic returns the static facet for name, or nil when it was never stored.
func (db *DB) GetStatic(ctx context.Context, name string) (facet *models.StaticFacet, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "static_data", time.Since(start), err) }()

	var (
		f                                                models.StaticFacet
		tmdbID, runtime                                  sql.NullInt64
		releaseDate, originalLanguage, director          sql.NullString
		countries, languages, genres, actors, themes, ng string
	)
	err = db.conn.QueryRowContext(ctx, `SELECT title, tmdb_id, release_date, countries, spoken_languages,
		original_language, genres, runtime, actors, director, themes, nanogenres
		FROM static_data WHERE name = ?`, name).Scan(
		&f.Title, &tmdbID, &releaseDate, &countries, &languages,
		&originalLanguage, &genres, &runtime, &actors, &director, &themes, &ng,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read static facet %s: %w", name, err)
	}

	if tmdbID.Valid {
		id := int(tmdbID.Int64)
		f.TMDBID = &id
	}
	if runtime.Valid {
		r := int(runtime.Int64)
		f.Runtime = &r
	}
	f.ReleaseDate = releaseDate.String
	f.OriginalLanguage = originalLanguage.String
	f.Director = director.String

	for _, col := range []struct {
		raw string
		dst *[]string
	}{
		{countries, &f.Countries},
		{languages, &f.SpokenLanguages},
		{genres, &f.Genres},
		{actors, &f.Actors},
		{themes, &f.Themes},
		{ng, &f.Nanogenres},
	} {
		if err = decodeList(col.raw, col.dst); err != nil {
			return nil, fmt.Errorf("static facet %s: %w", name, err)
		}
	}
	return &f, nil
}

// PutStatic records the static facet for name. Static data is write-once:
// when a row already exists the insert is logged and dropped.
func (db *DB) PutStatic(ctx context.Context, name string, f models.StaticFacet) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "static_data", time.Since(start), err) }()

	lists := make([]string, 0, 6)
	for _, l := range [][]string{f.Countries, f.SpokenLanguages, f.Genres, f.Actors, f.Themes, f.Nanogenres} {
		s, encErr := encodeList(l)
		if encErr != nil {
			return fmt.Errorf("static facet %s: %w", name, encErr)
		}
		lists = append(lists, s)
	}

	res, err := db.conn.ExecContext(ctx, `INSERT INTO static_data (
		name, title, tmdb_id, release_date, countries, spoken_languages, original_language,
		genres, runtime, actors, director, themes, nanogenres, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (name) DO NOTHING`,
		name, f.Title, nullInt(f.TMDBID), f.ReleaseDate, lists[0], lists[1], f.OriginalLanguage,
		lists[2], nullInt(f.Runtime), lists[3], f.Director, lists[4], lists[5], time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to store static facet %s: %w", name, err)
	}
	if ignored(res) {
		logging.Ctx(ctx).Warn().Str("name", name).Msg("Static facet already stored, keeping existing row")
		metrics.CacheDuplicateInserts.WithLabelValues("static").Inc()
	}
	return nil
}

// GetSemiStatic returns the semi-static row for name, or nil when absent.
func (db *DB) GetSemiStatic(ctx context.Context, name string) (row *SemiStaticRow, err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("select", "semi_static_data", time.Since(start), err) }()

	var r SemiStaticRow
	err = db.conn.QueryRowContext(ctx, `SELECT fetched_at, watched, liked, top250, rating, rating_count
		FROM semi_static_data WHERE name = ?`, name).Scan(
		&r.FetchedAt, &r.Facet.Watched, &r.Facet.Liked, &r.Facet.Top250, &r.Facet.Rating, &r.Facet.RatingCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read semi-static facet %s: %w", name, err)
	}
	r.FetchedAt = r.FetchedAt.UTC()
	return &r, nil
}

// PutSemiStatic records the first semi-static snapshot for name. An existing
// row is left untouched; use RefreshSemiStatic to replace it.
func (db *DB) PutSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet, fetchedAt time.Time) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("insert", "semi_static_data", time.Since(start), err) }()

	res, err := db.conn.ExecContext(ctx, `INSERT INTO semi_static_data (
		name, fetched_at, watched, liked, top250, rating, rating_count
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (name) DO NOTHING`,
		name, fetchedAt.UTC(), f.Watched, f.Liked, f.Top250, f.Rating, f.RatingCount,
	)
	if err != nil {
		return fmt.Errorf("failed to store semi-static facet %s: %w", name, err)
	}
	if ignored(res) {
		logging.Ctx(ctx).Warn().Str("name", name).Msg("Semi-static facet already stored, keeping existing row")
		metrics.CacheDuplicateInserts.WithLabelValues("semi_static").Inc()
	}
	return nil
}

// RefreshSemiStatic replaces the semi-static snapshot for name in place.
func (db *DB) RefreshSemiStatic(ctx context.Context, name string, f models.SemiStaticFacet, fetchedAt time.Time) (err error) {
	ctx, cancel := ensureContext(ctx)
	defer cancel()
	start := time.Now()
	defer func() { metrics.RecordDBQuery("upsert", "semi_static_data", time.Since(start), err) }()

	_, err = db.conn.ExecContext(ctx, `INSERT INTO semi_static_data (
		name, fetched_at, watched, liked, top250, rating, rating_count
	) VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (name) DO UPDATE SET
		fetched_at = EXCLUDED.fetched_at,
		watched = EXCLUDED.watched,
		liked = EXCLUDED.liked,
		top250 = EXCLUDED.top250,
		rating = EXCLUDED.rating,
		rating_count = EXCLUDED.rating_count`,
		name, fetchedAt.UTC(), f.Watched, f.Liked, f.Top250, f.Rating, f.RatingCount,
	)
	if err != nil {
		return fmt.Errorf("failed to refresh semi-static facet %s: %w", name, err)
	}
	return nil
}

// ignored reports whether an ON CONFLICT DO NOTHING insert wrote no row.
func ignored(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n == 0
}

func encodeList(l []string) (string, error) {
	if l == nil {
		l = []string{}
	}
	b, err := json.Marshal(l)
	if err != nil {
		return "", fmt.Errorf("encode list: %w", err)
	}
	return string(b), nil
}

func decodeList(raw string, dst *[]string) error {
	*dst = []string{}
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dst); err != nil {
		return fmt.Errorf("decode list: %w", err)
	}
	if *dst == nil {
		*dst = []string{}
	}
	return nil
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}
