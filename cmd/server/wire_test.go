// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

package main

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/tomtom215/unboxd/internal/api"
	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/database"
	"github.com/tomtom215/unboxd/internal/models"
	"github.com/tomtom215/unboxd/internal/testinfra"
	"github.com/tomtom215/unboxd/internal/userstore"
)

func TestBuildServices_EndToEnd(t *testing.T) {
	site := testinfra.NewLetterboxd(t)
	site.AddMember(testinfra.Member{Username: "dave", DisplayName: "Dave", Films: testinfra.GenerateFilms("dave", 30)})

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("config.Load() error = %v", err)
	}
	cfg.Database.Path = filepath.Join(t.TempDir(), "movies.duckdb")
	cfg.Database.Threads = 1
	cfg.UserStore.InMemory = true
	cfg.Crawl.BaseURL = site.URL()
	cfg.TMDB.APIKey = "test-key"
	cfg.TMDB.BaseURL = site.URL()

	db, err := database.New(&cfg.Database)
	if err != nil {
		t.Fatalf("database.New() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	users, err := userstore.Open(&cfg.UserStore)
	if err != nil {
		t.Fatalf("userstore.Open() error = %v", err)
	}
	t.Cleanup(func() { _ = users.Close() })

	chiCfg := api.ChiMiddlewareConfigFromSecurity(cfg.Security)
	chiCfg.RateLimitDisabled = true
	h := api.NewRouter(api.NewHandler(buildServices(cfg, db, users), nil), api.NewChiMiddleware(chiCfg), nil).SetupChi()

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/movies-data/?user=dave", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("/movies-data/ status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		Data models.MoviesData `json:"data"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data.Records) != 30 {
		t.Fatalf("records = %d, want 30", len(resp.Data.Records))
	}
	if resp.Data.Records[0].TMDBID == nil || resp.Data.Summary == nil {
		t.Errorf("first record TMDBID = %v, summary = %v", resp.Data.Records[0].TMDBID, resp.Data.Summary)
	}

	// The static tier now serves every film from DuckDB.
	static, _, err := db.RecordCounts(t.Context())
	if err != nil || static != 30 {
		t.Errorf("RecordCounts() static = %d, %v, want 30", static, err)
	}

	w = httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("/health status = %d: %s", w.Code, w.Body.String())
	}
}
