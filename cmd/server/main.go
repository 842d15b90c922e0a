// Unboxd - Letterboxd Watch History Analytics and Friend Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/unboxd

// Package main runs the Unboxd API server.
//
// Startup order:
//
//  1. Configuration (koanf: defaults, config.yaml, environment)
//  2. DuckDB facet database and the Badger user store
//  3. Tiered cache, fetchers, crawlers and the friend ranker
//  4. HTTP router
//  5. Supervisor tree: cache maintenance and the HTTP server
//
// SIGINT and SIGTERM cancel the tree; in-flight requests get the request
// timeout to finish before the stores are closed.
package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/tomtom215/unboxd/internal/api"
	"github.com/tomtom215/unboxd/internal/config"
	"github.com/tomtom215/unboxd/internal/database"
	"github.com/tomtom215/unboxd/internal/logging"
	"github.com/tomtom215/unboxd/internal/middleware"
	"github.com/tomtom215/unboxd/internal/supervisor"
	"github.com/tomtom215/unboxd/internal/supervisor/services"
	"github.com/tomtom215/unboxd/internal/userstore"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})
	api.Version = version
	logging.Info().
		Str("version", version).
		Str("environment", cfg.Server.Environment).
		Str("db_path", cfg.Database.Path).
		Str("user_store", cfg.UserStore.Path).
		Bool("catalog", cfg.TMDB.APIKey != "").
		Msg("Starting Unboxd")

	db, err := database.New(&cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()

	users, err := userstore.Open(&cfg.UserStore)
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to open user store")
	}
	defer func() {
		if err := users.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing user store")
		}
	}()

	svc := buildServices(cfg, db, users)

	perfMon := middleware.NewPerformanceMonitor(1000, cfg.Server.Timeout/2)
	chiCfg := api.ChiMiddlewareConfigFromSecurity(cfg.Security)
	chiCfg.RequestTimeout = cfg.Server.Timeout
	router := api.NewRouter(api.NewHandler(svc, perfMon), api.NewChiMiddleware(chiCfg), perfMon)
	server := api.NewServer(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), router.SetupChi(), cfg.Server.Timeout)

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger(), supervisor.TreeConfigFrom(cfg.Supervisor))
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}
	if cfg.Cache.MaintenanceInterval > 0 {
		tree.AddStorageService(services.NewMaintenanceService(db, users, cfg.Cache.MaintenanceInterval))
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Timeout))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := tree.ServeBackground(ctx)
	var treeErr error
	select {
	case <-ctx.Done():
		logging.Info().Msg("Shutdown signal received, waiting for supervisor")
		treeErr = <-errCh
	case treeErr = <-errCh:
	}
	if treeErr != nil && !errors.Is(treeErr, context.Canceled) {
		logging.Error().Err(treeErr).Msg("Supervisor tree error")
	}

	if unstopped, _ := tree.UnstoppedServiceReport(); len(unstopped) > 0 {
		for _, s := range unstopped {
			logging.Warn().Str("service", s.Name).Msg("Service failed to stop")
		}
	}
	logging.Info().Msg("Unboxd stopped")
}
