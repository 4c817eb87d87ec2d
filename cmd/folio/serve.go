// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomtom215/folio/internal/api"
	"github.com/tomtom215/folio/internal/auth"
	"github.com/tomtom215/folio/internal/logging"
	"github.com/tomtom215/folio/internal/supervisor"
	"github.com/tomtom215/folio/internal/supervisor/services"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the scheduled trainer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return withApp(ctx, opts, func(a *app) error {
				return serve(ctx, a)
			})
		},
	}
}

func serve(ctx context.Context, a *app) error {
	cfg := a.cfg
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("db_path", cfg.Ratings.DBPath).
		Str("artifact_dir", cfg.Recommend.ArtifactDir).
		Str("metric", cfg.Recommend.Metric).
		Msg("starting folio")

	if cfg.Ratings.ImportOnStartup && a.db != nil {
		if err := importIfEmpty(ctx, a); err != nil {
			return err
		}
	}

	handler, apiHandler, err := newHTTPHandler(a)
	if err != nil {
		return err
	}
	defer apiHandler.Wait()

	if cfg.ShouldWarnAboutCORS() {
		logging.Warn().Msg("CORS allows any origin while the train endpoint is enabled; set security.cors_origins")
	}
	if cfg.Security.RateLimitDisabled {
		logging.Warn().Msg("rate limiting is disabled")
	}

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}
	tree.AddTrainingService(a.trainer)
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout, logging.WithComponent("api")))
	tree.AddAPIService(apiHandler.ResultCacheJanitor())

	logging.Info().Str("addr", server.Addr).Msg("HTTP server listening")
	err = tree.Serve(ctx)

	if report, reportErr := tree.UnstoppedServiceReport(); reportErr == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("service did not stop within timeout")
		}
	}

	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("supervisor stopped: %w", err)
	}
	logging.Info().Msg("folio stopped")
	return nil
}

// newHTTPHandler wires the API router over the app. The returned handler is
// also needed to wait for background training on shutdown.
func newHTTPHandler(a *app) (http.Handler, *api.Handler, error) {
	cfg := a.cfg

	var jwtManager *auth.JWTManager
	if cfg.Security.JWTSecret != "" {
		m, err := auth.NewJWTManager(cfg.Security.JWTSecret, 0)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize JWT manager: %w", err)
		}
		jwtManager = m
	} else {
		logging.Info().Msg("security.jwt_secret not set, POST /api/v1/train is disabled")
	}

	var store api.RatingStore
	if a.db != nil {
		store = a.db
	}

	handler := api.NewHandler(a.engine, a.trainer, store, jwtManager, api.DefaultHandlerConfig())
	chiMiddleware := api.NewChiMiddlewareFromSecurity(
		cfg.Security.CORSOrigins,
		cfg.Security.RateLimitReqs,
		cfg.Security.RateLimitWindow,
		cfg.Security.RateLimitDisabled,
	)
	return api.NewRouter(handler, chiMiddleware).SetupChi(), handler, nil
}

// importIfEmpty loads the configured CSV files when the rating store has no
// ratings yet.
func importIfEmpty(ctx context.Context, a *app) error {
	counts, err := a.db.Counts(ctx)
	if err != nil {
		return fmt.Errorf("failed to count ratings: %w", err)
	}
	if counts.Ratings > 0 {
		return nil
	}

	stats, err := a.db.ImportBookCrossing(ctx, a.cfg.ImportOptions())
	if err != nil {
		return fmt.Errorf("startup import failed: %w", err)
	}
	logging.Info().
		Int64("books", stats.Books).
		Int64("ratings", stats.Ratings).
		Dur("duration", stats.Duration).
		Msg("imported ratings on startup")
	return nil
}
