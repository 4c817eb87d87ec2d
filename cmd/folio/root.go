// Folio - Collaborative-Filtering Book Recommendations
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/folio

package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tomtom215/folio/internal/api"
	"github.com/tomtom215/folio/internal/config"
	"github.com/tomtom215/folio/internal/logging"
)

// rootOptions carries state shared by all subcommands. The function fields
// are replaced in tests.
type rootOptions struct {
	configPath string
	logLevel   string

	loadConfig func(path string) (*config.Config, error)
	open       func(ctx context.Context, cfg *config.Config) (*app, error)

	cfg *config.Config
}

func defaultRootOptions() *rootOptions {
	return &rootOptions{
		loadConfig: loadConfig,
		open:       openApp,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFile(path)
}

func newRootCmd(opts *rootOptions) *cobra.Command {
	root := &cobra.Command{
		Use:           "folio",
		Short:         "Collaborative-filtering book recommendations",
		Long:          "Folio finds books rated similarly to a given book using nearest neighbors over an item-by-user rating matrix.",
		Version:       api.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.loadConfig(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			logCfg := cfg.LogConfig()
			if opts.logLevel != "" {
				logCfg.Level = opts.logLevel
			}
			logCfg.Output = cmd.ErrOrStderr()
			logging.Init(logCfg)

			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "path to config file")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override the configured log level")

	root.AddCommand(
		newServeCmd(opts),
		newImportCmd(opts),
		newTrainCmd(opts),
		newRecommendCmd(opts),
		newTitlesCmd(opts),
		newGenerationsCmd(opts),
		newTokenCmd(opts),
	)
	return root
}

// withApp opens the application for the duration of fn.
func withApp(ctx context.Context, opts *rootOptions, fn func(a *app) error) error {
	a, err := opts.open(ctx, opts.cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logging.Error().Err(err).Msg("error closing application")
		}
	}()
	return fn(a)
}
