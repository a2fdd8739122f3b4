// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package main

import (
	"github.com/spf13/cobra"

	"github.com/gridfold/gridfold/internal/config"
	"github.com/gridfold/gridfold/internal/datafile"
)

// discoverConfig holds flags specific to the discover command.
type discoverConfig struct {
	pattern string
}

// NewDiscoverCmd creates the discover subcommand.
func NewDiscoverCmd() *cobra.Command {
	dcfg := &discoverConfig{}

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List candidate datafiles under the configured base directory",
		Long: `Discover walks base_dir (plus timeseries_dir, when set) and lists the
files matching the glob pattern, the same set a parse run resolves
relative datafile references against.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// No model or input database needed to walk the filesystem,
			// so the full run-config validation does not apply here.
			cfg, err := config.Load(configFile, cmd.Flags())
			if err != nil {
				return err
			}
			return runDiscover(cmd, cfg, dcfg)
		},
	}

	registerRunFlags(cmd)
	cmd.Flags().StringVar(&dcfg.pattern, "pattern", "**.csv", "glob pattern matched against paths under the search root")

	return cmd
}

func runDiscover(cmd *cobra.Command, cfg config.Config, dcfg *discoverConfig) error {
	resolver := datafile.Resolver{Base: cfg.BaseDir, Subdir: cfg.TimeseriesDir}
	store := datafile.NewStore(resolver, cfg.ReferenceYear, nil)

	paths, err := store.Discover(dcfg.pattern)
	if err != nil {
		return err
	}
	for _, p := range paths {
		cmd.Println(p)
	}
	return nil
}
