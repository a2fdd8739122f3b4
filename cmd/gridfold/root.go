// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/gridfold/gridfold/internal/config"
)

// Global flags available to all subcommands.
var configFile string

// NewRootCmd creates the root command for the gridfold CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gridfold",
		Short: "Gridfold - PLEXOS model ingestion and property resolution",
		Long: `Gridfold reads a PLEXOS input database, builds the component graph,
and resolves scenario-, band-, timeslice- and datafile-tagged properties
into concrete values and hourly series.`,
	}

	// Global flag for config file path
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path")

	// Add subcommands
	cmd.AddCommand(NewParseCmd())
	cmd.AddCommand(NewResolveCmd())
	cmd.AddCommand(NewDiscoverCmd())

	return cmd
}

// registerRunFlags declares the flags shared by every command that executes
// a parse run. Flag names mirror the config file keys; dashes normalize to
// underscores so --base-dir and --base_dir both work.
func registerRunFlags(cmd *cobra.Command) {
	defaults := config.Default()
	f := cmd.Flags()
	f.SetNormalizeFunc(normalizeFlag)
	f.String("model", "", "model whose scenario read order drives resolution priority")
	f.String("input", "", "path to the PLEXOS input database")
	f.String("base_dir", defaults.BaseDir, "directory anchoring relative datafile paths")
	f.String("timeseries_dir", "", "subdirectory under base_dir holding datafiles")
	f.Int("reference_year", 0, "calendar year anchoring monthly and pattern expansion")
	f.Int("horizon_year", 0, "restrict resolution to this year (0 = no horizon)")
	f.String("log_format", defaults.LogFormat, "log format (json or text)")
	f.String("log_level", defaults.LogLevel, "log level (debug, info, warn, error)")
}

func normalizeFlag(_ *pflag.FlagSet, name string) pflag.NormalizedName {
	return pflag.NormalizedName(strings.ReplaceAll(name, "-", "_"))
}

// loadRunConfig merges the optional config file with the command's flags
// and validates the result.
func loadRunConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return cfg, err
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
