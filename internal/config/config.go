// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package config loads the run configuration from defaults, an optional
// YAML file, and command-line flags, in that order of precedence.
package config

import (
	"fmt"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/gridfold/gridfold/internal/overlay"
)

// Config holds everything a parse run needs.
type Config struct {
	// Model selects the top-level model whose scenario read order drives
	// resolution priority.
	Model string `koanf:"model"`
	// Input is the path to the input database.
	Input string `koanf:"input"`
	// BaseDir anchors relative datafile paths.
	BaseDir string `koanf:"base_dir"`
	// TimeseriesDir is an optional subdirectory under BaseDir.
	TimeseriesDir string `koanf:"timeseries_dir"`
	// ReferenceYear anchors monthly and pattern expansion to a calendar.
	ReferenceYear int `koanf:"reference_year"`
	// HorizonYear, when set, restricts resolution to that year's window.
	HorizonYear int    `koanf:"horizon_year"`
	LogFormat   string `koanf:"log_format"`
	LogLevel    string `koanf:"log_level"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		BaseDir:   ".",
		LogFormat: "json",
		LogLevel:  "info",
	}
}

// Load merges defaults, the optional YAML file at path, and the given
// flag set. Flags win over the file; the file wins over defaults.
func Load(path string, flags *pflag.FlagSet) (Config, error) {
	cfg := Default()
	k := koanf.New(".")

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").
				With("path", path).
				Wrapf(err, "loading config file")
		}
	}
	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return cfg, oops.Code("CONFIG_INVALID").Wrapf(err, "loading flags")
		}
	}
	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, oops.Code("CONFIG_INVALID").Wrapf(err, "decoding config")
	}
	return cfg, nil
}

// Validate checks the configuration. Failures are fatal to the run.
func (c Config) Validate() error {
	if c.Input == "" {
		return oops.Code("CONFIG_INVALID").Errorf("input database path is required")
	}
	if c.Model == "" {
		return oops.Code("CONFIG_INVALID").Errorf("model name is required")
	}
	if c.ReferenceYear == 0 {
		return oops.Code("CONFIG_INVALID").Errorf("reference year is required")
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return oops.Code("CONFIG_INVALID").
			Errorf("log format must be 'json' or 'text', got %q", c.LogFormat)
	}
	return nil
}

// Horizon expands the horizon year, when set, to its calendar window.
func (c Config) Horizon() (overlay.DateRange, bool) {
	if c.HorizonYear == 0 {
		return overlay.DateRange{}, false
	}
	return overlay.DateRange{
		From: fmt.Sprintf("%04d-01-01", c.HorizonYear),
		To:   fmt.Sprintf("%04d-12-31", c.HorizonYear),
	}, true
}
