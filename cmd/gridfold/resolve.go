// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/gridfold/gridfold/internal/config"
	"github.com/gridfold/gridfold/internal/logging"
	"github.com/gridfold/gridfold/internal/model"
	"github.com/gridfold/gridfold/internal/parser"
)

// resolveConfig holds flags specific to the resolve command.
type resolveConfig struct {
	jsonOutput bool
}

// NewResolveCmd creates the resolve subcommand.
func NewResolveCmd() *cobra.Command {
	rcfg := &resolveConfig{}

	cmd := &cobra.Command{
		Use:   "resolve CLASS NAME [PROPERTY]",
		Short: "Resolve one component's properties to concrete values",
		Long: `Resolve runs the parse pipeline, then prints the named component's
properties as resolved under the model's scenario priority and horizon.
With PROPERTY, only that property is printed.`,
		Args: cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			return runResolve(cmd, cfg, rcfg, args)
		},
	}

	registerRunFlags(cmd)
	cmd.Flags().BoolVar(&rcfg.jsonOutput, "json", false, "output as JSON")

	return cmd
}

func runResolve(cmd *cobra.Command, cfg config.Config, rcfg *resolveConfig, args []string) error {
	logging.SetDefault("gridfold", version, cfg.LogFormat, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := parser.New(cfg, slog.Default())
	result, err := p.Run(ctx)
	if err != nil {
		return err
	}
	if n := result.FailureCount(); n > 0 {
		slog.Warn("some references did not resolve", "failed", n)
	}

	component, err := p.System().Get(args[0], args[1])
	if err != nil {
		return err
	}

	restore := p.PushScope()
	defer restore()

	names := component.FieldNames()
	if len(args) == 3 {
		if _, ok := component.Property(args[2]); !ok {
			return fmt.Errorf("component %s %s has no property %q", args[0], args[1], args[2])
		}
		names = []string{args[2]}
	}

	if rcfg.jsonOutput {
		return printResolvedJSON(cmd, component, names)
	}
	printResolvedTable(cmd, component, names)
	return nil
}

func printResolvedTable(cmd *cobra.Command, c *model.Component, names []string) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	for _, name := range names {
		f, _ := c.Property(name)
		fmt.Fprintf(w, "%s\t%s\n", name, renderField(f))
	}
	_ = w.Flush()
}

func printResolvedJSON(cmd *cobra.Command, c *model.Component, names []string) error {
	properties := make(map[string]any, len(names))
	for _, name := range names {
		f, _ := c.Property(name)
		properties[name] = fieldJSON(f)
	}
	out := map[string]any{
		"class":      c.Class,
		"name":       c.Name,
		"properties": properties,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return err
	}
	cmd.Println(string(data))
	return nil
}

func renderField(f model.Field) string {
	if text, ok := f.Text(); ok {
		return text
	}
	return f.Resolve().String()
}

func fieldJSON(f model.Field) any {
	if text, ok := f.Text(); ok {
		return text
	}
	v := f.Resolve()
	if s, ok := v.Scalar(); ok {
		return s
	}
	if m, ok := v.Grouped(); ok {
		return m
	}
	if bands, ok := v.Bands(); ok {
		out := make(map[string]float64, len(bands))
		for band, val := range bands {
			out[strconv.Itoa(band)] = val
		}
		return out
	}
	return nil
}
