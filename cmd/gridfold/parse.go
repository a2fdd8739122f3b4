// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/gridfold/gridfold/internal/config"
	"github.com/gridfold/gridfold/internal/logging"
	"github.com/gridfold/gridfold/internal/model"
	"github.com/gridfold/gridfold/internal/observability"
	"github.com/gridfold/gridfold/internal/parser"
	"github.com/gridfold/gridfold/pkg/errutil"
)

// parseConfig holds flags specific to the parse command.
type parseConfig struct {
	metricsAddr string
}

// NewParseCmd creates the parse subcommand.
func NewParseCmd() *cobra.Command {
	pcfg := &parseConfig{}

	cmd := &cobra.Command{
		Use:   "parse",
		Short: "Parse an input database and resolve its references",
		Long: `Parse reads the input database, builds components and memberships,
derives scenario priority from the selected model's read order, and
resolves every datafile and variable reference into attached values.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadRunConfig(cmd)
			if err != nil {
				return err
			}
			return runParse(cmd, cfg, pcfg)
		},
	}

	registerRunFlags(cmd)
	cmd.Flags().StringVar(&pcfg.metricsAddr, "metrics_addr", "", "metrics/health HTTP address (empty = disabled)")

	return cmd
}

func runParse(cmd *cobra.Command, cfg config.Config, pcfg *parseConfig) error {
	logging.SetDefault("gridfold", version, cfg.LogFormat, cfg.LogLevel)
	logger := slog.Default()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var done atomic.Bool
	if pcfg.metricsAddr != "" {
		srv := observability.NewServer(pcfg.metricsAddr, done.Load)
		parser.RegisterMetrics(srv.Registry())
		if err := srv.Start(); err != nil {
			return err
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(shutdownCtx); err != nil {
				errutil.LogError(logger, "stopping observability server", err)
			}
		}()
	}

	p := parser.New(cfg, logger)
	result, err := p.Run(ctx)
	if err != nil {
		errutil.LogError(logger, "parse run failed", err)
		return err
	}
	done.Store(true)

	printSummary(cmd, p.System(), result)
	if n := result.FailureCount(); n > 0 {
		return fmt.Errorf("%d reference(s) failed to resolve", n)
	}
	return nil
}

func printSummary(cmd *cobra.Command, sys *model.System, result parser.BatchResult) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "components\t%d\n", sys.Len())
	fmt.Fprintf(w, "series attached\t%d\n", result.Attached)
	fmt.Fprintf(w, "values updated\t%d\n", result.Updated)
	fmt.Fprintf(w, "references skipped\t%d\n", result.Skipped)
	fmt.Fprintf(w, "references failed\t%d\n", result.FailureCount())
	_ = w.Flush()
}
