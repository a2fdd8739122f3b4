// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package parser

import (
	"context"
	"log/slog"

	"github.com/oklog/ulid/v2"

	"github.com/gridfold/gridfold/internal/config"
	"github.com/gridfold/gridfold/internal/datafile"
	"github.com/gridfold/gridfold/internal/model"
	"github.com/gridfold/gridfold/internal/overlay"
	"github.com/gridfold/gridfold/internal/plexdb"
)

type refKey struct {
	component ulid.ULID
	field     string
}

// Parser drives one parse run: build components, register references,
// resolve and attach time series. It is single-threaded by design; the
// ambient resolution context must not be shared with concurrent runs.
type Parser struct {
	cfg    config.Config
	system *model.System
	store  *datafile.Store
	logger *slog.Logger

	// resolved marks (component, field) pairs whose reference already
	// succeeded, so repeat attempts are no-ops.
	resolved map[refKey]bool

	// priority is the scenario ranking derived during Run, kept so callers
	// can re-enter the run's resolution scope afterwards.
	priority map[string]int
}

// New builds a parser for one run.
func New(cfg config.Config, logger *slog.Logger) *Parser {
	if logger == nil {
		logger = slog.Default()
	}
	resolver := datafile.Resolver{Base: cfg.BaseDir, Subdir: cfg.TimeseriesDir}
	return &Parser{
		cfg:      cfg,
		system:   model.NewSystem(cfg.Model),
		store:    datafile.NewStore(resolver, cfg.ReferenceYear, logger),
		logger:   logger,
		resolved: make(map[refKey]bool),
	}
}

// System returns the component graph.
func (p *Parser) System() *model.System { return p.system }

// PushScope applies the run's scenario priority and configured horizon to
// the ambient resolution context. Callers inspecting resolved values after
// Run must hold the scope open while they read.
func (p *Parser) PushScope() (restore func()) {
	if horizon, ok := p.cfg.Horizon(); ok {
		return overlay.PushPriorityAndHorizon(p.priority, horizon.From, horizon.To)
	}
	return overlay.PushPriority(p.priority)
}

// Run executes the full pipeline against the input database: read rows,
// build the component graph, derive scenario priority from the selected
// model's read order, and attach time series under that priority and the
// configured horizon.
func (p *Parser) Run(ctx context.Context) (BatchResult, error) {
	reader, err := plexdb.Open(p.cfg.Input)
	if err != nil {
		return BatchResult{}, err
	}
	defer func() { _ = reader.Close() }()

	rows, err := reader.PropertyRows(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	refs, err := p.BuildComponents(rows)
	if err != nil {
		return BatchResult{}, err
	}
	p.logger.Info("components built", "components", p.system.Len(), "references", len(refs))

	memberships, err := reader.Memberships(ctx)
	if err != nil {
		return BatchResult{}, err
	}
	p.BuildMemberships(memberships)

	orders, err := reader.ScenarioReadOrder(ctx, p.cfg.Model)
	if err != nil {
		return BatchResult{}, err
	}
	p.priority = plexdb.PriorityFromReadOrder(orders)

	restore := p.PushScope()
	defer restore()

	result := p.BuildTimeSeries(refs)
	p.logBatchSummary(result)
	return result, nil
}
