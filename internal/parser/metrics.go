// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package parser

import "github.com/prometheus/client_golang/prometheus"

// ReferenceResolutions is the counter for time-series reference
// resolution attempts. Use RegisterMetrics to register this with a
// Prometheus registry.
var ReferenceResolutions = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gridfold_reference_resolutions_total",
		Help: "Total number of time-series reference resolution attempts",
	},
	[]string{"source", "status"},
)

// DatafilesParsed is the counter for external datafiles parsed.
// Use RegisterMetrics to register this with a Prometheus registry.
var DatafilesParsed = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "gridfold_datafiles_parsed_total",
		Help: "Total number of external datafiles parsed",
	},
)

// ComponentsBuilt is the counter for components built per class.
// Use RegisterMetrics to register this with a Prometheus registry.
var ComponentsBuilt = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "gridfold_components_built_total",
		Help: "Total number of components built",
	},
	[]string{"class"},
)

// Status label values for ReferenceResolutions.
const (
	StatusAttached = "attached"
	StatusUpdated  = "updated"
	StatusSkipped  = "skipped"
	StatusFailed   = "failed"
)

// RegisterMetrics registers parser package metrics with the given
// Prometheus registry. Panics if registration fails (following
// prometheus convention).
func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(ReferenceResolutions)
	reg.MustRegister(DatafilesParsed)
	reg.MustRegister(ComponentsBuilt)
}
