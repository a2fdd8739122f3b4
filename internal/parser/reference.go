// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package parser turns the input database into a component system: it
// builds components from property rows, registers the time-series
// references those rows carry, and resolves the references against the
// external datafiles in a best-effort batch.
package parser

import (
	"fmt"

	"github.com/oklog/ulid/v2"
)

// Source discriminates how a reference points at external data.
type Source int

const (
	// SourceDirectDatafile is a literal file path carried in the entry's
	// text payload.
	SourceDirectDatafile Source = iota
	// SourceDatafileComponent names a Data File component whose filename
	// overlay yields the literal path.
	SourceDatafileComponent
	// SourceVariable names a Variable component whose profile overlay is
	// resolved recursively.
	SourceVariable
)

func (s Source) String() string {
	switch s {
	case SourceDirectDatafile:
		return "direct-datafile"
	case SourceDatafileComponent:
		return "datafile-component"
	case SourceVariable:
		return "variable"
	default:
		return fmt.Sprintf("source(%d)", int(s))
	}
}

// Reference is one deferred time-series attachment, recorded while
// building a component and resolved after the full graph exists.
type Reference struct {
	ComponentID   ulid.ULID
	ComponentName string
	Class         string
	FieldName     string
	PropertyName  string
	Source        Source

	// DatafilePath is set for SourceDirectDatafile.
	DatafilePath string
	// DatafileComponent is set for SourceDatafileComponent.
	DatafileComponent string
	// VariableName names a Variable whose resolved scalar combines with
	// the parsed data, or the variable itself for SourceVariable.
	VariableName string
	// ColumnName selects the column in the parsed file; the component
	// name is used when empty.
	ColumnName string

	Action string
	Units  string
}

// Column returns the name used to look the payload up in a parsed file.
func (r Reference) Column() string {
	if r.ColumnName != "" {
		return r.ColumnName
	}
	return r.ComponentName
}

// Outcome records one failed reference with its error.
type Outcome struct {
	Ref Reference
	Err error
}

// BatchResult summarizes a best-effort attachment pass.
type BatchResult struct {
	Attached int
	Updated  int
	Skipped  int
	Failures []Outcome
}

// FailureCount returns the number of recorded failures.
func (b BatchResult) FailureCount() int { return len(b.Failures) }
