// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdd_ExactKeyOverwrites(t *testing.T) {
	o := New()
	o.Add(Record{Value: val(10.0), Scenario: "Base"})
	o.Add(Record{Value: val(12.0), Scenario: "Base"})

	assert.Equal(t, 1, o.Len())
	got := o.ValueFor(Lookup{Scenario: "Base"})
	require.NotNil(t, got)
	assert.Equal(t, 12.0, *got)
}

func TestAdd_ActionIsPartOfKey(t *testing.T) {
	o := New()
	o.Add(Record{Value: val(100), Scenario: "Base", Action: "=", Units: "MW"})
	o.Add(Record{Value: val(20), Scenario: "Base", Action: "+", Units: "MW"})

	assert.Equal(t, 2, o.Len())
	actions := make(map[string]bool)
	for _, key := range o.Keys() {
		actions[key.Action] = true
	}
	assert.True(t, actions["="])
	assert.True(t, actions["+"])
}

func TestAdd_MultipleActionsAndDimensions(t *testing.T) {
	o := New()
	o.Add(Record{Value: val(100), Band: 1, Action: "=", Units: "MW"})
	o.Add(Record{Value: val(20), Band: 1, Action: "+", Units: "MW"})
	o.Add(Record{Value: val(1.1), Band: 1, Action: "*"})
	o.Add(Record{Value: val(50), Band: 2, Action: "=", Units: "MW"})

	assert.Equal(t, 4, o.Len())

	band1Actions := make(map[string]bool)
	for _, key := range o.Keys() {
		if key.Band == 1 {
			band1Actions[key.Action] = true
		}
	}
	assert.Len(t, band1Actions, 3)
}

func TestMetadata_FirstSupplierWins(t *testing.T) {
	o := New()
	o.Add(Record{Value: val(1.0)})
	assert.Empty(t, o.Units)

	o.Add(Record{Value: val(2.0), Band: 2, Units: "MW", Action: "="})
	assert.Equal(t, "MW", o.Units)
	assert.Equal(t, "=", o.Action)

	o.Add(Record{Value: val(3.0), Band: 3, Units: "GW", Action: "*"})
	assert.Equal(t, "MW", o.Units)
	assert.Equal(t, "=", o.Action)
}

func TestFromRows_HeaderAliases(t *testing.T) {
	o := FromRows([]map[string]any{
		{"value": 10.0, "time_slice": "Peak", "datafile": "load.csv", "variable": "Mult", "column": "Value"},
		{"value": 15.0, "timeslice": "OffPeak"},
	})

	assert.Equal(t, []string{"OffPeak", "Peak"}, o.Timeslices())
	assert.True(t, o.HasDatafile())
	assert.True(t, o.HasVariable())
	assert.Equal(t, []string{"Mult"}, o.Variables())
}

func TestIntrospection(t *testing.T) {
	o := FromRecords([]Record{
		{Value: val(10.0), Scenario: "Base", Band: 1, DateFrom: "2024-01-01", DateTo: "2024-01-31"},
		{Value: val(20.0), Scenario: "High", Band: 2, Timeslice: "Summer", Text: "note"},
	})

	assert.Equal(t, []string{"Base", "High"}, o.Scenarios())
	assert.Equal(t, []int{1, 2}, o.Bands())
	assert.Equal(t, []string{"Summer"}, o.Timeslices())
	assert.Equal(t, []DateRange{{From: "2024-01-01", To: "2024-01-31"}}, o.DateRanges())
	assert.Equal(t, []string{"note"}, o.TextValues())
	assert.True(t, o.HasScenarios())
	assert.True(t, o.HasBands())
	assert.True(t, o.HasTimeslices())
	assert.True(t, o.HasText())
	assert.True(t, o.HasDateFrom())
	assert.True(t, o.HasDateTo())
	assert.False(t, o.HasDatafile())
	assert.False(t, o.HasVariable())
}

func TestRecords_RoundTrip(t *testing.T) {
	original := FromRecords([]Record{
		{
			Value: val(100.0), Scenario: "Base", Band: 1, Timeslice: "Peak",
			DateFrom: "2024-01-01", DateTo: "2024-12-31", Units: "MW", Action: "=",
			DatafileName: "load.csv", DatafileID: 12, ColumnName: "Value",
			VariableName: "Mult", VariableID: 7, Text: "t", TextClassName: "Data File",
		},
		{Value: val(12.0), Band: 2},
		{Value: nil, Scenario: "High"},
	})

	records := original.Records()
	require.Len(t, records, 3)

	// Every provenance field survives the trip.
	first := records[0]
	assert.Equal(t, "Base", first.Scenario)
	assert.Equal(t, "Peak", first.Timeslice)
	assert.Equal(t, "load.csv", first.DatafileName)
	assert.Equal(t, int64(12), first.DatafileID)
	assert.Equal(t, "Value", first.ColumnName)
	assert.Equal(t, "Mult", first.VariableName)
	assert.Equal(t, int64(7), first.VariableID)
	assert.Equal(t, "Data File", first.TextClassName)

	rebuilt := FromRecords(records)
	assert.True(t, original.Equal(rebuilt))
	assert.True(t, rebuilt.Equal(original))
}

func TestFirstEntry(t *testing.T) {
	o := New()
	_, ok := o.FirstEntry()
	assert.False(t, ok)

	o.Add(Record{Value: val(0.0), DatafileName: "Ratings", Text: "ratings.csv"})
	entry, ok := o.FirstEntry()
	require.True(t, ok)
	assert.Equal(t, "Ratings", entry.DatafileName)
	assert.True(t, entry.HasDatafile())
}

func TestAllCompare(t *testing.T) {
	less := func(a, b float64) bool { return a < b }

	o := FromRecords([]Record{{Value: val(1.0)}, {Value: val(2.0), Band: 2}})
	assert.True(t, o.AllCompare(5.0, less))
	assert.False(t, o.AllCompare(1.5, less))

	// Datafile-backed overlays compare vacuously: values unknown until
	// attachment.
	backed := FromRecords([]Record{{Value: val(0.0), DatafileName: "load.csv"}})
	assert.True(t, backed.AllCompare(-1.0, less))
	assert.True(t, New().AllCompare(0.0, less))
}

func TestString_Summary(t *testing.T) {
	o := FromRecords([]Record{
		{Value: val(10.0), Scenario: "Base", Units: "MW"},
		{Value: val(20.0), Scenario: "High"},
	})
	s := o.String()
	assert.Contains(t, s, "entries=2")
	assert.Contains(t, s, "units=MW")
	assert.Contains(t, s, "scenarios=[Base High]")
}
