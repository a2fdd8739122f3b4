// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package overlay

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func val(v float64) *float64 { return &v }

func TestResolve_NoContext(t *testing.T) {
	tests := []struct {
		name    string
		records []Record
		want    Value
	}{
		{
			name:    "single_default_value",
			records: []Record{{Value: val(10.0)}},
			want:    Scalar(10.0),
		},
		{
			name:    "single_scenario_unwrapped",
			records: []Record{{Value: val(100), Scenario: "Base"}},
			want:    Scalar(100),
		},
		{
			name: "scenario_with_default_prefers_default",
			records: []Record{
				{Value: val(10.0), Scenario: "test"},
				{Value: val(11.0)},
			},
			want: Scalar(11.0),
		},
		{
			name:    "single_timeslice_unwrapped",
			records: []Record{{Value: val(10.0), Timeslice: "M1"}},
			want:    Scalar(10.0),
		},
		{
			name: "timeslice_with_scenario_returns_non_scenario_timeslices",
			records: []Record{
				{Value: val(10.0), Timeslice: "M1"},
				{Value: val(15.0), Timeslice: "M1", Scenario: "test"},
			},
			want: ByTimeslice(map[string]float64{"M1": 10.0}),
		},
		{
			name: "two_timeslices",
			records: []Record{
				{Value: val(10.0), Timeslice: "M1"},
				{Value: val(15.0), Timeslice: "M2"},
			},
			want: ByTimeslice(map[string]float64{"M1": 10.0, "M2": 15.0}),
		},
		{
			name: "two_bands",
			records: []Record{
				{Value: val(10.0), Band: 1},
				{Value: val(15.0), Band: 2},
			},
			want: ByBand(map[int]float64{1: 10.0, 2: 15.0}),
		},
		{
			name: "same_band_with_scenario_prefers_plain",
			records: []Record{
				{Value: val(10.0), Band: 1},
				{Value: val(15.0), Band: 1, Scenario: "test"},
			},
			want: Scalar(10.0),
		},
		{
			name: "multi_scenario_multi_timeslice",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Timeslice: "M1"},
				{Value: val(20.0), Scenario: "s2", Timeslice: "M2"},
			},
			want: ByScenario(map[string]float64{"s1": 10.0, "s2": 20.0}),
		},
		{
			name: "multi_band_single_scenario_wraps",
			records: []Record{
				{Value: val(10.0), Band: 1, Scenario: "s1"},
				{Value: val(20.0), Band: 2, Scenario: "s1"},
			},
			want: ByScenario(map[string]float64{"s1": 10.0}),
		},
		{
			name: "default_beats_scenario_and_timeslice",
			records: []Record{
				{Value: val(5.0)},
				{Value: val(10.0), Scenario: "s1"},
				{Value: val(15.0), Timeslice: "M1"},
			},
			want: Scalar(5.0),
		},
		{
			name: "same_scenario_multi_timeslice_unwraps_first",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Timeslice: "M1"},
				{Value: val(20.0), Scenario: "s1", Timeslice: "M2"},
			},
			want: Scalar(10.0),
		},
		{
			name: "scenario_plain_and_scenario_timesliced",
			records: []Record{
				{Value: val(10.0), Scenario: "s1"},
				{Value: val(20.0), Scenario: "s2", Timeslice: "M1"},
			},
			want: ByScenario(map[string]float64{"s1": 10.0, "s2": 20.0}),
		},
		{
			name: "three_timeslices",
			records: []Record{
				{Value: val(10.0), Timeslice: "M1"},
				{Value: val(15.0), Timeslice: "M2"},
				{Value: val(20.0), Timeslice: "M3"},
			},
			want: ByTimeslice(map[string]float64{"M1": 10.0, "M2": 15.0, "M3": 20.0}),
		},
		{
			name: "three_bands",
			records: []Record{
				{Value: val(10.0), Band: 1},
				{Value: val(15.0), Band: 2},
				{Value: val(20.0), Band: 3},
			},
			want: ByBand(map[int]float64{1: 10.0, 2: 15.0, 3: 20.0}),
		},
		{
			name: "scenario_band_prefers_band_one_default",
			records: []Record{
				{Value: val(10.0), Band: 1},
				{Value: val(20.0), Band: 2, Scenario: "s1"},
			},
			want: Scalar(10.0),
		},
		{
			name: "three_scenarios_same_timeslice",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Timeslice: "M1"},
				{Value: val(20.0), Scenario: "s2", Timeslice: "M1"},
				{Value: val(30.0), Scenario: "s3", Timeslice: "M1"},
			},
			want: ByScenario(map[string]float64{"s1": 10.0, "s2": 20.0, "s3": 30.0}),
		},
		{
			name: "timeslices_with_different_bands",
			records: []Record{
				{Value: val(10.0), Timeslice: "M1", Band: 1},
				{Value: val(20.0), Timeslice: "M2", Band: 2},
			},
			want: ByTimeslice(map[string]float64{"M1": 10.0, "M2": 20.0}),
		},
		{
			name: "single_date_range",
			records: []Record{
				{Value: val(10.0), DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			want: Scalar(10.0),
		},
		{
			name: "multiple_date_ranges_first_wins",
			records: []Record{
				{Value: val(10.0), DateFrom: "2024-01-01", DateTo: "2024-06-30"},
				{Value: val(20.0), DateFrom: "2024-07-01", DateTo: "2024-12-31"},
			},
			want: Scalar(10.0),
		},
		{
			name: "dated_scenarios",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
				{Value: val(20.0), Scenario: "s2", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			want: ByScenario(map[string]float64{"s1": 10.0, "s2": 20.0}),
		},
		{
			name: "dated_timeslices",
			records: []Record{
				{Value: val(10.0), Timeslice: "M1", DateFrom: "2024-01-01", DateTo: "2024-06-30"},
				{Value: val(20.0), Timeslice: "M2", DateFrom: "2024-07-01", DateTo: "2024-12-31"},
			},
			want: ByTimeslice(map[string]float64{"M1": 10.0, "M2": 20.0}),
		},
		{
			name: "default_with_dated_scenario",
			records: []Record{
				{Value: val(5.0)},
				{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			want: Scalar(5.0),
		},
		{
			name: "dated_scenario_timeslices",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Timeslice: "M1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
				{Value: val(20.0), Scenario: "s2", Timeslice: "M2", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			want: ByScenario(map[string]float64{"s1": 10.0, "s2": 20.0}),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := FromRecords(tt.records)
			got := o.Resolve(Context{})
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestResolve_WithPriority(t *testing.T) {
	tests := []struct {
		name     string
		records  []Record
		priority map[string]int
		want     Value
	}{
		{
			name:     "single_scenario",
			records:  []Record{{Value: val(10.0), Scenario: "test"}},
			priority: map[string]int{"test": 1},
			want:     Scalar(10.0),
		},
		{
			name: "smaller_number_wins",
			records: []Record{
				{Value: val(100), Scenario: "Base"},
				{Value: val(120), Scenario: "High"},
				{Value: val(80), Scenario: "Low"},
			},
			priority: map[string]int{"Test": 1, "High": 2, "Base": 3},
			want:     Scalar(120),
		},
		{
			name: "unmapped_scenario_loses_to_mapped",
			records: []Record{
				{Value: val(100), Scenario: "Base"},
				{Value: val(120), Scenario: "High"},
			},
			priority: map[string]int{"Test": 1, "Base": 2},
			want:     Scalar(100),
		},
		{
			name: "default_entry_loses_to_prioritized_scenario",
			records: []Record{
				{Value: val(10.0), Scenario: "test"},
				{Value: val(11.0), Scenario: "test2"},
				{Value: val(15.0)},
			},
			priority: map[string]int{"test": 1, "test2": 2},
			want:     Scalar(10.0),
		},
		{
			name: "scenario_beats_plain_entry",
			records: []Record{
				{Value: val(10.0), Band: 1},
				{Value: val(15.0), Band: 1, Scenario: "test"},
			},
			priority: map[string]int{"test": 1},
			want:     Scalar(15.0),
		},
		{
			name: "complex_entries_used_when_no_simple_exist",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Timeslice: "M1"},
				{Value: val(20.0), Scenario: "s2", Timeslice: "M2"},
			},
			priority: map[string]int{"s2": 1, "s1": 2},
			want:     Scalar(20.0),
		},
		{
			name: "multi_band_scenario_prefers_simple_band_one",
			records: []Record{
				{Value: val(10.0), Band: 1, Scenario: "s1"},
				{Value: val(20.0), Band: 2, Scenario: "s1"},
			},
			priority: map[string]int{"s1": 1},
			want:     Scalar(10.0),
		},
		{
			name: "same_scenario_timeslices_first_by_insertion",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Timeslice: "M1"},
				{Value: val(20.0), Scenario: "s1", Timeslice: "M2"},
			},
			priority: map[string]int{"s1": 1},
			want:     Scalar(10.0),
		},
		{
			name: "middle_priority_wins",
			records: []Record{
				{Value: val(10.0), Scenario: "s1"},
				{Value: val(20.0), Scenario: "s2"},
				{Value: val(30.0), Scenario: "s3"},
			},
			priority: map[string]int{"s2": 1, "s1": 2, "s3": 3},
			want:     Scalar(20.0),
		},
		{
			name: "priority_reorder_changes_winner",
			records: []Record{
				{Value: val(100), Scenario: "Scenario1"},
				{Value: val(200), Scenario: "Scenario2"},
				{Value: val(300), Scenario: "Scenario3"},
			},
			priority: map[string]int{"Scenario3": 1, "Scenario1": 2, "Scenario2": 3},
			want:     Scalar(300),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := FromRecords(tt.records)
			got := o.Resolve(Context{Priority: tt.priority})
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestResolve_WithHorizon(t *testing.T) {
	window := func(from, to string) *DateRange { return &DateRange{From: from, To: to} }

	tests := []struct {
		name     string
		records  []Record
		horizon  *DateRange
		priority map[string]int
		want     Value
	}{
		{
			name: "filters_to_overlapping_range",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-06-30"},
				{Value: val(20.0), Scenario: "s1", DateFrom: "2024-07-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-01-01", "2024-06-30"),
			want:    Scalar(10.0),
		},
		{
			name: "priority_applies_after_filter",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
				{Value: val(20.0), Scenario: "s2", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			horizon:  window("2024-01-01", "2024-12-31"),
			priority: map[string]int{"s2": 1, "s1": 2},
			want:     Scalar(20.0),
		},
		{
			name: "timeslices_collapse_to_surviving_entry",
			records: []Record{
				{Value: val(10.0), Timeslice: "M1", DateFrom: "2024-01-01", DateTo: "2024-06-30"},
				{Value: val(20.0), Timeslice: "M2", DateFrom: "2024-07-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-01-01", "2024-06-30"),
			want:    Scalar(10.0),
		},
		{
			name: "bands_collapse_to_surviving_entry",
			records: []Record{
				{Value: val(10.0), Band: 1, DateFrom: "2024-01-01", DateTo: "2024-06-30"},
				{Value: val(20.0), Band: 2, DateFrom: "2024-07-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-01-01", "2024-06-30"),
			want:    Scalar(10.0),
		},
		{
			name: "scenario_bands_group_by_scenario",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Band: 1, DateFrom: "2024-01-01", DateTo: "2024-12-31"},
				{Value: val(20.0), Scenario: "s2", Band: 2, DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-01-01", "2024-12-31"),
			want:    ByScenario(map[string]float64{"s1": 10.0, "s2": 20.0}),
		},
		{
			name: "dateless_default_survives_any_window",
			records: []Record{
				{Value: val(5.0)},
				{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-01-01", "2024-12-31"),
			want:    Scalar(5.0),
		},
		{
			name: "window_excluding_all_dated_leaves_default",
			records: []Record{
				{Value: val(5.0)},
				{Value: val(10.0), Scenario: "s1", DateFrom: "2025-01-01", DateTo: "2025-12-31"},
			},
			horizon: window("2024-01-01", "2024-12-31"),
			want:    Scalar(5.0),
		},
		{
			name: "window_excluding_everything_is_empty",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
				{Value: val(20.0), Scenario: "s2", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			horizon: window("2025-01-01", "2025-12-31"),
			want:    Empty(),
		},
		{
			name: "multiple_timeslices_same_period",
			records: []Record{
				{Value: val(10.0), Timeslice: "M1", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
				{Value: val(20.0), Timeslice: "M2", DateFrom: "2024-01-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-01-01", "2024-12-31"),
			want:    ByTimeslice(map[string]float64{"M1": 10.0, "M2": 20.0}),
		},
		{
			name: "partial_overlap_included",
			records: []Record{
				{Value: val(10.0), DateFrom: "2024-01-01", DateTo: "2024-06-30"},
				{Value: val(20.0), DateFrom: "2024-06-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-09-01", "2024-09-30"),
			want:    Scalar(20.0),
		},
		{
			name: "open_ended_start_date",
			records: []Record{
				{Value: val(10.0), DateFrom: "2024-01-01"},
				{Value: val(5.0), DateTo: "2023-12-31"},
			},
			horizon: window("2023-01-01", "2023-12-31"),
			want:    Scalar(5.0),
		},
		{
			name: "open_ended_end_date",
			records: []Record{
				{Value: val(10.0), DateFrom: "2024-01-01"},
				{Value: val(5.0), DateTo: "2023-12-31"},
			},
			horizon: window("2025-01-01", "2025-12-31"),
			want:    Scalar(10.0),
		},
		{
			name: "full_combination",
			records: []Record{
				{Value: val(10.0), Scenario: "s1", Timeslice: "M1", Band: 1, DateFrom: "2024-01-01", DateTo: "2024-06-30"},
				{Value: val(20.0), Scenario: "s2", Timeslice: "M2", Band: 2, DateFrom: "2024-07-01", DateTo: "2024-12-31"},
			},
			horizon: window("2024-01-01", "2024-06-30"),
			want:    Scalar(10.0),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := FromRecords(tt.records)
			got := o.Resolve(Context{Priority: tt.priority, Horizon: tt.horizon})
			assert.True(t, tt.want.Equal(got), "want %v, got %v", tt.want, got)
		})
	}
}

func TestResolve_IsPure(t *testing.T) {
	o := FromRecords([]Record{
		{Value: val(10.0), Scenario: "s1", DateFrom: "2024-01-01", DateTo: "2024-06-30"},
		{Value: val(20.0), Scenario: "s2", DateFrom: "2024-07-01", DateTo: "2024-12-31"},
		{Value: val(5.0)},
	})
	ctx := Context{Horizon: &DateRange{From: "2024-01-01", To: "2024-06-30"}}

	first := o.Resolve(ctx)
	second := o.Resolve(ctx)
	assert.True(t, first.Equal(second))

	// The live overlay must be untouched by horizon filtering.
	assert.Equal(t, 3, o.Len())
	assert.Equal(t, []string{"s1", "s2"}, o.Scenarios())
	unfiltered := o.Resolve(Context{})
	assert.True(t, Scalar(5.0).Equal(unfiltered), "got %v", unfiltered)
}

func TestResolve_EmptyOverlay(t *testing.T) {
	o := New()
	assert.True(t, o.Resolve(Context{}).IsEmpty())
	assert.True(t, o.Resolve(Context{Priority: map[string]int{"s1": 1}}).IsEmpty())
	assert.False(t, o.HasScenarios())
	assert.False(t, o.HasTimeslices())
	assert.False(t, o.HasBands())
	assert.False(t, o.HasDatafile())
	assert.False(t, o.HasVariable())
	assert.False(t, o.HasText())
	assert.Nil(t, o.ValueFor(Lookup{}))
}

func TestResolve_PriorityMonotonic(t *testing.T) {
	records := []Record{
		{Value: val(100), Scenario: "a"},
		{Value: val(200), Scenario: "b"},
	}
	o := FromRecords(records)

	// b loses at rank 3, wins once its number drops below a's.
	got := o.Resolve(Context{Priority: map[string]int{"a": 2, "b": 3}})
	assert.True(t, Scalar(100).Equal(got))
	got = o.Resolve(Context{Priority: map[string]int{"a": 2, "b": 1}})
	assert.True(t, Scalar(200).Equal(got))
}

func TestValueFor_Fallbacks(t *testing.T) {
	o := FromRecords([]Record{
		{Value: val(1.0)},
		{Value: val(2.0), Scenario: "s1", Timeslice: "M2"},
		{Value: val(3.0), Scenario: "s1", Timeslice: "M1"},
		{Value: val(4.0), Band: 2},
	})

	// Exact key.
	require.NotNil(t, o.ValueFor(Lookup{}))
	assert.Equal(t, 1.0, *o.ValueFor(Lookup{}))

	// Dates dropped when no dated entry matches.
	assert.Equal(t, 1.0, *o.ValueFor(Lookup{DateFrom: "2030-01-01", DateTo: "2030-12-31"}))

	// Scenario bucket sorted by (timeslice, band): M1 first.
	assert.Equal(t, 3.0, *o.ValueFor(Lookup{Scenario: "s1"}))

	// Timeslice bucket sorted by (band, scenario).
	assert.Equal(t, 2.0, *o.ValueFor(Lookup{Timeslice: "M2"}))

	// Band-only key.
	assert.Equal(t, 4.0, *o.ValueFor(Lookup{Band: 2}))

	// Unknown dimensions fall through to the default entry.
	assert.Equal(t, 1.0, *o.ValueFor(Lookup{Scenario: "missing"}))
}

func TestHorizonFilter_Idempotent(t *testing.T) {
	o := FromRecords([]Record{
		{Value: val(10.0), DateFrom: "2024-01-01", DateTo: "2024-06-30"},
		{Value: val(20.0), DateFrom: "2024-07-01", DateTo: "2024-12-31"},
		{Value: val(5.0)},
	})
	h := DateRange{From: "2024-01-01", To: "2024-06-30"}

	once := o.filterHorizon(h)
	twice := once.filterHorizon(h)
	assert.True(t, once.Equal(twice))
	assert.Equal(t, 2, once.Len())
}
