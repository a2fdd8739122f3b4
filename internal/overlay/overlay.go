// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package overlay

import (
	"fmt"
	"sort"
	"strings"
)

type keySet map[Key]struct{}

type dateKey struct {
	From string
	To   string
}

// Overlay holds every entry recorded for one modeled property, indexed for
// O(1) membership and fallback queries across millions of rows. Secondary
// indexes are derived from entries and kept consistent on every insert;
// there is no deletion API — horizon filtering builds a new filtered view
// instead.
type Overlay struct {
	entries map[Key]Entry
	order   []Key

	// Units and Action are overlay-level metadata, set opportunistically
	// from the first entry that supplies them.
	Units  string
	Action string

	byScenario  map[string]keySet
	byBand      map[int]keySet
	byTimeslice map[string]keySet
	byDate      map[dateKey]keySet
	byVariable  map[string]keySet
	byText      map[string]keySet
}

// New creates an empty overlay.
func New() *Overlay {
	return &Overlay{
		entries:     make(map[Key]Entry),
		byScenario:  make(map[string]keySet),
		byBand:      make(map[int]keySet),
		byTimeslice: make(map[string]keySet),
		byDate:      make(map[dateKey]keySet),
		byVariable:  make(map[string]keySet),
		byText:      make(map[string]keySet),
	}
}

// FromRecords bulk-constructs an overlay from flat records. Construction is
// O(n) in record count; each record touches a constant number of index
// buckets.
func FromRecords(records []Record) *Overlay {
	o := New()
	for _, rec := range records {
		o.Add(rec)
	}
	return o
}

// FromRecord is a convenience constructor for a single-entry overlay.
func FromRecord(rec Record) *Overlay {
	o := New()
	o.Add(rec)
	return o
}

// FromRows constructs an overlay from loosely typed rows, accepting the
// header aliases RecordFromMap understands.
func FromRows(rows []map[string]any) *Overlay {
	o := New()
	for _, row := range rows {
		o.Add(RecordFromMap(row))
	}
	return o
}

// Add stores one entry. An entry with the exact same key replaces the
// earlier one (last write wins per key); a new key is appended to the
// deterministic insertion order used by terminal fallback lookup.
func (o *Overlay) Add(rec Record) {
	key := rec.key()
	if _, exists := o.entries[key]; !exists {
		o.order = append(o.order, key)
	}
	o.entries[key] = rec.entry()
	o.index(key)
	o.updateMetadata(rec.Units, rec.Action)
}

// updateMetadata sets overlay-level units/action from the first entry that
// supplies them. Already-set metadata is never overwritten.
func (o *Overlay) updateMetadata(units, action string) {
	if o.Units == "" && units != "" {
		o.Units = units
	}
	if o.Action == "" && action != "" {
		o.Action = action
	}
}

func (o *Overlay) index(key Key) {
	if key.Scenario != "" {
		addKey(o.byScenario, key.Scenario, key)
	}
	addKey(o.byBand, key.Band, key)
	if key.Timeslice != "" {
		addKey(o.byTimeslice, key.Timeslice, key)
	}
	if key.hasDates() {
		addKey(o.byDate, dateKey{key.DateFrom, key.DateTo}, key)
	}
	if key.Variable != "" {
		addKey(o.byVariable, key.Variable, key)
	}
	if key.Text != "" {
		addKey(o.byText, key.Text, key)
	}
}

func addKey[K comparable](index map[K]keySet, bucket K, key Key) {
	set, ok := index[bucket]
	if !ok {
		set = make(keySet)
		index[bucket] = set
	}
	set[key] = struct{}{}
}

// Len returns the number of stored entries.
func (o *Overlay) Len() int { return len(o.entries) }

// Entry returns the stored entry for an exact key.
func (o *Overlay) Entry(key Key) (Entry, bool) {
	e, ok := o.entries[key]
	return e, ok
}

// FirstEntry returns the first entry in insertion order. It is the entry
// inspected for datafile/variable provenance when the overlay represents a
// single external reference.
func (o *Overlay) FirstEntry() (Entry, bool) {
	if len(o.order) == 0 {
		return Entry{}, false
	}
	return o.entries[o.order[0]], true
}

// Keys returns every key in insertion order.
func (o *Overlay) Keys() []Key {
	keys := make([]Key, len(o.order))
	copy(keys, o.order)
	return keys
}

// Scenarios returns all unique scenario names, sorted.
func (o *Overlay) Scenarios() []string { return sortedKeys(o.byScenario) }

// Timeslices returns all unique timeslice names, sorted.
func (o *Overlay) Timeslices() []string { return sortedKeys(o.byTimeslice) }

// Variables returns all unique variable names, sorted.
func (o *Overlay) Variables() []string { return sortedKeys(o.byVariable) }

// TextValues returns all unique text payloads, sorted.
func (o *Overlay) TextValues() []string { return sortedKeys(o.byText) }

// Bands returns all unique band numbers, ascending.
func (o *Overlay) Bands() []int {
	bands := make([]int, 0, len(o.byBand))
	for band := range o.byBand {
		bands = append(bands, band)
	}
	sort.Ints(bands)
	return bands
}

// DateRanges returns all unique (from, to) pairs, sorted.
func (o *Overlay) DateRanges() []DateRange {
	ranges := make([]DateRange, 0, len(o.byDate))
	for dk := range o.byDate {
		ranges = append(ranges, DateRange{From: dk.From, To: dk.To})
	}
	sort.Slice(ranges, func(i, j int) bool {
		if ranges[i].From != ranges[j].From {
			return ranges[i].From < ranges[j].From
		}
		return ranges[i].To < ranges[j].To
	})
	return ranges
}

// HasScenarios reports whether any entry is scenario-tagged.
func (o *Overlay) HasScenarios() bool { return len(o.byScenario) > 0 }

// HasTimeslices reports whether any entry is timesliced.
func (o *Overlay) HasTimeslices() bool { return len(o.byTimeslice) > 0 }

// HasBands reports whether the property is multi-banded.
func (o *Overlay) HasBands() bool { return len(o.byBand) > 1 }

// HasText reports whether any entry carries a text payload.
func (o *Overlay) HasText() bool { return len(o.byText) > 0 }

// HasDateFrom reports whether any entry constrains its start date.
func (o *Overlay) HasDateFrom() bool {
	for key := range o.entries {
		if key.DateFrom != "" {
			return true
		}
	}
	return false
}

// HasDateTo reports whether any entry constrains its end date.
func (o *Overlay) HasDateTo() bool {
	for key := range o.entries {
		if key.DateTo != "" {
			return true
		}
	}
	return false
}

// HasDatafile reports whether any entry references an external datafile.
func (o *Overlay) HasDatafile() bool {
	for _, e := range o.entries {
		if e.HasDatafile() {
			return true
		}
	}
	return false
}

// HasVariable reports whether any entry references a variable component.
func (o *Overlay) HasVariable() bool {
	for _, e := range o.entries {
		if e.HasVariable() {
			return true
		}
	}
	return false
}

// Records emits one flat record per key, in insertion order, with every
// provenance field present. FromRecords(o.Records()) reconstructs the
// overlay losslessly.
func (o *Overlay) Records() []Record {
	records := make([]Record, 0, len(o.order))
	for _, key := range o.order {
		e := o.entries[key]
		records = append(records, Record{
			Value:         e.Value,
			Scenario:      e.ScenarioName,
			Band:          e.Band,
			Timeslice:     e.TimesliceName,
			DateFrom:      e.DateFrom,
			DateTo:        e.DateTo,
			PeriodTypeID:  key.PeriodTypeID,
			DatafileName:  e.DatafileName,
			DatafileID:    e.DatafileID,
			ColumnName:    e.ColumnName,
			VariableName:  e.VariableName,
			VariableID:    e.VariableID,
			Action:        e.Action,
			Units:         e.Units,
			Text:          e.Text,
			TextClassName: e.TextClassName,
		})
	}
	return records
}

// Equal reports entry-level equality with another overlay: same keys, same
// stored entries. Insertion order and metadata are not part of identity.
func (o *Overlay) Equal(other *Overlay) bool {
	if other == nil || len(o.entries) != len(other.entries) {
		return false
	}
	for key, e := range o.entries {
		oe, ok := other.entries[key]
		if !ok {
			return false
		}
		if !floatPtrEqual(e.Value, oe.Value) {
			return false
		}
		e.Value, oe.Value = nil, nil
		if e != oe {
			return false
		}
	}
	return true
}

// AllCompare reports whether every stored value satisfies cmp against other.
// Overlays that are empty or backed by a datafile/variable reference compare
// vacuously true: their concrete values are not known until attachment.
func (o *Overlay) AllCompare(other float64, cmp func(a, b float64) bool) bool {
	if len(o.entries) == 0 || o.HasDatafile() || o.HasVariable() {
		return true
	}
	for _, e := range o.entries {
		if e.Value == nil || !cmp(*e.Value, other) {
			return false
		}
	}
	return true
}

func floatPtrEqual(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func sortedKeys[V any](index map[string]V) []string {
	names := make([]string, 0, len(index))
	for name := range index {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// String renders a compact summary: entry count, metadata and the dimensions
// present, with up to three sample values.
func (o *Overlay) String() string {
	parts := []string{fmt.Sprintf("entries=%d", len(o.entries))}
	if o.Units != "" {
		parts = append(parts, "units="+o.Units)
	}
	if o.Action != "" && o.Action != "=" {
		parts = append(parts, "action="+o.Action)
	}
	if s := o.Scenarios(); len(s) > 0 {
		parts = append(parts, fmt.Sprintf("scenarios=%v", s))
	}
	if ts := o.Timeslices(); len(ts) > 0 {
		parts = append(parts, fmt.Sprintf("timeslices=%v", ts))
	}
	if o.HasBands() {
		parts = append(parts, fmt.Sprintf("bands=%v", o.Bands()))
	}
	if o.HasDateFrom() || o.HasDateTo() {
		parts = append(parts, "has_dates=true")
	}
	if o.HasDatafile() {
		parts = append(parts, "has_datafile=true")
	}
	if o.HasVariable() {
		parts = append(parts, "has_variable=true")
	}
	if len(o.order) > 0 {
		samples := make([]string, 0, 3)
		for _, key := range o.order {
			if len(samples) == 3 {
				samples = append(samples, "...")
				break
			}
			e := o.entries[key]
			if e.Value != nil {
				samples = append(samples, fmt.Sprintf("%g", *e.Value))
			} else {
				samples = append(samples, "<nil>")
			}
		}
		parts = append(parts, fmt.Sprintf("values=[%s]", strings.Join(samples, ", ")))
	}
	return "Overlay(" + strings.Join(parts, ", ") + ")"
}
