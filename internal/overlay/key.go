// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package overlay implements the multi-dimensional property value structure
// used by PLEXOS planning models. One modeled quantity (say, a generator's
// max capacity) can carry dozens of simultaneous entries differing by
// scenario, band, timeslice, date range and combine action; an Overlay
// stores all of them and collapses them to a concrete value under a
// resolution Context.
package overlay

// Key addresses one entry inside an Overlay. Equality is structural over
// every field, which is what lets a single property hold both a "=" base
// value and a "+" adjustment for otherwise identical dimensions: the action
// is part of the key.
type Key struct {
	Scenario     string
	Band         int
	Timeslice    string
	DateFrom     string
	DateTo       string
	PeriodTypeID int
	Action       string
	Variable     string
	Text         string
}

// isSimple reports whether the key carries no dimension beyond the default
// band. Simple entries are preferred during priority resolution.
func (k Key) isSimple() bool {
	return k.Band == 1 && k.Timeslice == "" && k.DateFrom == "" && k.DateTo == ""
}

// hasDates reports whether either end of the key's date range is set.
func (k Key) hasDates() bool {
	return k.DateFrom != "" || k.DateTo != ""
}

// Entry is the immutable value record stored per Key: the numeric value plus
// full provenance. Updates replace the entry at a key, never mutate it.
type Entry struct {
	Value         *float64
	Units         string
	Action        string
	ScenarioName  string
	Band          int
	TimesliceName string
	DateFrom      string
	DateTo        string
	DatafileName  string
	DatafileID    int64
	ColumnName    string
	VariableName  string
	VariableID    int64
	Text          string
	TextClassName string
}

// HasDatafile reports whether the entry references an external datafile.
func (e Entry) HasDatafile() bool {
	return e.DatafileName != "" || e.DatafileID != 0
}

// HasVariable reports whether the entry references a variable component.
func (e Entry) HasVariable() bool {
	return e.VariableName != "" || e.VariableID != 0
}

// Record is the flat, lossless wire form of one overlay entry. Overlays
// round-trip through []Record for serialization and bulk construction.
type Record struct {
	Value         *float64
	Scenario      string
	Band          int
	Timeslice     string
	DateFrom      string
	DateTo        string
	PeriodTypeID  int
	DatafileName  string
	DatafileID    int64
	ColumnName    string
	VariableName  string
	VariableID    int64
	Action        string
	Units         string
	Text          string
	TextClassName string
}

// Float returns a pointer to v, for building Records inline.
func Float(v float64) *float64 { return &v }

// key builds the overlay lookup key for the record, normalizing the default
// band.
func (r Record) key() Key {
	band := r.Band
	if band == 0 {
		band = 1
	}
	return Key{
		Scenario:     r.Scenario,
		Band:         band,
		Timeslice:    r.Timeslice,
		DateFrom:     r.DateFrom,
		DateTo:       r.DateTo,
		PeriodTypeID: r.PeriodTypeID,
		Action:       r.Action,
		Variable:     r.VariableName,
		Text:         r.Text,
	}
}

// entry builds the stored entry for the record.
func (r Record) entry() Entry {
	band := r.Band
	if band == 0 {
		band = 1
	}
	return Entry{
		Value:         r.Value,
		Units:         r.Units,
		Action:        r.Action,
		ScenarioName:  r.Scenario,
		Band:          band,
		TimesliceName: r.Timeslice,
		DateFrom:      r.DateFrom,
		DateTo:        r.DateTo,
		DatafileName:  r.DatafileName,
		DatafileID:    r.DatafileID,
		ColumnName:    r.ColumnName,
		VariableName:  r.VariableName,
		VariableID:    r.VariableID,
		Text:          r.Text,
		TextClassName: r.TextClassName,
	}
}

// RecordFromMap decodes a loosely typed row (as produced by readers of
// foreign exports) into a Record. Header aliases used by different PLEXOS
// export flavors are accepted: "time_slice" for "timeslice", "datafile" for
// "datafile_name", "column" for "column_name" and "variable" for
// "variable_name".
func RecordFromMap(row map[string]any) Record {
	rec := Record{
		Scenario:      stringField(row, "scenario"),
		Timeslice:     stringField(row, "timeslice", "time_slice"),
		DateFrom:      stringField(row, "date_from"),
		DateTo:        stringField(row, "date_to"),
		DatafileName:  stringField(row, "datafile_name", "datafile"),
		ColumnName:    stringField(row, "column_name", "column"),
		VariableName:  stringField(row, "variable_name", "variable"),
		Action:        stringField(row, "action"),
		Units:         stringField(row, "units"),
		Text:          stringField(row, "text"),
		TextClassName: stringField(row, "text_class_name"),
	}
	rec.Band = intField(row, "band")
	rec.PeriodTypeID = intField(row, "period_type_id")
	rec.DatafileID = int64(intField(row, "datafile_id"))
	rec.VariableID = int64(intField(row, "variable_id"))
	if v, ok := floatField(row, "value"); ok {
		rec.Value = &v
	}
	return rec
}

func stringField(row map[string]any, names ...string) string {
	for _, name := range names {
		if v, ok := row[name]; ok && v != nil {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

func intField(row map[string]any, name string) int {
	switch v := row[name].(type) {
	case int:
		return v
	case int64:
		return int(v)
	case float64:
		return int(v)
	default:
		return 0
	}
}

func floatField(row map[string]any, name string) (float64, bool) {
	switch v := row[name].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
