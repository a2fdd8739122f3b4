// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package datafile

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/oops"

	"github.com/gridfold/gridfold/internal/timeseries"
	"github.com/gridfold/gridfold/internal/timeslice"
)

// Format is the detected shape of a CSV datafile.
type Format int

const (
	// FormatValue is `Name,Value`: one scalar per component.
	FormatValue Format = iota
	// FormatMonthly is `Name,M01..M12`: twelve monthly values expanded to
	// an hourly series.
	FormatMonthly
	// FormatPattern is `Name,Pattern,Value` with an optional Band column:
	// recurring-period patterns expanded to an hourly series.
	FormatPattern
	// FormatHourly is `Month,Day,Period,<component columns>` with an
	// optional leading Year column: explicit hourly observations.
	FormatHourly
)

// Payload is a parsed per-component value: either a scalar or a series.
type Payload struct {
	scalar float64
	series *timeseries.Series
}

// ScalarPayload wraps a scalar.
func ScalarPayload(v float64) Payload { return Payload{scalar: v} }

// SeriesPayload wraps a series.
func SeriesPayload(s *timeseries.Series) Payload { return Payload{series: s} }

// Scalar returns the scalar value when the payload holds one.
func (p Payload) Scalar() (float64, bool) {
	if p.series != nil {
		return 0, false
	}
	return p.scalar, true
}

// Series returns the series when the payload holds one.
func (p Payload) Series() (*timeseries.Series, bool) {
	return p.series, p.series != nil
}

// File is one parsed datafile: payloads keyed by component name.
type File struct {
	Path    string
	Format  Format
	entries map[string]Payload
}

// Get looks a payload up by component name, case-insensitively.
func (f *File) Get(name string) (Payload, bool) {
	p, ok := f.entries[strings.ToLower(name)]
	return p, ok
}

// Names returns the component names present, sorted.
func (f *File) Names() []string {
	names := make([]string, 0, len(f.entries))
	for name := range f.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// BandKey is the key convention for band-specific payloads beyond the
// first band.
func BandKey(name string, band int) string {
	return fmt.Sprintf("%s_band_%d", name, band)
}

// BandPayloads collects the payloads for a component across bands. Band 1
// is the bare name; higher bands use the `{name}_band_{n}` convention.
// The result is empty when the component is absent entirely.
func (f *File) BandPayloads(name string) map[int]Payload {
	out := make(map[int]Payload)
	if p, ok := f.Get(name); ok {
		out[1] = p
	}
	prefix := strings.ToLower(name) + "_band_"
	for key, p := range f.entries {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		band, err := strconv.Atoi(key[len(prefix):])
		if err != nil || band < 1 {
			continue
		}
		out[band] = p
	}
	return out
}

// Parse reads a CSV datafile, detects its format, and expands it to
// per-component payloads. The year anchors monthly and pattern expansion.
func Parse(path string, r io.Reader, year int) (*File, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, oops.Code("DATAFILE_PARSE_FAILED").
			With("path", path).
			Wrapf(err, "reading csv")
	}
	if len(rows) < 2 {
		return nil, oops.Code("DATAFILE_PARSE_FAILED").
			With("path", path).
			Errorf("datafile has no data rows")
	}

	header := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		header[i] = strings.ToLower(strings.TrimSpace(h))
	}
	format, err := DetectFormat(header)
	if err != nil {
		return nil, oops.Code("DATAFILE_PARSE_FAILED").With("path", path).Wrap(err)
	}

	f := &File{Path: path, Format: format, entries: make(map[string]Payload)}
	switch format {
	case FormatValue:
		err = f.parseValue(rows[1:])
	case FormatMonthly:
		err = f.parseMonthly(header, rows[1:], year)
	case FormatPattern:
		err = f.parsePattern(header, rows[1:], year)
	case FormatHourly:
		err = f.parseHourly(header, rows[1:], year)
	}
	if err != nil {
		return nil, oops.Code("DATAFILE_PARSE_FAILED").With("path", path).Wrap(err)
	}
	return f, nil
}

// DetectFormat classifies a datafile by its header row.
func DetectFormat(header []string) (Format, error) {
	has := func(col string) bool {
		for _, h := range header {
			if h == col {
				return true
			}
		}
		return false
	}
	switch {
	case has("pattern"):
		return FormatPattern, nil
	case has("month") && has("day") && (has("period") || has("hour")):
		return FormatHourly, nil
	case len(header) >= 13 && isMonthColumn(header[1], 1):
		return FormatMonthly, nil
	case len(header) == 2 && has("name") && has("value"):
		return FormatValue, nil
	default:
		return 0, fmt.Errorf("unrecognized datafile header %v", header)
	}
}

func isMonthColumn(col string, month int) bool {
	return col == fmt.Sprintf("m%d", month) || col == fmt.Sprintf("m%02d", month)
}

func (f *File) parseValue(rows [][]string) error {
	for _, row := range rows {
		if len(row) < 2 {
			return fmt.Errorf("value row needs name and value, got %v", row)
		}
		v, err := parseFloat(row[1])
		if err != nil {
			return err
		}
		f.entries[strings.ToLower(strings.TrimSpace(row[0]))] = ScalarPayload(v)
	}
	return nil
}

func (f *File) parseMonthly(header []string, rows [][]string, year int) error {
	for m := 1; m <= 12; m++ {
		if len(header) <= m || !isMonthColumn(header[m], m) {
			return fmt.Errorf("monthly file missing column for month %d", m)
		}
	}
	for _, row := range rows {
		if len(row) < 13 {
			return fmt.Errorf("monthly row needs 12 values, got %v", row)
		}
		name := strings.ToLower(strings.TrimSpace(row[0]))
		monthly := make([]float64, 12)
		for m := range 12 {
			v, err := parseFloat(row[m+1])
			if err != nil {
				return err
			}
			monthly[m] = v
		}
		f.entries[name] = SeriesPayload(expandMonthly(name, monthly, year))
	}
	return nil
}

func expandMonthly(name string, monthly []float64, year int) *timeseries.Series {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	values := make([]float64, timeslice.HoursInYear(year))
	for i := range values {
		t := start.Add(time.Duration(i) * time.Hour)
		values[i] = monthly[int(t.Month())-1]
	}
	return timeseries.New(name, start, time.Hour, values)
}

func (f *File) parsePattern(header []string, rows [][]string, year int) error {
	nameIdx, patternIdx, valueIdx, bandIdx := -1, -1, -1, -1
	for i, h := range header {
		switch h {
		case "name":
			nameIdx = i
		case "pattern":
			patternIdx = i
		case "value":
			valueIdx = i
		case "band":
			bandIdx = i
		}
	}
	if nameIdx < 0 || patternIdx < 0 || valueIdx < 0 {
		return fmt.Errorf("pattern file needs name, pattern, value columns, got %v", header)
	}

	type groupKey struct {
		name string
		band int
	}
	values := make(map[groupKey][]float64)
	order := []groupKey{}
	for _, row := range rows {
		if len(row) <= nameIdx || len(row) <= patternIdx || len(row) <= valueIdx {
			return fmt.Errorf("short pattern row %v", row)
		}
		name := strings.ToLower(strings.TrimSpace(row[nameIdx]))
		band := 1
		if bandIdx >= 0 && bandIdx < len(row) && strings.TrimSpace(row[bandIdx]) != "" {
			b, err := strconv.Atoi(strings.TrimSpace(row[bandIdx]))
			if err != nil {
				return fmt.Errorf("bad band %q: %w", row[bandIdx], err)
			}
			band = b
		}
		v, err := parseFloat(row[valueIdx])
		if err != nil {
			return err
		}
		pat, err := timeslice.Parse(row[patternIdx])
		if err != nil {
			return err
		}

		key := groupKey{name: name, band: band}
		hours, ok := values[key]
		if !ok {
			hours = make([]float64, timeslice.HoursInYear(year))
			values[key] = hours
			order = append(order, key)
		}
		for _, h := range pat.Hours(year) {
			hours[h] = v
		}
	}

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, key := range order {
		entryName := key.name
		if key.band > 1 {
			entryName = BandKey(key.name, key.band)
		}
		f.entries[entryName] = SeriesPayload(
			timeseries.New(entryName, start, time.Hour, values[key]))
	}
	return nil
}

func (f *File) parseHourly(header []string, rows [][]string, year int) error {
	monthIdx, dayIdx, periodIdx := -1, -1, -1
	var components []int
	for i, h := range header {
		switch h {
		case "year":
			// optional, the expansion year comes from configuration
		case "month":
			monthIdx = i
		case "day":
			dayIdx = i
		case "period", "hour":
			periodIdx = i
		default:
			components = append(components, i)
		}
	}
	if monthIdx < 0 || dayIdx < 0 || periodIdx < 0 {
		return fmt.Errorf("hourly file needs month, day, period columns, got %v", header)
	}

	n := timeslice.HoursInYear(year)
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	series := make(map[int][]float64, len(components))
	for _, c := range components {
		series[c] = make([]float64, n)
	}

	for _, row := range rows {
		month, err := strconv.Atoi(strings.TrimSpace(row[monthIdx]))
		if err != nil {
			return fmt.Errorf("bad month %q: %w", row[monthIdx], err)
		}
		day, err := strconv.Atoi(strings.TrimSpace(row[dayIdx]))
		if err != nil {
			return fmt.Errorf("bad day %q: %w", row[dayIdx], err)
		}
		period, err := strconv.Atoi(strings.TrimSpace(row[periodIdx]))
		if err != nil {
			return fmt.Errorf("bad period %q: %w", row[periodIdx], err)
		}
		at := time.Date(year, time.Month(month), day, period-1, 0, 0, 0, time.UTC)
		idx := int(at.Sub(start) / time.Hour)
		if idx < 0 || idx >= n {
			return fmt.Errorf("observation %d-%d period %d outside year %d", month, day, period, year)
		}
		for _, c := range components {
			if c >= len(row) {
				continue
			}
			v, err := parseFloat(row[c])
			if err != nil {
				return err
			}
			series[c][idx] = v
		}
	}

	for _, c := range components {
		name := strings.ToLower(strings.TrimSpace(header[c]))
		f.entries[name] = SeriesPayload(timeseries.New(name, start, time.Hour, series[c]))
	}
	return nil
}

func parseFloat(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("bad numeric value %q: %w", s, err)
	}
	return v, nil
}
