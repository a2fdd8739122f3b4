// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package timeslice parses PLEXOS recurring-period patterns such as
// "M5-10", "M11-12,M1-4" or "M7-9;H13-18" and expands them to the hours
// of a calendar year they cover. Within a pattern, semicolons join
// constraints that must all hold and commas join alternatives.
package timeslice

import (
	"fmt"
	"strings"
	"time"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
	"github.com/samber/oops"
)

var patternLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Unit", Pattern: `[MHWD]`},
	{Name: "Int", Pattern: `\d+`},
	{Name: "Punct", Pattern: `[,;-]`},
	{Name: "whitespace", Pattern: `\s+`},
})

// Pattern is one or more alternatives; a moment matches the pattern if it
// matches any alternative.
type Pattern struct {
	Terms []*Term `parser:"@@ (',' @@)*"`
}

// Term is a conjunction of ranges; a moment matches the term only if it
// satisfies every range.
type Term struct {
	Ranges []*Range `parser:"@@ (';' @@)*"`
}

// Range is a unit-prefixed inclusive interval: M (month 1-12), D (day of
// month 1-31), W (weekday 1=Monday..7=Sunday), H (period of day 1-24).
// A single value like "M5" is the degenerate range 5-5. From greater than
// To wraps around the unit's cycle.
type Range struct {
	Unit string `parser:"@Unit"`
	From int    `parser:"@Int"`
	To   *int   `parser:"('-' @Int)?"`
}

var parser *participle.Parser[Pattern]

func init() {
	var err error
	parser, err = participle.Build[Pattern](participle.Lexer(patternLexer))
	if err != nil {
		panic(fmt.Sprintf("failed to build timeslice pattern parser: %v", err))
	}
}

var unitBounds = map[string][2]int{
	"M": {1, 12},
	"D": {1, 31},
	"W": {1, 7},
	"H": {1, 24},
}

// Parse parses a pattern string into its AST, validating unit bounds.
func Parse(text string) (*Pattern, error) {
	pat, err := parser.ParseString("", strings.TrimSpace(text))
	if err != nil {
		return nil, oops.Code("TIMESLICE_PARSE_FAILED").
			With("pattern", text).
			Wrapf(err, "parsing timeslice pattern")
	}
	for _, term := range pat.Terms {
		for _, r := range term.Ranges {
			if err := r.validate(); err != nil {
				return nil, oops.Code("TIMESLICE_PARSE_FAILED").
					With("pattern", text).
					Wrap(err)
			}
		}
	}
	return pat, nil
}

// isPattern reports whether a timeslice name looks like a recurring-period
// pattern rather than a plain label.
func isPattern(name string) bool {
	_, err := Parse(name)
	return err == nil
}

func (r *Range) validate() error {
	bounds, ok := unitBounds[r.Unit]
	if !ok {
		return fmt.Errorf("unknown pattern unit %q", r.Unit)
	}
	to := r.From
	if r.To != nil {
		to = *r.To
	}
	if r.From < bounds[0] || r.From > bounds[1] || to < bounds[0] || to > bounds[1] {
		return fmt.Errorf("range %s%d-%d outside %d..%d", r.Unit, r.From, to, bounds[0], bounds[1])
	}
	return nil
}

// contains reports whether v falls inside the range, wrapping around the
// unit cycle when From exceeds To.
func (r *Range) contains(v int) bool {
	to := r.From
	if r.To != nil {
		to = *r.To
	}
	if r.From <= to {
		return v >= r.From && v <= to
	}
	return v >= r.From || v <= to
}

// Matches reports whether the pattern covers the given instant. The hour
// is interpreted as PLEXOS period-of-day, so 00:00 is period 1.
func (p *Pattern) Matches(t time.Time) bool {
	for _, term := range p.Terms {
		if term.matches(t) {
			return true
		}
	}
	return false
}

func (term *Term) matches(t time.Time) bool {
	for _, r := range term.Ranges {
		var v int
		switch r.Unit {
		case "M":
			v = int(t.Month())
		case "D":
			v = t.Day()
		case "W":
			v = weekday(t)
		case "H":
			v = t.Hour() + 1
		}
		if !r.contains(v) {
			return false
		}
	}
	return true
}

// weekday maps Go's Sunday-first weekday to the 1=Monday..7=Sunday
// convention.
func weekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// HourMask expands the pattern over a calendar year: one bool per hour of
// the year (8760, or 8784 in leap years), true where the pattern matches.
func (p *Pattern) HourMask(year int) []bool {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	n := HoursInYear(year)
	mask := make([]bool, n)
	for i := range n {
		mask[i] = p.Matches(start.Add(time.Duration(i) * time.Hour))
	}
	return mask
}

// Hours returns the hour-of-year indices (0-based) the pattern covers.
func (p *Pattern) Hours(year int) []int {
	mask := p.HourMask(year)
	hours := make([]int, 0, len(mask))
	for i, on := range mask {
		if on {
			hours = append(hours, i)
		}
	}
	return hours
}

// HoursInYear returns 8784 for leap years, 8760 otherwise.
func HoursInYear(year int) int {
	if isLeap(year) {
		return 8784
	}
	return 8760
}

func isLeap(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
