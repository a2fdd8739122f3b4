// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package timeseries provides the in-memory time series type attached to
// component fields, plus the arithmetic combine operators used when a
// datafile or variable value is layered onto a base property value.
package timeseries

import (
	"time"

	"github.com/samber/oops"
)

// Series is a fixed-resolution sequence of values starting at a known
// timestamp. Values are stored densely; a missing observation has no
// representation.
type Series struct {
	Name       string
	Start      time.Time
	Resolution time.Duration
	Values     []float64
}

// New builds a Series over the given values. The slice is retained, not
// copied.
func New(name string, start time.Time, resolution time.Duration, values []float64) *Series {
	return &Series{Name: name, Start: start, Resolution: resolution, Values: values}
}

// Len returns the number of observations.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Values)
}

// End returns the timestamp of the last observation.
func (s *Series) End() time.Time {
	if s.Len() == 0 {
		return s.Start
	}
	return s.Start.Add(time.Duration(s.Len()-1) * s.Resolution)
}

// Constant reports whether every observation carries the same value, and
// returns that value. An empty series is not constant.
func (s *Series) Constant() (float64, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	first := s.Values[0]
	for _, v := range s.Values[1:] {
		if v != first {
			return 0, false
		}
	}
	return first, true
}

// Max returns the largest observation. An empty series has no maximum.
func (s *Series) Max() (float64, bool) {
	if s.Len() == 0 {
		return 0, false
	}
	max := s.Values[0]
	for _, v := range s.Values[1:] {
		if v > max {
			max = v
		}
	}
	return max, true
}

// Clone returns a deep copy with the same metadata.
func (s *Series) Clone() *Series {
	values := make([]float64, len(s.Values))
	copy(values, s.Values)
	return &Series{Name: s.Name, Start: s.Start, Resolution: s.Resolution, Values: values}
}

// Trim returns the sub-series whose observations fall inside [from, to]
// inclusive. Metadata is preserved; the start timestamp advances to the
// first retained observation. Trimming to a window that excludes every
// observation yields an empty series.
func (s *Series) Trim(from, to time.Time) *Series {
	if s.Len() == 0 {
		return s
	}
	lo := 0
	for lo < s.Len() && s.Start.Add(time.Duration(lo)*s.Resolution).Before(from) {
		lo++
	}
	hi := s.Len()
	for hi > lo && s.Start.Add(time.Duration(hi-1)*s.Resolution).After(to) {
		hi--
	}
	values := make([]float64, hi-lo)
	copy(values, s.Values[lo:hi])
	return &Series{
		Name:       s.Name,
		Start:      s.Start.Add(time.Duration(lo) * s.Resolution),
		Resolution: s.Resolution,
		Values:     values,
	}
}

// Validate checks the structural contract callers rely on.
func (s *Series) Validate() error {
	if s.Resolution <= 0 {
		return oops.Code("SERIES_INVALID").
			With("name", s.Name).
			With("resolution", s.Resolution.String()).
			Errorf("series resolution must be positive")
	}
	if len(s.Values) == 0 {
		return oops.Code("SERIES_INVALID").
			With("name", s.Name).
			Errorf("series has no observations")
	}
	return nil
}
