// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package model

import (
	"sort"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/gridfold/gridfold/internal/timeseries"
)

type seriesKey struct {
	component ulid.ULID
	field     string
}

// System is the component graph for one parsed model, plus the attached
// time series. Lookup is by ULID, by upstream object id, or by class and
// name.
type System struct {
	Name string

	byID     map[ulid.ULID]*Component
	byObject map[int]*Component
	byName   map[string]map[string]*Component

	series map[seriesKey]*timeseries.Series
}

// NewSystem builds an empty system.
func NewSystem(name string) *System {
	return &System{
		Name:     name,
		byID:     make(map[ulid.ULID]*Component),
		byObject: make(map[int]*Component),
		byName:   make(map[string]map[string]*Component),
		series:   make(map[seriesKey]*timeseries.Series),
	}
}

// Add registers a component. A second component with the same class and
// name is an error.
func (s *System) Add(c *Component) error {
	if _, exists := s.byID[c.ID]; exists {
		return oops.Code("COMPONENT_DUPLICATE").
			With("component", c.Name).
			Errorf("component %q already registered", c.Name)
	}
	classed := s.byName[c.Class]
	if classed == nil {
		classed = make(map[string]*Component)
		s.byName[c.Class] = classed
	}
	if _, exists := classed[c.Name]; exists {
		return oops.Code("COMPONENT_DUPLICATE").
			With("class", c.Class).
			With("component", c.Name).
			Errorf("component %s/%q already registered", c.Class, c.Name)
	}
	s.byID[c.ID] = c
	classed[c.Name] = c
	if c.ObjectID != 0 {
		s.byObject[c.ObjectID] = c
	}
	return nil
}

// Get looks a component up by class and name.
func (s *System) Get(class, name string) (*Component, error) {
	if c, ok := s.byName[class][name]; ok {
		return c, nil
	}
	return nil, oops.Code("COMPONENT_NOT_FOUND").
		With("class", class).
		With("component", name).
		Errorf("component %s/%q not found", class, name)
}

// GetByID looks a component up by its ULID.
func (s *System) GetByID(id ulid.ULID) (*Component, error) {
	if c, ok := s.byID[id]; ok {
		return c, nil
	}
	return nil, oops.Code("COMPONENT_NOT_FOUND").
		With("id", id.String()).
		Errorf("component %s not found", id)
}

// GetByObjectID looks a component up by the upstream database object id.
func (s *System) GetByObjectID(objectID int) (*Component, error) {
	if c, ok := s.byObject[objectID]; ok {
		return c, nil
	}
	return nil, oops.Code("COMPONENT_NOT_FOUND").
		With("object_id", objectID).
		Errorf("component with object id %d not found", objectID)
}

// Components returns every component of a class, sorted by name.
func (s *System) Components(class string) []*Component {
	classed := s.byName[class]
	out := make([]*Component, 0, len(classed))
	for _, c := range classed {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// All returns every component, sorted by class then name.
func (s *System) All() []*Component {
	out := make([]*Component, 0, len(s.byID))
	for _, c := range s.byID {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Class != out[j].Class {
			return out[i].Class < out[j].Class
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Len returns the number of registered components.
func (s *System) Len() int { return len(s.byID) }

// AttachSeries stores a time series for a component field. The first
// attachment wins; later attachments for the same pair are ignored, which
// makes batch attachment idempotent.
func (s *System) AttachSeries(component ulid.ULID, field string, ts *timeseries.Series) bool {
	key := seriesKey{component: component, field: field}
	if _, exists := s.series[key]; exists {
		return false
	}
	s.series[key] = ts
	return true
}

// Series returns the time series attached to a component field.
func (s *System) Series(component ulid.ULID, field string) (*timeseries.Series, bool) {
	ts, ok := s.series[seriesKey{component: component, field: field}]
	return ts, ok
}

// HasSeries reports whether a component field already carries a series.
func (s *System) HasSeries(component ulid.ULID, field string) bool {
	_, ok := s.series[seriesKey{component: component, field: field}]
	return ok
}

// SeriesCount returns the number of attached series.
func (s *System) SeriesCount() int { return len(s.series) }
