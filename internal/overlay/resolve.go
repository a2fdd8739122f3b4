// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package overlay

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// DateRange is an inclusive ISO-date window.
type DateRange struct {
	From string
	To   string
}

// Kind discriminates the shapes a resolved value can take.
type Kind int

const (
	// KindEmpty means resolution found nothing (empty overlay, or the
	// horizon excluded every entry).
	KindEmpty Kind = iota
	// KindScalar is a single concrete number.
	KindScalar
	// KindByScenario maps scenario name to value.
	KindByScenario
	// KindByTimeslice maps timeslice name to value.
	KindByTimeslice
	// KindByBand maps band number to value.
	KindByBand
)

// Value is the result of resolving an overlay: a scalar, a grouped map keyed
// by scenario, timeslice or band, or nothing. Consumers switch on Kind
// instead of duck-typing.
type Value struct {
	kind   Kind
	scalar float64
	byName map[string]float64
	byBand map[int]float64
}

// Empty is the resolved value of an overlay with no applicable entries.
func Empty() Value { return Value{} }

// Scalar wraps a single concrete number.
func Scalar(v float64) Value { return Value{kind: KindScalar, scalar: v} }

// ByScenario wraps a scenario-keyed map.
func ByScenario(m map[string]float64) Value { return Value{kind: KindByScenario, byName: m} }

// ByTimeslice wraps a timeslice-keyed map.
func ByTimeslice(m map[string]float64) Value { return Value{kind: KindByTimeslice, byName: m} }

// ByBand wraps a band-keyed map.
func ByBand(m map[int]float64) Value { return Value{kind: KindByBand, byBand: m} }

// Kind returns the value's shape.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether resolution produced nothing.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Scalar returns the concrete number and whether the value is scalar.
func (v Value) Scalar() (float64, bool) { return v.scalar, v.kind == KindScalar }

// Grouped returns the name-keyed map for scenario- or timeslice-shaped
// values.
func (v Value) Grouped() (map[string]float64, bool) {
	return v.byName, v.kind == KindByScenario || v.kind == KindByTimeslice
}

// Bands returns the band-keyed map for band-shaped values.
func (v Value) Bands() (map[int]float64, bool) { return v.byBand, v.kind == KindByBand }

// Equal reports semantic equality between two resolved values.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindScalar:
		return v.scalar == other.scalar
	case KindByScenario, KindByTimeslice:
		return mapsEqual(v.byName, other.byName)
	case KindByBand:
		return mapsEqual(v.byBand, other.byBand)
	default:
		return true
	}
}

func (v Value) String() string {
	switch v.kind {
	case KindScalar:
		return fmt.Sprintf("%g", v.scalar)
	case KindByScenario, KindByTimeslice:
		names := make([]string, 0, len(v.byName))
		for name := range v.byName {
			names = append(names, name)
		}
		sort.Strings(names)
		parts := make([]string, 0, len(names))
		for _, name := range names {
			parts = append(parts, fmt.Sprintf("%s: %g", name, v.byName[name]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	case KindByBand:
		bands := make([]int, 0, len(v.byBand))
		for band := range v.byBand {
			bands = append(bands, band)
		}
		sort.Ints(bands)
		parts := make([]string, 0, len(bands))
		for _, band := range bands {
			parts = append(parts, fmt.Sprintf("%d: %g", band, v.byBand[band]))
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return "<empty>"
	}
}

func mapsEqual[K comparable](a, b map[K]float64) bool {
	if len(a) != len(b) {
		return false
	}
	for k, av := range a {
		bv, ok := b[k]
		if !ok || av != bv {
			return false
		}
	}
	return true
}

// Resolve collapses the overlay to a concrete value under the given context.
// Resolution is a pure function of overlay state and context: the live
// overlay is never mutated, so repeated calls with the same inputs yield the
// same result.
//
// Order: the horizon filter runs first (a date filter must apply before any
// precedence decision), then priority-based resolution when a scenario
// ranking is active, then the fixed no-priority cascade.
func (o *Overlay) Resolve(ctx Context) Value {
	if len(o.entries) == 0 {
		return Empty()
	}
	if ctx.Horizon != nil {
		filtered := o.filterHorizon(*ctx.Horizon)
		if filtered.Len() == 0 {
			return Empty()
		}
		return filtered.resolve(ctx)
	}
	return o.resolve(ctx)
}

// Value resolves against the ambient context. See Resolve.
func (o *Overlay) Value() Value {
	return o.Resolve(Current())
}

// filterHorizon builds a new overlay view containing every dateless entry
// (they apply to all periods) plus every dated entry whose inclusive range
// overlaps the window. ISO strings compare lexicographically.
func (o *Overlay) filterHorizon(h DateRange) *Overlay {
	filtered := New()
	filtered.Units = o.Units
	filtered.Action = o.Action
	for _, key := range o.order {
		if key.hasDates() {
			from := key.DateFrom
			if from == "" {
				from = "0000-00-00"
			}
			to := key.DateTo
			if to == "" {
				to = "9999-99-99"
			}
			if from > h.To || to < h.From {
				continue
			}
		}
		entry := o.entries[key]
		filtered.entries[key] = entry
		filtered.order = append(filtered.order, key)
		filtered.index(key)
	}
	return filtered
}

func (o *Overlay) resolve(ctx Context) Value {
	if len(ctx.Priority) > 0 {
		return o.resolveByPriority(ctx.Priority)
	}

	defaultKey := Key{Band: 1}
	pureDefault, hasPureDefault := o.entries[defaultKey]
	scenarios := o.Scenarios()
	timeslices := o.Timeslices()
	bands := o.Bands()

	nonScenarioTimeslices := o.nonScenarioTimeslices()
	hasNonScenarioBands := o.hasNonScenarioBands()

	// An explicit default always wins over scenario/timeslice variation
	// once both exist.
	if hasPureDefault && len(o.entries) > 1 && (len(scenarios) > 0 || len(timeslices) > 0) {
		return scalarOrEmpty(pureDefault.Value)
	}

	if len(scenarios) > 0 && len(nonScenarioTimeslices) > 0 {
		grouped := make(map[string]float64, len(nonScenarioTimeslices))
		for _, ts := range nonScenarioTimeslices {
			if v := o.ValueFor(Lookup{Timeslice: ts}); v != nil {
				grouped[ts] = *v
			}
		}
		return ByTimeslice(grouped)
	}

	if len(scenarios) > 0 && hasNonScenarioBands {
		return scalarOrEmpty(o.ValueFor(Lookup{Band: 1}))
	}

	if len(scenarios) > 0 {
		return o.resolveScenarios(scenarios, bands)
	}

	if len(timeslices) > 0 {
		return o.resolveTimeslices(timeslices)
	}

	if o.HasBands() {
		grouped := make(map[int]float64, len(bands))
		for _, band := range bands {
			if v := o.ValueFor(Lookup{Band: band}); v != nil {
				grouped[band] = *v
			}
		}
		return ByBand(grouped)
	}

	return scalarOrEmpty(o.ValueFor(Lookup{}))
}

// resolveByPriority ranks candidates by the active scenario priority where a
// smaller number wins. Entries with no scenario rank last; entries whose
// scenario is absent from the ranking rank just above them. Simple entries
// (default band, no timeslice, no dates) are preferred whenever any exist.
func (o *Overlay) resolveByPriority(priority map[string]int) Value {
	type candidate struct {
		value *float64
		rank  float64
		order int
	}
	var simple, composite []candidate

	for i, key := range o.order {
		var rank float64
		switch {
		case key.Scenario == "":
			rank = math.Inf(1)
		default:
			if p, ok := priority[key.Scenario]; ok {
				rank = float64(p)
			} else {
				rank = math.MaxFloat64
			}
		}
		c := candidate{value: o.entries[key].Value, rank: rank, order: i}
		if key.isSimple() {
			simple = append(simple, c)
		} else {
			composite = append(composite, c)
		}
	}

	candidates := simple
	if len(candidates) == 0 {
		candidates = composite
	}
	if len(candidates) == 0 {
		return scalarOrEmpty(o.ValueFor(Lookup{}))
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].rank != candidates[j].rank {
			return candidates[i].rank < candidates[j].rank
		}
		return candidates[i].order < candidates[j].order
	})
	return scalarOrEmpty(candidates[0].value)
}

func (o *Overlay) resolveScenarios(scenarios []string, bands []int) Value {
	// A single scenario covering every entry resolves unwrapped, unless the
	// property is also multi-banded: sparse scenario coverage must not hide
	// the band structure.
	if len(scenarios) == 1 && len(o.entries) == len(o.byScenario[scenarios[0]]) {
		v := o.ValueFor(Lookup{Scenario: scenarios[0]})
		if len(bands) > 1 {
			grouped := make(map[string]float64, 1)
			if v != nil {
				grouped[scenarios[0]] = *v
			}
			return ByScenario(grouped)
		}
		return scalarOrEmpty(v)
	}

	grouped := make(map[string]float64, len(scenarios))
	for _, scenario := range scenarios {
		if v := o.ValueFor(Lookup{Scenario: scenario}); v != nil {
			grouped[scenario] = *v
		}
	}
	return ByScenario(grouped)
}

func (o *Overlay) resolveTimeslices(timeslices []string) Value {
	if len(timeslices) == 1 {
		return scalarOrEmpty(o.ValueFor(Lookup{Timeslice: timeslices[0]}))
	}
	grouped := make(map[string]float64, len(timeslices))
	for _, ts := range timeslices {
		if v := o.ValueFor(Lookup{Timeslice: ts}); v != nil {
			grouped[ts] = *v
		}
	}
	return ByTimeslice(grouped)
}

// nonScenarioTimeslices lists timeslices carried by entries that have no
// scenario, sorted.
func (o *Overlay) nonScenarioTimeslices() []string {
	seen := make(map[string]struct{})
	for key := range o.entries {
		if key.Scenario == "" && key.Timeslice != "" {
			seen[key.Timeslice] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// hasNonScenarioBands reports whether any entry carries a non-default band
// without a scenario tag.
func (o *Overlay) hasNonScenarioBands() bool {
	for key := range o.entries {
		if key.Scenario == "" && key.Band != 1 {
			return true
		}
	}
	return false
}

// Lookup names the dimensions for an explicit value lookup. A zero Band
// means the default band 1.
type Lookup struct {
	Scenario  string
	Band      int
	Timeslice string
	DateFrom  string
	DateTo    string
}

// ValueFor looks up a value for specific dimensions with fallback: exact key
// first, then progressively dropping dates, scenario and timeslice, then any
// entry sharing the band (sorted for determinism), then the first entry in
// insertion order. Returns nil only when the overlay is empty.
func (o *Overlay) ValueFor(l Lookup) *float64 {
	band := l.Band
	if band == 0 {
		band = 1
	}

	key := Key{Scenario: l.Scenario, Band: band, Timeslice: l.Timeslice, DateFrom: l.DateFrom, DateTo: l.DateTo}
	if e, ok := o.entries[key]; ok {
		return e.Value
	}

	if l.DateFrom != "" || l.DateTo != "" {
		key = Key{Scenario: l.Scenario, Band: band, Timeslice: l.Timeslice}
		if e, ok := o.entries[key]; ok {
			return e.Value
		}
	}

	if l.Scenario != "" {
		if set, ok := o.byScenario[l.Scenario]; ok && len(set) > 0 {
			keys := sortKeys(set, func(a, b Key) bool {
				if a.Timeslice != b.Timeslice {
					return a.Timeslice < b.Timeslice
				}
				return a.Band < b.Band
			})
			e := o.entries[keys[0]]
			return e.Value
		}
	}

	if l.Timeslice != "" {
		if set, ok := o.byTimeslice[l.Timeslice]; ok && len(set) > 0 {
			keys := sortKeys(set, func(a, b Key) bool {
				if a.Band != b.Band {
					return a.Band < b.Band
				}
				return a.Scenario < b.Scenario
			})
			e := o.entries[keys[0]]
			return e.Value
		}
	}

	if l.Scenario != "" {
		key = Key{Band: band, Timeslice: l.Timeslice}
		if e, ok := o.entries[key]; ok {
			return e.Value
		}
	}

	if l.Timeslice != "" {
		key = Key{Scenario: l.Scenario, Band: band}
		if e, ok := o.entries[key]; ok {
			return e.Value
		}
	}

	key = Key{Band: band}
	if e, ok := o.entries[key]; ok {
		return e.Value
	}

	if set, ok := o.byBand[band]; ok && len(set) > 0 {
		keys := sortKeys(set, func(a, b Key) bool {
			if a.Scenario != b.Scenario {
				return a.Scenario < b.Scenario
			}
			if a.Timeslice != b.Timeslice {
				return a.Timeslice < b.Timeslice
			}
			return a.DateFrom < b.DateFrom
		})
		e := o.entries[keys[0]]
		return e.Value
	}

	if len(o.order) > 0 {
		e := o.entries[o.order[0]]
		return e.Value
	}
	return nil
}

func sortKeys(set keySet, less func(a, b Key) bool) []Key {
	keys := make([]Key, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return less(keys[i], keys[j]) })
	return keys
}

func scalarOrEmpty(v *float64) Value {
	if v == nil {
		return Empty()
	}
	return Scalar(*v)
}
