// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package schema

import "strings"

// Class names as they appear in the input database's child_class column.
const (
	ClassGenerator = "Generator"
	ClassRegion    = "Region"
	ClassNode      = "Node"
	ClassLine      = "Line"
	ClassBattery   = "Battery"
	ClassReserve   = "Reserve"
	ClassDatafile  = "Data File"
	ClassVariable  = "Variable"
	ClassTimeslice = "Timeslice"
)

// Catalog holds the class specs for every modeled class.
var Catalog = map[string]*ClassSpec{
	ClassGenerator: NewClassSpec(ClassGenerator,
		FieldSpec{DisplayName: "Max Capacity", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Min Stable Level", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Rating", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Rating Factor", Units: "%", AllowBands: true},
		FieldSpec{DisplayName: "Heat Rate", Units: "GJ/MWh", AllowBands: true},
		FieldSpec{DisplayName: "Forced Outage Rate", Units: "%", AllowBands: false},
		FieldSpec{DisplayName: "Maintenance Rate", Units: "%", AllowBands: false},
		FieldSpec{DisplayName: "Units", AllowBands: false, IsEnum: true},
		FieldSpec{DisplayName: "Fuel Price", Units: "$/GJ", AllowBands: true},
		FieldSpec{DisplayName: "VO&M Charge", Name: "vom_charge", Units: "$/MWh", AllowBands: true},
		FieldSpec{DisplayName: "Fixed Load", Units: "MW", AllowBands: true},
	),
	ClassRegion: NewClassSpec(ClassRegion,
		FieldSpec{DisplayName: "Load", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Load Scalar", AllowBands: true},
		FieldSpec{DisplayName: "Fixed Load", Units: "MW", AllowBands: true},
	),
	ClassNode: NewClassSpec(ClassNode,
		FieldSpec{DisplayName: "Load Participation Factor", AllowBands: true},
		FieldSpec{DisplayName: "Voltage", Units: "kV", AllowBands: false},
	),
	ClassLine: NewClassSpec(ClassLine,
		FieldSpec{DisplayName: "Max Flow", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Min Flow", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Resistance", AllowBands: false},
		FieldSpec{DisplayName: "Reactance", AllowBands: false},
	),
	ClassBattery: NewClassSpec(ClassBattery,
		FieldSpec{DisplayName: "Max Power", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Capacity", Units: "MWh", AllowBands: true},
		FieldSpec{DisplayName: "Charge Efficiency", Units: "%", AllowBands: false},
		FieldSpec{DisplayName: "Discharge Efficiency", Units: "%", AllowBands: false},
		FieldSpec{DisplayName: "Units", AllowBands: false, IsEnum: true},
	),
	ClassReserve: NewClassSpec(ClassReserve,
		FieldSpec{DisplayName: "Min Provision", Units: "MW", AllowBands: true},
		FieldSpec{DisplayName: "Timeframe", Units: "s", AllowBands: false},
		FieldSpec{DisplayName: "Type", AllowBands: false, IsEnum: true},
	),
	ClassDatafile: NewClassSpec(ClassDatafile,
		FieldSpec{DisplayName: "Filename", AllowBands: true, IsText: true},
	),
	ClassVariable: NewClassSpec(ClassVariable,
		FieldSpec{DisplayName: "Profile", AllowBands: true},
	),
	ClassTimeslice: NewClassSpec(ClassTimeslice,
		FieldSpec{DisplayName: "Include", AllowBands: true, IsText: true},
	),
}

// Lookup resolves a field spec for a class and property display name.
// Unknown classes and unknown properties both report not-found; callers
// fall back to a permissive spec for properties outside the catalog.
func Lookup(class, property string) (FieldSpec, bool) {
	cs, ok := Catalog[canonicalClass(class)]
	if !ok {
		return FieldSpec{}, false
	}
	return cs.Field(property)
}

// Permissive returns the spec used for properties the catalog does not
// describe: snake_case name, bands allowed, no validation.
func Permissive(property string) FieldSpec {
	return FieldSpec{Name: ToSnakeCase(property), DisplayName: property, AllowBands: true}
}

// canonicalClass tolerates the underscore and case variants the input
// databases use for class tags.
func canonicalClass(class string) string {
	normalized := strings.ToLower(strings.ReplaceAll(class, "_", " "))
	for name := range Catalog {
		if strings.ToLower(name) == normalized {
			return name
		}
	}
	return class
}
