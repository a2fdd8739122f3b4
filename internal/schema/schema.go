// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package schema describes the modeled component classes: which fields
// each class carries, how PLEXOS display names map onto field names, and
// the per-field validation rules applied at assignment time.
package schema

import (
	"strings"
	"unicode"

	"github.com/samber/oops"

	"github.com/gridfold/gridfold/internal/overlay"
)

// FieldSpec is the validation and metadata descriptor for one property
// field on a class.
type FieldSpec struct {
	// Name is the snake_case field name used on components.
	Name string
	// DisplayName is the PLEXOS property display name, e.g. "Max Capacity".
	DisplayName string
	// Units applied to an overlay that arrives without its own.
	Units string
	// AllowBands is false for fields that must stay single-band, such as
	// outage rates.
	AllowBands bool
	// IsEnum restricts values to whole numbers.
	IsEnum bool
	// IsText marks fields whose payload is a string rather than a number,
	// such as a datafile's filename.
	IsText bool
}

// ClassSpec is the field catalog for one component class.
type ClassSpec struct {
	Name    string
	Fields  map[string]FieldSpec
	aliases map[string]string
}

// NewClassSpec builds a class catalog from its field specs. Both the
// display name and the snake_case name resolve a field.
func NewClassSpec(name string, fields ...FieldSpec) *ClassSpec {
	cs := &ClassSpec{
		Name:    name,
		Fields:  make(map[string]FieldSpec, len(fields)),
		aliases: make(map[string]string, len(fields)*2),
	}
	for _, f := range fields {
		if f.Name == "" {
			f.Name = ToSnakeCase(f.DisplayName)
		}
		cs.Fields[f.Name] = f
		cs.aliases[f.Name] = f.Name
		if f.DisplayName != "" {
			cs.aliases[strings.ToLower(f.DisplayName)] = f.Name
			cs.aliases[ToSnakeCase(f.DisplayName)] = f.Name
		}
	}
	return cs
}

// Field resolves a field spec from a display name or a snake_case name.
func (cs *ClassSpec) Field(name string) (FieldSpec, bool) {
	fieldName, ok := cs.aliases[strings.ToLower(name)]
	if !ok {
		fieldName, ok = cs.aliases[ToSnakeCase(name)]
	}
	if !ok {
		return FieldSpec{}, false
	}
	return cs.Fields[fieldName], true
}

// Validate checks an overlay against the field's constraints and applies
// default units. Violations are fatal to the assignment.
func (f FieldSpec) Validate(o *overlay.Overlay) error {
	if !f.AllowBands && len(o.Bands()) > 1 {
		return oops.Code("FIELD_BANDS_FORBIDDEN").
			With("field", f.Name).
			With("bands", len(o.Bands())).
			Errorf("multi-band values not allowed for field %q", f.Name)
	}
	if f.IsEnum {
		for _, rec := range o.Records() {
			if rec.Value == nil {
				continue
			}
			if err := f.validateEnumValue(*rec.Value); err != nil {
				return err
			}
		}
	}
	if f.Units != "" && o.Units == "" {
		o.Units = f.Units
	}
	return nil
}

// ValidateScalar checks a plain numeric value against the field's
// constraints.
func (f FieldSpec) ValidateScalar(v float64) error {
	if f.IsEnum {
		return f.validateEnumValue(v)
	}
	return nil
}

func (f FieldSpec) validateEnumValue(v float64) error {
	if v != float64(int64(v)) {
		return oops.Code("FIELD_ENUM_NOT_INTEGRAL").
			With("field", f.Name).
			With("value", v).
			Errorf("enum field %q requires whole number, got %v", f.Name, v)
	}
	return nil
}

// ToSnakeCase converts a display name or camelCase identifier to
// snake_case: spaces become underscores and an underscore is inserted
// before an upper-case letter that follows a lower-case letter or digit.
func ToSnakeCase(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 4)
	prev := rune(0)
	for _, r := range s {
		switch {
		case r == ' ' || r == '-':
			if prev != '_' && b.Len() > 0 {
				b.WriteRune('_')
				prev = '_'
			}
			continue
		case unicode.IsUpper(r):
			if b.Len() > 0 && prev != '_' && !unicode.IsUpper(prev) {
				b.WriteRune('_')
			}
			b.WriteRune(unicode.ToLower(r))
			prev = r
			continue
		}
		b.WriteRune(r)
		prev = r
	}
	return b.String()
}
