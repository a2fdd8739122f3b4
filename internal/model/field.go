// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package model holds the component graph built from an input database:
// typed components keyed by class and name, their property fields, the
// memberships between them, and the attached time series.
package model

import (
	"github.com/gridfold/gridfold/internal/overlay"
)

// FieldKind discriminates what a component field currently stores.
type FieldKind int

const (
	FieldEmpty FieldKind = iota
	FieldScalar
	FieldOverlay
	FieldText
)

// Field is the tagged variant stored per property field. A field starts
// life as a scalar, a text payload, or a full overlay; reads resolve the
// overlay form on demand rather than eagerly.
type Field struct {
	kind    FieldKind
	scalar  float64
	overlay *overlay.Overlay
	text    string
}

// ScalarField wraps a plain number.
func ScalarField(v float64) Field { return Field{kind: FieldScalar, scalar: v} }

// OverlayField wraps a property overlay.
func OverlayField(o *overlay.Overlay) Field { return Field{kind: FieldOverlay, overlay: o} }

// TextField wraps a string payload.
func TextField(s string) Field { return Field{kind: FieldText, text: s} }

// Kind returns the variant tag.
func (f Field) Kind() FieldKind { return f.kind }

// Scalar returns the plain number when the field stores one.
func (f Field) Scalar() (float64, bool) {
	return f.scalar, f.kind == FieldScalar
}

// Overlay returns the raw overlay when the field stores one.
func (f Field) Overlay() (*overlay.Overlay, bool) {
	return f.overlay, f.kind == FieldOverlay
}

// Text returns the string payload when the field stores one.
func (f Field) Text() (string, bool) {
	return f.text, f.kind == FieldText
}

// Resolve collapses the field to a resolved value under the ambient
// resolution context. Scalars pass through; overlays run the resolution
// cascade; text and empty fields resolve to Empty.
func (f Field) Resolve() overlay.Value {
	switch f.kind {
	case FieldScalar:
		return overlay.Scalar(f.scalar)
	case FieldOverlay:
		return f.overlay.Value()
	default:
		return overlay.Empty()
	}
}
