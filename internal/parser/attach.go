// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package parser

import (
	"math"
	"time"

	"github.com/samber/oops"

	"github.com/gridfold/gridfold/internal/datafile"
	"github.com/gridfold/gridfold/internal/model"
	"github.com/gridfold/gridfold/internal/overlay"
	"github.com/gridfold/gridfold/internal/schema"
	"github.com/gridfold/gridfold/internal/timeseries"
)

// BuildTimeSeries resolves every registered reference in a best-effort
// batch. One bad file or missing component fails its own reference and
// nothing else; each (component, field) pair is resolved at most once.
func (p *Parser) BuildTimeSeries(refs []Reference) BatchResult {
	var result BatchResult
	for _, ref := range refs {
		key := refKey{component: ref.ComponentID, field: ref.FieldName}
		if p.resolved[key] {
			result.Skipped++
			ReferenceResolutions.WithLabelValues(ref.Source.String(), StatusSkipped).Inc()
			continue
		}

		status, err := p.resolveReference(ref)
		if err != nil {
			result.Failures = append(result.Failures, Outcome{Ref: ref, Err: oops.
				With("component", ref.ComponentName).
				With("field", ref.FieldName).
				With("source", ref.Source.String()).
				Wrap(err)})
			ReferenceResolutions.WithLabelValues(ref.Source.String(), StatusFailed).Inc()
			continue
		}

		p.resolved[key] = true
		switch status {
		case StatusAttached:
			result.Attached++
		case StatusUpdated:
			result.Updated++
		}
		ReferenceResolutions.WithLabelValues(ref.Source.String(), status).Inc()
	}
	return result
}

func (p *Parser) resolveReference(ref Reference) (string, error) {
	c, err := p.system.GetByID(ref.ComponentID)
	if err != nil {
		return "", err
	}

	switch ref.Source {
	case SourceDirectDatafile:
		return p.resolveAgainstFile(c, ref, ref.DatafilePath)
	case SourceDatafileComponent:
		path, err := p.datafileComponentPath(ref.DatafileComponent)
		if err != nil {
			return "", err
		}
		return p.resolveAgainstFile(c, ref, path)
	case SourceVariable:
		return p.resolveVariable(c, ref)
	default:
		return "", oops.Errorf("unknown reference source %d", int(ref.Source))
	}
}

// resolveAgainstFile loads a datafile and applies its payload to the
// referencing component's field: scalars update the property value,
// series attach (after any action combine with the entry's variable),
// and multi-band payloads attach per band with the property updated to
// the maximum across bands.
func (p *Parser) resolveAgainstFile(c *model.Component, ref Reference, raw string) (string, error) {
	before := p.store.CacheSize()
	f, err := p.store.Load(raw)
	if err != nil {
		return "", err
	}
	if p.store.CacheSize() > before {
		DatafilesParsed.Inc()
	}

	bands := f.BandPayloads(ref.Column())
	if len(bands) == 0 {
		return "", oops.Code("PROPERTY_NOT_FOUND").
			With("column", ref.Column()).
			With("path", f.Path).
			Errorf("datafile carries no data for %q", ref.Column())
	}

	operand, hasOperand := 0.0, false
	if ref.VariableName != "" {
		operand, err = p.variableScalar(ref.VariableName)
		if err != nil {
			return "", err
		}
		hasOperand = true
	}

	if len(bands) == 1 {
		// A single band beyond the first still attaches under its key.
		for band, payload := range bands {
			return p.applyPayload(c, ref, bandField(ref.FieldName, band), payload, operand, hasOperand)
		}
	}

	maxAcross := math.Inf(-1)
	for band, payload := range bands {
		field := bandField(ref.FieldName, band)
		peak, err := p.attachBand(c, ref, field, payload, operand, hasOperand)
		if err != nil {
			return "", err
		}
		maxAcross = math.Max(maxAcross, peak)
	}
	c.SetField(ref.FieldName, model.ScalarField(maxAcross))
	return StatusAttached, nil
}

func bandField(field string, band int) string {
	if band <= 1 {
		return field
	}
	return datafile.BandKey(field, band)
}

// applyPayload handles a single-band payload: scalar payloads update the
// property, constant series collapse to a scalar update, and varying
// series attach.
func (p *Parser) applyPayload(c *model.Component, ref Reference, field string, payload datafile.Payload, operand float64, hasOperand bool) (string, error) {
	if v, ok := payload.Scalar(); ok {
		if hasOperand {
			combined, err := timeseries.ApplyAction(v, operand, ref.Action)
			if err != nil {
				return "", err
			}
			v = combined
		}
		c.SetField(field, model.ScalarField(v))
		return StatusUpdated, nil
	}

	s, _ := payload.Series()
	if hasOperand {
		combined, err := timeseries.ApplyActionSeries(s, ref.Action, operand)
		if err != nil {
			return "", err
		}
		s = combined
	}
	if v, constant := s.Constant(); constant {
		c.SetField(field, model.ScalarField(v))
		return StatusUpdated, nil
	}
	s = p.trimToHorizon(s)
	p.system.AttachSeries(c.ID, field, s)
	return StatusAttached, nil
}

// attachBand attaches one band's payload and returns its peak value for
// the max-across-bands property update.
func (p *Parser) attachBand(c *model.Component, ref Reference, field string, payload datafile.Payload, operand float64, hasOperand bool) (float64, error) {
	if v, ok := payload.Scalar(); ok {
		if hasOperand {
			combined, err := timeseries.ApplyAction(v, operand, ref.Action)
			if err != nil {
				return 0, err
			}
			v = combined
		}
		c.SetField(field, model.ScalarField(v))
		return v, nil
	}

	s, _ := payload.Series()
	if hasOperand {
		combined, err := timeseries.ApplyActionSeries(s, ref.Action, operand)
		if err != nil {
			return 0, err
		}
		s = combined
	}
	s = p.trimToHorizon(s)
	p.system.AttachSeries(c.ID, field, s)
	peak, _ := s.Max()
	return peak, nil
}

// resolveVariable handles a reference whose entry names a Variable: a
// constant profile applies directly through the action; a profile backed
// by datafile references resolves each against the variable's own file.
func (p *Parser) resolveVariable(c *model.Component, ref Reference) (string, error) {
	vc, err := p.system.Get(schema.ClassVariable, ref.VariableName)
	if err != nil {
		return "", err
	}
	f, ok := vc.Property("profile")
	if !ok {
		return "", oops.Code("PROPERTY_NOT_FOUND").
			With("variable", ref.VariableName).
			Errorf("variable %q has no profile", ref.VariableName)
	}

	if v, isScalar := f.Scalar(); isScalar {
		return p.applyVariableScalar(c, ref, v)
	}

	o, isOverlay := f.Overlay()
	if !isOverlay {
		return "", oops.Code("PROPERTY_NOT_FOUND").
			With("variable", ref.VariableName).
			Errorf("variable %q profile is not resolvable", ref.VariableName)
	}

	if !o.HasDatafile() && !o.HasText() {
		v, isScalar := o.Value().Scalar()
		if !isScalar {
			return "", oops.Code("PROPERTY_NOT_FOUND").
				With("variable", ref.VariableName).
				Errorf("variable %q profile does not resolve to a constant", ref.VariableName)
		}
		return p.applyVariableScalar(c, ref, v)
	}

	// Per-band datafile references resolve against the variable's file,
	// looked up by the variable's name, not the referencing component's.
	status := StatusUpdated
	for _, rec := range o.Records() {
		var raw string
		switch {
		case rec.DatafileName != "":
			raw, err = p.datafileComponentPath(rec.DatafileName)
			if err != nil {
				return "", err
			}
		case rec.TextClassName == schema.ClassDatafile && rec.Text != "":
			raw = rec.Text
		default:
			continue
		}

		bandRef := ref
		bandRef.ColumnName = rec.ColumnName
		bandRef.ComponentName = vc.Name
		bandStatus, err := p.resolveAgainstFile(c, bandRef, raw)
		if err != nil {
			return "", err
		}
		if bandStatus == StatusAttached {
			status = StatusAttached
		}
	}
	return status, nil
}

// applyVariableScalar combines a variable's constant with the field's
// current value through the entry's action.
func (p *Parser) applyVariableScalar(c *model.Component, ref Reference, v float64) (string, error) {
	base := 0.0
	if current, ok := c.Get(ref.FieldName).Scalar(); ok {
		base = current
	}
	combined, err := timeseries.ApplyAction(base, v, ref.Action)
	if err != nil {
		return "", err
	}
	c.SetField(ref.FieldName, model.ScalarField(combined))
	return StatusUpdated, nil
}

// variableScalar resolves a variable's profile to a single number.
func (p *Parser) variableScalar(name string) (float64, error) {
	vc, err := p.system.Get(schema.ClassVariable, name)
	if err != nil {
		return 0, err
	}
	f, ok := vc.Property("profile")
	if !ok {
		return 0, oops.Code("PROPERTY_NOT_FOUND").
			With("variable", name).
			Errorf("variable %q has no profile", name)
	}
	if v, isScalar := f.Resolve().Scalar(); isScalar {
		return v, nil
	}
	return 0, oops.Code("PROPERTY_NOT_FOUND").
		With("variable", name).
		Errorf("variable %q profile does not resolve to a scalar", name)
}

// datafileComponentPath resolves a Data File component's filename
// overlay to the literal path its entries carry.
func (p *Parser) datafileComponentPath(name string) (string, error) {
	dfc, err := p.system.Get(schema.ClassDatafile, name)
	if err != nil {
		return "", err
	}
	f, ok := dfc.Property("filename")
	if !ok {
		return "", oops.Code("DATAFILE_NO_FILENAME").
			With("datafile", name).
			Errorf("datafile %q has no filename", name)
	}
	if text, isText := f.Text(); isText && text != "" {
		return text, nil
	}
	if o, isOverlay := f.Overlay(); isOverlay {
		for _, rec := range o.Records() {
			if rec.Text != "" {
				return rec.Text, nil
			}
		}
	}
	return "", oops.Code("DATAFILE_NO_FILENAME").
		With("datafile", name).
		Errorf("datafile %q filename overlay carries no path", name)
}

// trimToHorizon clips a series to the ambient horizon window when one is
// set and parseable.
func (p *Parser) trimToHorizon(s *timeseries.Series) *timeseries.Series {
	h := overlay.Current().Horizon
	if h == nil {
		return s
	}
	from, errFrom := time.Parse("2006-01-02", h.From)
	to, errTo := time.Parse("2006-01-02", h.To)
	if errFrom != nil || errTo != nil {
		return s
	}
	// The window's end date covers its whole day.
	return s.Trim(from, to.Add(24*time.Hour-time.Nanosecond))
}
