// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package parser

import (
	"log/slog"
	"strings"

	"github.com/samber/oops"

	"github.com/gridfold/gridfold/internal/model"
	"github.com/gridfold/gridfold/internal/overlay"
	"github.com/gridfold/gridfold/internal/plexdb"
	"github.com/gridfold/gridfold/internal/schema"
	"github.com/gridfold/gridfold/pkg/errutil"
)

// builder accumulates components and deferred references from the flat
// property rows.
type builder struct {
	system *model.System
	logger *slog.Logger
	refs   []Reference
}

type propertyGroup struct {
	component *model.Component
	spec      schema.FieldSpec
	records   []overlay.Record
}

// BuildComponents turns property rows into components with overlay
// fields and returns the deferred time-series references found along the
// way. Collection properties, rows whose membership parent is another
// modeled object rather than the system, are stored on the child scoped
// by parent.
func (p *Parser) BuildComponents(rows []plexdb.PropertyRow) ([]Reference, error) {
	b := &builder{system: p.system, logger: p.logger}

	type groupKey struct {
		objectID int
		parent   string
		field    string
	}
	groups := make(map[groupKey]*propertyGroup)
	groupOrder := []groupKey{}

	for _, row := range rows {
		c, err := b.componentFor(row)
		if err != nil {
			return nil, err
		}

		spec, known := schema.Lookup(row.ChildClass, row.Property)
		if !known {
			spec = schema.Permissive(row.Property)
		}

		key := groupKey{objectID: row.ObjectID, field: spec.Name}
		if isCollectionParent(row) {
			key.parent = row.ParentClass + "/" + row.ParentName
		}
		g, ok := groups[key]
		if !ok {
			g = &propertyGroup{component: c, spec: spec}
			groups[key] = g
			groupOrder = append(groupOrder, key)
		}
		g.records = append(g.records, recordFromRow(row))
	}

	for _, key := range groupOrder {
		g := groups[key]
		o := overlay.FromRecords(g.records)
		if key.parent == "" {
			if err := g.component.SetProperty(g.spec, o); err != nil {
				return nil, oops.With("component", g.component.Name).
					With("field", g.spec.Name).
					Wrap(err)
			}
			b.registerReferences(g.component, g.spec.Name, o)
			continue
		}

		parentClass, parentName, _ := strings.Cut(key.parent, "/")
		if err := g.spec.Validate(o); err != nil {
			return nil, oops.With("component", g.component.Name).
				With("field", g.spec.Name).
				Wrap(err)
		}
		b.attachCollectionProperty(g.component, parentClass, parentName, g.spec.Name, o)
	}

	return b.refs, nil
}

func (b *builder) componentFor(row plexdb.PropertyRow) (*model.Component, error) {
	if c, err := b.system.GetByObjectID(row.ObjectID); err == nil {
		return c, nil
	}
	c := model.NewComponent(row.ChildClass, row.Name, row.Category, row.ObjectID)
	c.SetLogger(b.logger)
	if err := b.system.Add(c); err != nil {
		return nil, err
	}
	ComponentsBuilt.WithLabelValues(row.ChildClass).Inc()
	return c, nil
}

// isCollectionParent reports whether a row's property belongs to a
// membership rather than to the object itself.
func isCollectionParent(row plexdb.PropertyRow) bool {
	return row.ParentClass != "" && row.ParentClass != "System"
}

func (b *builder) attachCollectionProperty(c *model.Component, parentClass, parentName, field string, o *overlay.Overlay) {
	for _, cp := range c.CollectionPropertySets() {
		if cp.ParentClass == parentClass && cp.ParentName == parentName {
			cp.Properties[field] = o
			return
		}
	}
	c.AddCollectionProperties(model.CollectionProperties{
		ParentClass: parentClass,
		ParentName:  parentName,
		Properties:  map[string]*overlay.Overlay{field: o},
	})
}

// registerReferences records the deferred time-series work an overlay's
// entries imply. Entries can carry a Data File component reference, a
// literal path in their text payload, or a Variable reference.
func (b *builder) registerReferences(c *model.Component, field string, o *overlay.Overlay) {
	for _, rec := range o.Records() {
		ref := Reference{
			ComponentID:   c.ID,
			ComponentName: c.Name,
			Class:         c.Class,
			FieldName:     field,
			PropertyName:  field,
			ColumnName:    rec.ColumnName,
			VariableName:  rec.VariableName,
			Action:        rec.Action,
			Units:         rec.Units,
		}
		switch {
		case rec.DatafileName != "":
			ref.Source = SourceDatafileComponent
			ref.DatafileComponent = rec.DatafileName
		case rec.TextClassName == schema.ClassDatafile && rec.Text != "":
			ref.Source = SourceDirectDatafile
			ref.DatafilePath = rec.Text
		case rec.VariableName != "":
			ref.Source = SourceVariable
		default:
			continue
		}
		b.refs = append(b.refs, ref)
	}
}

func recordFromRow(row plexdb.PropertyRow) overlay.Record {
	rec := overlay.Record{
		Scenario:      row.Scenario,
		Band:          row.Band,
		Timeslice:     row.Timeslice,
		DateFrom:      row.DateFrom,
		DateTo:        row.DateTo,
		DatafileName:  row.DatafileName,
		DatafileID:    row.DatafileID,
		ColumnName:    row.ColumnName,
		VariableName:  row.VariableName,
		VariableID:    row.VariableID,
		Action:        row.Action,
		Units:         row.Units,
		Text:          row.Text,
		TextClassName: row.TextClassName,
	}
	if row.Value.Valid {
		rec.Value = overlay.Float(row.Value.Float64)
	}
	return rec
}

// BuildMemberships attaches membership records to both endpoints.
// Memberships whose endpoints were never built, such as system-level
// bookkeeping objects, are skipped with a debug log.
func (p *Parser) BuildMemberships(rows []plexdb.MembershipRow) {
	for _, row := range rows {
		child, childErr := p.system.GetByObjectID(row.ChildObjectID)
		parent, parentErr := p.system.GetByObjectID(row.ParentObjectID)
		if childErr != nil || parentErr != nil {
			p.logger.Debug("skipping membership with unbuilt endpoint",
				"membership_id", row.MembershipID,
				"parent", row.ParentName, "child", row.ChildName)
			continue
		}
		m := model.Membership{
			ParentID:     parent.ID,
			ChildID:      child.ID,
			ParentClass:  row.ParentClass,
			ParentName:   row.ParentName,
			ChildClass:   row.ChildClass,
			ChildName:    row.ChildName,
			MembershipID: row.MembershipID,
			CollectionID: row.CollectionID,
			Collection:   row.Collection,
		}
		child.AddMembership(m)
		parent.AddMembership(m)
	}
}

// logBatchSummary reports the outcome of a best-effort attachment pass.
func (p *Parser) logBatchSummary(result BatchResult) {
	p.logger.Info("time-series attachment finished",
		"attached", result.Attached,
		"updated", result.Updated,
		"skipped", result.Skipped,
		"failed", result.FailureCount(),
	)
	const maxReported = 10
	for i, f := range result.Failures {
		if i >= maxReported {
			p.logger.Warn("additional failures omitted", "count", result.FailureCount()-maxReported)
			break
		}
		errutil.LogError(p.logger, "reference resolution failed", f.Err)
	}
}
