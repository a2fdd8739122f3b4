// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package model

import (
	"log/slog"
	"sort"

	"github.com/oklog/ulid/v2"

	"github.com/gridfold/gridfold/internal/overlay"
	"github.com/gridfold/gridfold/internal/schema"
)

// Membership is a directed parent-to-child relationship tagged with the
// collection it belongs to. Memberships are attached to components as
// supplemental records rather than first-class graph edges.
type Membership struct {
	ParentID     ulid.ULID
	ChildID      ulid.ULID
	ParentClass  string
	ParentName   string
	ChildClass   string
	ChildName    string
	MembershipID int
	CollectionID int
	Collection   string
}

// CollectionProperties carries properties defined on a membership rather
// than on the component itself, e.g. a reserve's attributes attached to a
// region through the reserve-to-region membership. A child component can
// hold several sets, one per parent.
type CollectionProperties struct {
	ParentClass string
	ParentName  string
	Collection  string
	Properties  map[string]*overlay.Overlay
}

// Component is one modeled object: a generator, region, datafile and so
// on. Fields are stored as tagged variants and resolved on read.
type Component struct {
	ID       ulid.ULID
	ObjectID int
	Class    string
	Name     string
	Category string

	fields         map[string]Field
	memberships    []Membership
	collectionSets []CollectionProperties

	logger *slog.Logger
}

// NewComponent builds an empty component. The object id is the upstream
// database identity; the ULID is this process's identity.
func NewComponent(class, name, category string, objectID int) *Component {
	return &Component{
		ID:       ulid.Make(),
		ObjectID: objectID,
		Class:    class,
		Name:     name,
		Category: category,
		fields:   make(map[string]Field),
		logger:   slog.Default(),
	}
}

// SetLogger replaces the logger used for resolution warnings.
func (c *Component) SetLogger(logger *slog.Logger) { c.logger = logger }

// SetField stores a field variant without validation.
func (c *Component) SetField(name string, f Field) {
	c.fields[name] = f
}

// SetProperty validates an overlay against the field's spec and stores
// it. Validation failures are fatal to the assignment.
func (c *Component) SetProperty(spec schema.FieldSpec, o *overlay.Overlay) error {
	if err := spec.Validate(o); err != nil {
		return err
	}
	c.fields[spec.Name] = OverlayField(o)
	return nil
}

// Get resolves a field against the ambient resolution context. Overlay
// fields collapse through the resolution cascade; scalars pass through.
// When resolution discards provenance the caller likely needs, such as a
// datafile reference, a variable reference or multiple surviving entries,
// a warning is logged and resolution proceeds anyway.
func (c *Component) Get(name string) overlay.Value {
	f, ok := c.fields[name]
	if !ok {
		return overlay.Empty()
	}
	if o, isOverlay := f.Overlay(); isOverlay {
		c.warnDiscardedProvenance(name, o)
	}
	return f.Resolve()
}

// Property returns the raw field variant, bypassing resolution. Callers
// that need provenance, multiple entries, or explicit-dimension lookups
// use this instead of Get.
func (c *Component) Property(name string) (Field, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// FieldNames returns the stored field names in sorted order.
func (c *Component) FieldNames() []string {
	names := make([]string, 0, len(c.fields))
	for name := range c.fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Component) warnDiscardedProvenance(name string, o *overlay.Overlay) {
	switch {
	case o.HasDatafile():
		c.logger.Warn("resolving field discards datafile reference",
			"component", c.Name, "field", name)
	case o.HasVariable():
		c.logger.Warn("resolving field discards variable reference",
			"component", c.Name, "field", name)
	case o.Len() > 1:
		c.logger.Warn("resolving field collapses multiple entries",
			"component", c.Name, "field", name, "entries", o.Len())
	}
}

// AddMembership attaches a membership record.
func (c *Component) AddMembership(m Membership) {
	c.memberships = append(c.memberships, m)
}

// Memberships returns the attached membership records.
func (c *Component) Memberships() []Membership { return c.memberships }

// AddCollectionProperties attaches a membership-scoped property set.
func (c *Component) AddCollectionProperties(cp CollectionProperties) {
	c.collectionSets = append(c.collectionSets, cp)
}

// CollectionPropertiesFor returns the property set contributed by the
// given parent, if any.
func (c *Component) CollectionPropertiesFor(parentClass, parentName string) (CollectionProperties, bool) {
	for _, cp := range c.collectionSets {
		if cp.ParentClass == parentClass && cp.ParentName == parentName {
			return cp, true
		}
	}
	return CollectionProperties{}, false
}

// CollectionPropertySets returns every attached set.
func (c *Component) CollectionPropertySets() []CollectionProperties { return c.collectionSets }
