// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package plexdb reads a PLEXOS input database that has been converted to
// SQLite: flat property rows, memberships, and the scenario read order of
// a selected model. The database is foreign and read-only; this package
// never writes to it.
package plexdb

import (
	"context"
	"database/sql"
	"errors"
	"os"

	"github.com/Masterminds/semver/v3"
	"github.com/samber/oops"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// MinSchemaVersion is the oldest input schema this reader understands.
const MinSchemaVersion = ">= 8.0.0"

// PropertyRow is one flat property record as stored in the input
// database. Nullable columns surface as empty strings and zero values.
type PropertyRow struct {
	ObjectID      int
	ChildClass    string
	ParentClass   string
	ParentName    string
	Name          string
	Category      string
	Property      string
	Scenario      string
	Band          int
	Timeslice     string
	DateFrom      string
	DateTo        string
	Value         sql.NullFloat64
	Action        string
	Units         string
	Text          string
	DatafileName  string
	DatafileID    int64
	VariableName  string
	VariableID    int64
	ColumnName    string
	TextClassName string
}

// MembershipRow is one parent-to-child relationship.
type MembershipRow struct {
	MembershipID   int
	ParentObjectID int
	ChildObjectID  int
	CollectionID   int
	Collection     string
	ParentClass    string
	ParentName     string
	ChildClass     string
	ChildName      string
}

// ScenarioOrder pairs a scenario with its read order in a model.
type ScenarioOrder struct {
	Scenario  string
	ReadOrder int
}

// Reader wraps the input database connection.
type Reader struct {
	db *sql.DB
}

// Open opens the input database and validates its schema version against
// MinSchemaVersion.
func Open(path string) (*Reader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, oops.Code("FILE_NOT_FOUND").
			With("path", path).
			Errorf("input database %s does not exist", path)
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, oops.Code("DB_OPEN_FAILED").
			With("path", path).
			Wrapf(err, "opening input database")
	}
	r := &Reader{db: db}
	if err := r.checkSchemaVersion(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

// Close releases the connection.
func (r *Reader) Close() error { return r.db.Close() }

func (r *Reader) checkSchemaVersion(ctx context.Context) error {
	var raw string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM t_config WHERE element = 'Version'`).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return oops.Code("DB_SCHEMA_UNSUPPORTED").
			Errorf("input database carries no schema version")
	}
	if err != nil {
		return oops.Code("DB_QUERY_FAILED").Wrapf(err, "reading schema version")
	}

	version, err := semver.NewVersion(raw)
	if err != nil {
		return oops.Code("DB_SCHEMA_UNSUPPORTED").
			With("version", raw).
			Wrapf(err, "parsing schema version")
	}
	constraint, err := semver.NewConstraint(MinSchemaVersion)
	if err != nil {
		return oops.Wrapf(err, "building version constraint")
	}
	if !constraint.Check(version) {
		return oops.Code("DB_SCHEMA_UNSUPPORTED").
			With("version", raw).
			With("minimum", MinSchemaVersion).
			Errorf("input schema version %s is older than %s", raw, MinSchemaVersion)
	}
	return nil
}

// PropertyRows returns every property record joined with its dimension
// tags: scenario, band, timeslice, dates, datafile, variable, and text.
func (r *Reader) PropertyRows(ctx context.Context) ([]PropertyRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			o.object_id,
			c.name            AS child_class,
			pc.name           AS parent_class,
			po.name           AS parent_name,
			o.name,
			COALESCE(cat.name, '')       AS category,
			p.name            AS property,
			COALESCE(s.name, '')         AS scenario,
			COALESCE(b.band_id, 1)       AS band,
			COALESCE(ts.name, '')        AS timeslice,
			COALESCE(df.date, '')        AS date_from,
			COALESCE(dt.date, '')        AS date_to,
			d.value,
			COALESCE(a.action_symbol, '') AS action,
			COALESCE(u.value, '')         AS units,
			COALESCE(txt.value, '')       AS text,
			COALESCE(dfo.name, '')        AS datafile_name,
			COALESCE(dfo.object_id, 0)    AS datafile_id,
			COALESCE(vo.name, '')         AS variable_name,
			COALESCE(vo.object_id, 0)     AS variable_id,
			COALESCE(d.column_name, '')   AS column_name,
			COALESCE(tc.name, '')         AS text_class_name
		FROM t_data d
		JOIN t_property p      ON p.property_id = d.property_id
		JOIN t_membership m    ON m.membership_id = d.membership_id
		JOIN t_object o        ON o.object_id = m.child_object_id
		JOIN t_class c         ON c.class_id = o.class_id
		JOIN t_object po       ON po.object_id = m.parent_object_id
		JOIN t_class pc        ON pc.class_id = po.class_id
		LEFT JOIN t_category cat ON cat.category_id = o.category_id
		LEFT JOIN t_scenario s   ON s.data_id = d.data_id
		LEFT JOIN t_band b       ON b.data_id = d.data_id
		LEFT JOIN t_timeslice ts ON ts.data_id = d.data_id
		LEFT JOIN t_date_from df ON df.data_id = d.data_id
		LEFT JOIN t_date_to dt   ON dt.data_id = d.data_id
		LEFT JOIN t_action a     ON a.data_id = d.data_id
		LEFT JOIN t_units u      ON u.unit_id = p.unit_id
		LEFT JOIN t_text txt     ON txt.data_id = d.data_id
		LEFT JOIN t_class tc     ON tc.class_id = txt.class_id
		LEFT JOIN t_object dfo   ON dfo.object_id = d.datafile_object_id
		LEFT JOIN t_object vo    ON vo.object_id = d.variable_object_id
		ORDER BY d.data_id`)
	if err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "querying property rows")
	}
	defer func() { _ = rows.Close() }()

	var out []PropertyRow
	for rows.Next() {
		var pr PropertyRow
		if err := rows.Scan(
			&pr.ObjectID, &pr.ChildClass, &pr.ParentClass, &pr.ParentName,
			&pr.Name, &pr.Category, &pr.Property,
			&pr.Scenario, &pr.Band, &pr.Timeslice, &pr.DateFrom, &pr.DateTo,
			&pr.Value, &pr.Action, &pr.Units, &pr.Text,
			&pr.DatafileName, &pr.DatafileID, &pr.VariableName, &pr.VariableID,
			&pr.ColumnName, &pr.TextClassName,
		); err != nil {
			return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "scanning property row")
		}
		out = append(out, pr)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "iterating property rows")
	}
	return out, nil
}

// Memberships returns every parent-to-child relationship with its
// collection tag and both endpoint names.
func (r *Reader) Memberships(ctx context.Context) ([]MembershipRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT
			m.membership_id,
			m.parent_object_id,
			m.child_object_id,
			m.collection_id,
			COALESCE(col.name, '') AS collection,
			pc.name AS parent_class,
			po.name AS parent_name,
			cc.name AS child_class,
			co.name AS child_name
		FROM t_membership m
		JOIN t_object po ON po.object_id = m.parent_object_id
		JOIN t_class pc  ON pc.class_id = po.class_id
		JOIN t_object co ON co.object_id = m.child_object_id
		JOIN t_class cc  ON cc.class_id = co.class_id
		LEFT JOIN t_collection col ON col.collection_id = m.collection_id
		ORDER BY m.membership_id`)
	if err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "querying memberships")
	}
	defer func() { _ = rows.Close() }()

	var out []MembershipRow
	for rows.Next() {
		var mr MembershipRow
		if err := rows.Scan(
			&mr.MembershipID, &mr.ParentObjectID, &mr.ChildObjectID,
			&mr.CollectionID, &mr.Collection,
			&mr.ParentClass, &mr.ParentName, &mr.ChildClass, &mr.ChildName,
		); err != nil {
			return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "scanning membership")
		}
		out = append(out, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "iterating memberships")
	}
	return out, nil
}

// ScenarioReadOrder returns the scenarios attached to a model in read
// order. A model that exists but has no scenarios yields an empty list; a
// missing model is a lookup error.
func (r *Reader) ScenarioReadOrder(ctx context.Context, model string) ([]ScenarioOrder, error) {
	var modelID int
	err := r.db.QueryRowContext(ctx, `
		SELECT o.object_id
		FROM t_object o
		JOIN t_class c ON c.class_id = o.class_id
		WHERE c.name = 'Model' AND o.name = ?`, model).Scan(&modelID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, oops.Code("COMPONENT_NOT_FOUND").
			With("model", model).
			Errorf("model %q not found", model)
	}
	if err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "looking up model")
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT so.name, m.read_order
		FROM t_membership m
		JOIN t_object so ON so.object_id = m.child_object_id
		JOIN t_class sc  ON sc.class_id = so.class_id
		WHERE m.parent_object_id = ? AND sc.name = 'Scenario'
		ORDER BY m.read_order`, modelID)
	if err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "querying scenario read order")
	}
	defer func() { _ = rows.Close() }()

	var out []ScenarioOrder
	for rows.Next() {
		var so ScenarioOrder
		if err := rows.Scan(&so.Scenario, &so.ReadOrder); err != nil {
			return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "scanning scenario order")
		}
		out = append(out, so)
	}
	if err := rows.Err(); err != nil {
		return nil, oops.Code("DB_QUERY_FAILED").Wrapf(err, "iterating scenario order")
	}
	return out, nil
}
