// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

// Package datafile loads the external CSV files referenced by property
// entries: path resolution against a configured base directory, format
// detection and parsing, and a per-path cache so a file referenced by
// many fields is parsed once.
package datafile

import (
	"path"
	"path/filepath"
	"strings"
)

// Resolver turns the raw paths found in property entries into filesystem
// paths. Raw paths use Windows separators; they are normalized and joined
// under Base and the optional Subdir.
type Resolver struct {
	Base   string
	Subdir string
}

// Resolve normalizes a raw reference to an absolute-or-base-relative
// path. Already absolute paths pass through untouched apart from
// separator normalization.
func (r Resolver) Resolve(raw string) string {
	normalized := strings.ReplaceAll(raw, `\`, "/")
	normalized = path.Clean(normalized)
	if filepath.IsAbs(normalized) {
		return filepath.FromSlash(normalized)
	}
	parts := []string{r.Base}
	if r.Subdir != "" {
		parts = append(parts, r.Subdir)
	}
	parts = append(parts, filepath.FromSlash(normalized))
	return filepath.Join(parts...)
}
