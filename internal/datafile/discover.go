// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package datafile

import (
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	"github.com/samber/oops"
)

// Discover walks root and returns the files whose root-relative path
// matches the glob pattern, sorted. Patterns use forward slashes and
// support `**` across directories, e.g. `**/*.csv`.
func Discover(root, pattern string) ([]string, error) {
	matcher, err := glob.Compile(pattern, '/')
	if err != nil {
		return nil, oops.Code("DISCOVER_BAD_PATTERN").
			With("pattern", pattern).
			Wrapf(err, "compiling discovery pattern")
	}

	var matches []string
	err = filepath.WalkDir(root, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, p)
		if relErr != nil {
			return relErr
		}
		if matcher.Match(strings.ReplaceAll(rel, string(filepath.Separator), "/")) {
			matches = append(matches, p)
		}
		return nil
	})
	if err != nil {
		return nil, oops.Code("DISCOVER_WALK_FAILED").
			With("root", root).
			Wrapf(err, "walking datafile root")
	}
	sort.Strings(matches)
	return matches, nil
}
