// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Gridfold Contributors

package datafile

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

// Store loads datafiles through a Resolver and caches parse results by
// resolved path. Cache entries live for one parser run and are never
// invalidated; the input files are assumed immutable while a parse runs.
type Store struct {
	resolver Resolver
	year     int
	cache    map[string]*File
	logger   *slog.Logger
}

// NewStore builds a store rooted at the resolver's base directory. The
// year anchors monthly and pattern expansion.
func NewStore(resolver Resolver, year int, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		resolver: resolver,
		year:     year,
		cache:    make(map[string]*File),
		logger:   logger,
	}
}

// Resolve exposes the store's path resolution.
func (s *Store) Resolve(raw string) string { return s.resolver.Resolve(raw) }

// Discover lists the files under the store's search root whose relative
// path matches the glob pattern, the same root Load resolves relative
// references against.
func (s *Store) Discover(pattern string) ([]string, error) {
	return Discover(filepath.Join(s.resolver.Base, s.resolver.Subdir), pattern)
}

// Load resolves a raw path, parses the file, and caches the result. A
// missing file is a not-found error; callers inside the reference batch
// downgrade it to a recorded failure.
func (s *Store) Load(raw string) (*File, error) {
	path := s.resolver.Resolve(raw)
	if f, ok := s.cache[path]; ok {
		return f, nil
	}

	r, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, oops.Code("FILE_NOT_FOUND").
				With("path", path).
				Errorf("datafile %s does not exist", path)
		}
		return nil, oops.Code("FILE_READ_FAILED").
			With("path", path).
			Wrapf(err, "opening datafile")
	}
	defer func() { _ = r.Close() }()

	f, err := Parse(path, r, s.year)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("parsed datafile", "path", path, "format", f.Format, "components", len(f.entries))
	s.cache[path] = f
	return f, nil
}

// CacheSize returns the number of parsed files held.
func (s *Store) CacheSize() int { return len(s.cache) }
