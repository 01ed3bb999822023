// Package catalog defines the asset catalog capability the walker and the
// hint-file reader consume, plus a JSON-file-backed implementation. The
// catalog resolves path<->id lookups and supplies direct-dependency edges;
// any implementation of the interface is substitutable.
package catalog

import (
	"encoding/json"
	"os"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/logging"
)

// Catalog is the query surface consumed by the graph walker and the hint
// reader. It must be safe to call from multiple goroutines.
type Catalog interface {
	// DirectDependencies returns the direct product dependencies of id.
	// An error means the catalog has no dependency information for the
	// asset, not that the call failed.
	DirectDependencies(id asset.ID) ([]asset.ID, error)

	// MatchesWildcard reports whether the asset's relative path matches
	// the wildcard pattern ('*' spans separators, '?' matches one byte).
	MatchesWildcard(id asset.ID, pattern string) bool

	// PathByID resolves an asset's relative path.
	PathByID(id asset.ID) (string, bool)

	// IDByPath resolves a normalized relative path to an asset identity.
	IDByPath(path string) (asset.ID, bool)
}

// fileEntry is one asset in an assetcatalog.json file.
type fileEntry struct {
	ID           string   `json:"id"`
	Path         string   `json:"path"`
	Dependencies []string `json:"dependencies,omitempty"`
}

type node struct {
	path string
	deps []asset.ID
}

// FileCatalog is a Catalog loaded from a platform's assetcatalog.json.
// It is immutable after Load and therefore safe for concurrent queries.
type FileCatalog struct {
	byID   map[asset.ID]node
	byPath map[string]asset.ID
}

// Load reads an assetcatalog.json file: a JSON array of entries carrying an
// asset id, a relative path and the ids of its direct dependencies.
// Entries with malformed ids are skipped with a diagnostic.
func Load(path string) (*FileCatalog, error) {
	logger := logging.GetLogger("catalog")

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCatalogLoad, "failed to open asset catalog").
			WithDetail("path", path)
	}

	var entries []fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, errors.Wrap(err, errors.ErrCatalogLoad, "failed to parse asset catalog").
			WithDetail("path", path)
	}

	cat := &FileCatalog{
		byID:   make(map[asset.ID]node, len(entries)),
		byPath: make(map[string]asset.ID, len(entries)),
	}
	for _, entry := range entries {
		id, err := asset.ParseID(entry.ID)
		if err != nil {
			logger.Warn().Err(err).Str("path", entry.Path).Msg("Skipping catalog entry with malformed id")
			continue
		}
		deps := make([]asset.ID, 0, len(entry.Dependencies))
		for _, dep := range entry.Dependencies {
			depID, err := asset.ParseID(dep)
			if err != nil {
				logger.Warn().Err(err).Str("asset", entry.ID).Msg("Skipping malformed dependency edge")
				continue
			}
			deps = append(deps, depID)
		}
		relPath := asset.NormalizePath(entry.Path)
		cat.byID[id] = node{path: relPath, deps: deps}
		if relPath != "" {
			cat.byPath[relPath] = id
		}
	}

	logger.Debug().Str("path", path).Int("assets", len(cat.byID)).Msg("Asset catalog loaded")
	return cat, nil
}

// NewStatic builds a catalog from in-memory tables. Intended for tests and
// for callers that derive edges from another source.
func NewStatic(paths map[asset.ID]string, deps map[asset.ID][]asset.ID) *FileCatalog {
	cat := &FileCatalog{
		byID:   make(map[asset.ID]node, len(paths)),
		byPath: make(map[string]asset.ID, len(paths)),
	}
	for id, p := range paths {
		relPath := asset.NormalizePath(p)
		cat.byID[id] = node{path: relPath, deps: deps[id]}
		if relPath != "" {
			cat.byPath[relPath] = id
		}
	}
	for id, edges := range deps {
		if _, ok := cat.byID[id]; !ok {
			cat.byID[id] = node{deps: edges}
		}
	}
	return cat
}

// DirectDependencies implements Catalog.
func (c *FileCatalog) DirectDependencies(id asset.ID) ([]asset.ID, error) {
	n, ok := c.byID[id]
	if !ok || len(n.deps) == 0 {
		return nil, errors.New(errors.ErrNotFound, "no known dependencies")
	}
	return n.deps, nil
}

// MatchesWildcard implements Catalog.
func (c *FileCatalog) MatchesWildcard(id asset.ID, pattern string) bool {
	n, ok := c.byID[id]
	if !ok || n.path == "" {
		return false
	}
	return MatchWildcard(n.path, pattern)
}

// PathByID implements Catalog.
func (c *FileCatalog) PathByID(id asset.ID) (string, bool) {
	n, ok := c.byID[id]
	return n.path, ok && n.path != ""
}

// IDByPath implements Catalog.
func (c *FileCatalog) IDByPath(path string) (asset.ID, bool) {
	id, ok := c.byPath[asset.NormalizePath(path)]
	return id, ok
}
