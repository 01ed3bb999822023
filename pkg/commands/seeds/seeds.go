// Package seeds maintains a project's seed hint file: the list of root
// assets, each tagged with a pack id, from which asset lists are generated.
package seeds

import (
	"os"
	"strconv"
	"strings"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/catalog"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/hints"
	"github.com/packtier/packtier/pkg/logging"
)

// Options defines the options for the Seeds command.
type Options struct {
	// SeedListPath is the seed hint file to create or update.
	SeedListPath string
	// AddSeeds are seed references of the form "path[packid]"; the pack id
	// defaults to 0 when the bracket suffix is absent.
	AddSeeds []string
	// RemoveSeeds are asset paths whose seeds should be erased.
	RemoveSeeds []string
	// PackID, when set, overrides the pack id of every record as a final
	// pass after merging.
	PackID *uint32
	// Catalogs resolves seed paths to asset identities across the enabled
	// platforms.
	Catalogs catalog.Multi
}

// Result reports what the command changed.
type Result struct {
	OutputPath string
	Added      int
	Removed    int
	Total      int
}

// Run loads the existing seed hint file if present, applies additions and
// removals and writes the file back grouped by pack id. Existing and added
// seeds for the same asset merge min-wins on the pack id.
func Run(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.seeds")

	if opts.SeedListPath == "" {
		return nil, errors.New(errors.ErrInvalidInput, "a seed list path is required")
	}

	store := asset.Store{}
	if _, err := os.Stat(opts.SeedListPath); err == nil {
		err := hints.Read(opts.SeedListPath, opts.Catalogs, func(rec asset.Record) {
			if !rec.ID.IsValid() {
				logger.Warn().Str("assetHint", rec.RelativePath).Msg("Dropping seed without a resolvable asset id")
				return
			}
			store.Add(rec)
		})
		if err != nil {
			return nil, err
		}
	}

	result := &Result{OutputPath: opts.SeedListPath}

	for _, ref := range opts.AddSeeds {
		seed, err := ParseSeedRef(ref)
		if err != nil {
			return nil, err
		}
		id, ok := opts.Catalogs.IDByPath(seed.Path)
		if !ok {
			logger.Warn().Str("seed", seed.Path).Msg("Seed does not resolve to an asset on every enabled platform, skipping")
			continue
		}
		store.Add(asset.NewRecord(id, seed.Path, seed.PackID))
		result.Added++
	}

	for _, path := range opts.RemoveSeeds {
		normalized := asset.NormalizePath(path)
		id, ok := opts.Catalogs.IDByPath(normalized)
		if !ok {
			logger.Warn().Str("seed", normalized).Msg("Seed to remove does not resolve to an asset, skipping")
			continue
		}
		if _, present := store[id]; present {
			store.Remove(id)
			result.Removed++
		}
	}

	if opts.PackID != nil {
		store.ApplyPackID(*opts.PackID)
	}

	result.Total = len(store)
	logger.Info().Str("path", opts.SeedListPath).Int("seeds", result.Total).Msg("Saving seed hint file")
	if err := hints.Write(opts.SeedListPath, asset.GroupByPack(store, false)); err != nil {
		return nil, err
	}
	return result, nil
}

// SeedRef is a parsed "path[packid]" seed reference.
type SeedRef struct {
	Path   string
	PackID uint32
}

// ParseSeedRef splits a seed reference into its normalized path and pack
// id. A missing bracket suffix means pack 0; a missing closing bracket is
// tolerated with a warning and the id runs to the end of the string.
func ParseSeedRef(ref string) (SeedRef, error) {
	logger := logging.GetLogger("commands.seeds")

	path := ref
	packID := uint32(0)
	if open := strings.IndexByte(ref, '['); open >= 0 {
		path = ref[:open]
		idText := ref[open+1:]
		if close := strings.IndexByte(idText, ']'); close >= 0 {
			idText = idText[:close]
		} else {
			logger.Warn().Str("seed", ref).Msg("Expected a closing ']' after the pack id")
		}
		v, err := strconv.ParseUint(idText, 10, 32)
		if err != nil {
			return SeedRef{}, errors.Newf(errors.ErrInvalidInput, "seed %q: pack id %q is not an unsigned integer", ref, idText)
		}
		packID = uint32(v)
	}

	return SeedRef{Path: asset.NormalizePath(path), PackID: packID}, nil
}
