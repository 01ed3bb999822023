package archive

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/logging"
)

const (
	// LegacyExtension is the container extension produced by the external
	// bundler; containers are renamed away from it before indexing.
	LegacyExtension = ".pak"
	// ContainerExtension is the extension indexed containers carry.
	ContainerExtension = ".bpak"
)

// Indexer builds a path-keyed record store from the containers matching a
// glob pattern.
type Indexer struct {
	reader          Reader
	allowOverwrites bool
	log             zerolog.Logger
}

// NewIndexer returns an Indexer backed by reader. With allowOverwrites set,
// renaming a legacy container may replace an existing renamed one.
func NewIndexer(reader Reader, allowOverwrites bool) *Indexer {
	return &Indexer{
		reader:          reader,
		allowOverwrites: allowOverwrites,
		log:             logging.GetLogger("archive"),
	}
}

// IndexContainers renames every legacy container matching the glob
// patterns, lists the entries of the result and returns one record per
// entry: the payload region, the header region and the container's base
// name. A container that cannot be renamed or read is logged and skipped;
// only a malformed pattern is fatal. Records start out with the unassigned
// pack id.
func (ix *Indexer) IndexContainers(globs ...string) (asset.PathStore, error) {
	var matches []string
	for _, glob := range globs {
		found, err := filepath.Glob(glob)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrInvalidInput, "malformed container pattern").
				WithDetail("pattern", glob)
		}
		matches = append(matches, found...)
	}
	if len(matches) == 0 {
		ix.log.Warn().Strs("patterns", globs).Msg("No containers matched")
	}

	store := asset.PathStore{}
	indexed := map[string]struct{}{}
	for _, match := range matches {
		container, err := ix.prepareContainer(match)
		if err != nil {
			ix.log.Warn().Err(err).Str("container", match).Msg("Skipping container that could not be renamed")
			continue
		}
		// The glob may match a container both before and after renaming.
		if _, ok := indexed[container]; ok {
			continue
		}
		indexed[container] = struct{}{}

		entries, err := ix.reader.ListEntries(container)
		if err != nil {
			ix.log.Warn().Err(err).Str("container", container).Msg("Skipping unreadable container")
			continue
		}

		base := filepath.Base(container)
		for _, e := range entries {
			store.Add(asset.Record{
				RelativePath:  e.Path,
				PackID:        asset.UnassignedPackID,
				BundlePath:    base,
				PayloadOffset: uint32(e.DataOffset),
				PayloadSize:   uint32(e.EndOffset - e.DataOffset),
				HeaderOffset:  uint32(e.HeaderOffset),
				HeaderSize:    uint32(e.DataOffset - e.HeaderOffset),
			})
		}
		ix.log.Debug().Str("container", base).Int("entries", len(entries)).Msg("Container indexed")
	}
	return store, nil
}

// prepareContainer renames a legacy container in place and returns the path
// to index. Containers already carrying the indexed extension pass through
// untouched, so re-running over a processed directory is harmless.
func (ix *Indexer) prepareContainer(path string) (string, error) {
	ext := filepath.Ext(path)
	if !strings.EqualFold(ext, LegacyExtension) {
		return path, nil
	}

	target := strings.TrimSuffix(path, ext) + ContainerExtension
	if _, err := os.Stat(target); err == nil && !ix.allowOverwrites {
		return "", errors.New(errors.ErrOverwriteBlocked, "renamed container already exists").
			WithDetail("path", target)
	}
	if err := os.Rename(path, target); err != nil {
		return "", errors.Wrap(err, errors.ErrArchiveRename, "failed to rename container").
			WithDetail("path", path)
	}
	ix.log.Info().Str("from", filepath.Base(path)).Str("to", filepath.Base(target)).Msg("Container renamed")
	return target, nil
}
