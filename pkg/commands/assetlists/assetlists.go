// Package assetlists generates per-platform pack asset lists: every asset
// transitively reachable from the seed assets, labeled with the seed group's
// pack id.
package assetlists

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/catalog"
	"github.com/packtier/packtier/pkg/commands/seeds"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/hints"
	"github.com/packtier/packtier/pkg/logging"
	"github.com/packtier/packtier/pkg/pipeline"
	"github.com/packtier/packtier/pkg/platform"
	"github.com/packtier/packtier/pkg/walker"
)

// Options defines the options for the AssetLists command.
type Options struct {
	// SeedListPaths are seed hint files to load roots from.
	SeedListPaths []string
	// AddSeeds are inline "path[packid]" seed references.
	AddSeeds []string
	// Skip excludes assets from the walk: plain paths or wildcard patterns.
	Skip []string
	// OutputPath is the pack asset hints file to write; each platform's
	// output gets the platform tag inserted before the extension.
	OutputPath string
	// ProjectRoot anchors relative level hint file lookups.
	ProjectRoot string
	// LevelsPattern matches level assets, whose seeds pull in sibling level
	// hint files.
	LevelsPattern string
	// Platforms to generate lists for, one parallel pipeline each.
	Platforms []platform.Platform
	// Catalogs addresses one catalog per platform.
	Catalogs catalog.Multi
}

// Result reports the per-platform outputs.
type Result struct {
	OutputPaths []string
}

// Run generates an asset list per platform. Each platform's pipeline reads
// the seed groups, collects the transitive dependencies of every group under
// min-wins merging, cascades pack ids from the seed and level-hint roots in
// descending group order, and writes the platform-tagged hint file.
func Run(opts Options) (*Result, error) {
	if opts.OutputPath == "" {
		return nil, errors.New(errors.ErrInvalidInput, "an output path is required")
	}
	if len(opts.Platforms) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "at least one platform is required")
	}

	result := &Result{}
	var mu sync.Mutex

	err := pipeline.ForEachPlatform(opts.Platforms, func(p platform.Platform) error {
		outPath, err := runPlatform(opts, p)
		if err != nil {
			return err
		}
		mu.Lock()
		result.OutputPaths = append(result.OutputPaths, outPath)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func runPlatform(opts Options, p platform.Platform) (string, error) {
	logger := logging.GetLogger("commands.assetlists").With().Str("platform", string(p)).Logger()
	defer logging.LogOperationStart(logger, "assetlists")()

	cat, ok := opts.Catalogs[p]
	if !ok {
		return "", errors.Newf(errors.ErrNotFound, "no asset catalog loaded for platform (%s)", p)
	}

	excl := splitSkipList(opts.Skip, cat)

	// Seed roots, grouped by pack id.
	rootsByPack := map[uint32][]asset.ID{}
	var seedPaths []string
	addRoot := func(rec asset.Record) {
		if !rec.ID.IsValid() {
			logger.Warn().Str("assetHint", rec.RelativePath).Msg("Dropping seed without a resolvable asset id")
			return
		}
		rootsByPack[rec.PackID] = append(rootsByPack[rec.PackID], rec.ID)
		seedPaths = append(seedPaths, rec.RelativePath)
	}

	for _, seedList := range opts.SeedListPaths {
		if err := hints.Read(seedList, cat, addRoot); err != nil {
			return "", err
		}
	}
	for _, ref := range opts.AddSeeds {
		seed, err := seeds.ParseSeedRef(ref)
		if err != nil {
			return "", err
		}
		id, ok := cat.IDByPath(seed.Path)
		if !ok {
			logger.Warn().Str("seed", seed.Path).Msg("Inline seed does not resolve to an asset, skipping")
			continue
		}
		addRoot(asset.NewRecord(id, seed.Path, seed.PackID))
	}

	store := asset.Store{}

	// Level seeds pull in sibling level hint files: records merge min-wins
	// and their ids become additional cascade roots.
	cascadeRoots := map[uint32][]asset.ID{}
	for packID, roots := range rootsByPack {
		cascadeRoots[packID] = append(cascadeRoots[packID], roots...)
	}
	for _, hintFile := range levelHintFiles(seedPaths, opts.LevelsPattern, opts.ProjectRoot) {
		err := hints.Read(hintFile, cat, func(rec asset.Record) {
			store.Add(rec)
			if rec.ID.IsValid() {
				cascadeRoots[rec.PackID] = append(cascadeRoots[rec.PackID], rec.ID)
			}
		})
		if err != nil {
			return "", err
		}
		logger.Debug().Str("path", hintFile).Msg("Merged level hint file")
	}

	w := walker.New()
	for packID, roots := range rootsByPack {
		w.Collect(store, packID, roots, cat, excl)
	}
	w.Cascade(store, cascadeRoots, cat, excl)

	outPath := platform.AddSuffix(opts.OutputPath, p)
	logger.Info().Str("path", outPath).Int("assets", len(store)).Msg("Saving pack asset hints file")
	if err := hints.Write(outPath, asset.GroupByPack(store, false)); err != nil {
		return "", err
	}
	return outPath, nil
}

// splitSkipList partitions the skip entries into identity exclusions and
// wildcard patterns. A plain path that does not resolve to an asset is
// dropped with a warning.
func splitSkipList(skip []string, cat catalog.Catalog) walker.Exclusions {
	logger := logging.GetLogger("commands.assetlists")

	excl := walker.Exclusions{IDs: map[asset.ID]struct{}{}}
	for _, entry := range skip {
		if catalog.LooksLikeWildcard(entry) {
			excl.Wildcards = append(excl.Wildcards, entry)
			continue
		}
		id, ok := cat.IDByPath(entry)
		if !ok {
			logger.Warn().Str("skip", entry).Msg("Skip entry does not resolve to an asset, ignoring")
			continue
		}
		excl.IDs[id] = struct{}{}
	}
	return excl
}

// levelHintFiles derives, for every seed path matching the levels pattern,
// the sibling hint file carrying that level's own pack assignments. Only
// files that exist are returned.
func levelHintFiles(seedPaths []string, pattern, projectRoot string) []string {
	if pattern == "" {
		return nil
	}
	var files []string
	seen := map[string]struct{}{}
	for _, seedPath := range seedPaths {
		if !catalog.MatchWildcard(seedPath, pattern) {
			continue
		}
		hintPath := strings.TrimSuffix(seedPath, filepath.Ext(seedPath)) + ".assethints"
		full := filepath.Join(projectRoot, filepath.FromSlash(hintPath))
		if _, ok := seen[full]; ok {
			continue
		}
		seen[full] = struct{}{}
		if _, err := os.Stat(full); err == nil {
			files = append(files, full)
		}
	}
	return files
}
