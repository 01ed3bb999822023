// Package walker cascades pack assignments from seed assets to every
// transitive dependency recorded in an asset catalog.
//
// Two traversal phases exist and their precedence rules are deliberately
// different. Collect populates a store: every reachable asset is added with
// the seed group's pack id under min-wins merging, so the phase is order
// independent. Cascade revises an already-populated store: it overwrites
// the pack id of every record it reaches, and relies on processing seed
// groups from the highest pack id down so the lowest (highest-priority)
// group processed last wins. Downstream outputs depend on both rules
// staying distinct.
package walker

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/catalog"
	"github.com/packtier/packtier/pkg/logging"
)

// Exclusions filter which dependency edges a walk follows.
type Exclusions struct {
	// IDs is the set of asset identities to skip outright.
	IDs map[asset.ID]struct{}
	// Wildcards are path patterns tested through the catalog; a matching
	// target is skipped without recursing.
	Wildcards []string
}

func (e Exclusions) skip(cat catalog.Catalog, id asset.ID) bool {
	if _, ok := e.IDs[id]; ok {
		return true
	}
	for _, pattern := range e.Wildcards {
		if cat.MatchesWildcard(id, pattern) {
			return true
		}
	}
	return false
}

// Walker traverses the catalog's direct-dependency relation. It carries no
// mutable traversal state, so one Walker may serve concurrent per-platform
// pipelines.
type Walker struct {
	log zerolog.Logger
}

// New returns a Walker.
func New() *Walker {
	return &Walker{log: logging.GetLogger("walker")}
}

// visit applies fn to every dependency reachable from root, depth first,
// using an explicit frame stack so traversal depth is bounded by the
// graph's longest acyclic path rather than goroutine stack growth.
//
// The seen set is scoped to this single root's walk. It detects back edges
// (self-cycles and mutual cycles terminate immediately) and keeps a shared
// descendant from being walked twice within the walk, while still letting
// an independent root revisit the same node later. The set must not
// outlive the root: assignments differ across roots, only within one walk
// are they constant.
func (w *Walker) visit(root asset.ID, cat catalog.Catalog, excl Exclusions, fn func(asset.ID)) {
	type frame struct {
		deps []asset.ID
		next int
	}

	deps, err := cat.DirectDependencies(root)
	if err != nil {
		// No dependency information means the branch ends here.
		return
	}

	seen := map[asset.ID]struct{}{root: {}}
	stack := []frame{{deps: deps}}

	for len(stack) > 0 {
		top := &stack[len(stack)-1]
		if top.next >= len(top.deps) {
			stack = stack[:len(stack)-1]
			continue
		}

		dep := top.deps[top.next]
		top.next++

		if !dep.IsValid() {
			continue
		}
		if excl.skip(cat, dep) {
			continue
		}
		if _, ok := seen[dep]; ok {
			continue
		}
		seen[dep] = struct{}{}

		fn(dep)

		childDeps, err := cat.DirectDependencies(dep)
		if err != nil {
			continue
		}
		stack = append(stack, frame{deps: childDeps})
	}
}

// Collect walks every root and merges each reachable asset into the store
// with the given pack id, resolving paths through the catalog. Existing
// records keep the smaller pack id.
func (w *Walker) Collect(store asset.Store, packID uint32, roots []asset.ID, cat catalog.Catalog, excl Exclusions) {
	for _, root := range sortedIDs(roots) {
		if !root.IsValid() || excl.skip(cat, root) {
			continue
		}
		w.addRecord(store, root, packID, cat)
		w.visit(root, cat, excl, func(dep asset.ID) {
			w.addRecord(store, dep, packID, cat)
		})
	}
}

func (w *Walker) addRecord(store asset.Store, id asset.ID, packID uint32, cat catalog.Catalog) {
	path, _ := cat.PathByID(id)
	store.Add(asset.NewRecord(id, path, packID))
}

// Cascade revises the store from rootsByPack, iterating pack groups from
// the highest id to the lowest. Each root already present in the store has
// its pack id overwritten with the group's id, and so does every reachable
// dependency that has a record. Roots absent from the store are skipped.
func (w *Walker) Cascade(store asset.Store, rootsByPack map[uint32][]asset.ID, cat catalog.Catalog, excl Exclusions) {
	packIDs := make([]uint32, 0, len(rootsByPack))
	for packID := range rootsByPack {
		packIDs = append(packIDs, packID)
	}
	sort.Slice(packIDs, func(i, j int) bool { return packIDs[i] > packIDs[j] })

	for _, packID := range packIDs {
		for _, root := range sortedIDs(rootsByPack[packID]) {
			if !root.IsValid() {
				continue
			}
			if _, ok := store[root]; !ok {
				continue
			}
			w.overwrite(store, root, packID)
			w.visit(root, cat, excl, func(dep asset.ID) {
				w.overwrite(store, dep, packID)
			})
		}
		w.log.Trace().Uint32("packID", packID).Msg("Cascaded pack group")
	}
}

func (w *Walker) overwrite(store asset.Store, id asset.ID, packID uint32) {
	rec, ok := store[id]
	if !ok {
		return
	}
	rec.PackID = packID
	store[id] = rec
}

// sortedIDs returns a copy of ids in stable order so walks are
// deterministic regardless of input ordering.
func sortedIDs(ids []asset.ID) []asset.ID {
	out := make([]asset.ID, len(ids))
	copy(out, ids)
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}
