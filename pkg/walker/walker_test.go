package walker

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/catalog"
)

func testID(seed byte) asset.ID {
	var guid uuid.UUID
	guid[0] = seed
	return asset.ID{GUID: guid, SubID: uint32(seed)}
}

// countingCatalog wraps a catalog and records every dependency lookup.
type countingCatalog struct {
	catalog.Catalog
	lookups map[asset.ID]int
}

func (c *countingCatalog) DirectDependencies(id asset.ID) ([]asset.ID, error) {
	c.lookups[id]++
	return c.Catalog.DirectDependencies(id)
}

func storeWith(ids ...asset.ID) asset.Store {
	s := asset.Store{}
	for _, id := range ids {
		s.Add(asset.NewRecord(id, "", asset.UnassignedPackID))
	}
	return s
}

func TestCascadeDiamondVisitsOnce(t *testing.T) {
	root, a, b, c := testID(1), testID(2), testID(3), testID(4)
	cat := catalog.NewStatic(nil, map[asset.ID][]asset.ID{
		root: {a, b},
		a:    {c},
		b:    {c},
	})

	store := storeWith(root, a, b, c)

	var visited []asset.ID
	w := New()
	w.visit(root, cat, Exclusions{}, func(id asset.ID) {
		visited = append(visited, id)
	})
	// Each of A, B, C exactly once: the shared descendant is not walked
	// twice within one root's walk.
	assert.Len(t, visited, 3)

	w.Cascade(store, map[uint32][]asset.ID{2: {root}}, cat, Exclusions{})
	for _, id := range []asset.ID{root, a, b, c} {
		assert.Equal(t, uint32(2), store[id].PackID, "asset %s", id)
	}
}

func TestCascadeSelfCycleTerminates(t *testing.T) {
	a := testID(1)
	cat := catalog.NewStatic(nil, map[asset.ID][]asset.ID{a: {a}})
	store := storeWith(a)

	New().Cascade(store, map[uint32][]asset.ID{1: {a}}, cat, Exclusions{})
	assert.Equal(t, uint32(1), store[a].PackID)
}

func TestCascadeMutualCycleTerminates(t *testing.T) {
	a, b := testID(1), testID(2)
	cat := catalog.NewStatic(nil, map[asset.ID][]asset.ID{
		a: {b},
		b: {a},
	})
	store := storeWith(a, b)

	New().Cascade(store, map[uint32][]asset.ID{3: {a}}, cat, Exclusions{})
	assert.Equal(t, uint32(3), store[a].PackID)
	assert.Equal(t, uint32(3), store[b].PackID)
}

func TestCascadeDescendingGroupOrderLastWins(t *testing.T) {
	// Two seed groups, pack 5 and pack 1, both reaching shared
	// descendant D. Groups are processed high to low, so the pack 1
	// group's overwrite lands last.
	r5, r1, d := testID(1), testID(2), testID(3)
	cat := catalog.NewStatic(nil, map[asset.ID][]asset.ID{
		r5: {d},
		r1: {d},
	})
	store := storeWith(r5, r1, d)

	New().Cascade(store, map[uint32][]asset.ID{
		5: {r5},
		1: {r1},
	}, cat, Exclusions{})

	assert.Equal(t, uint32(1), store[d].PackID)
	assert.Equal(t, uint32(5), store[r5].PackID)
	assert.Equal(t, uint32(1), store[r1].PackID)
}

func TestCascadeRevisitsSharedDescendantAcrossRoots(t *testing.T) {
	// The cycle set is scoped per root: a descendant reached from one
	// root must not be treated as cyclic when reached from another.
	rootA, rootB, shared := testID(1), testID(2), testID(3)
	cat := catalog.NewStatic(nil, map[asset.ID][]asset.ID{
		rootA: {shared},
		rootB: {shared},
	})
	store := storeWith(rootA, rootB, shared)

	counting := &countingCatalog{Catalog: cat, lookups: map[asset.ID]int{}}
	New().Cascade(store, map[uint32][]asset.ID{7: {rootA, rootB}}, counting, Exclusions{})

	assert.Equal(t, uint32(7), store[shared].PackID)
	assert.Equal(t, 2, counting.lookups[shared], "shared descendant walked once per root")
}

func TestCascadeSkipsRootsAbsentFromStore(t *testing.T) {
	root, dep := testID(1), testID(2)
	cat := catalog.NewStatic(nil, map[asset.ID][]asset.ID{root: {dep}})
	store := storeWith(dep)

	New().Cascade(store, map[uint32][]asset.ID{2: {root}}, cat, Exclusions{})
	// Root is not in the store, so nothing cascades from it.
	assert.Equal(t, asset.UnassignedPackID, store[dep].PackID)
}

func TestCascadeExclusions(t *testing.T) {
	root, excluded, wild, kept := testID(1), testID(2), testID(3), testID(4)
	cat := catalog.NewStatic(map[asset.ID]string{
		wild: "levels/city/city.spawnable",
		kept: "textures/rock.dds",
	}, map[asset.ID][]asset.ID{
		root:     {excluded, wild, kept},
		excluded: {kept}, // not followed: exclusion skips the subtree
	})
	store := storeWith(root, excluded, wild, kept)

	New().Cascade(store, map[uint32][]asset.ID{2: {root}}, cat, Exclusions{
		IDs:       map[asset.ID]struct{}{excluded: {}},
		Wildcards: []string{"*levels/*/*.*"},
	})

	assert.Equal(t, uint32(2), store[root].PackID)
	assert.Equal(t, uint32(2), store[kept].PackID)
	assert.Equal(t, asset.UnassignedPackID, store[excluded].PackID)
	assert.Equal(t, asset.UnassignedPackID, store[wild].PackID)
}

func TestCascadeSkipsInvalidIdentities(t *testing.T) {
	root, kept := testID(1), testID(2)
	cat := catalog.NewStatic(nil, map[asset.ID][]asset.ID{
		root: {{}, kept}, // a zero identity on a broken edge
	})
	store := storeWith(root, kept)

	New().Cascade(store, map[uint32][]asset.ID{1: {root}}, cat, Exclusions{})
	assert.Equal(t, uint32(1), store[kept].PackID)
}

func TestCollectMinWins(t *testing.T) {
	root, dep := testID(1), testID(2)
	cat := catalog.NewStatic(map[asset.ID]string{
		root: "root.pak",
		dep:  "dep.dds",
	}, map[asset.ID][]asset.ID{root: {dep}})

	store := asset.Store{}
	w := New()
	w.Collect(store, 3, []asset.ID{root}, cat, Exclusions{})
	w.Collect(store, 1, []asset.ID{root}, cat, Exclusions{})

	require.Len(t, store, 2)
	assert.Equal(t, uint32(1), store[root].PackID)
	assert.Equal(t, uint32(1), store[dep].PackID)
	assert.Equal(t, "dep.dds", store[dep].RelativePath)

	// Collect never raises an already-claimed asset to a lower tier.
	w.Collect(store, 9, []asset.ID{root}, cat, Exclusions{})
	assert.Equal(t, uint32(1), store[dep].PackID)
}

func TestCollectDeepChainIterative(t *testing.T) {
	// A 10k-node chain must not blow the stack.
	const depth = 10000
	deps := make(map[asset.ID][]asset.ID, depth)
	ids := make([]asset.ID, depth)
	for i := range ids {
		var guid uuid.UUID
		guid[0] = byte(i)
		guid[1] = byte(i >> 8)
		guid[2] = byte(i >> 16)
		guid[15] = 1
		ids[i] = asset.ID{GUID: guid, SubID: uint32(i)}
	}
	for i := 0; i < depth-1; i++ {
		deps[ids[i]] = []asset.ID{ids[i+1]}
	}
	cat := catalog.NewStatic(nil, deps)

	store := asset.Store{}
	New().Collect(store, 0, []asset.ID{ids[0]}, cat, Exclusions{})
	assert.Len(t, store, depth)
}
