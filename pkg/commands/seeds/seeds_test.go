package seeds

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/catalog"
	"github.com/packtier/packtier/pkg/hints"
	"github.com/packtier/packtier/pkg/platform"
)

func testID(seed byte) asset.ID {
	var guid uuid.UUID
	guid[0] = seed
	return asset.ID{GUID: guid, SubID: uint32(seed)}
}

func multiFor(paths map[asset.ID]string) catalog.Multi {
	return catalog.Multi{platform.PC: catalog.NewStatic(paths, nil)}
}

func readStore(t *testing.T, path string) asset.Store {
	t.Helper()
	store := asset.Store{}
	require.NoError(t, hints.Read(path, nil, func(rec asset.Record) {
		store.Add(rec)
	}))
	return store
}

func TestParseSeedRef(t *testing.T) {
	tests := []struct {
		ref      string
		wantPath string
		wantPack uint32
		wantErr  bool
	}{
		{"levels/city/city.spawnable[3]", "levels/city/city.spawnable", 3, false},
		{"Textures\\Rock.dds", "textures/rock.dds", 0, false},
		{"a.txt[7", "a.txt", 7, false}, // missing ']' warns, still parses
		{"a.txt[x]", "", 0, true},
		{"/leading/sep.txt[1]", "leading/sep.txt", 1, false},
	}
	for _, tt := range tests {
		got, err := ParseSeedRef(tt.ref)
		if tt.wantErr {
			assert.Error(t, err, "ref %q", tt.ref)
			continue
		}
		require.NoError(t, err, "ref %q", tt.ref)
		assert.Equal(t, tt.wantPath, got.Path, "ref %q", tt.ref)
		assert.Equal(t, tt.wantPack, got.PackID, "ref %q", tt.ref)
	}
}

func TestRunCreatesSeedFile(t *testing.T) {
	city, rock := testID(1), testID(2)
	cats := multiFor(map[asset.ID]string{
		city: "levels/city/city.spawnable",
		rock: "textures/rock.dds",
	})

	out := filepath.Join(t.TempDir(), "seeds.seed.assethints")
	result, err := Run(Options{
		SeedListPath: out,
		AddSeeds:     []string{"levels/city/city.spawnable[3]", "textures/rock.dds"},
		Catalogs:     cats,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 2, result.Total)

	store := readStore(t, out)
	assert.Equal(t, uint32(3), store[city].PackID)
	assert.Equal(t, uint32(0), store[rock].PackID)
}

func TestRunMergesWithExistingMinWins(t *testing.T) {
	city := testID(1)
	cats := multiFor(map[asset.ID]string{city: "levels/city/city.spawnable"})

	out := filepath.Join(t.TempDir(), "seeds.seed.assethints")
	_, err := Run(Options{
		SeedListPath: out,
		AddSeeds:     []string{"levels/city/city.spawnable[2]"},
		Catalogs:     cats,
	})
	require.NoError(t, err)

	// Re-adding with a higher pack id keeps the existing lower one.
	_, err = Run(Options{
		SeedListPath: out,
		AddSeeds:     []string{"levels/city/city.spawnable[5]"},
		Catalogs:     cats,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(2), readStore(t, out)[city].PackID)

	// A lower pack id wins.
	_, err = Run(Options{
		SeedListPath: out,
		AddSeeds:     []string{"levels/city/city.spawnable[1]"},
		Catalogs:     cats,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(1), readStore(t, out)[city].PackID)
}

func TestRunRemoveSeed(t *testing.T) {
	city, rock := testID(1), testID(2)
	cats := multiFor(map[asset.ID]string{
		city: "levels/city/city.spawnable",
		rock: "textures/rock.dds",
	})

	out := filepath.Join(t.TempDir(), "seeds.seed.assethints")
	_, err := Run(Options{
		SeedListPath: out,
		AddSeeds:     []string{"levels/city/city.spawnable[1]", "textures/rock.dds[2]"},
		Catalogs:     cats,
	})
	require.NoError(t, err)

	result, err := Run(Options{
		SeedListPath: out,
		RemoveSeeds:  []string{"Textures/Rock.dds"},
		Catalogs:     cats,
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Removed)

	store := readStore(t, out)
	assert.Len(t, store, 1)
	_, ok := store[rock]
	assert.False(t, ok)
}

func TestRunGlobalPackIDOverride(t *testing.T) {
	city, rock := testID(1), testID(2)
	cats := multiFor(map[asset.ID]string{
		city: "levels/city/city.spawnable",
		rock: "textures/rock.dds",
	})

	out := filepath.Join(t.TempDir(), "seeds.seed.assethints")
	override := uint32(9)
	_, err := Run(Options{
		SeedListPath: out,
		AddSeeds:     []string{"levels/city/city.spawnable[1]", "textures/rock.dds[2]"},
		PackID:       &override,
		Catalogs:     cats,
	})
	require.NoError(t, err)

	store := readStore(t, out)
	assert.Equal(t, uint32(9), store[city].PackID)
	assert.Equal(t, uint32(9), store[rock].PackID)
}

func TestRunUnresolvableSeedSkipped(t *testing.T) {
	cats := multiFor(nil)
	out := filepath.Join(t.TempDir(), "seeds.seed.assethints")

	result, err := Run(Options{
		SeedListPath: out,
		AddSeeds:     []string{"unknown/asset.bin[1]"},
		Catalogs:     cats,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)
	assert.Equal(t, 0, result.Total)
}

func TestRunRequiresSeedListPath(t *testing.T) {
	_, err := Run(Options{})
	assert.Error(t, err)
}
