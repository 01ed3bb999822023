package archive

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/packtier/packtier/pkg/asset"
)

// writeContainer builds a real zip on disk with stored (uncompressed)
// payloads so byte regions can be checked against the source content.
func writeContainer(t *testing.T, path string, files map[string][]byte) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	for name, content := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Store})
		require.NoError(t, err)
		_, err = w.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestListEntriesRegions(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "bundle.bpak")
	files := map[string][]byte{
		"Textures/Rock.dds": []byte("rock payload bytes"),
		"sounds/boom.wav":   []byte("boom"),
	}
	writeContainer(t, container, files)

	entries, err := ZipReader{}.ListEntries(container)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	raw, err := os.ReadFile(container)
	require.NoError(t, err)

	byPath := map[string]Entry{}
	for _, e := range entries {
		byPath[e.Path] = e
	}
	rock, ok := byPath["textures/rock.dds"]
	require.True(t, ok, "entry paths are normalized")

	for _, e := range entries {
		// Payload region covers exactly the stored bytes.
		var want []byte
		if e.Path == "textures/rock.dds" {
			want = files["Textures/Rock.dds"]
		} else {
			want = files["sounds/boom.wav"]
		}
		assert.Equal(t, want, raw[e.DataOffset:e.EndOffset], "payload region of %s", e.Path)

		// Header region starts at a local header signature and ends where
		// the payload begins.
		assert.Equal(t, "PK\x03\x04", string(raw[e.HeaderOffset:e.HeaderOffset+4]), "header of %s", e.Path)
		assert.GreaterOrEqual(t, e.DataOffset-e.HeaderOffset, int64(localHeaderFixedLen+len(e.Path)))
	}

	// The first entry written starts at the top of the file.
	first := rock
	if byPath["sounds/boom.wav"].HeaderOffset < first.HeaderOffset {
		first = byPath["sounds/boom.wav"]
	}
	assert.Equal(t, int64(0), first.HeaderOffset)
}

func TestListEntriesOpenError(t *testing.T) {
	_, err := ZipReader{}.ListEntries(filepath.Join(t.TempDir(), "missing.bpak"))
	assert.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.bpak")
	require.NoError(t, os.WriteFile(garbage, []byte("not a zip at all"), 0644))
	_, err = ZipReader{}.ListEntries(garbage)
	assert.Error(t, err)
}

func TestIndexContainersRenamesAndRecords(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "level1.pak")
	payload := []byte("spawnable payload")
	writeContainer(t, container, map[string][]byte{"levels/city/city.spawnable": payload})

	store, err := NewIndexer(ZipReader{}, false).IndexContainers(filepath.Join(dir, "*.pak"))
	require.NoError(t, err)

	_, statErr := os.Stat(container)
	assert.True(t, os.IsNotExist(statErr), "legacy container is renamed away")
	_, statErr = os.Stat(filepath.Join(dir, "level1.bpak"))
	assert.NoError(t, statErr)

	rec, ok := store["levels/city/city.spawnable"]
	require.True(t, ok)
	assert.Equal(t, "level1.bpak", rec.BundlePath)
	assert.Equal(t, asset.UnassignedPackID, rec.PackID)
	assert.Equal(t, uint32(len(payload)), rec.PayloadSize)
	assert.NotZero(t, rec.PayloadOffset)
	assert.Equal(t, rec.PayloadOffset, rec.HeaderOffset+rec.HeaderSize)
}

func TestIndexContainersIdempotentOnRenamed(t *testing.T) {
	dir := t.TempDir()
	container := filepath.Join(dir, "bundle.bpak")
	writeContainer(t, container, map[string][]byte{"a.txt": []byte("a")})

	store, err := NewIndexer(ZipReader{}, false).IndexContainers(filepath.Join(dir, "*.bpak"))
	require.NoError(t, err)
	assert.Len(t, store, 1)
	_, statErr := os.Stat(container)
	assert.NoError(t, statErr)
}

func TestIndexContainersRefusesClobber(t *testing.T) {
	dir := t.TempDir()
	legacy := filepath.Join(dir, "bundle.pak")
	writeContainer(t, legacy, map[string][]byte{"new.txt": []byte("new")})
	writeContainer(t, filepath.Join(dir, "bundle.bpak"), map[string][]byte{"old.txt": []byte("old")})

	store, err := NewIndexer(ZipReader{}, false).IndexContainers(filepath.Join(dir, "*.pak"))
	require.NoError(t, err)
	assert.Empty(t, store, "blocked container is skipped, not indexed")
	_, statErr := os.Stat(legacy)
	assert.NoError(t, statErr, "legacy container untouched when rename is blocked")

	store, err = NewIndexer(ZipReader{}, true).IndexContainers(filepath.Join(dir, "*.pak"))
	require.NoError(t, err)
	_, ok := store["new.txt"]
	assert.True(t, ok, "overwrite allowed replaces the renamed container")
}

func TestIndexContainersSkipsUnreadable(t *testing.T) {
	dir := t.TempDir()
	writeContainer(t, filepath.Join(dir, "good.bpak"), map[string][]byte{"a.txt": []byte("a")})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.bpak"), []byte("garbage"), 0644))

	store, err := NewIndexer(ZipReader{}, false).IndexContainers(filepath.Join(dir, "*.bpak"))
	require.NoError(t, err)
	assert.Len(t, store, 1)
}

func TestIndexContainersMalformedPattern(t *testing.T) {
	_, err := NewIndexer(ZipReader{}, false).IndexContainers("[")
	assert.Error(t, err)
}
