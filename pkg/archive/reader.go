// Package archive introspects packed asset containers. Containers are zip
// archives; the indexer records, per entry, the byte region of the stored
// payload and the byte region of the entry's local header, so a downstream
// profiler can attribute reads at any offset to an asset.
package archive

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/klauspost/compress/zip"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/errors"
)

// Entry is one asset inside a container. The payload region spans
// [DataOffset, EndOffset); the header region spans [HeaderOffset, DataOffset).
type Entry struct {
	Path         string
	HeaderOffset int64
	DataOffset   int64
	EndOffset    int64
}

// Reader lists the entries of a packed container.
type Reader interface {
	ListEntries(containerPath string) ([]Entry, error)
}

// ZipReader reads zip-format containers.
type ZipReader struct{}

// ListEntries implements Reader. Entry paths come back normalized the same
// way asset catalog paths are, so the two can be joined directly.
func (ZipReader) ListEntries(containerPath string) ([]Entry, error) {
	zr, err := zip.OpenReader(containerPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrArchiveOpen, "failed to open container").
			WithDetail("path", containerPath)
	}
	defer zr.Close()

	raw, err := os.Open(containerPath)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrArchiveOpen, "failed to open container").
			WithDetail("path", containerPath)
	}
	defer raw.Close()

	entries := make([]Entry, 0, len(zr.File))
	for _, zf := range zr.File {
		if zf.FileInfo().IsDir() {
			continue
		}
		dataOff, err := zf.DataOffset()
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrArchiveOpen,
				"failed to locate entry %q", zf.Name).
				WithDetail("path", containerPath)
		}
		hdrOff, err := localHeaderOffset(raw, dataOff, len(zf.Name))
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrArchiveOpen,
				"failed to locate local header for entry %q", zf.Name).
				WithDetail("path", containerPath)
		}
		entries = append(entries, Entry{
			Path:         asset.NormalizePath(zf.Name),
			HeaderOffset: hdrOff,
			DataOffset:   dataOff,
			EndOffset:    dataOff + int64(zf.CompressedSize64),
		})
	}
	return entries, nil
}

const (
	localHeaderSignature = "PK\x03\x04"
	localHeaderFixedLen  = 30
	maxExtraFieldLen     = 1 << 16
)

// localHeaderOffset finds the start of the local file header whose payload
// begins at dataOff. The header is fixed bytes plus the name plus an extra
// field of unknown length (the central directory's extra field may differ),
// so candidates are scanned from a zero-length extra field upward, validated
// against the signature and the name/extra length fields.
func localHeaderOffset(r io.ReaderAt, dataOff int64, nameLen int) (int64, error) {
	noExtra := dataOff - localHeaderFixedLen - int64(nameLen)
	if noExtra < 0 {
		return 0, errors.New(errors.ErrArchiveOpen, "payload offset precedes any possible local header")
	}
	windowStart := noExtra - maxExtraFieldLen
	if windowStart < 0 {
		windowStart = 0
	}

	buf := make([]byte, noExtra-windowStart+localHeaderFixedLen)
	if _, err := r.ReadAt(buf, windowStart); err != nil && err != io.EOF {
		return 0, errors.Wrap(err, errors.ErrArchiveOpen, "failed to read local header window")
	}

	for extra := int64(0); noExtra-extra >= windowStart; extra++ {
		h := noExtra - extra
		i := h - windowStart
		if string(buf[i:i+4]) != localHeaderSignature {
			continue
		}
		if binary.LittleEndian.Uint16(buf[i+26:]) != uint16(nameLen) {
			continue
		}
		if int64(binary.LittleEndian.Uint16(buf[i+28:])) != extra {
			continue
		}
		return h, nil
	}
	return 0, errors.New(errors.ErrArchiveOpen, "no local header signature found before payload")
}
