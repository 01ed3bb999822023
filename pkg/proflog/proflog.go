// Package proflog emits the profiling and sampling logs consumed by the
// downstream read profiler. The line format and the group framing are a
// legacy contract and must be reproduced byte for byte.
package proflog

import (
	"fmt"
	"io"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/logging"
)

const (
	// statusToken and zeroField are fixed placeholder fields the consuming
	// profiler expects on every line. The trailing space in the token is
	// part of the contract.
	statusToken = "i-read "
	zeroField   = "000000000000000000"

	// groupSeparator marks a pack-group boundary; groupZeroMarker follows
	// the separator belonging to pack group 0.
	groupSeparator  = "----------"
	groupZeroMarker = "||||||||||  1000"
)

func writeLine(w io.Writer, container string, offset, size uint32) error {
	_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\n", container, offset, size, statusToken, zeroField)
	return err
}

// WriteProfilingLog emits one line per record, pack groups in ascending id
// order, resolving each record's byte placement through the archive index.
// Records whose path was never indexed are skipped with a diagnostic. After
// every non-final group a separator line is written; the separator for pack
// group 0 is followed by the marker line.
func WriteProfilingLog(w io.Writer, groups asset.PackGroups, index asset.PathStore) error {
	logger := logging.GetLogger("proflog")

	packIDs := groups.SortedIDs()
	for i, packID := range packIDs {
		for _, rec := range groups[packID] {
			placed, ok := index[rec.RelativePath]
			if !ok {
				logger.Debug().Str("asset", rec.RelativePath).Uint32("packID", packID).
					Msg("Asset not found in any indexed container, skipping")
				continue
			}
			if err := writeLine(w, placed.BundlePath, placed.PayloadOffset, placed.PayloadSize); err != nil {
				return errors.Wrap(err, errors.ErrFileWrite, "failed to write profiling log line")
			}
		}
		if i < len(packIDs)-1 {
			if err := writeFraming(w, packID); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteSamplingLog emits the same line format and group framing as the
// profiling log, driven entirely by the records' own byte placement instead
// of an archive-index join. Records never indexed into a container carry no
// placement and are skipped.
func WriteSamplingLog(w io.Writer, groups asset.PackGroups) error {
	logger := logging.GetLogger("proflog")

	packIDs := groups.SortedIDs()
	for i, packID := range packIDs {
		for _, rec := range groups[packID] {
			if rec.BundlePath == "" {
				logger.Debug().Str("asset", rec.RelativePath).Uint32("packID", packID).
					Msg("Record carries no container placement, skipping")
				continue
			}
			if err := writeLine(w, rec.BundlePath, rec.PayloadOffset, rec.PayloadSize); err != nil {
				return errors.Wrap(err, errors.ErrFileWrite, "failed to write sampling log line")
			}
		}
		if i < len(packIDs)-1 {
			if err := writeFraming(w, packID); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeFraming(w io.Writer, packID uint32) error {
	if _, err := fmt.Fprintln(w, groupSeparator); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to write group separator")
	}
	if packID == 0 {
		if _, err := fmt.Fprintln(w, groupZeroMarker); err != nil {
			return errors.Wrap(err, errors.ErrFileWrite, "failed to write group marker")
		}
	}
	return nil
}

// PromoteHeaders synthesizes, for every indexed entry, a pack-0 pseudo
// record representing the container's bookkeeping bytes: keyed by the
// entry's path suffixed with the container base name, its payload region is
// the entry's header region. The pseudo records are inserted into the index
// (so the profiling writer resolves them like any other record) and
// returned for inclusion in the caller's pack grouping.
func PromoteHeaders(index asset.PathStore) []asset.Record {
	pseudo := make([]asset.Record, 0, len(index))
	for _, rec := range index.Records() {
		pseudo = append(pseudo, asset.Record{
			RelativePath:  asset.NormalizePath(rec.RelativePath + "_" + rec.BundlePath),
			PackID:        0,
			BundlePath:    rec.BundlePath,
			PayloadOffset: rec.HeaderOffset,
			PayloadSize:   rec.HeaderSize,
		})
	}
	for _, rec := range pseudo {
		index.Add(rec)
	}
	return pseudo
}
