// Package hints reads and writes asset hint files: JSON objects keyed by
// decimal pack-id strings, each value an array of asset references. Hint
// files may carry // and /* */ comments; offsets are preserved when the
// comments are stripped, so parse errors report exact line numbers.
package hints

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/tidwall/jsonc"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/logging"
)

// Resolver supplies the catalog lookups needed to complete a hint entry
// that carries only one of its two identifying halves.
type Resolver interface {
	PathByID(id asset.ID) (string, bool)
	IDByPath(path string) (asset.ID, bool)
}

// subID serializes hex-formatted ("1a2b") and deserializes either a hex
// string or a plain JSON number.
type subID uint32

func (s subID) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(s), 16))
}

func (s *subID) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		v, err := strconv.ParseUint(str, 16, 32)
		if err != nil {
			return fmt.Errorf("subId %q: %w", str, err)
		}
		*s = subID(v)
		return nil
	}
	var v uint32
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = subID(v)
	return nil
}

// entry is the wire form of one asset reference.
type entry struct {
	GUID      string `json:"guid,omitempty"`
	SubID     *subID `json:"subId,omitempty"`
	AssetHint string `json:"assetHint,omitempty"`
}

// Read parses the hint file at path and invokes fn once per record. Each
// entry must carry a guid+subId pair, an assetHint path, or both; the
// missing half is resolved through the resolver, and a failed resolution is
// a warning, not an error (the record keeps whichever half it has).
func Read(path string, res Resolver, fn func(asset.Record)) error {
	logger := logging.GetLogger("hints")

	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, errors.ErrFileAccess, "failed to read hint file").
			WithDetail("path", path)
	}

	// Comment stripping replaces comment bytes with spaces, so offsets in
	// the stripped document map 1:1 onto the original file.
	stripped := jsonc.ToJSON(data)

	var groups map[string][]entry
	if err := json.Unmarshal(stripped, &groups); err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		switch {
		case stderrors.As(err, &syntaxErr):
			return errors.Newf(errors.ErrHintsParse, "JSON parse error at line %d: %v",
				lineOfOffset(stripped, syntaxErr.Offset), syntaxErr).
				WithDetail("path", path)
		case stderrors.As(err, &typeErr):
			return errors.Newf(errors.ErrHintsParse,
				"expecting an array of asset hints at line %d, found %s",
				lineOfOffset(stripped, typeErr.Offset), typeErr.Value).
				WithDetail("path", path)
		default:
			return errors.Wrap(err, errors.ErrHintsParse, "failed to parse hint file").
				WithDetail("path", path)
		}
	}

	for key, list := range groups {
		packID, err := strconv.ParseUint(key, 10, 32)
		if err != nil {
			return errors.Newf(errors.ErrHintsParse, "pack id key %q is not a decimal integer", key).
				WithDetail("path", path)
		}
		for i, e := range list {
			rec, err := e.toRecord(uint32(packID), res, logger)
			if err != nil {
				return errors.Wrapf(err, errors.ErrHintsParse,
					"pack group %s entry %d", key, i).
					WithDetail("path", path)
			}
			fn(rec)
		}
	}
	return nil
}

func (e entry) toRecord(packID uint32, res Resolver, logger zerolog.Logger) (asset.Record, error) {
	hasID := e.GUID != "" && e.SubID != nil
	hasHint := e.AssetHint != ""
	if !hasID && !hasHint {
		return asset.Record{}, fmt.Errorf("entry carries neither guid+subId nor assetHint")
	}

	rec := asset.Record{PackID: packID, RelativePath: asset.NormalizePath(e.AssetHint)}

	if hasID {
		id, err := asset.ParseID(e.GUID + ":" + strconv.FormatUint(uint64(*e.SubID), 16))
		if err != nil {
			return asset.Record{}, err
		}
		rec.ID = id
	} else if res != nil {
		if id, ok := res.IDByPath(rec.RelativePath); ok {
			rec.ID = id
		} else {
			logger.Warn().Str("assetHint", rec.RelativePath).Msg("Could not resolve asset id for hint")
		}
	}

	if !hasHint && res != nil {
		if p, ok := res.PathByID(rec.ID); ok {
			rec.RelativePath = p
		} else {
			logger.Warn().Stringer("asset", rec.ID).Msg("Could not resolve path for asset id")
		}
	}

	return rec, nil
}

// Write serializes the pack groups to path, keys in ascending pack-id
// order. Records violating the persistence invariant (no identity and no
// path) are skipped with a warning. Nothing is written for empty groups.
func Write(path string, groups asset.PackGroups) error {
	logger := logging.GetLogger("hints")

	if len(groups) == 0 {
		logger.Debug().Str("path", path).Msg("No records to write, skipping hint file")
		return nil
	}

	var buf bytes.Buffer
	buf.WriteString("{\n")

	packIDs := groups.SortedIDs()
	wroteGroup := false
	for _, packID := range packIDs {
		entries := make([]entry, 0, len(groups[packID]))
		for _, rec := range groups[packID] {
			if !rec.Persistable() {
				logger.Warn().Uint32("packID", packID).Msg("Skipping record without a valid asset id or a relative path")
				continue
			}
			entries = append(entries, toEntry(rec))
		}
		if len(entries) == 0 {
			continue
		}
		if wroteGroup {
			buf.WriteString(",\n")
		}
		arr, err := json.MarshalIndent(entries, "  ", "  ")
		if err != nil {
			return errors.Wrap(err, errors.ErrHintsWrite, "failed to encode hint entries")
		}
		fmt.Fprintf(&buf, "  %q: %s", strconv.FormatUint(uint64(packID), 10), arr)
		wroteGroup = true
	}
	if !wroteGroup {
		logger.Debug().Str("path", path).Msg("No persistable records to write, skipping hint file")
		return nil
	}
	buf.WriteString("\n}\n")

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return errors.Wrap(err, errors.ErrFileWrite, "failed to save hint file").
			WithDetail("path", path)
	}
	return nil
}

func toEntry(rec asset.Record) entry {
	e := entry{AssetHint: rec.RelativePath}
	if rec.ID.IsValid() {
		e.GUID = rec.ID.GUID.String()
		s := subID(rec.ID.SubID)
		e.SubID = &s
	}
	return e
}

// lineOfOffset converts a byte offset into a 1-based line number.
func lineOfOffset(data []byte, offset int64) int {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	return 1 + strings.Count(string(data[:offset]), "\n")
}
