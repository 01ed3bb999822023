// Package asset defines the canonical record type tracking an asset's pack
// assignment and, once archive-indexed, its byte placement inside a packed
// container. Stores keyed by identity merge with min-wins semantics; stores
// keyed by relative path keep the first record seen.
package asset

import (
	"fmt"
	"path"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// UnassignedPackID is the sentinel pack id for records that no seed group
// has claimed. It is never serialized unless a caller explicitly asks for
// unassigned records to be included.
const UnassignedPackID = ^uint32(0)

// ID uniquely identifies a logical asset. The engine assigns the GUID; the
// SubID distinguishes multiple products built from one source.
type ID struct {
	GUID  uuid.UUID
	SubID uint32
}

// IsValid reports whether the ID carries a real GUID.
func (id ID) IsValid() bool {
	return id.GUID != uuid.Nil
}

// String renders the ID as "<guid>:<subid-hex>".
func (id ID) String() string {
	return fmt.Sprintf("%s:%x", id.GUID, id.SubID)
}

// ParseID parses the "<guid>:<subid-hex>" form produced by String.
func ParseID(s string) (ID, error) {
	sep := strings.LastIndexByte(s, ':')
	if sep < 0 {
		return ID{}, fmt.Errorf("asset id %q: missing sub-id separator", s)
	}
	guid, err := uuid.Parse(s[:sep])
	if err != nil {
		return ID{}, fmt.Errorf("asset id %q: %w", s, err)
	}
	subID, err := strconv.ParseUint(s[sep+1:], 16, 32)
	if err != nil {
		return ID{}, fmt.Errorf("asset id %q: %w", s, err)
	}
	return ID{GUID: guid, SubID: uint32(subID)}, nil
}

// Record is one asset's pack assignment plus its archive placement once a
// container has been indexed. At persistence time at least one of ID and
// RelativePath must be present.
type Record struct {
	ID           ID
	RelativePath string
	PackID       uint32

	BundlePath    string
	PayloadOffset uint32
	PayloadSize   uint32
	HeaderOffset  uint32
	HeaderSize    uint32
}

// NewRecord builds a record with a normalized relative path.
func NewRecord(id ID, relativePath string, packID uint32) Record {
	return Record{
		ID:           id,
		RelativePath: NormalizePath(relativePath),
		PackID:       packID,
	}
}

// Persistable reports whether the record satisfies the persistence
// invariant: a valid identity, a relative path, or both.
func (r Record) Persistable() bool {
	return r.ID.IsValid() || r.RelativePath != ""
}

// NormalizePath lower-cases a path, converts it to posix separators,
// strips any leading separator and lexically cleans it.
func NormalizePath(p string) string {
	p = strings.ToLower(strings.ReplaceAll(p, "\\", "/"))
	p = strings.TrimPrefix(p, "/")
	if p == "" {
		return ""
	}
	return path.Clean(p)
}

// Store maps asset identity to its current record.
type Store map[ID]Record

// Add merges rec into the store. When the identity is already present the
// numerically smaller pack id wins (smaller = higher priority), which makes
// the merge commutative and idempotent. Returns true when an existing
// record was found.
func (s Store) Add(rec Record) bool {
	existing, ok := s[rec.ID]
	if ok {
		if rec.PackID < existing.PackID {
			existing.PackID = rec.PackID
			s[rec.ID] = existing
		}
		return true
	}
	s[rec.ID] = rec
	return false
}

// Remove erases the record for id, if present.
func (s Store) Remove(id ID) {
	delete(s, id)
}

// ApplyPackID overwrites every record's pack id. Used for an explicit
// caller-supplied override, applied as a final pass after any merging.
func (s Store) ApplyPackID(packID uint32) {
	for id, rec := range s {
		rec.PackID = packID
		s[id] = rec
	}
}

// Records returns the store's records sorted by relative path then ID.
func (s Store) Records() []Record {
	recs := make([]Record, 0, len(s))
	for _, rec := range s {
		recs = append(recs, rec)
	}
	sortRecords(recs)
	return recs
}

// PathStore maps relative path to a record. It is used where identities may
// be unresolvable, such as entries intrinsic to a container format. Unlike
// Store, the first record seen for a path wins.
type PathStore map[string]Record

// Add inserts rec keyed by its relative path unless the path is already
// present. Returns true when an existing record was found.
func (ps PathStore) Add(rec Record) bool {
	if _, ok := ps[rec.RelativePath]; ok {
		return true
	}
	ps[rec.RelativePath] = rec
	return false
}

// ApplyPackID overwrites every record's pack id.
func (ps PathStore) ApplyPackID(packID uint32) {
	for p, rec := range ps {
		rec.PackID = packID
		ps[p] = rec
	}
}

// Records returns the store's records sorted by relative path then ID.
func (ps PathStore) Records() []Record {
	recs := make([]Record, 0, len(ps))
	for _, rec := range ps {
		recs = append(recs, rec)
	}
	sortRecords(recs)
	return recs
}

// PackGroups is a derived, read-only grouping of records by pack id, built
// once per serialization pass.
type PackGroups map[uint32][]Record

// Group partitions records by pack id. Records carrying the unassigned
// sentinel are omitted unless includeUnassigned is set. Pack ids with no
// records never appear.
func Group(records []Record, includeUnassigned bool) PackGroups {
	groups := make(PackGroups)
	for _, rec := range records {
		if rec.PackID == UnassignedPackID && !includeUnassigned {
			continue
		}
		groups[rec.PackID] = append(groups[rec.PackID], rec)
	}
	for packID := range groups {
		sortRecords(groups[packID])
	}
	return groups
}

// GroupByPack partitions an identity-keyed store by pack id.
func GroupByPack(s Store, includeUnassigned bool) PackGroups {
	return Group(s.Records(), includeUnassigned)
}

// GroupByPackPaths partitions a path-keyed store by pack id.
func GroupByPackPaths(ps PathStore, includeUnassigned bool) PackGroups {
	return Group(ps.Records(), includeUnassigned)
}

// SortedIDs returns the group's pack ids in ascending order (lower id =
// higher priority = earlier-loaded tier).
func (g PackGroups) SortedIDs() []uint32 {
	ids := make([]uint32, 0, len(g))
	for id := range g {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Merge appends other's records into g, keeping per-group ordering.
func (g PackGroups) Merge(other PackGroups) {
	for packID, recs := range other {
		g[packID] = append(g[packID], recs...)
		sortRecords(g[packID])
	}
}

func sortRecords(recs []Record) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].RelativePath != recs[j].RelativePath {
			return recs[i].RelativePath < recs[j].RelativePath
		}
		return recs[i].ID.String() < recs[j].ID.String()
	})
}
