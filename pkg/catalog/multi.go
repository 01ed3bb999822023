package catalog

import (
	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/logging"
	"github.com/packtier/packtier/pkg/platform"
)

// Multi addresses one catalog per platform. Lookups that must hold across
// every requested platform go through it; per-platform pipelines use the
// individual catalogs directly.
type Multi map[platform.Platform]Catalog

// IDByPath resolves a path to an identity on every platform. If any
// platform's catalog does not know the asset, or the platforms resolve it
// to different identities, the resolution fails, so a seed cannot silently
// drop off (or diverge across) a subset of platforms.
func (m Multi) IDByPath(path string) (asset.ID, bool) {
	logger := logging.GetLogger("catalog")

	var id asset.ID
	resolved := false
	failed := false
	for p, cat := range m {
		foundID, ok := cat.IDByPath(path)
		if !ok {
			logger.Warn().
				Str("path", path).
				Str("platform", string(p)).
				Msg("Asset catalog does not know about the asset")
			failed = true
			continue
		}
		if resolved && foundID != id {
			logger.Warn().
				Str("path", path).
				Str("platform", string(p)).
				Msg("Platforms disagree on the asset's identity")
			failed = true
			continue
		}
		id = foundID
		resolved = true
	}
	if failed || !id.IsValid() {
		return asset.ID{}, false
	}
	return id, true
}

// PathByID resolves an identity to a path on the first platform that knows
// it.
func (m Multi) PathByID(id asset.ID) (string, bool) {
	for _, cat := range m {
		if path, ok := cat.PathByID(id); ok {
			return path, true
		}
	}
	logger := logging.GetLogger("catalog")
	logger.Warn().Stringer("asset", id).Msg("Unable to resolve path of asset for the given platforms")
	return "", false
}
