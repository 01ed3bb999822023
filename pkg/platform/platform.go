// Package platform enumerates the target platforms an asset catalog can be
// addressed by, and tags output file names with a platform identifier.
package platform

import (
	"path/filepath"
	"strings"

	"github.com/packtier/packtier/pkg/errors"
)

// Platform is a target platform identifier.
type Platform string

const (
	PC      Platform = "pc"
	Linux   Platform = "linux"
	Mac     Platform = "mac"
	Android Platform = "android"
	IOS     Platform = "ios"
	Server  Platform = "server"
)

// Known returns all platforms the tool is aware of, in stable order.
func Known() []Platform {
	return []Platform{PC, Linux, Mac, Android, IOS, Server}
}

// Parse validates a platform name.
func Parse(name string) (Platform, error) {
	candidate := Platform(strings.ToLower(strings.TrimSpace(name)))
	for _, p := range Known() {
		if p == candidate {
			return p, nil
		}
	}
	return "", errors.Newf(errors.ErrPlatformUnknown, "unknown platform (%s)", name)
}

// ParseList validates a list of platform names, rejecting duplicates.
func ParseList(names []string) ([]Platform, error) {
	seen := make(map[Platform]struct{}, len(names))
	platforms := make([]Platform, 0, len(names))
	for _, name := range names {
		p, err := Parse(name)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		platforms = append(platforms, p)
	}
	return platforms, nil
}

// AddSuffix tags the file name with the platform identifier, inserted
// before the first extension: "seeds.pak.assethints" becomes
// "seeds_pc.pak.assethints". Paths already tagged are returned unchanged.
func AddSuffix(path string, p Platform) string {
	dir := filepath.Dir(path)
	base := filepath.Base(path)

	name := base
	ext := ""
	if dot := strings.IndexByte(base, '.'); dot >= 0 {
		name = base[:dot]
		ext = base[dot:]
	}

	if _, tagged := TrimSuffix(name); tagged {
		return path
	}

	return filepath.Join(dir, name+"_"+string(p)+ext)
}

// TrimSuffix strips a trailing platform tag from a file name stem and
// reports whether one was present.
func TrimSuffix(stem string) (Platform, bool) {
	under := strings.LastIndexByte(stem, '_')
	if under < 0 {
		return "", false
	}
	p, err := Parse(stem[under+1:])
	if err != nil {
		return "", false
	}
	return p, true
}
