// Package config loads packtier's layered configuration: embedded defaults
// overridden by an optional packtier.toml in the project root.
package config

import (
	_ "embed"
	"os"
	"path/filepath"

	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/packtier/packtier/pkg/errors"
)

//go:embed embedded/defaults.toml
var defaultConfig []byte

// rawBytesProvider implements koanf provider for raw bytes
type rawBytesProvider struct{ bytes []byte }

func (r *rawBytesProvider) ReadBytes() ([]byte, error) { return r.bytes, nil }
func (r *rawBytesProvider) Read() (map[string]interface{}, error) {
	return nil, errors.New(errors.ErrInternal, "not implemented")
}

// Config is the fully resolved configuration.
type Config struct {
	Platforms  Platforms  `koanf:"platforms"`
	Extensions Extensions `koanf:"extensions"`
	Bundler    Bundler    `koanf:"bundler"`
	Patterns   Patterns   `koanf:"patterns"`
}

// Platforms enumerates the target platforms a command runs for when no
// --platform flag narrows the set.
type Platforms struct {
	Enabled []string `koanf:"enabled"`
}

// Extensions carries the file extensions of every artifact packtier reads
// or writes.
type Extensions struct {
	Container    string `koanf:"container"`
	Legacy       string `koanf:"legacy"`
	SeedHints    string `koanf:"seed_hints"`
	PakHints     string `koanf:"pak_hints"`
	ProfilingLog string `koanf:"profiling_log"`
	SamplingLog  string `koanf:"sampling_log"`
}

// Bundler names the external packaging executable that produces the
// containers packtier indexes. packtier never launches it; the name exists
// so operators can document and validate the pairing.
type Bundler struct {
	Executable string `koanf:"executable"`
}

// Patterns holds wildcard patterns with built-in meaning.
type Patterns struct {
	// Levels matches level assets, whose seeds pull in sibling level hint
	// files.
	Levels string `koanf:"levels"`
}

// Load resolves the configuration for a project root.
func Load(projectRoot string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(&rawBytesProvider{bytes: defaultConfig}, toml.Parser()); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigLoad, "failed to load default configuration")
	}

	for _, filename := range []string{".packtier.toml", "packtier.toml"} {
		path := filepath.Join(projectRoot, filename)
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to parse project configuration").
					WithDetail("path", path)
			}
			break
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, errors.ErrConfigParse, "failed to decode configuration")
	}
	return &cfg, nil
}
