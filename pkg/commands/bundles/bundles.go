// Package bundles indexes the packed containers produced by the external
// bundler and writes per-platform profiling logs correlating pack groups
// with container byte ranges.
package bundles

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/packtier/packtier/pkg/archive"
	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/hints"
	"github.com/packtier/packtier/pkg/logging"
	"github.com/packtier/packtier/pkg/pipeline"
	"github.com/packtier/packtier/pkg/platform"
	"github.com/packtier/packtier/pkg/proflog"
)

// Options defines the options for the Bundles command.
type Options struct {
	// AssetListPath is the pack asset hints file generated by the
	// assetlists command; each platform reads its tagged variant.
	AssetListPath string
	// BundlePath is the container path the external bundler wrote; each
	// platform reads its tagged variant. Sibling containers sharing the
	// path's stem are indexed together.
	BundlePath string
	// AllowOverwrites permits replacing an existing profiling log and an
	// existing renamed container.
	AllowOverwrites bool
	// Platforms to process, one parallel pipeline each.
	Platforms []platform.Platform
}

// Result reports the per-platform profiling logs written.
type Result struct {
	LogPaths []string
}

// Run writes a profiling log per platform: the platform's asset list joined
// against the byte ranges of its indexed containers, with every container's
// header bytes promoted into pack group 0.
func Run(opts Options) (*Result, error) {
	if opts.AssetListPath == "" || opts.BundlePath == "" {
		return nil, errors.New(errors.ErrInvalidInput, "an asset list path and a bundle path are required")
	}
	if len(opts.Platforms) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "at least one platform is required")
	}

	result := &Result{}
	var mu sync.Mutex

	err := pipeline.ForEachPlatform(opts.Platforms, func(p platform.Platform) error {
		logPath, err := runPlatform(opts, p)
		if err != nil {
			return err
		}
		mu.Lock()
		result.LogPaths = append(result.LogPaths, logPath)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func runPlatform(opts Options, p platform.Platform) (string, error) {
	logger := logging.GetLogger("commands.bundles").With().Str("platform", string(p)).Logger()
	defer logging.LogOperationStart(logger, "bundles")()

	hintPath := platform.AddSuffix(opts.AssetListPath, p)
	bundlePath := platform.AddSuffix(opts.BundlePath, p)

	logPath := strings.TrimSuffix(bundlePath, filepath.Ext(bundlePath)) + ".proflog"
	if _, err := os.Stat(logPath); err == nil && !opts.AllowOverwrites {
		return "", errors.New(errors.ErrOverwriteBlocked,
			"profiling log already exists, running this command would perform a destructive overwrite").
			WithDetail("path", logPath)
	}

	grouping := asset.PathStore{}
	err := hints.Read(hintPath, nil, func(rec asset.Record) {
		grouping.Add(rec)
	})
	if err != nil {
		return "", err
	}

	// The bundler may split one bundle across several sibling containers
	// sharing the stem, so the patterns cover them all, renamed or not.
	stem := strings.TrimSuffix(bundlePath, filepath.Ext(bundlePath))
	index, err := archive.NewIndexer(archive.ZipReader{}, opts.AllowOverwrites).
		IndexContainers(stem+"*"+archive.LegacyExtension, stem+"*"+archive.ContainerExtension)
	if err != nil {
		return "", err
	}

	for _, rec := range proflog.PromoteHeaders(index) {
		grouping.Add(rec)
	}

	logger.Info().Str("path", logPath).Msg("Creating profiling log")
	f, err := os.Create(logPath)
	if err != nil {
		return "", errors.Wrap(err, errors.ErrFileWrite, "failed to create profiling log").
			WithDetail("path", logPath)
	}
	defer f.Close()

	if err := proflog.WriteProfilingLog(f, asset.GroupByPackPaths(grouping, false), index); err != nil {
		return "", err
	}
	return logPath, nil
}
