// Package mergehints reconciles several hint files into one: records with a
// resolvable identity merge min-wins on the pack id, identity-less records
// merge first-seen by path.
package mergehints

import (
	"os"

	"github.com/packtier/packtier/pkg/asset"
	"github.com/packtier/packtier/pkg/errors"
	"github.com/packtier/packtier/pkg/hints"
	"github.com/packtier/packtier/pkg/logging"
	"github.com/packtier/packtier/pkg/proflog"
)

// Options defines the options for the MergeHints command.
type Options struct {
	// InputPaths are the hint files to merge, in any order.
	InputPaths []string
	// OutputPath receives the merged hint file; empty skips it.
	OutputPath string
	// SamplingLogPath receives a sampling log of the merged records; empty
	// skips it.
	SamplingLogPath string
	// PackID, when set, overrides the pack id of every merged record as a
	// final pass.
	PackID *uint32
	// Resolver completes hint entries that carry only one identifying
	// half. May be nil.
	Resolver hints.Resolver
}

// Result reports what was written.
type Result struct {
	OutputPath      string
	SamplingLogPath string
	Merged          int
}

// Run merges the input hint files and writes the requested outputs. Merge
// order never affects the outcome: identity collisions keep the smaller
// pack id, path collisions keep the first record seen.
func Run(opts Options) (*Result, error) {
	logger := logging.GetLogger("commands.mergehints")

	if len(opts.InputPaths) == 0 {
		return nil, errors.New(errors.ErrInvalidInput, "at least one input hint file is required")
	}
	if opts.OutputPath == "" && opts.SamplingLogPath == "" {
		return nil, errors.New(errors.ErrInvalidInput, "nothing to do: no output hint file or sampling log requested")
	}

	idStore := asset.Store{}
	pathStore := asset.PathStore{}
	for _, input := range opts.InputPaths {
		err := hints.Read(input, opts.Resolver, func(rec asset.Record) {
			if rec.ID.IsValid() {
				idStore.Add(rec)
			} else {
				pathStore.Add(rec)
			}
		})
		if err != nil {
			return nil, err
		}
	}

	if opts.PackID != nil {
		idStore.ApplyPackID(*opts.PackID)
		pathStore.ApplyPackID(*opts.PackID)
	}

	groups := asset.GroupByPack(idStore, false)
	groups.Merge(asset.GroupByPackPaths(pathStore, false))

	result := &Result{Merged: len(idStore) + len(pathStore)}

	if opts.OutputPath != "" {
		logger.Info().Str("path", opts.OutputPath).Int("records", result.Merged).Msg("Saving merged hint file")
		if err := hints.Write(opts.OutputPath, groups); err != nil {
			return nil, err
		}
		result.OutputPath = opts.OutputPath
	}

	if opts.SamplingLogPath != "" {
		logger.Info().Str("path", opts.SamplingLogPath).Msg("Creating sampling log")
		f, err := os.Create(opts.SamplingLogPath)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrFileWrite, "failed to create sampling log").
				WithDetail("path", opts.SamplingLogPath)
		}
		defer f.Close()
		if err := proflog.WriteSamplingLog(f, groups); err != nil {
			return nil, err
		}
		result.SamplingLogPath = opts.SamplingLogPath
	}

	return result, nil
}
