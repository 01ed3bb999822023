package main

import (
	"github.com/spf13/cobra"

	"github.com/packtier/packtier/pkg/catalog"
	"github.com/packtier/packtier/pkg/config"
	"github.com/packtier/packtier/pkg/platform"
)

// resolvePlatforms returns the platforms named by the --platform flag, or
// the configured enabled set when the flag is absent.
func resolvePlatforms(cmd *cobra.Command) ([]platform.Platform, error) {
	names, err := cmd.Flags().GetStringSlice("platform")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		cfg, err := config.Load(".")
		if err != nil {
			return nil, err
		}
		names = cfg.Platforms.Enabled
	}
	return platform.ParseList(names)
}

// loadCatalogs loads the platform-tagged asset catalog for every platform.
func loadCatalogs(catalogPath string, platforms []platform.Platform) (catalog.Multi, error) {
	multi := catalog.Multi{}
	for _, p := range platforms {
		cat, err := catalog.Load(platform.AddSuffix(catalogPath, p))
		if err != nil {
			return nil, err
		}
		multi[p] = cat
	}
	return multi, nil
}

// packIDOverride returns the --pack-id value only when the user set it, so
// an explicit 0 is distinguishable from the flag's absence.
func packIDOverride(cmd *cobra.Command) *uint32 {
	if !cmd.Flags().Changed("pack-id") {
		return nil
	}
	v, err := cmd.Flags().GetUint32("pack-id")
	if err != nil {
		return nil
	}
	return &v
}
