package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packtier/packtier/pkg/commands/bundles"
)

func newBundlesCmd() *cobra.Command {
	var (
		assetList       string
		bundlePath      string
		allowOverwrites bool
	)

	cmd := &cobra.Command{
		Use:   "bundles",
		Short: "Index packed containers and write profiling logs",
		Long: `Renames the containers the external bundler produced, indexes their
per-entry byte ranges and writes one platform-tagged profiling log
correlating the pack asset list with the container layout.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms, err := resolvePlatforms(cmd)
			if err != nil {
				return err
			}

			result, err := bundles.Run(bundles.Options{
				AssetListPath:   assetList,
				BundlePath:      bundlePath,
				AllowOverwrites: allowOverwrites,
				Platforms:       platforms,
			})
			if err != nil {
				return err
			}

			for _, path := range result.LogPaths {
				fmt.Printf("Created %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&assetList, "asset-list", "", "Pack asset hints file generated by assetlists (platform tag inserted per platform)")
	cmd.Flags().StringVar(&bundlePath, "bundle", "", "Container path the bundler wrote (platform tag inserted per platform)")
	cmd.Flags().BoolVar(&allowOverwrites, "allow-overwrites", false, "Replace existing profiling logs and renamed containers")
	cmd.Flags().StringSlice("platform", nil, "Platforms to process (default: configured set)")
	_ = cmd.MarkFlagRequired("asset-list")
	_ = cmd.MarkFlagRequired("bundle")

	return cmd
}
