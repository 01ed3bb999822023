package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packtier/packtier/pkg/commands/assetlists"
	"github.com/packtier/packtier/pkg/config"
)

func newAssetListsCmd() *cobra.Command {
	var (
		seedLists   []string
		addSeeds    []string
		skip        []string
		output      string
		projectRoot string
		catalogFile string
	)

	cmd := &cobra.Command{
		Use:   "assetlists",
		Short: "Generate per-platform pack asset lists from seed assets",
		Long: `Walks the asset catalog from every seed asset, labels each transitive
dependency with its seed group's pack id and writes one platform-tagged
pack asset hints file per platform.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms, err := resolvePlatforms(cmd)
			if err != nil {
				return err
			}
			catalogs, err := loadCatalogs(catalogFile, platforms)
			if err != nil {
				return err
			}
			cfg, err := config.Load(projectRoot)
			if err != nil {
				return err
			}

			result, err := assetlists.Run(assetlists.Options{
				SeedListPaths: seedLists,
				AddSeeds:      addSeeds,
				Skip:          skip,
				OutputPath:    output,
				ProjectRoot:   projectRoot,
				LevelsPattern: cfg.Patterns.Levels,
				Platforms:     platforms,
				Catalogs:      catalogs,
			})
			if err != nil {
				return err
			}

			for _, path := range result.OutputPaths {
				fmt.Printf("Saved %s\n", path)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&seedLists, "seed-list", nil, "Seed hint file to load roots from (repeatable)")
	cmd.Flags().StringArrayVar(&addSeeds, "add-seed", nil, "Inline seed, as path[packid]")
	cmd.Flags().StringArrayVar(&skip, "skip", nil, "Asset path or wildcard pattern to exclude from the walk")
	cmd.Flags().StringVar(&output, "output", "", "Pack asset hints file to write (platform tag inserted per platform)")
	cmd.Flags().StringVar(&projectRoot, "project-root", ".", "Project root anchoring level hint file lookups")
	cmd.Flags().StringVar(&catalogFile, "asset-catalog", "assetcatalog.json", "Asset catalog file (platform tag inserted per platform)")
	cmd.Flags().StringSlice("platform", nil, "Platforms to generate lists for (default: configured set)")
	_ = cmd.MarkFlagRequired("output")

	return cmd
}
