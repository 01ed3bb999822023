package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packtier/packtier/pkg/commands/seeds"
)

func newSeedsCmd() *cobra.Command {
	var (
		seedList    string
		catalogFile string
		addSeeds    []string
		removeSeeds []string
	)

	cmd := &cobra.Command{
		Use:   "seeds",
		Short: "Add or remove seed assets in a seed hint file",
		Long: `Maintains a seed hint file: the root assets, each tagged with a pack id,
from which asset lists are generated. Added seeds use the form
"path[packid]"; the pack id defaults to 0.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			platforms, err := resolvePlatforms(cmd)
			if err != nil {
				return err
			}
			catalogs, err := loadCatalogs(catalogFile, platforms)
			if err != nil {
				return err
			}

			result, err := seeds.Run(seeds.Options{
				SeedListPath: seedList,
				AddSeeds:     addSeeds,
				RemoveSeeds:  removeSeeds,
				PackID:       packIDOverride(cmd),
				Catalogs:     catalogs,
			})
			if err != nil {
				return err
			}

			fmt.Printf("Saved %s: %d added, %d removed, %d seeds total\n",
				result.OutputPath, result.Added, result.Removed, result.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&seedList, "seed-list", "", "Seed hint file to create or update")
	cmd.Flags().StringVar(&catalogFile, "asset-catalog", "assetcatalog.json", "Asset catalog file (platform tag inserted per platform)")
	cmd.Flags().StringArrayVar(&addSeeds, "add-seed", nil, "Seed to add, as path[packid]")
	cmd.Flags().StringArrayVar(&removeSeeds, "remove-seed", nil, "Seed path to remove")
	cmd.Flags().Uint32("pack-id", 0, "Override the pack id of every seed in the file")
	cmd.Flags().StringSlice("platform", nil, "Platforms to resolve seeds against (default: configured set)")
	_ = cmd.MarkFlagRequired("seed-list")

	return cmd
}
