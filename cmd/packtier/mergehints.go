package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/packtier/packtier/pkg/catalog"
	"github.com/packtier/packtier/pkg/commands/mergehints"
)

func newMergeHintsCmd() *cobra.Command {
	var (
		inputs      []string
		output      string
		samplingLog string
		catalogFile string
	)

	cmd := &cobra.Command{
		Use:   "mergehints",
		Short: "Merge hint files into one file and/or a sampling log",
		Long: `Merges any number of hint files: records sharing an asset identity keep
the smallest pack id, identity-less records merge first-seen by path. The
result can be written back as a hint file, a sampling log, or both.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var resolver catalog.Multi
			if catalogFile != "" {
				platforms, err := resolvePlatforms(cmd)
				if err != nil {
					return err
				}
				resolver, err = loadCatalogs(catalogFile, platforms)
				if err != nil {
					return err
				}
			}

			result, err := mergehints.Run(mergehints.Options{
				InputPaths:      inputs,
				OutputPath:      output,
				SamplingLogPath: samplingLog,
				PackID:          packIDOverride(cmd),
				Resolver:        resolver,
			})
			if err != nil {
				return err
			}

			if result.OutputPath != "" {
				fmt.Printf("Saved %s (%d records)\n", result.OutputPath, result.Merged)
			}
			if result.SamplingLogPath != "" {
				fmt.Printf("Created %s\n", result.SamplingLogPath)
			}
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&inputs, "input", nil, "Hint file to merge (repeatable)")
	cmd.Flags().StringVar(&output, "output", "", "Merged hint file to write")
	cmd.Flags().StringVar(&samplingLog, "output-sampling-log", "", "Sampling log to write from the merged records")
	cmd.Flags().StringVar(&catalogFile, "asset-catalog", "", "Asset catalog file for resolving partial hint entries")
	cmd.Flags().Uint32("pack-id", 0, "Override the pack id of every merged record")
	cmd.Flags().StringSlice("platform", nil, "Platforms to resolve against (default: configured set)")
	_ = cmd.MarkFlagRequired("input")

	return cmd
}
