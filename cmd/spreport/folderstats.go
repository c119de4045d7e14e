package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	flagLibrary string
	flagFolder  string
)

var folderStatsCmd = &cobra.Command{
	Use:   "folder-stats",
	Short: "Report per-top-level-folder statistics for a document library",
	Long: `folder-stats enumerates every top-level folder of one document library
and writes a CSV row per folder with its recursive file count, subfolder
count and total size. Folders are processed by parallel workers; a folder
that fails is reported at the end without stopping its siblings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagLibrary == "" {
			return fmt.Errorf("--library is required")
		}

		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		rt.params.FolderFilter = flagFolder

		ctx, cancel := reportContext(rt.params)
		defer cancel()

		return rt.service.RunFolderStats(ctx, rt.siteURL, flagLibrary, rt.out, rt.outPath)
	},
}

func init() {
	folderStatsCmd.Flags().StringVarP(&flagLibrary, "library", "l", "", "document library title (required)")
	folderStatsCmd.Flags().StringVarP(&flagFolder, "folder", "f", "", "limit to one top-level folder (exact name or wildcard)")
	rootCmd.AddCommand(folderStatsCmd)
}
