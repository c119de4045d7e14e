package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var flagRunsLimit int

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "Show recent report runs from the run-history database",
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagDBPath == "" {
			return fmt.Errorf("--db is required to read run history")
		}

		repo, cleanup, err := openRunRepository()
		if err != nil {
			return err
		}
		defer cleanup()

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		runs, err := repo.ListRuns(ctx, flagRunsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tTARGET\tROWS\tERRORS\tSTARTED\tCOMPLETED")
		for _, r := range runs {
			completed := "-"
			if r.CompletedAt != nil {
				completed = r.CompletedAt.Format(time.RFC3339)
			}
			fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\t%s\n",
				r.ID, r.Kind, r.Target, r.RowCount, r.ErrorCount,
				r.StartedAt.Format(time.RFC3339), completed)
		}
		return w.Flush()
	},
}

func init() {
	runsCmd.Flags().IntVarP(&flagRunsLimit, "limit", "n", 20, "maximum runs to show")
	rootCmd.AddCommand(runsCmd)
}
