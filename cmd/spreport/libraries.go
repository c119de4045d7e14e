package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var librariesCmd = &cobra.Command{
	Use:   "libraries",
	Short: "List the site's document libraries",
	RunE: func(cmd *cobra.Command, args []string) error {
		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := reportContext(rt.params)
		defer cancel()

		libraries, err := rt.service.ListLibraries(ctx)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "TITLE\tITEMS\tURL")
		for _, l := range libraries {
			fmt.Fprintf(w, "%s\t%d\t%s\n", l.Title, l.ItemCount, l.URL)
		}
		return w.Flush()
	},
}

func init() {
	rootCmd.AddCommand(librariesCmd)
}
