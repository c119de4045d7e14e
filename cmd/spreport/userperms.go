package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagUser string

var userPermissionsCmd = &cobra.Command{
	Use:   "user-permissions",
	Short: "Report one user's permission assignments across document libraries",
	Long: `user-permissions scans the site, its document libraries and their items
for unique permission assignments held by the given user, and writes one
CSV row per assignment. The user is matched by login name or email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if flagUser == "" {
			return fmt.Errorf("--user is required")
		}

		rt, err := buildRuntime()
		if err != nil {
			return err
		}
		defer rt.close()

		ctx, cancel := reportContext(rt.params)
		defer cancel()

		return rt.service.RunUserPermissions(ctx, rt.siteURL, flagUser, rt.out, rt.outPath)
	},
}

func init() {
	userPermissionsCmd.Flags().StringVarP(&flagUser, "user", "u", "", "user login name or email (required)")
	rootCmd.AddCommand(userPermissionsCmd)
}
