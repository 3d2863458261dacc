package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of catch-backup",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "catch-backup %s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
