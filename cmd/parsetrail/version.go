package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/parsetrail"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of parsetrail",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "parsetrail version %s\n", strings.TrimSpace(parsetrail.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
