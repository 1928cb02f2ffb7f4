package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the scanmark release version.
const Version = "0.4.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the scanmark version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scanmark %s\n", Version)
	},
}
