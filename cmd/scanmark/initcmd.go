package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"scanmark/internal/config"
)

// initCmd writes a default config file so a new workspace starts from an
// editable baseline instead of implicit defaults.
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default scanmark.yaml in the current directory",
	Args:  cobra.NoArgs,
	RunE:  runInit,
}

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "overwrite an existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if !initForce {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
	}
	cfg := config.DefaultConfig()
	if err := cfg.Save(configPath); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	return nil
}
