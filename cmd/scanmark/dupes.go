package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"scanmark/internal/store"
)

var dupesRun string

// dupesCmd surfaces identifier triples decoded from more than one source
// file. The engine itself never deduplicates; this check is how an operator
// catches a double-fed sheet before trusting an export.
var dupesCmd = &cobra.Command{
	Use:   "dupes",
	Short: "List identifier triples decoded from more than one scan file",
	RunE:  runDupes,
}

func init() {
	dupesCmd.Flags().StringVar(&dupesRun, "run", "", "run id (defaults to the latest run)")
}

func runDupes(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.NewStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	runID := dupesRun
	if runID == "" {
		runID, err = st.LatestRunID()
		if err != nil {
			return err
		}
		if runID == "" {
			return fmt.Errorf("store has no recorded runs; run 'scanmark process' first")
		}
	}

	dupes, err := st.Duplicates(runID)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	if len(dupes) == 0 {
		fmt.Fprintln(out, "no duplicates")
		return nil
	}
	for _, d := range dupes {
		fmt.Fprintf(out, "copy %s question %s attempt %s: %s\n",
			d.IDs.Copy, d.IDs.Question, d.IDs.Attempt, strings.Join(d.Paths, ", "))
	}
	return nil
}
