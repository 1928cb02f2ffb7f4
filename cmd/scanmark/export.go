package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"scanmark/internal/assessment"
	"scanmark/internal/barcode"
	"scanmark/internal/export"
	"scanmark/internal/pipeline"
	"scanmark/internal/store"
)

var (
	exportBy  string
	exportRun string
	exportOut string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export a recorded run as CSV grade tables or per-group PDFs",
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Write a grade table grouped by copy or by question",
	Long: `Writes one CSV row per group key. Grouped by copy, each row holds the
copy id followed by the attempt grades ordered by ascending question id;
grouped by question, grades follow in run order. Unresolved grades render
as empty cells.`,
	RunE: runExportCSV,
}

var exportPDFCmd = &cobra.Command{
	Use:   "pdf",
	Short: "Write one PDF per group key, one page per attempt",
	RunE:  runExportPDF,
}

func init() {
	exportCmd.PersistentFlags().StringVar(&exportBy, "by", "copy", "grouping index: copy or question")
	exportCmd.PersistentFlags().StringVar(&exportRun, "run", "", "run id (defaults to the latest run)")
	exportCmd.PersistentFlags().StringVar(&exportOut, "out", "", "output file (csv) or directory (pdf)")
	exportCmd.AddCommand(exportCSVCmd)
	exportCmd.AddCommand(exportPDFCmd)
}

// loadRun opens the store and rebuilds the requested run's assessment.
func loadRun() (*assessment.Assessment, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	st, err := store.NewStore(cfg.StorePath)
	if err != nil {
		return nil, err
	}
	defer st.Close()

	runID := exportRun
	if runID == "" {
		runID, err = st.LatestRunID()
		if err != nil {
			return nil, err
		}
		if runID == "" {
			return nil, fmt.Errorf("store has no recorded runs; run 'scanmark process' first")
		}
	}
	return st.LoadAssessment(runID)
}

func runExportCSV(cmd *cobra.Command, args []string) error {
	result, err := loadRun()
	if err != nil {
		return err
	}

	out := exportOut
	if out == "" {
		out = fmt.Sprintf("grades_by_%s.csv", exportBy)
	}
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create %s: %w", out, err)
	}
	defer f.Close()

	switch exportBy {
	case "copy":
		err = export.WriteCopyCSV(f, result)
	case "question":
		err = export.WriteQuestionCSV(f, result)
	default:
		return fmt.Errorf("unknown grouping %q (want copy or question)", exportBy)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
	return nil
}

func runExportPDF(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	result, err := loadRun()
	if err != nil {
		return err
	}

	var groups []assessment.Group
	var prefix string
	switch exportBy {
	case "copy":
		groups, prefix = result.ByCopy(), "copy_"
	case "question":
		groups, prefix = result.ByQuestion(), "question_"
	default:
		return fmt.Errorf("unknown grouping %q (want copy or question)", exportBy)
	}

	outDir := exportOut
	if outDir == "" {
		outDir = filepath.Join(cfg.OutputDir, "pdf")
	}

	pipe := pipeline.New(cfg, barcode.NewEngine(logger), logger)
	written, err := pipe.WriteGroupPDFs(groups, prefix, outDir)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", path)
	}
	return nil
}
