package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scanmark/cmd/scanmark/ui"
	"scanmark/internal/assessment"
	"scanmark/internal/barcode"
	"scanmark/internal/pipeline"
	"scanmark/internal/store"
)

var (
	processOutput     string
	processWorkers    int
	processMaxGrade   int
	processNoRotate   bool
	processNoProgress bool
)

// processCmd runs a full batch: discover, resolve, aggregate, record, write.
var processCmd = &cobra.Command{
	Use:   "process [dir|files...]",
	Short: "Resolve a batch of scanned pages and write renamed outputs",
	Long: `Processes every image and PDF given (directories are walked in sorted
order), decodes each page's barcodes, resolves identity/rotation/grade,
groups pages into attempts, and writes rotated pages to the output
directory under the U{copy}_Q{question}_A{attempt}_G{grade}_P{page} naming
convention. The run is recorded in the store for later export.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().StringVarP(&processOutput, "output", "o", "", "output directory (overrides config)")
	processCmd.Flags().IntVar(&processWorkers, "workers", 0, "concurrent page workers (overrides config)")
	processCmd.Flags().IntVar(&processMaxGrade, "max-grade", -1, "highest candidate grade (overrides config)")
	processCmd.Flags().BoolVar(&processNoRotate, "no-autorotate", false, "treat every page as already upright")
	processCmd.Flags().BoolVar(&processNoProgress, "no-progress", false, "disable the progress bar")
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if processOutput != "" {
		cfg.OutputDir = processOutput
	}
	if processWorkers > 0 {
		cfg.Workers = processWorkers
	}
	if processMaxGrade >= 0 {
		cfg.MaxGrade = processMaxGrade
	}
	if processNoRotate {
		cfg.Autorotate = false
	}

	st, err := store.NewStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipe := pipeline.New(cfg, barcode.NewEngine(logger), logger)

	showProgress := cfg.UI.Progress && !processNoProgress && isatty.IsTerminal(os.Stdout.Fd())

	var result *assessment.Assessment
	var runErr error
	if showProgress {
		result, runErr = runWithProgress(ctx, pipe, args)
	} else {
		pipe.OnPage = func(done, total int, path string) {
			logger.Info("page resolved", zap.Int("done", done), zap.Int("total", total), zap.String("page", path))
		}
		result, runErr = pipe.Run(ctx, args)
	}
	if result == nil {
		return runErr
	}

	runID, err := st.BeginRun(time.Now())
	if err != nil {
		return err
	}
	for i, att := range result.Attempts() {
		if err := st.RecordAttempt(runID, i, att); err != nil {
			return err
		}
	}
	if err := st.FinishRun(runID, time.Now()); err != nil {
		return err
	}

	if _, err := pipe.WriteOutputs(result, cfg.OutputDir); err != nil {
		return err
	}

	printSummary(cmd, result, runID)
	if runErr != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "run interrupted: recorded the completed prefix only (%v)\n", runErr)
	}
	return nil
}

// runWithProgress drives the pipeline under a bubbletea progress bar.
func runWithProgress(ctx context.Context, pipe *pipeline.Pipeline, inputs []string) (*assessment.Assessment, error) {
	return runUnderProgram(ctx, pipe, inputs, tea.NewProgram(ui.NewProgressModel()))
}

// runUnderProgram runs the pipeline in its own goroutine; page callbacks
// become UI messages. bubbletea owns the terminal in raw mode, so a ctrl+c
// arrives as a key message and ends program.Run instead of reaching the
// signal context: the UI exiting is therefore the abort signal, and the run
// context is cancelled as soon as it returns. A run that already finished
// (DoneMsg path) sees the cancel as a no-op.
func runUnderProgram(ctx context.Context, pipe *pipeline.Pipeline, inputs []string, program *tea.Program) (*assessment.Assessment, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	pipe.OnPage = func(done, total int, path string) {
		program.Send(ui.PageMsg{Done: done, Total: total, Path: path})
	}

	type runResult struct {
		result *assessment.Assessment
		err    error
	}
	resultCh := make(chan runResult, 1)
	go func() {
		result, err := pipe.Run(ctx, inputs)
		resultCh <- runResult{result, err}
		program.Send(ui.DoneMsg{})
	}()

	_, uiErr := program.Run()
	cancel()
	res := <-resultCh
	if uiErr != nil {
		return res.result, uiErr
	}
	return res.result, res.err
}

func printSummary(cmd *cobra.Command, result *assessment.Assessment, runID string) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run %s\n", runID)
	fmt.Fprintf(out, "attempts: %d (%d valid, %d missing identifiers)\n",
		len(result.Attempts()), len(result.ValidAttempts()), len(result.InvalidAttempts()))
	fmt.Fprintf(out, "grades:   %d resolved, %d unresolved\n",
		len(result.GradedAttempts()), len(result.UngradedAttempts()))
	fmt.Fprintf(out, "indexed:  %d copies, %d questions\n",
		result.CopyCount(), result.QuestionCount())
}
