package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"scanmark/internal/assessment"
	"scanmark/internal/barcode"
	"scanmark/internal/logging"
	"scanmark/internal/pipeline"
	"scanmark/internal/store"
)

// watchCmd keeps processing a directory as scans land in it. Each settled
// batch becomes its own recorded run with the usual ordering guarantees.
var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Process new scans as they appear in a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	st, err := store.NewStore(cfg.StorePath)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Watch runs are long-lived; tee the log into the output dir so the
	// history survives the terminal scrollback.
	watchLogger, err := logging.NewWithFile(verbose, filepath.Join(cfg.OutputDir, "watch.log"))
	if err != nil {
		return err
	}
	defer watchLogger.Sync()

	pipe := pipeline.New(cfg, barcode.NewEngine(watchLogger), watchLogger)
	pipe.OnPage = func(done, total int, path string) {
		watchLogger.Debug("page resolved", zap.Int("done", done), zap.Int("total", total), zap.String("page", path))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "watching %s\n", args[0])
	err = pipe.Watch(ctx, args[0], func(result *assessment.Assessment) error {
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
		return nil
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
