package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"pixresize/internal/config"
	"pixresize/internal/logging"
	"pixresize/internal/processor"
	"pixresize/internal/tui"
)

var resizeCmd = &cobra.Command{
	Use:   "resize [flags] <path>...",
	Short: "Resize images and directories of images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runResize,
}

func runResize(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, cmd.Flags())
	if err != nil {
		return err
	}
	opts, err := cfg.Options()
	if err != nil {
		return err
	}

	interactive := !cfg.Plain && isatty.IsTerminal(os.Stdout.Fd())
	var console io.Writer = os.Stderr
	if interactive {
		console = nil
	}
	logger, err := logging.New(cfg.Log, console)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	batchID := uuid.NewString()
	logger = logger.With(zap.String("batch_id", batchID))
	for _, warning := range opts.Warnings() {
		logger.Warn(warning)
	}

	files, skipped, err := processor.Collect(args, opts.OutputDir)
	if err != nil {
		return err
	}
	for _, path := range skipped {
		logger.Warn("skipping file that is not a supported image", zap.String("source", path))
	}
	if len(files) == 0 {
		return fmt.Errorf("no supported images found in %v", args)
	}
	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return err
	}

	jobs := processor.NewJobs(files, opts)
	logger.Info("batch started",
		zap.Int("files", len(jobs)),
		zap.String("scale", opts.Scale.Mode.String()),
		zap.String("filter", string(opts.Filter)),
		zap.String("format", string(opts.Format)),
		zap.String("output", opts.OutputDir),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	updates := make(chan processor.ProgressUpdate, 64)
	var uiDone <-chan struct{}
	if interactive {
		uiDone = startView(tea.NewProgram(tui.NewModel(updates, len(jobs), cancel)), updates, logger)
	} else {
		done := make(chan struct{})
		uiDone = done
		go func() {
			for u := range updates {
				logger.Info("progress",
					zap.Int("completed", u.Completed),
					zap.Int("total", u.Total),
					zap.String("source", u.Result.Display),
					zap.Bool("ok", u.Result.OK()),
				)
			}
			close(done)
		}()
	}

	summary, runErr := processor.Run(ctx, jobs, processor.RunOptions{Workers: cfg.Workers, Logger: logger}, updates)
	close(updates)
	<-uiDone
	if runErr != nil && !errors.Is(runErr, processor.ErrCancelled) {
		return runErr
	}

	fmt.Fprintln(os.Stdout, tui.RenderSummary(tui.SummaryRows(summary)))
	if details := tui.RenderFailures(summary, cfg.Verbose); details != "" {
		fmt.Fprintln(os.Stdout, details)
	}
	outPath := opts.OutputDir
	if abs, absErr := filepath.Abs(outPath); absErr == nil {
		outPath = abs
	}
	fmt.Fprintf(os.Stdout, "Resized files written to: %s\n", outPath)

	if cfg.Report != "" {
		if err := writeReport(cfg.Report, batchID, summary); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Report written to: %s\n", cfg.Report)
	}

	if runErr != nil {
		return runErr
	}
	if failed := summary.Failed; failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, summary.Total)
	}
	return nil
}

type viewRunner interface {
	Run() (tea.Model, error)
}

// startView runs the progress view and closes the returned channel once
// updates is closed.
func startView(view viewRunner, updates <-chan processor.ProgressUpdate, logger *zap.Logger) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		if _, err := view.Run(); err != nil {
			logger.Warn("progress view stopped", zap.Error(err))
		}
		// The view may quit before the batch does; keep the collector unblocked.
		for range updates {
		}
	}()
	return done
}

func writeReport(path, batchID string, summary processor.Summary) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := processor.WriteReport(f, batchID, summary); err != nil {
		_ = f.Close()
		return fmt.Errorf("write report: %w", err)
	}
	return f.Close()
}

func init() {
	config.RegisterFlags(resizeCmd.Flags())
	rootCmd.AddCommand(resizeCmd)
}
