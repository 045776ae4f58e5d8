package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"outreach-engine/internal/config"
	"outreach-engine/internal/lock"
	"outreach-engine/internal/pipeline"
	"outreach-engine/internal/scheduler"
	"outreach-engine/internal/source"
	"outreach-engine/internal/store"
)

var watchEvery time.Duration

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process the current export once",
	Long: `Reads every enabled input, appends qualifying leads to the sheet and exits.

Problems with the input (missing file, unreachable mailbox) are logged and the
command still exits 0, so it is safe to call from cron.`,
	Args: cobra.NoArgs,
	RunE: runOnce,
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the pipeline on an interval until interrupted",
	Args:  cobra.NoArgs,
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchEvery, "every", 0, "interval between runs (default watch.interval_minutes)")
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func runOnce(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, cancel := signalContext()
	defer cancel()

	if err := runPipeline(ctx, cfg); err != nil {
		logger.Error("run aborted", zap.Error(err))
	}
	return nil
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadConfig()
	if err != nil {
		return err
	}

	every := watchEvery
	if every <= 0 {
		every = time.Duration(cfg.Watch.IntervalMinutes) * time.Minute
	}
	if every <= 0 {
		return errors.New("watch interval must be > 0 (use --every or watch.interval_minutes)")
	}

	ctx, cancel := signalContext()
	defer cancel()

	logger.Info("watching", zap.Duration("every", every))
	scheduler.Every(ctx, every, "outreach", func(ctx context.Context) error {
		// pick up config edits between runs
		fresh, _, err := loadConfig()
		if err != nil {
			logger.Warn("config reload failed; using previous config", zap.Error(err))
			fresh = cfg
		}
		cfg = fresh
		return runPipeline(ctx, cfg)
	}, logger)
	return nil
}

// runPipeline performs one locked run. Its error means the whole batch was
// abandoned; row-level failures only show up in the report.
func runPipeline(ctx context.Context, cfg config.Config) error {
	lk, err := lock.Acquire(cfg.App.DataDir)
	if err != nil {
		return err
	}
	defer func() { _ = lk.Release() }()

	var db *store.DB
	if cfg.Features.Ledger || cfg.Features.DomainSearch {
		db, err = store.Open(store.DefaultPath(cfg.App.DataDir))
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer db.Close()
	}

	runner, err := pipeline.New(cfg, pipeline.Deps{DB: db, Log: logger})
	if err != nil {
		return err
	}

	rep, err := runner.RunOnce(ctx)
	if err != nil {
		if errors.Is(err, source.ErrNoInput) {
			logger.Warn("nothing to process", zap.Error(err))
			return nil
		}
		return err
	}

	logger.Info("summary",
		zap.String("run_id", rep.RunID),
		zap.Int("rows", rep.Rows),
		zap.Int("appended", rep.Appended),
		zap.Int("append_failed", rep.AppendFailed),
		zap.Int("ledger_recorded", rep.Recorded),
		zap.Any("skipped", rep.Skipped),
		zap.Int("emails_found", rep.EmailsFound),
		zap.Duration("took", rep.FinishedAt.Sub(rep.StartedAt)))
	return nil
}
