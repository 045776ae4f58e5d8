package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"outreach-engine/internal/logging"
	"outreach-engine/internal/sink"
	"outreach-engine/internal/source"
)

const defaultSourceTimeout = 2 * time.Minute

// Runner is one configured pipeline: sources in, driver through, sink out.
type Runner struct {
	Sources       []source.Source
	Driver        *Driver
	ExportPath    string // empty disables the JSON export
	SourceTimeout time.Duration
	Log           *zap.Logger
}

// RunOnce fetches every source in parallel, then processes their rows in
// source order. The returned error covers whole-run failures only; per-row
// problems are counted in the report.
func (r *Runner) RunOnce(ctx context.Context) (*Report, error) {
	log := logging.OrNop(r.Log)
	rep := NewReport(uuid.NewString())
	log = log.With(zap.String("run_id", rep.RunID))
	defer func() { rep.FinishedAt = time.Now() }()

	batches, err := r.fetchAll(ctx, log)
	if err != nil {
		return rep, err
	}

	total := 0
	for _, b := range batches {
		total += len(b.Rows)
	}
	log.Info("rows loaded", zap.Int("batches", len(batches)), zap.Int("rows", total))

	if total > 0 {
		if err := r.Driver.Sink.Open(ctx); err != nil {
			r.finalize(ctx, log, batches, false)
			return rep, fmt.Errorf("open sink: %w", err)
		}
		for _, b := range batches {
			r.Driver.Process(ctx, b.Rows, rep)
		}
		if err := r.Driver.Sink.Close(); err != nil {
			log.Warn("close sink", zap.Error(err))
		}
	}
	r.finalize(ctx, log, batches, ctx.Err() == nil)

	if r.ExportPath != "" {
		if err := sink.WriteJSON(r.ExportPath, rep.Accepted); err != nil {
			log.Error("json export failed", zap.String("path", r.ExportPath), zap.Error(err))
		} else {
			log.Info("json export written", zap.String("path", r.ExportPath), zap.Int("leads", len(rep.Accepted)))
		}
	}

	if rc, ok := r.Driver.Ledger.(RunCounter); ok {
		n, err := rc.CountRun(ctx, rep.RunID)
		if err != nil {
			log.Warn("ledger count failed", zap.Error(err))
		}
		rep.Recorded = n
	}

	log.Info("run finished",
		zap.Int("rows", rep.Rows),
		zap.Int("appended", rep.Appended),
		zap.Int("recorded", rep.Recorded),
		zap.Int("append_failed", rep.AppendFailed),
		zap.Int("skipped", rep.SkippedTotal()),
		zap.Int("emails_found", rep.EmailsFound))
	return rep, nil
}

// fetchAll runs each source under its own timeout. A failing source is
// logged and dropped; the run fails only when every source failed.
func (r *Runner) fetchAll(ctx context.Context, log *zap.Logger) ([]source.Batch, error) {
	if len(r.Sources) == 0 {
		return nil, fmt.Errorf("%w: no sources configured", source.ErrNoInput)
	}
	timeout := r.SourceTimeout
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}

	results := make([]*source.Batch, len(r.Sources))
	errs := make([]error, len(r.Sources))

	var g errgroup.Group
	for i, src := range r.Sources {
		g.Go(func() error {
			fctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			log.Debug("fetching source", zap.String("source", src.Name()))
			b, err := src.Fetch(fctx)
			if err != nil {
				log.Warn("source failed", zap.String("source", src.Name()), zap.Error(err))
				errs[i] = fmt.Errorf("%s: %w", src.Name(), err)
				return nil
			}
			if b.Source == "" {
				b.Source = src.Name()
			}
			results[i] = &b
			return nil
		})
	}
	_ = g.Wait()

	var batches []source.Batch
	for _, b := range results {
		if b != nil {
			batches = append(batches, *b)
		}
	}
	if len(batches) == 0 {
		return nil, errors.Join(errs...)
	}
	return batches, nil
}

// finalize acknowledges consumed batches and releases every source. Batches
// are not acknowledged when the run did not get through them.
func (r *Runner) finalize(ctx context.Context, log *zap.Logger, batches []source.Batch, ack bool) {
	for _, b := range batches {
		if ack && b.Finalize != nil {
			if err := b.Finalize(context.WithoutCancel(ctx)); err != nil {
				log.Warn("finalize source", zap.String("source", b.Source), zap.Error(err))
			}
		}
		if b.Close != nil {
			if err := b.Close(); err != nil {
				log.Debug("close source", zap.String("source", b.Source), zap.Error(err))
			}
		}
	}
}
