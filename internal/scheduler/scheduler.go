// Package scheduler runs a task on a fixed interval until its context ends.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"outreach-engine/internal/logging"
)

type Task func(ctx context.Context) error

// Every runs task immediately and then once per interval. Runs never overlap:
// a tick that fires while the task is still running is dropped.
func Every(ctx context.Context, interval time.Duration, name string, task Task, log *zap.Logger) {
	log = logging.OrNop(log).With(zap.String("task", name))

	run := func() {
		start := time.Now()
		if err := task(ctx); err != nil {
			log.Error("task failed", zap.Error(err), zap.Duration("took", time.Since(start)))
			return
		}
		log.Debug("task done", zap.Duration("took", time.Since(start)))
	}

	run()

	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			run()
		}
	}
}
