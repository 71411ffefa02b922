package backup

import (
	"context"
	"time"

	"messageboard/pkg/state/logger"

	"github.com/adhocore/gronx"
)

// Start runs the cron schedule until ctx is cancelled. The returned channel
// closes once the loop has exited.
func (m *Manager) Start(ctx context.Context) <-chan struct{} {
	done := make(chan struct{})
	if m.opts.Cron == "" {
		logger.Info("backup_schedule_disabled")
		close(done)
		return done
	}
	logger.Info("backup_schedule_enabled", "cron", m.opts.Cron, "dir", m.opts.Dir, "keep", m.opts.Keep)
	go func() {
		defer close(done)
		m.scheduleLoop(ctx)
	}()
	return done
}

func (m *Manager) scheduleLoop(ctx context.Context) {
	for {
		next, err := gronx.NextTickAfter(m.opts.Cron, m.now(), false)
		if err != nil {
			logger.Error("backup_nexttick_failed", "cron", m.opts.Cron, "error", err)
			if !sleep(ctx, 30*time.Second) {
				return
			}
			continue
		}

		wait := next.Sub(m.now())
		if wait <= 0 {
			m.runJob(ctx)
			if !sleep(ctx, time.Second) {
				return
			}
			continue
		}

		if !sleep(ctx, wait) {
			return
		}
		m.runJob(ctx)
	}
}

func (m *Manager) runJob(ctx context.Context) {
	if _, err := m.RunNow(ctx); err != nil && err != ErrBusy && ctx.Err() == nil {
		logger.Error("backup_scheduled_run_error", "error", err)
	}
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
