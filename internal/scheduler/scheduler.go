package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"factsync/internal/domain"
)

// Syncer defines the interface for sync operations.
type Syncer interface {
	Sync(ctx context.Context) (*domain.SyncStats, error)
}

// Scheduler re-runs the sync cycle on a fixed wall-clock interval. Ticks
// are strictly serialized: when a tick fires while a cycle is still
// running (for example a manual refresh), that tick is skipped rather
// than queued, so at most one cycle is ever active.
type Scheduler struct {
	syncer       Syncer
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *slog.Logger
}

func NewScheduler(syncer Syncer, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		syncer:       syncer,
		interval:     interval,
		cycleTimeout: 5 * time.Minute,
		logger:       logger,
	}
}

// Start runs the loop until ctx is cancelled. An in-flight cycle is not
// aborted on shutdown; it finishes or fails on its own.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info("scheduler started", "interval", s.interval)

	s.runSync(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
			s.runSync(ctx)
		}
	}
}

// runSync executes one cycle. Failures are logged and recorded by the
// service; the loop always survives to the next tick.
func (s *Scheduler) runSync(ctx context.Context) {
	// Detached from the loop context: shutdown stops the ticker but lets
	// an in-flight cycle finish or fail on its own.
	syncCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cycleTimeout)
	defer cancel()

	if _, err := s.syncer.Sync(syncCtx); err != nil {
		if errors.Is(err, domain.ErrSyncInProgress) {
			s.logger.Debug("tick skipped, cycle still running")
			return
		}
		s.logger.Error("sync failed", "error", err)
	}
}
