// workers/referral_stats_worker.go
package workers

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/mooosty/bckndmaster/store"
)

// ReferralStatsWorker periodically snapshots the number of direct referrals
// of every referrer into referral_stats.
type ReferralStatsWorker struct {
	invites  *store.Invites
	stats    *store.ReferralStats
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time
}

func NewReferralStatsWorker(db *gorm.DB, interval time.Duration, logger *zap.Logger) *ReferralStatsWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferralStatsWorker{
		invites:  store.NewInvites(db),
		stats:    store.NewReferralStats(db),
		interval: interval,
		logger:   logger.Named("stats"),
		now:      time.Now,
	}
}

// Start schedules the refresh, running the first one immediately, and stops
// the scheduler once ctx is done.
func (w *ReferralStatsWorker) Start(ctx context.Context) error {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("create scheduler: %w", err)
	}

	_, err = sched.NewJob(
		gocron.DurationJob(w.interval),
		gocron.NewTask(func() {
			if err := w.Refresh(ctx); err != nil {
				w.logger.Error("referral stats refresh failed", zap.Error(err))
			}
		}),
		gocron.WithStartAt(gocron.WithStartImmediately()),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		_ = sched.Shutdown()
		return fmt.Errorf("schedule referral stats: %w", err)
	}

	sched.Start()
	w.logger.Info("referral stats worker started", zap.Duration("interval", w.interval))

	go func() {
		<-ctx.Done()
		if err := sched.Shutdown(); err != nil {
			w.logger.Warn("scheduler shutdown", zap.Error(err))
		}
		w.logger.Info("referral stats worker stopped")
	}()
	return nil
}

// Refresh recomputes every snapshot row in one pass.
func (w *ReferralStatsWorker) Refresh(ctx context.Context) error {
	counts, err := w.invites.CountByReferrer(ctx)
	if err != nil {
		return err
	}
	if err := w.stats.Replace(ctx, counts, w.now().UTC()); err != nil {
		return err
	}
	w.logger.Debug("referral stats refreshed", zap.Int("referrers", len(counts)))
	return nil
}
