package scheduler

import (
	"context"
	"time"

	"storya/config"
	"storya/internal/service"

	"go.uber.org/zap"
)

// Scheduler runs the periodic background passes: the refund sweep that
// detects expired unfulfilled orders and settles pending refunds, and the
// tier sweep that promotes executors who now meet a higher tier.
type Scheduler struct {
	cfg    *config.LedgerConfig
	refund *service.RefundService
	trust  *service.TrustService
	logger *zap.Logger
}

func New(cfg *config.LedgerConfig, refund *service.RefundService, trust *service.TrustService, logger *zap.Logger) *Scheduler {
	return &Scheduler{cfg: cfg, refund: refund, trust: trust, logger: logger}
}

// Start launches the sweep loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx, "refund_sweep", s.cfg.SweepInterval, func(now time.Time) {
		res := s.refund.RunRefundSweep(now)
		if res.Scanned > 0 || res.Settled > 0 || res.Errors > 0 {
			s.logger.Info("refund sweep finished",
				zap.Int("scanned", res.Scanned),
				zap.Int("refunded", res.Refunded),
				zap.Int("settled", res.Settled),
				zap.Int("errors", res.Errors))
		}
	})
	go s.loop(ctx, "tier_sweep", s.cfg.TierSweepInterval, func(now time.Time) {
		if updated := s.trust.UpgradeTiers(now); updated > 0 {
			s.logger.Info("tier sweep finished", zap.Int("updated", updated))
		}
	})
}

func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, run func(now time.Time)) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	s.logger.Info("sweep loop started",
		zap.String("sweep", name),
		zap.Duration("interval", interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("sweep loop stopped", zap.String("sweep", name))
			return
		case now := <-ticker.C:
			run(now)
		}
	}
}
