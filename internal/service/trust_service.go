package service

import (
	"math"
	"time"

	"storya/internal/domain"
	"storya/internal/models"
	"storya/internal/repository"

	"go.uber.org/zap"
)

// TrustService resolves executor trust tiers and fixes commission splits.
// Splits are computed exactly once, at order creation; a tier edit never
// reaches back into existing orders.
type TrustService struct {
	trustRepo *repository.TrustLevelRepository
	userRepo  *repository.UserRepository
}

func NewTrustService(trustRepo *repository.TrustLevelRepository, userRepo *repository.UserRepository) *TrustService {
	return &TrustService{trustRepo: trustRepo, userRepo: userRepo}
}

// ResolveTier picks the highest active tier whose thresholds the user meets.
// Tiers come back highest-first, so the first match wins; when nothing
// matches the lowest tier is the fallback.
func (s *TrustService) ResolveTier(u *models.User, now time.Time) (*models.TrustLevel, error) {
	tiers, err := s.trustRepo.ListActive()
	if err != nil {
		return nil, err
	}
	if len(tiers) == 0 {
		return nil, domain.ErrNotFound
	}
	days := u.DaysActive(now)
	for i := range tiers {
		t := &tiers[i]
		if u.TotalExecutions >= t.MinExecutions &&
			u.AverageRating >= t.MinRating &&
			days >= t.MinDaysActive {
			return t, nil
		}
	}
	return &tiers[len(tiers)-1], nil
}

// SplitReward divides a reward between executor and platform. The platform
// share is the remainder, so the two always reconcile to the reward exactly.
func SplitReward(rewardCents int64, tier *models.TrustLevel) (executorCents, platformCents int64) {
	executorCents = int64(math.Floor(float64(rewardCents) * tier.CommissionRate))
	platformCents = rewardCents - executorCents
	return executorCents, platformCents
}

// MeetsTier reports whether the executor's resolved tier satisfies the
// order's required tier (ordering is by MinExecutions).
func MeetsTier(executorTier, requiredTier *models.TrustLevel) bool {
	return executorTier.MinExecutions >= requiredTier.MinExecutions
}

// UpgradeTiers is the periodic sweep that refreshes every executor's cached
// tier. One user's failure is logged and skipped.
func (s *TrustService) UpgradeTiers(now time.Time) (updated int) {
	executors, err := s.userRepo.ListByRole(domain.RoleExecutor)
	if err != nil {
		zap.L().Error("tier sweep: list executors", zap.Error(err))
		return 0
	}
	for i := range executors {
		u := &executors[i]
		tier, err := s.ResolveTier(u, now)
		if err != nil {
			zap.L().Error("tier sweep: resolve", zap.Uint("user_id", u.ID), zap.Error(err))
			continue
		}
		if u.TrustLevelID != nil && *u.TrustLevelID == tier.ID {
			continue
		}
		if err := s.userRepo.SetTrustLevel(u.ID, tier.ID); err != nil {
			zap.L().Error("tier sweep: update", zap.Uint("user_id", u.ID), zap.Error(err))
			continue
		}
		updated++
	}
	return updated
}
