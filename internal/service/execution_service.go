package service

import (
	"time"

	"storya/internal/domain"
	"storya/internal/models"
	"storya/internal/repository"

	"gorm.io/gorm"
)

// ExecutionService runs the per-execution state machine:
// PENDING -> UPLOADED -> PENDING_REVIEW -> REJECTED, or on approval straight
// through to COMPLETED with the payment applied in the same transaction.
type ExecutionService struct {
	db        *gorm.DB
	execRepo  *repository.ExecutionRepository
	orderRepo *repository.OrderRepository
	userRepo  *repository.UserRepository
	trust     *TrustService
	orders    *OrderService
	payments  *PaymentService
	notifier  *NotificationService
}

func NewExecutionService(
	db *gorm.DB,
	execRepo *repository.ExecutionRepository,
	orderRepo *repository.OrderRepository,
	userRepo *repository.UserRepository,
	trust *TrustService,
	orders *OrderService,
	payments *PaymentService,
	notifier *NotificationService,
) *ExecutionService {
	return &ExecutionService{
		db:        db,
		execRepo:  execRepo,
		orderRepo: orderRepo,
		userRepo:  userRepo,
		trust:     trust,
		orders:    orders,
		payments:  payments,
		notifier:  notifier,
	}
}

// Claim creates a PENDING execution for the executor and moves the order to
// IN_PROGRESS. A second open execution on the same order by the same
// executor is a conflict.
func (s *ExecutionService) Claim(orderID, executorID uint, now time.Time) (*models.Execution, error) {
	executor, err := s.userRepo.GetByID(executorID)
	if err != nil {
		return nil, err
	}
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	switch order.Status {
	case domain.OrderStatusCancelled, domain.OrderStatusCompleted:
		return nil, domain.ErrConflict
	}
	if order.CompletedCount >= order.Quantity {
		return nil, domain.ErrConflict
	}

	requiredTier, err := s.trust.trustRepo.GetByID(order.TrustLevelID)
	if err != nil {
		return nil, err
	}
	executorTier, err := s.trust.ResolveTier(executor, now)
	if err != nil {
		return nil, err
	}
	if !MeetsTier(executorTier, requiredTier) {
		return nil, domain.ErrForbidden
	}
	if executorTier.MaxDailyExecutions > 0 {
		dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
		claimed, err := s.execRepo.CountClaimedSince(executorID, dayStart)
		if err != nil {
			return nil, err
		}
		if claimed >= int64(executorTier.MaxDailyExecutions) {
			return nil, domain.ErrForbidden
		}
	}

	exec := &models.Execution{
		OrderID:     orderID,
		ExecutorID:  executorID,
		RewardCents: order.PerExecutionEarnings(),
		Status:      domain.ExecutionStatusPending,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		open, err := s.execRepo.WithTx(tx).HasNonTerminal(orderID, executorID)
		if err != nil {
			return err
		}
		if open {
			return domain.ErrConflict
		}
		if err := s.execRepo.WithTx(tx).Create(exec); err != nil {
			return err
		}
		return s.orders.MarkInProgress(tx, orderID)
	})
	if err != nil {
		return nil, err
	}
	return exec, nil
}

// Submit attaches the proof reference and moves the execution to
// PENDING_REVIEW. Allowed from PENDING and UPLOADED; terminal states fail.
func (s *ExecutionService) Submit(executionID, executorID uint, screenshotURL string) (*models.Execution, error) {
	if screenshotURL == "" {
		return nil, domain.Validationf("screenshot reference is required")
	}
	exec, err := s.execRepo.GetByID(executionID)
	if err != nil {
		return nil, err
	}
	if exec.ExecutorID != executorID {
		return nil, domain.ErrForbidden
	}
	ok, err := s.execRepo.TransitionStatus(executionID,
		[]string{domain.ExecutionStatusPending, domain.ExecutionStatusUploaded},
		domain.ExecutionStatusPendingReview)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidTransition
	}
	exec.Status = domain.ExecutionStatusPendingReview
	exec.ScreenshotURL = screenshotURL
	if err := s.execRepo.Update(exec); err != nil {
		return nil, err
	}
	return exec, nil
}

type ModerateInput struct {
	Approve     bool
	ModeratorID uint
	Comment     string
	Rating      int // 1-5; optional on reject
}

// Moderate applies the review decision. Approval is exactly-once: the
// guarded PENDING_REVIEW -> COMPLETED update, the executor credit, the
// executor stats bump and the order completion all commit together, and a
// replayed decision fails with ErrAlreadyReviewed.
func (s *ExecutionService) Moderate(executionID uint, in ModerateInput, now time.Time) (*models.Execution, error) {
	if in.Rating < 0 || in.Rating > 5 {
		return nil, domain.Validationf("rating must be between 1 and 5")
	}
	exec, err := s.execRepo.GetByID(executionID)
	if err != nil {
		return nil, err
	}
	if domain.ExecutionTerminal(exec.Status) {
		return nil, domain.ErrAlreadyReviewed
	}

	target := domain.ExecutionStatusRejected
	if in.Approve {
		target = domain.ExecutionStatusCompleted
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.execRepo.WithTx(tx).TransitionStatus(executionID,
			[]string{domain.ExecutionStatusPendingReview}, target)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyReviewed
		}
		exec.Status = target
		exec.ReviewedAt = &now
		exec.ModeratorID = &in.ModeratorID
		exec.ModeratorComment = in.Comment
		exec.Rating = in.Rating
		if err := s.execRepo.WithTx(tx).Update(exec); err != nil {
			return err
		}
		if !in.Approve {
			return nil
		}

		if err := s.payments.CreditExecutor(tx, exec.ExecutorID, exec.RewardCents, exec.ID); err != nil {
			return err
		}
		if err := s.bumpExecutorStats(tx, exec.ExecutorID, in.Rating); err != nil {
			return err
		}
		if err := s.orderRepo.WithTx(tx).IncrementCompleted(exec.OrderID); err != nil {
			return err
		}
		return s.orders.MarkCompleted(tx, exec.OrderID)
	})
	if err != nil {
		return nil, err
	}

	if in.Approve {
		s.notifier.NotifyExecutionApproved(exec.ExecutorID, exec.ID, exec.RewardCents)
		if o, err := s.orderRepo.GetByID(exec.OrderID); err == nil && o.Status == domain.OrderStatusCompleted {
			s.notifier.NotifyOrderCompleted(o.CustomerID, o.ID)
		}
	} else {
		s.notifier.NotifyExecutionRejected(exec.ExecutorID, exec.ID, in.Comment)
	}
	return exec, nil
}

// bumpExecutorStats folds the review into the executor's cumulative stats.
// The arithmetic runs in the database, so two approvals committing at the
// same time cannot lose an increment. Only the stat columns are written; the
// balance stays out of reach.
func (s *ExecutionService) bumpExecutorStats(tx *gorm.DB, executorID uint, rating int) error {
	updates := map[string]interface{}{
		"total_executions": gorm.Expr("total_executions + 1"),
	}
	if rating > 0 {
		updates["average_rating"] = gorm.Expr(
			"(average_rating * rating_count + ?) / (rating_count + 1)", rating)
		updates["rating_count"] = gorm.Expr("rating_count + 1")
	}
	return tx.Model(&models.User{}).Where("id = ?", executorID).UpdateColumns(updates).Error
}

func (s *ExecutionService) Get(executionID uint) (*models.Execution, error) {
	return s.execRepo.GetByID(executionID)
}

func (s *ExecutionService) ListByExecutor(executorID uint) ([]models.Execution, error) {
	return s.execRepo.ListByExecutor(executorID)
}

func (s *ExecutionService) ListPendingReview() ([]models.Execution, error) {
	return s.execRepo.ListPendingReview()
}
