package service

import (
	"errors"
	"fmt"
	"time"

	"storya/internal/domain"
	"storya/internal/models"
	"storya/internal/repository"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RefundService is the periodic sweep that cancels expired unfulfilled
// orders and settles pending refunds. It is trigger-agnostic: callers hand
// in the clock, and overlapping sweeps are safe because refund creation is
// guarded by the refunds.order_id unique index.
type RefundService struct {
	db         *gorm.DB
	orderRepo  *repository.OrderRepository
	execRepo   *repository.ExecutionRepository
	refundRepo *repository.RefundRepository
	userRepo   *repository.UserRepository
	payments   *repository.PaymentRepository
	orders     *OrderService
	notifier   *NotificationService
}

func NewRefundService(
	db *gorm.DB,
	orderRepo *repository.OrderRepository,
	execRepo *repository.ExecutionRepository,
	refundRepo *repository.RefundRepository,
	userRepo *repository.UserRepository,
	payments *repository.PaymentRepository,
	orders *OrderService,
	notifier *NotificationService,
) *RefundService {
	return &RefundService{
		db:         db,
		orderRepo:  orderRepo,
		execRepo:   execRepo,
		refundRepo: refundRepo,
		userRepo:   userRepo,
		payments:   payments,
		orders:     orders,
		notifier:   notifier,
	}
}

// SweepResult reports what one sweep pass did.
type SweepResult struct {
	Scanned  int `json:"scanned"`
	Refunded int `json:"refunded"`
	Settled  int `json:"settled"`
	Errors   int `json:"errors"`
}

// RunRefundSweep runs both passes: detect expired orders and create their
// refunds, then settle pending refunds into customer balances. A failure on
// one order is logged and skipped; the sweep always finishes.
func (s *RefundService) RunRefundSweep(now time.Time) SweepResult {
	var res SweepResult

	candidates, err := s.orderRepo.FindRefundEligible(now)
	if err != nil {
		zap.L().Error("refund sweep: scan", zap.Error(err))
		res.Errors++
	}
	res.Scanned = len(candidates)
	for i := range candidates {
		order := &candidates[i]
		created, err := s.detectOne(order)
		if err != nil {
			zap.L().Error("refund sweep: detect",
				zap.Uint("order_id", order.ID), zap.Error(err))
			res.Errors++
			continue
		}
		if created {
			res.Refunded++
		}
	}

	pending, err := s.refundRepo.ListPending()
	if err != nil {
		zap.L().Error("refund sweep: list pending", zap.Error(err))
		res.Errors++
		return res
	}
	for i := range pending {
		if err := s.settleOne(&pending[i], now); err != nil {
			zap.L().Error("refund sweep: settle",
				zap.Uint("refund_id", pending[i].ID), zap.Error(err))
			res.Errors++
			continue
		}
		res.Settled++
	}
	return res
}

// detectOne creates the refund and cancels the order in one transaction.
// The "no existing refund" check and the insert share the transaction, and
// the unique index turns a concurrent sweep's duplicate into a clean no-op.
func (s *RefundService) detectOne(order *models.Order) (bool, error) {
	var created bool
	err := s.db.Transaction(func(tx *gorm.DB) error {
		exists, err := s.refundRepo.WithTx(tx).ExistsActive(order.ID)
		if err != nil {
			return err
		}
		if exists {
			return nil
		}
		completed, err := s.execRepo.WithTx(tx).CountCompletedForOrder(order.ID)
		if err != nil {
			return err
		}
		if completed > 0 {
			// Fulfilled at least once; not refundable.
			return nil
		}
		if err := s.refundRepo.WithTx(tx).Create(&models.Refund{
			OrderID:     order.ID,
			CustomerID:  order.CustomerID,
			AmountCents: order.RewardCents,
			Status:      domain.RefundStatusPending,
		}); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// A concurrent sweep created it first.
				return nil
			}
			return err
		}
		if err := s.orders.CancelForRefund(tx, order.ID, s.execRepo); err != nil {
			return err
		}
		created = true
		return nil
	})
	return created, err
}

// settleOne credits the customer, records the DEPOSIT row and completes the
// refund, atomically. A failure leaves the refund PENDING for the next run.
func (s *RefundService) settleOne(refund *models.Refund, now time.Time) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.refundRepo.WithTx(tx).Settle(refund.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// Settled by an overlapping sweep.
			return nil
		}
		if err := s.userRepo.WithTx(tx).Credit(refund.CustomerID, refund.AmountCents); err != nil {
			return err
		}
		completedAt := now
		return s.payments.WithTx(tx).Create(&models.Payment{
			UserID:      refund.CustomerID,
			AmountCents: refund.AmountCents,
			Type:        domain.PaymentTypeDeposit,
			Status:      domain.PaymentStatusCompleted,
			Reference:   fmt.Sprintf("refund:%d", refund.ID),
			CompletedAt: &completedAt,
		})
	})
	if err != nil {
		return err
	}
	s.notifier.NotifyOrderRefunded(refund.CustomerID, refund.OrderID, refund.AmountCents)
	return nil
}
