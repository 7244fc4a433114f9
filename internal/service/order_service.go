package service

import (
	"fmt"
	"strings"
	"time"

	"storya/config"
	"storya/internal/domain"
	"storya/internal/models"
	"storya/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderService drives the order state machine:
// PENDING -> IN_PROGRESS -> COMPLETED, with CANCELLED reachable only through
// the refund sweep.
type OrderService struct {
	db          *gorm.DB
	cfg         *config.LedgerConfig
	orderRepo   *repository.OrderRepository
	trustRepo   *repository.TrustLevelRepository
	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentRepository
	settingRepo *repository.SettingRepository
	notifier    *NotificationService
}

func NewOrderService(
	db *gorm.DB,
	cfg *config.LedgerConfig,
	orderRepo *repository.OrderRepository,
	trustRepo *repository.TrustLevelRepository,
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	settingRepo *repository.SettingRepository,
	notifier *NotificationService,
) *OrderService {
	return &OrderService{
		db:          db,
		cfg:         cfg,
		orderRepo:   orderRepo,
		trustRepo:   trustRepo,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		settingRepo: settingRepo,
		notifier:    notifier,
	}
}

type CreateOrderInput struct {
	Title              string
	TargetURL          string
	TrustLevelID       uint
	PricePerStoryCents int64
	Quantity           int
	Deadline           time.Time
	RefundOnFailure    bool
}

// Create validates the order spec, fixes the commission split from the
// required tier, and funds the order from the customer balance: the debit,
// its WITHDRAWAL ledger row and the order row commit in one transaction.
func (s *OrderService) Create(customerID uint, in CreateOrderInput, now time.Time) (*models.Order, error) {
	if strings.TrimSpace(in.Title) == "" {
		return nil, domain.Validationf("title is required")
	}
	if !strings.HasPrefix(in.TargetURL, "http://") && !strings.HasPrefix(in.TargetURL, "https://") {
		return nil, domain.Validationf("target_url must be an absolute URL")
	}
	if in.Quantity <= 0 {
		return nil, domain.Validationf("quantity must be positive")
	}
	if !in.Deadline.After(now) {
		return nil, domain.Validationf("deadline must be in the future")
	}

	tier, err := s.trustRepo.GetByID(in.TrustLevelID)
	if err != nil {
		return nil, domain.Validationf("unknown trust level %d", in.TrustLevelID)
	}
	if in.PricePerStoryCents < tier.MinPricePerStoryCents {
		return nil, domain.Validationf("price per story below tier minimum %d", tier.MinPricePerStoryCents)
	}
	reward := in.PricePerStoryCents * int64(in.Quantity)
	minReward := s.settingRepo.GetInt64(models.SettingMinRewardCents, s.cfg.MinRewardCents)
	if reward < minReward {
		return nil, domain.Validationf("reward below platform minimum %d", minReward)
	}

	// The split is fixed per story first so the per-execution payout divides
	// the executor total exactly; the platform takes the remainder.
	perStoryExecutor, _ := SplitReward(in.PricePerStoryCents, tier)
	executorTotal := perStoryExecutor * int64(in.Quantity)
	platformTotal := reward - executorTotal

	order := &models.Order{
		CustomerID:            customerID,
		Title:                 strings.TrimSpace(in.Title),
		TargetURL:             in.TargetURL,
		TrustLevelID:          tier.ID,
		PricePerStoryCents:    in.PricePerStoryCents,
		RewardCents:           reward,
		PlatformCommission:    1 - tier.CommissionRate,
		ExecutorEarningsCents: executorTotal,
		PlatformEarningsCents: platformTotal,
		QRCode:                uuid.New().String(),
		QRCodeExpiry:          now.Add(s.cfg.QRCodeTTL),
		Deadline:              in.Deadline,
		RefundDeadline:        in.Deadline.Add(s.cfg.GraceWindow),
		RefundOnFailure:       in.RefundOnFailure,
		Status:                domain.OrderStatusPending,
		Quantity:              in.Quantity,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Debit(customerID, reward); err != nil {
			return err
		}
		if err := s.orderRepo.WithTx(tx).Create(order); err != nil {
			return err
		}
		now := time.Now()
		return s.paymentRepo.WithTx(tx).Create(&models.Payment{
			UserID:      customerID,
			AmountCents: -reward,
			Type:        domain.PaymentTypeWithdrawal,
			Status:      domain.PaymentStatusCompleted,
			Reference:   fmt.Sprintf("order:%d", order.ID),
			CompletedAt: &now,
		})
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

// MarkInProgress transitions PENDING -> IN_PROGRESS when the first execution
// is claimed. Already IN_PROGRESS is fine; anything terminal is not.
func (s *OrderService) MarkInProgress(tx *gorm.DB, orderID uint) error {
	repo := s.orderRepo.WithTx(tx)
	ok, err := repo.TransitionStatus(orderID, []string{domain.OrderStatusPending}, domain.OrderStatusInProgress)
	if err != nil {
		return err
	}
	if ok {
		return nil
	}
	o, err := repo.GetByID(orderID)
	if err != nil {
		return err
	}
	if o.Status == domain.OrderStatusInProgress {
		return nil
	}
	return domain.ErrInvalidTransition
}

// MarkCompleted transitions to COMPLETED once the quantity is filled.
// Idempotent: a second call on a completed order is a no-op.
func (s *OrderService) MarkCompleted(tx *gorm.DB, orderID uint) error {
	repo := s.orderRepo.WithTx(tx)
	o, err := repo.GetByID(orderID)
	if err != nil {
		return err
	}
	if o.Status == domain.OrderStatusCompleted {
		return nil
	}
	if o.CompletedCount < o.Quantity {
		return nil
	}
	_, err = repo.TransitionStatus(orderID,
		[]string{domain.OrderStatusPending, domain.OrderStatusInProgress},
		domain.OrderStatusCompleted)
	return err
}

// CancelForRefund transitions to CANCELLED on behalf of the refund sweep.
// Only PENDING/IN_PROGRESS orders with no completed execution qualify.
func (s *OrderService) CancelForRefund(tx *gorm.DB, orderID uint, execRepo *repository.ExecutionRepository) error {
	completed, err := execRepo.WithTx(tx).CountCompletedForOrder(orderID)
	if err != nil {
		return err
	}
	if completed > 0 {
		return domain.ErrInvalidTransition
	}
	ok, err := s.orderRepo.WithTx(tx).TransitionStatus(orderID,
		[]string{domain.OrderStatusPending, domain.OrderStatusInProgress},
		domain.OrderStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrInvalidTransition
	}
	return nil
}

// TrackRedirect resolves a QR token to its target URL. Within the validity
// window the scan is counted; an expired token still redirects, silently
// untracked.
func (s *OrderService) TrackRedirect(token string, now time.Time) (string, error) {
	o, err := s.orderRepo.GetByQRCode(token)
	if err != nil {
		return "", err
	}
	if o.QRValid(now) {
		if err := s.orderRepo.IncrementScans(o.ID); err != nil {
			zap.L().Warn("qr scan count", zap.Uint("order_id", o.ID), zap.Error(err))
		}
	}
	return o.TargetURL, nil
}

func (s *OrderService) Get(orderID uint) (*models.Order, error) {
	return s.orderRepo.GetByID(orderID)
}

func (s *OrderService) ListByCustomer(customerID uint) ([]models.Order, error) {
	return s.orderRepo.ListByCustomer(customerID)
}

func (s *OrderService) ListOpen(now time.Time) ([]models.Order, error) {
	return s.orderRepo.ListOpen(now)
}
