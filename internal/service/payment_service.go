package service

import (
	"context"
	"fmt"
	"time"

	"storya/config"
	"storya/internal/domain"
	"storya/internal/models"
	"storya/internal/repository"
	"storya/pkg/payment"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PaymentService owns every balance mutation. Each credit or debit commits
// in one transaction with the Payment/Payout row that records it, so the
// ledger and the balances can never disagree.
type PaymentService struct {
	db          *gorm.DB
	cfg         *config.PaymentConfig
	userRepo    *repository.UserRepository
	paymentRepo *repository.PaymentRepository
	payoutRepo  *repository.PayoutRepository
	provider    payment.Provider
	notifier    *NotificationService
}

func NewPaymentService(
	db *gorm.DB,
	cfg *config.PaymentConfig,
	userRepo *repository.UserRepository,
	paymentRepo *repository.PaymentRepository,
	payoutRepo *repository.PayoutRepository,
	provider payment.Provider,
	notifier *NotificationService,
) *PaymentService {
	return &PaymentService{
		db:          db,
		cfg:         cfg,
		userRepo:    userRepo,
		paymentRepo: paymentRepo,
		payoutRepo:  payoutRepo,
		provider:    provider,
		notifier:    notifier,
	}
}

// CreditExecutor appends a COMPLETED EXECUTOR_PAYMENT row and increments the
// executor balance inside the caller's transaction. All-or-nothing with the
// moderation decision that triggered it.
func (s *PaymentService) CreditExecutor(tx *gorm.DB, executorID uint, amountCents int64, executionID uint) error {
	if amountCents <= 0 {
		return domain.Validationf("credit amount must be positive")
	}
	now := time.Now()
	if err := s.paymentRepo.WithTx(tx).Create(&models.Payment{
		UserID:      executorID,
		AmountCents: amountCents,
		Type:        domain.PaymentTypeExecutorPayment,
		Status:      domain.PaymentStatusCompleted,
		Reference:   fmt.Sprintf("execution:%d", executionID),
		CompletedAt: &now,
	}); err != nil {
		return err
	}
	return s.userRepo.WithTx(tx).Credit(executorID, amountCents)
}

// InitiateDeposit creates the PENDING DEPOSIT row and asks the provider for
// a checkout redirect. The balance moves only when the provider confirms.
func (s *PaymentService) InitiateDeposit(ctx context.Context, userID uint, amountCents int64) (*models.Payment, string, error) {
	if amountCents <= 0 {
		return nil, "", domain.Validationf("amount must be positive")
	}
	reference := fmt.Sprintf("dep-%s", uuid.New().String())
	resp, err := s.provider.CreateCharge(ctx, payment.ChargeRequest{
		UserID:      userID,
		AmountCents: amountCents,
		Reference:   reference,
		Description: "Balance top-up",
		ExpiresIn:   s.cfg.DepositExpiry,
	})
	if err != nil {
		return nil, "", err
	}
	expiresAt := resp.ExpiresAt
	providerRef := resp.ProviderRef
	p := &models.Payment{
		UserID:      userID,
		AmountCents: amountCents,
		Type:        domain.PaymentTypeDeposit,
		Status:      domain.PaymentStatusPending,
		ProviderRef: &providerRef,
		Reference:   reference,
		ExpiresAt:   &expiresAt,
	}
	if err := s.paymentRepo.Create(p); err != nil {
		return nil, "", err
	}
	return p, resp.RedirectURL, nil
}

// ConfirmDeposit settles a deposit reported by the provider. Keyed by the
// provider transaction id and guarded on the PENDING status, so a replayed
// webhook credits the balance exactly once.
func (s *PaymentService) ConfirmDeposit(providerRef string, success bool, now time.Time) error {
	p, err := s.paymentRepo.GetByProviderRef(providerRef)
	if err != nil {
		return err
	}
	if p.Status != domain.PaymentStatusPending {
		// Replay of an already-settled confirmation.
		return nil
	}
	if !success {
		_, err := s.paymentRepo.FailPending(p.ID, domain.PaymentStatusFailed)
		return err
	}
	if p.ExpiresAt != nil && now.After(*p.ExpiresAt) {
		_, err := s.paymentRepo.FailPending(p.ID, domain.PaymentStatusCancelled)
		return err
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.paymentRepo.WithTx(tx).CompletePending(p.ID, now)
		if err != nil {
			return err
		}
		if !ok {
			// Another confirmation won the race; nothing to do.
			return nil
		}
		return s.userRepo.WithTx(tx).Credit(p.UserID, p.AmountCents)
	})
	if err != nil {
		return err
	}
	s.notifier.NotifyDepositConfirmed(p.UserID, p.AmountCents, p.Reference)
	return nil
}

// RequestPayout reserves the amount and creates the payout request. The
// debit, the PENDING payout and the negative WITHDRAWAL row commit together.
func (s *PaymentService) RequestPayout(userID uint, amountCents int64, method string) (*models.Payout, error) {
	if amountCents <= 0 {
		return nil, domain.Validationf("amount must be positive")
	}
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, err
	}
	switch method {
	case domain.PayoutMethodBank:
		if !u.SelfEmployedVerified {
			return nil, domain.ErrForbidden
		}
	case domain.PayoutMethodWallet:
		if !u.WalletVerified {
			return nil, domain.ErrForbidden
		}
	default:
		return nil, domain.Validationf("unsupported payout method %q", method)
	}

	payout := &models.Payout{
		UserID:      userID,
		Reference:   fmt.Sprintf("po-%s", uuid.New().String()),
		AmountCents: amountCents,
		Method:      method,
		Status:      domain.PayoutStatusPending,
	}
	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := s.userRepo.WithTx(tx).Debit(userID, amountCents); err != nil {
			return err
		}
		if err := s.payoutRepo.WithTx(tx).Create(payout); err != nil {
			return err
		}
		now := time.Now()
		return s.paymentRepo.WithTx(tx).Create(&models.Payment{
			UserID:      userID,
			AmountCents: -amountCents,
			Type:        domain.PaymentTypeWithdrawal,
			Status:      domain.PaymentStatusCompleted,
			Reference:   "payout:" + payout.Reference,
			CompletedAt: &now,
		})
	})
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// AdvancePayout moves the payout along PENDING -> PROCESSING ->
// {COMPLETED|FAILED}; PENDING may also go to CANCELLED or REJECTED. Any
// terminal failure reverses the reservation exactly once: the compensating
// credit rides the same guarded transition that retires the payout.
func (s *PaymentService) AdvancePayout(payoutID uint, target string, now time.Time) (*models.Payout, error) {
	var from []string
	switch target {
	case domain.PayoutStatusProcessing:
		from = []string{domain.PayoutStatusPending}
	case domain.PayoutStatusCompleted, domain.PayoutStatusFailed:
		from = []string{domain.PayoutStatusProcessing}
	case domain.PayoutStatusCancelled, domain.PayoutStatusRejected:
		from = []string{domain.PayoutStatusPending}
	default:
		return nil, domain.Validationf("unknown payout status %q", target)
	}

	p, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}

	extra := map[string]interface{}{}
	switch target {
	case domain.PayoutStatusProcessing:
		extra["processed_at"] = now
	case domain.PayoutStatusCompleted:
		extra["completed_at"] = now
	}

	compensate := target == domain.PayoutStatusFailed ||
		target == domain.PayoutStatusCancelled ||
		target == domain.PayoutStatusRejected

	err = s.db.Transaction(func(tx *gorm.DB) error {
		ok, err := s.payoutRepo.WithTx(tx).TransitionStatus(payoutID, from, target, extra)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvalidTransition
		}
		if !compensate {
			return nil
		}
		if err := s.userRepo.WithTx(tx).Credit(p.UserID, p.AmountCents); err != nil {
			return err
		}
		completedAt := now
		return s.paymentRepo.WithTx(tx).Create(&models.Payment{
			UserID:      p.UserID,
			AmountCents: p.AmountCents,
			Type:        domain.PaymentTypeDeposit,
			Status:      domain.PaymentStatusCompleted,
			Reference:   "payout-reversal:" + p.Reference,
			CompletedAt: &completedAt,
		})
	})
	if err != nil {
		return nil, err
	}
	p, err = s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	s.notifier.NotifyPayout(p.UserID, p.ID, p.Status)
	return p, nil
}

// ResolvePayoutByReference maps a provider callback to AdvancePayout.
func (s *PaymentService) ResolvePayoutByReference(ref string, success bool, now time.Time) error {
	p, err := s.payoutRepo.GetByReference(ref)
	if err != nil {
		return err
	}
	if domain.PayoutTerminal(p.Status) {
		return nil
	}
	target := domain.PayoutStatusCompleted
	if !success {
		target = domain.PayoutStatusFailed
	}
	// Provider callbacks can arrive while the payout is still PENDING;
	// step it through PROCESSING first.
	if p.Status == domain.PayoutStatusPending {
		if _, err := s.AdvancePayout(p.ID, domain.PayoutStatusProcessing, now); err != nil {
			return err
		}
	}
	_, err = s.AdvancePayout(p.ID, target, now)
	return err
}

// SubmitPayoutToProvider hands a PENDING payout to the gateway and moves it
// to PROCESSING. Called from the admin review queue.
func (s *PaymentService) SubmitPayoutToProvider(ctx context.Context, payoutID uint, destination string, now time.Time) (*models.Payout, error) {
	p, err := s.payoutRepo.GetByID(payoutID)
	if err != nil {
		return nil, err
	}
	if p.Status != domain.PayoutStatusPending {
		return nil, domain.ErrInvalidTransition
	}
	resp, err := s.provider.InitiatePayout(ctx, payment.PayoutRequest{
		Reference:   p.Reference,
		AmountCents: p.AmountCents,
		Method:      p.Method,
		Destination: destination,
	})
	if err != nil {
		zap.L().Error("payout submit failed", zap.Uint("payout_id", p.ID), zap.Error(err))
		return nil, err
	}
	p.ProviderRef = resp.ProviderRef
	if err := s.payoutRepo.Update(p); err != nil {
		return nil, err
	}
	return s.AdvancePayout(p.ID, domain.PayoutStatusProcessing, now)
}

func (s *PaymentService) GetBalance(userID uint) (int64, error) {
	u, err := s.userRepo.GetByID(userID)
	if err != nil {
		return 0, err
	}
	return u.BalanceCents, nil
}

func (s *PaymentService) ListPayments(userID uint, limit int) ([]models.Payment, error) {
	return s.paymentRepo.ListByUser(userID, limit)
}

func (s *PaymentService) ListPayouts(userID uint) ([]models.Payout, error) {
	return s.payoutRepo.ListByUser(userID)
}

func (s *PaymentService) ListPayoutsByStatus(status string) ([]models.Payout, error) {
	return s.payoutRepo.ListByStatus(status)
}
