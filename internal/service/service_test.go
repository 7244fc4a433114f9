package service

import (
	"testing"
	"time"

	"storya/config"
	"storya/internal/domain"
	"storya/internal/models"
	"storya/internal/repository"
	"storya/internal/testutil"
	"storya/internal/ws"
	"storya/pkg/payment"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// env wires the full service stack over an in-memory database.
type env struct {
	db *gorm.DB

	userRepo    *repository.UserRepository
	trustRepo   *repository.TrustLevelRepository
	orderRepo   *repository.OrderRepository
	execRepo    *repository.ExecutionRepository
	paymentRepo *repository.PaymentRepository
	payoutRepo  *repository.PayoutRepository
	refundRepo  *repository.RefundRepository

	trust    *TrustService
	orders   *OrderService
	execs    *ExecutionService
	payments *PaymentService
	refunds  *RefundService

	newbie  *models.TrustLevel
	trusted *models.TrustLevel
	pro     *models.TrustLevel
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := testutil.NewTestDB(t)

	e := &env{
		db:          db,
		userRepo:    repository.NewUserRepository(db),
		trustRepo:   repository.NewTrustLevelRepository(db),
		orderRepo:   repository.NewOrderRepository(db),
		execRepo:    repository.NewExecutionRepository(db),
		paymentRepo: repository.NewPaymentRepository(db),
		payoutRepo:  repository.NewPayoutRepository(db),
		refundRepo:  repository.NewRefundRepository(db),
	}
	settingRepo := repository.NewSettingRepository(db)
	notifRepo := repository.NewNotificationRepository(db)
	notifier := NewNotificationService(notifRepo, ws.NewHub())

	ledgerCfg := &config.LedgerConfig{
		MinRewardCents: 10000,
		QRCodeTTL:      15 * time.Minute,
		GraceWindow:    72 * time.Hour,
	}
	paymentCfg := &config.PaymentConfig{DepositExpiry: 30 * time.Minute}

	e.trust = NewTrustService(e.trustRepo, e.userRepo)
	e.orders = NewOrderService(db, ledgerCfg, e.orderRepo, e.trustRepo, e.userRepo, e.paymentRepo, settingRepo, notifier)
	e.payments = NewPaymentService(db, paymentCfg, e.userRepo, e.paymentRepo, e.payoutRepo, &payment.StubProvider{}, notifier)
	e.execs = NewExecutionService(db, e.execRepo, e.orderRepo, e.userRepo, e.trust, e.orders, e.payments, notifier)
	e.refunds = NewRefundService(db, e.orderRepo, e.execRepo, e.refundRepo, e.userRepo, e.paymentRepo, e.orders, notifier)

	e.newbie = &models.TrustLevel{
		Name:                  "Newbie",
		MinExecutions:         0,
		CommissionRate:        0.5,
		MinPricePerStoryCents: 10000,
		MaxDailyExecutions:    3,
		Active:                true,
	}
	e.trusted = &models.TrustLevel{
		Name:                  "Trusted",
		MinExecutions:         10,
		MinRating:             4.0,
		CommissionRate:        0.6,
		MinPricePerStoryCents: 20000,
		MaxDailyExecutions:    10,
		Active:                true,
	}
	e.pro = &models.TrustLevel{
		Name:                  "Pro",
		MinExecutions:         50,
		MinRating:             4.5,
		MinDaysActive:         30,
		CommissionRate:        0.7,
		MinPricePerStoryCents: 40000,
		Active:                true,
	}
	for _, tier := range []*models.TrustLevel{e.newbie, e.trusted, e.pro} {
		require.NoError(t, e.trustRepo.Create(tier))
	}
	return e
}

func (e *env) newCustomer(t *testing.T, balanceCents int64) *models.User {
	t.Helper()
	u := &models.User{
		Username:     "customer-" + t.Name(),
		Email:        "customer-" + t.Name() + "@example.com",
		Role:         domain.RoleCustomer,
		BalanceCents: balanceCents,
	}
	require.NoError(t, e.userRepo.Create(u))
	return u
}

func (e *env) newExecutor(t *testing.T, name string, totalExecutions int, rating float64) *models.User {
	t.Helper()
	u := &models.User{
		Username:        name + "-" + t.Name(),
		Email:           name + "-" + t.Name() + "@example.com",
		Role:            domain.RoleExecutor,
		TotalExecutions: totalExecutions,
		AverageRating:   rating,
		RatingCount:     totalExecutions,
	}
	require.NoError(t, e.userRepo.Create(u))
	// Make the account old enough for every MinDaysActive threshold.
	require.NoError(t, e.db.Model(&models.User{}).Where("id = ?", u.ID).
		UpdateColumn("created_at", time.Now().Add(-90*24*time.Hour)).Error)
	u, err := e.userRepo.GetByID(u.ID)
	require.NoError(t, err)
	return u
}

func (e *env) newOrder(t *testing.T, customerID uint, tier *models.TrustLevel, priceCents int64, quantity int) *models.Order {
	t.Helper()
	order, err := e.orders.Create(customerID, CreateOrderInput{
		Title:              "Promote launch",
		TargetURL:          "https://example.com/product",
		TrustLevelID:       tier.ID,
		PricePerStoryCents: priceCents,
		Quantity:           quantity,
		Deadline:           time.Now().Add(24 * time.Hour),
		RefundOnFailure:    true,
	}, time.Now())
	require.NoError(t, err)
	return order
}

func (e *env) balance(t *testing.T, userID uint) int64 {
	t.Helper()
	u, err := e.userRepo.GetByID(userID)
	require.NoError(t, err)
	return u.BalanceCents
}
