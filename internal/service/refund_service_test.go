package service

import (
	"testing"
	"time"

	"storya/internal/domain"
	"storya/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// pushPastRefundDeadline rewinds an order's deadlines so the sweep sees it.
func (e *env) pushPastRefundDeadline(t *testing.T, orderID uint) {
	t.Helper()
	past := time.Now().Add(-time.Hour)
	require.NoError(t, e.db.Model(&models.Order{}).Where("id = ?", orderID).
		UpdateColumns(map[string]interface{}{
			"deadline":        past.Add(-72 * time.Hour),
			"refund_deadline": past,
		}).Error)
}

func TestRefundSweepFullCycle(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 120000)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 10)
	require.Equal(t, int64(0), e.balance(t, customer.ID))

	e.pushPastRefundDeadline(t, order.ID)

	res := e.refunds.RunRefundSweep(time.Now())
	require.Equal(t, 1, res.Scanned)
	require.Equal(t, 1, res.Refunded)
	require.Equal(t, 1, res.Settled)
	require.Equal(t, 0, res.Errors)

	// The order is cancelled and the full reward is back.
	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusCancelled, got.Status)
	require.Equal(t, int64(120000), e.balance(t, customer.ID))

	refund, err := e.refundRepo.GetByOrderID(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RefundStatusCompleted, refund.Status)
	require.Equal(t, order.RewardCents, refund.AmountCents)
	require.NotNil(t, refund.SettledAt)

	// Ledger: the funding WITHDRAWAL and the refund DEPOSIT.
	payments, err := e.paymentRepo.ListByUser(customer.ID, 10)
	require.NoError(t, err)
	require.Len(t, payments, 2)
}

func TestRefundSweepRunsOnlyOnce(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 120000)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 10)
	e.pushPastRefundDeadline(t, order.ID)

	e.refunds.RunRefundSweep(time.Now())
	require.Equal(t, int64(120000), e.balance(t, customer.ID))

	// The order is CANCELLED now, so later sweeps no longer scan it.
	res := e.refunds.RunRefundSweep(time.Now())
	require.Equal(t, 0, res.Scanned)
	require.Equal(t, 0, res.Refunded)
	require.Equal(t, 0, res.Settled)
	require.Equal(t, int64(120000), e.balance(t, customer.ID))

	var count int64
	require.NoError(t, e.db.Model(&models.Refund{}).Where("order_id = ?", order.ID).Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestRefundSweepSkipsFulfilledOrders(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 120000)
	executor := e.newExecutor(t, "exec", 0, 0)
	admin := e.newExecutor(t, "admin", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 10)

	exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
	require.NoError(t, err)
	_, err = e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/proof.png")
	require.NoError(t, err)
	_, err = e.execs.Moderate(exec.ID, ModerateInput{
		Approve:     true,
		ModeratorID: admin.ID,
		Rating:      5,
	}, time.Now())
	require.NoError(t, err)

	// Partially fulfilled: past the deadline but one story completed.
	e.pushPastRefundDeadline(t, order.ID)

	res := e.refunds.RunRefundSweep(time.Now())
	require.Equal(t, 1, res.Scanned)
	require.Equal(t, 0, res.Refunded)
	require.Equal(t, 0, res.Errors)

	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusInProgress, got.Status)
	require.Equal(t, int64(0), e.balance(t, customer.ID))
}

func TestRefundSweepHonorsOptOut(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 120000)
	order, err := e.orders.Create(customer.ID, CreateOrderInput{
		Title:              "No refund",
		TargetURL:          "https://example.com",
		TrustLevelID:       e.newbie.ID,
		PricePerStoryCents: 12000,
		Quantity:           10,
		Deadline:           time.Now().Add(24 * time.Hour),
		RefundOnFailure:    false,
	}, time.Now())
	require.NoError(t, err)
	e.pushPastRefundDeadline(t, order.ID)

	res := e.refunds.RunRefundSweep(time.Now())
	require.Equal(t, 0, res.Scanned)
	require.Equal(t, int64(0), e.balance(t, customer.ID))
}

func TestRefundSettleIsGuarded(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 120000)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 10)
	e.pushPastRefundDeadline(t, order.ID)

	e.refunds.RunRefundSweep(time.Now())
	refund, err := e.refundRepo.GetByOrderID(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.RefundStatusCompleted, refund.Status)

	// Settling an already-completed refund is a no-op.
	require.NoError(t, e.refunds.settleOne(refund, time.Now()))
	require.Equal(t, int64(120000), e.balance(t, customer.ID))
}

func TestRefundDuplicateInsertDegradesToNoop(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 120000)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 10)
	e.pushPastRefundDeadline(t, order.ID)

	// The order_id unique index is the cross-sweep guard: a second insert
	// for the same order comes back as a duplicate key.
	require.NoError(t, e.refundRepo.Create(&models.Refund{
		OrderID:     order.ID,
		CustomerID:  customer.ID,
		AmountCents: order.RewardCents,
		Status:      domain.RefundStatusCancelled,
	}))
	err := e.refundRepo.Create(&models.Refund{
		OrderID:     order.ID,
		CustomerID:  customer.ID,
		AmountCents: order.RewardCents,
		Status:      domain.RefundStatusPending,
	})
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)

	// The CANCELLED row is invisible to the pre-insert existence check, so
	// the detect pass runs straight into the index, the way an overlapping
	// sweep would, and must come out a clean no-op.
	created, err := e.refunds.detectOne(order)
	require.NoError(t, err)
	require.False(t, created)

	res := e.refunds.RunRefundSweep(time.Now())
	require.Equal(t, 0, res.Refunded)
	require.Equal(t, 0, res.Settled)
	require.Equal(t, 0, res.Errors)

	// No credit happened and the order was not cancelled by the no-op path.
	require.Equal(t, int64(0), e.balance(t, customer.ID))
	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusPending, got.Status)
}
