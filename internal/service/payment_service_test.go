package service

import (
	"context"
	"testing"
	"time"

	"storya/internal/domain"
	"storya/internal/models"

	"github.com/stretchr/testify/require"
)

func TestDepositConfirmIsIdempotent(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 0)

	p, _, err := e.payments.InitiateDeposit(context.Background(), customer.ID, 50000)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusPending, p.Status)
	require.NotNil(t, p.ProviderRef)
	require.Equal(t, int64(0), e.balance(t, customer.ID))

	now := time.Now()
	require.NoError(t, e.payments.ConfirmDeposit(*p.ProviderRef, true, now))
	require.Equal(t, int64(50000), e.balance(t, customer.ID))

	// The provider retries its webhook; the credit must not repeat.
	require.NoError(t, e.payments.ConfirmDeposit(*p.ProviderRef, true, now))
	require.Equal(t, int64(50000), e.balance(t, customer.ID))

	got, err := e.paymentRepo.GetByID(p.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
}

func TestDepositFailureAndExpiry(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 0)

	failed, _, err := e.payments.InitiateDeposit(context.Background(), customer.ID, 50000)
	require.NoError(t, err)
	require.NoError(t, e.payments.ConfirmDeposit(*failed.ProviderRef, false, time.Now()))
	got, err := e.paymentRepo.GetByID(failed.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusFailed, got.Status)

	expired, _, err := e.payments.InitiateDeposit(context.Background(), customer.ID, 50000)
	require.NoError(t, err)
	require.NoError(t, e.payments.ConfirmDeposit(*expired.ProviderRef, true, time.Now().Add(time.Hour)))
	got, err = e.paymentRepo.GetByID(expired.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PaymentStatusCancelled, got.Status)

	require.Equal(t, int64(0), e.balance(t, customer.ID))
}

func TestRequestPayoutVerificationGates(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)
	require.NoError(t, e.userRepo.Credit(executor.ID, 50000))

	_, err := e.payments.RequestPayout(executor.ID, 10000, domain.PayoutMethodBank)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.payments.RequestPayout(executor.ID, 10000, domain.PayoutMethodWallet)
	require.ErrorIs(t, err, domain.ErrForbidden)

	_, err = e.payments.RequestPayout(executor.ID, 10000, "CHEQUE")
	require.ErrorIs(t, err, domain.ErrValidation)

	require.NoError(t, e.userRepo.SetWalletVerified(executor.ID, true))
	payout, err := e.payments.RequestPayout(executor.ID, 10000, domain.PayoutMethodWallet)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutStatusPending, payout.Status)
	require.Equal(t, int64(40000), e.balance(t, executor.ID))
}

func TestRequestPayoutInsufficientBalance(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)
	require.NoError(t, e.userRepo.SetWalletVerified(executor.ID, true))
	require.NoError(t, e.userRepo.Credit(executor.ID, 500))

	_, err := e.payments.RequestPayout(executor.ID, 10000, domain.PayoutMethodWallet)
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)
	require.Equal(t, int64(500), e.balance(t, executor.ID))
}

func TestFailedPayoutRefundsExactlyOnce(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)
	require.NoError(t, e.userRepo.SetWalletVerified(executor.ID, true))
	require.NoError(t, e.userRepo.Credit(executor.ID, 500))

	payout, err := e.payments.RequestPayout(executor.ID, 500, domain.PayoutMethodWallet)
	require.NoError(t, err)
	require.Equal(t, int64(0), e.balance(t, executor.ID))

	now := time.Now()
	_, err = e.payments.AdvancePayout(payout.ID, domain.PayoutStatusProcessing, now)
	require.NoError(t, err)

	got, err := e.payments.AdvancePayout(payout.ID, domain.PayoutStatusFailed, now)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutStatusFailed, got.Status)
	require.Equal(t, int64(500), e.balance(t, executor.ID))

	// A repeated failure report cannot compensate twice.
	_, err = e.payments.AdvancePayout(payout.ID, domain.PayoutStatusFailed, now)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
	require.Equal(t, int64(500), e.balance(t, executor.ID))

	// The ledger shows the reservation and its reversal.
	var rows []models.Payment
	require.NoError(t, e.db.Where("user_id = ?", executor.ID).Order("id").Find(&rows).Error)
	require.Len(t, rows, 2)
	require.Equal(t, int64(-500), rows[0].AmountCents)
	require.Equal(t, int64(500), rows[1].AmountCents)
}

func TestPayoutInvalidTransitions(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)
	require.NoError(t, e.userRepo.SetWalletVerified(executor.ID, true))
	require.NoError(t, e.userRepo.Credit(executor.ID, 1000))

	payout, err := e.payments.RequestPayout(executor.ID, 1000, domain.PayoutMethodWallet)
	require.NoError(t, err)

	// COMPLETED straight from PENDING skips PROCESSING.
	_, err = e.payments.AdvancePayout(payout.ID, domain.PayoutStatusCompleted, time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = e.payments.AdvancePayout(payout.ID, "SHIPPED", time.Now())
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestResolvePayoutByReference(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)
	require.NoError(t, e.userRepo.SetWalletVerified(executor.ID, true))
	require.NoError(t, e.userRepo.Credit(executor.ID, 2000))

	payout, err := e.payments.RequestPayout(executor.ID, 2000, domain.PayoutMethodWallet)
	require.NoError(t, err)

	// A success callback on a still-PENDING payout steps through PROCESSING.
	now := time.Now()
	require.NoError(t, e.payments.ResolvePayoutByReference(payout.Reference, true, now))
	got, err := e.payoutRepo.GetByID(payout.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)

	// Replays on a terminal payout are ignored.
	require.NoError(t, e.payments.ResolvePayoutByReference(payout.Reference, false, now))
	got, err = e.payoutRepo.GetByID(payout.ID)
	require.NoError(t, err)
	require.Equal(t, domain.PayoutStatusCompleted, got.Status)
	require.Equal(t, int64(0), e.balance(t, executor.ID))
}

func TestSubmitPayoutToProvider(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)
	require.NoError(t, e.userRepo.SetWalletVerified(executor.ID, true))
	require.NoError(t, e.userRepo.Credit(executor.ID, 3000))

	payout, err := e.payments.RequestPayout(executor.ID, 3000, domain.PayoutMethodWallet)
	require.NoError(t, err)

	got, err := e.payments.SubmitPayoutToProvider(context.Background(), payout.ID, "wallet-123", time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.PayoutStatusProcessing, got.Status)
	require.NotEmpty(t, got.ProviderRef)

	_, err = e.payments.SubmitPayoutToProvider(context.Background(), payout.ID, "wallet-123", time.Now())
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}
