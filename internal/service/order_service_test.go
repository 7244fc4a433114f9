package service

import (
	"testing"
	"time"

	"storya/internal/domain"
	"storya/internal/models"

	"github.com/stretchr/testify/require"
)

func TestCreateOrderFundsAndFixesSplit(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)

	order := e.newOrder(t, customer.ID, e.newbie, 12000, 10)

	require.Equal(t, int64(120000), order.RewardCents)
	require.Equal(t, int64(60000), order.ExecutorEarningsCents)
	require.Equal(t, int64(60000), order.PlatformEarningsCents)
	require.Equal(t, int64(6000), order.PerExecutionEarnings())
	require.Equal(t, domain.OrderStatusPending, order.Status)
	require.NotEmpty(t, order.QRCode)

	// The reward left the customer balance and is on the ledger.
	require.Equal(t, int64(80000), e.balance(t, customer.ID))
	payments, err := e.paymentRepo.ListByUser(customer.ID, 10)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, domain.PaymentTypeWithdrawal, payments[0].Type)
	require.Equal(t, int64(-120000), payments[0].AmountCents)
}

func TestCreateOrderSplitSurvivesTierEdit(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)

	e.newbie.CommissionRate = 0.9
	require.NoError(t, e.trustRepo.Update(e.newbie))

	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, int64(6000), got.ExecutorEarningsCents)
	require.Equal(t, 0.5, 1-got.PlatformCommission)
}

func TestCreateOrderInsufficientBalance(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 5000)

	_, err := e.orders.Create(customer.ID, CreateOrderInput{
		Title:              "Too rich for us",
		TargetURL:          "https://example.com",
		TrustLevelID:       e.newbie.ID,
		PricePerStoryCents: 12000,
		Quantity:           1,
		Deadline:           time.Now().Add(time.Hour),
	}, time.Now())
	require.ErrorIs(t, err, domain.ErrInsufficientFunds)

	// Nothing committed: balance intact, no order, no ledger row.
	require.Equal(t, int64(5000), e.balance(t, customer.ID))
	var count int64
	require.NoError(t, e.db.Model(&models.Order{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestCreateOrderValidation(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 1000000)
	now := time.Now()

	base := CreateOrderInput{
		Title:              "Valid",
		TargetURL:          "https://example.com",
		TrustLevelID:       e.newbie.ID,
		PricePerStoryCents: 12000,
		Quantity:           1,
		Deadline:           now.Add(time.Hour),
	}

	cases := []struct {
		name   string
		mutate func(*CreateOrderInput)
	}{
		{"empty title", func(in *CreateOrderInput) { in.Title = "  " }},
		{"relative url", func(in *CreateOrderInput) { in.TargetURL = "example.com" }},
		{"zero quantity", func(in *CreateOrderInput) { in.Quantity = 0 }},
		{"past deadline", func(in *CreateOrderInput) { in.Deadline = now.Add(-time.Hour) }},
		{"unknown tier", func(in *CreateOrderInput) { in.TrustLevelID = 9999 }},
		{"below tier minimum", func(in *CreateOrderInput) { in.PricePerStoryCents = 9999 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := base
			tc.mutate(&in)
			_, err := e.orders.Create(customer.ID, in, now)
			require.ErrorIs(t, err, domain.ErrValidation)
		})
	}
}

func TestCreateOrderBelowPlatformMinimum(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 1000000)

	// Tier minimum allows it but the platform reward floor does not.
	e.newbie.MinPricePerStoryCents = 100
	require.NoError(t, e.trustRepo.Update(e.newbie))

	_, err := e.orders.Create(customer.ID, CreateOrderInput{
		Title:              "Tiny",
		TargetURL:          "https://example.com",
		TrustLevelID:       e.newbie.ID,
		PricePerStoryCents: 100,
		Quantity:           1,
		Deadline:           time.Now().Add(time.Hour),
	}, time.Now())
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestTrackRedirect(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)

	target, err := e.orders.TrackRedirect(order.QRCode, time.Now())
	require.NoError(t, err)
	require.Equal(t, "https://example.com/product", target)

	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.ScanCount)

	// Past expiry the redirect still works but stops counting.
	target, err = e.orders.TrackRedirect(order.QRCode, time.Now().Add(16*time.Minute))
	require.NoError(t, err)
	require.Equal(t, "https://example.com/product", target)

	got, err = e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.ScanCount)

	_, err = e.orders.TrackRedirect("no-such-token", time.Now())
	require.ErrorIs(t, err, domain.ErrNotFound)
}
