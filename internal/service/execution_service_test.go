package service

import (
	"testing"
	"time"

	"storya/internal/domain"

	"github.com/stretchr/testify/require"
)

func TestClaimMovesOrderInProgress(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	executor := e.newExecutor(t, "exec", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 2)

	exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusPending, exec.Status)
	require.Equal(t, order.PerExecutionEarnings(), exec.RewardCents)

	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusInProgress, got.Status)

	// A second open claim on the same order by the same executor conflicts.
	_, err = e.execs.Claim(order.ID, executor.ID, time.Now())
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestClaimRequiresTier(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 500000)
	rookie := e.newExecutor(t, "rookie", 0, 0)
	order := e.newOrder(t, customer.ID, e.pro, 40000, 1)

	_, err := e.execs.Claim(order.ID, rookie.ID, time.Now())
	require.ErrorIs(t, err, domain.ErrForbidden)

	veteran := e.newExecutor(t, "veteran", 60, 4.8)
	_, err = e.execs.Claim(order.ID, veteran.ID, time.Now())
	require.NoError(t, err)
}

func TestClaimDailyLimit(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 1000000)
	executor := e.newExecutor(t, "exec", 0, 0)
	now := time.Now()

	// Newbie tier allows 3 claims per day.
	for i := 0; i < 3; i++ {
		order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)
		_, err := e.execs.Claim(order.ID, executor.ID, now)
		require.NoError(t, err)
	}
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)
	_, err := e.execs.Claim(order.ID, executor.ID, now)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestClaimClosedOrder(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	executor := e.newExecutor(t, "exec", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)

	_, err := e.orderRepo.TransitionStatus(order.ID,
		[]string{domain.OrderStatusPending}, domain.OrderStatusCancelled)
	require.NoError(t, err)

	_, err = e.execs.Claim(order.ID, executor.ID, time.Now())
	require.ErrorIs(t, err, domain.ErrConflict)
}

func TestSubmitProof(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	executor := e.newExecutor(t, "exec", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)
	exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
	require.NoError(t, err)

	other := e.newExecutor(t, "other", 0, 0)
	_, err = e.execs.Submit(exec.ID, other.ID, "https://cdn.example.com/proof.png")
	require.ErrorIs(t, err, domain.ErrForbidden)

	got, err := e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/proof.png")
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusPendingReview, got.Status)
	require.Equal(t, "https://cdn.example.com/proof.png", got.ScreenshotURL)

	// Resubmitting from PENDING_REVIEW is not a valid transition.
	_, err = e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/other.png")
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestModerateApprovePaysExactlyOnce(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	executor := e.newExecutor(t, "exec", 0, 0)
	admin := e.newExecutor(t, "admin", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)

	exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
	require.NoError(t, err)
	_, err = e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/proof.png")
	require.NoError(t, err)

	reviewed, err := e.execs.Moderate(exec.ID, ModerateInput{
		Approve:     true,
		ModeratorID: admin.ID,
		Rating:      5,
	}, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusCompleted, reviewed.Status)

	// Executor got exactly the snapshotted reward.
	require.Equal(t, int64(6000), e.balance(t, executor.ID))
	payments, err := e.paymentRepo.ListByUser(executor.ID, 10)
	require.NoError(t, err)
	require.Len(t, payments, 1)
	require.Equal(t, domain.PaymentTypeExecutorPayment, payments[0].Type)

	// Stats and order progressed.
	u, err := e.userRepo.GetByID(executor.ID)
	require.NoError(t, err)
	require.Equal(t, 1, u.TotalExecutions)
	require.Equal(t, 5.0, u.AverageRating)

	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, 1, got.CompletedCount)
	require.Equal(t, domain.OrderStatusCompleted, got.Status)

	// Replaying the decision neither pays nor flips anything.
	_, err = e.execs.Moderate(exec.ID, ModerateInput{
		Approve:     true,
		ModeratorID: admin.ID,
		Rating:      5,
	}, time.Now())
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	require.Equal(t, int64(6000), e.balance(t, executor.ID))
}

func TestModerateReject(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	executor := e.newExecutor(t, "exec", 0, 0)
	admin := e.newExecutor(t, "admin", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)

	exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
	require.NoError(t, err)
	_, err = e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/proof.png")
	require.NoError(t, err)

	reviewed, err := e.execs.Moderate(exec.ID, ModerateInput{
		Approve:     false,
		ModeratorID: admin.ID,
		Comment:     "screenshot does not show the story",
	}, time.Now())
	require.NoError(t, err)
	require.Equal(t, domain.ExecutionStatusRejected, reviewed.Status)

	// No payment, no stat bump, order untouched.
	require.Equal(t, int64(0), e.balance(t, executor.ID))
	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, 0, got.CompletedCount)
	require.Equal(t, domain.OrderStatusInProgress, got.Status)

	// Approval after rejection is refused.
	_, err = e.execs.Moderate(exec.ID, ModerateInput{
		Approve:     true,
		ModeratorID: admin.ID,
		Rating:      4,
	}, time.Now())
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)
}

func TestModerateBeforeSubmission(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	executor := e.newExecutor(t, "exec", 0, 0)
	admin := e.newExecutor(t, "admin", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)

	exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
	require.NoError(t, err)

	// No proof submitted yet; the execution is not in review.
	_, err = e.execs.Moderate(exec.ID, ModerateInput{
		Approve:     true,
		ModeratorID: admin.ID,
		Rating:      5,
	}, time.Now())
	require.ErrorIs(t, err, domain.ErrAlreadyReviewed)
	require.Equal(t, int64(0), e.balance(t, executor.ID))
}

func TestOrderCompletesWhenQuantityFilled(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 200000)
	admin := e.newExecutor(t, "admin", 0, 0)
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 2)

	for _, name := range []string{"first", "second"} {
		executor := e.newExecutor(t, name, 0, 0)
		exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
		require.NoError(t, err)
		_, err = e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/"+name+".png")
		require.NoError(t, err)
		_, err = e.execs.Moderate(exec.ID, ModerateInput{
			Approve:     true,
			ModeratorID: admin.ID,
			Rating:      5,
		}, time.Now())
		require.NoError(t, err)
	}

	got, err := e.orders.Get(order.ID)
	require.NoError(t, err)
	require.Equal(t, 2, got.CompletedCount)
	require.Equal(t, domain.OrderStatusCompleted, got.Status)

	// Both executors earned the same per-story amount.
	executors, err := e.userRepo.ListByRole(domain.RoleExecutor)
	require.NoError(t, err)
	var paid int64
	for _, u := range executors {
		paid += u.BalanceCents
	}
	require.Equal(t, order.ExecutorEarningsCents, paid)
}

func TestModerateAccumulatesStats(t *testing.T) {
	e := newEnv(t)
	customer := e.newCustomer(t, 500000)
	executor := e.newExecutor(t, "exec", 0, 0)
	admin := e.newExecutor(t, "admin", 0, 0)

	// Two approved reviews fold into the running average in the database.
	for _, rating := range []int{5, 4} {
		order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)
		exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
		require.NoError(t, err)
		_, err = e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/proof.png")
		require.NoError(t, err)
		_, err = e.execs.Moderate(exec.ID, ModerateInput{
			Approve:     true,
			ModeratorID: admin.ID,
			Rating:      rating,
		}, time.Now())
		require.NoError(t, err)
	}

	u, err := e.userRepo.GetByID(executor.ID)
	require.NoError(t, err)
	require.Equal(t, 2, u.TotalExecutions)
	require.Equal(t, 2, u.RatingCount)
	require.InDelta(t, 4.5, u.AverageRating, 1e-9)

	// A rejection changes neither the counter nor the average.
	order := e.newOrder(t, customer.ID, e.newbie, 12000, 1)
	exec, err := e.execs.Claim(order.ID, executor.ID, time.Now())
	require.NoError(t, err)
	_, err = e.execs.Submit(exec.ID, executor.ID, "https://cdn.example.com/proof.png")
	require.NoError(t, err)
	_, err = e.execs.Moderate(exec.ID, ModerateInput{
		Approve:     false,
		ModeratorID: admin.ID,
		Comment:     "story not visible",
	}, time.Now())
	require.NoError(t, err)

	u, err = e.userRepo.GetByID(executor.ID)
	require.NoError(t, err)
	require.Equal(t, 2, u.TotalExecutions)
	require.InDelta(t, 4.5, u.AverageRating, 1e-9)
}
