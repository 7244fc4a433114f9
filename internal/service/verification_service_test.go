package service

import (
	"context"
	"testing"

	"storya/pkg/verify"

	"github.com/stretchr/testify/require"
)

func TestVerificationRefreshSetsFlags(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)
	require.NoError(t, e.userRepo.Credit(executor.ID, 12345))
	svc := NewVerificationService(verify.StubVerifier{}, e.userRepo)

	u, err := svc.RefreshWallet(context.Background(), executor.ID, "wallet-1")
	require.NoError(t, err)
	require.True(t, u.WalletVerified)

	// The stub refuses an empty identifier.
	u, err = svc.RefreshSelfEmployed(context.Background(), executor.ID, "")
	require.NoError(t, err)
	require.False(t, u.SelfEmployedVerified)

	require.Equal(t, int64(12345), e.balance(t, executor.ID))
}

func TestVerificationRefreshPreservesConcurrentCredit(t *testing.T) {
	e := newEnv(t)
	executor := e.newExecutor(t, "exec", 0, 0)

	// A snapshot of the row is in hand when a payment credit lands; writing
	// the flag afterwards must not push the snapshot's balance back.
	stale, err := e.userRepo.GetByID(executor.ID)
	require.NoError(t, err)
	require.NoError(t, e.userRepo.Credit(executor.ID, 50000))

	require.NoError(t, e.userRepo.SetWalletVerified(stale.ID, true))
	require.Equal(t, int64(50000), e.balance(t, executor.ID))

	u, err := e.userRepo.GetByID(executor.ID)
	require.NoError(t, err)
	require.True(t, u.WalletVerified)
}
