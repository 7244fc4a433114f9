package verify

import "context"

// Result is what a verification service reports about an identity.
type Result struct {
	Verified bool
	Details  string
}

// Verifier checks an external status (self-employed registry, wallet
// ownership). The payout path never calls this live; it reads the cached
// flag on the user that a verification refresh wrote earlier.
type Verifier interface {
	VerifySelfEmployed(ctx context.Context, taxID string) (Result, error)
	VerifyWallet(ctx context.Context, walletID string) (Result, error)
}

// StubVerifier approves everything; used in development and tests.
type StubVerifier struct{}

func (StubVerifier) VerifySelfEmployed(ctx context.Context, taxID string) (Result, error) {
	return Result{Verified: taxID != "", Details: "stub"}, nil
}

func (StubVerifier) VerifyWallet(ctx context.Context, walletID string) (Result, error) {
	return Result{Verified: walletID != "", Details: "stub"}, nil
}
