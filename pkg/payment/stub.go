package payment

import (
	"context"
	"fmt"
	"time"
)

// StubProvider is a no-op provider for development; charges and payouts are
// acknowledged immediately and confirmed via a manually posted webhook.
type StubProvider struct{}

func (s *StubProvider) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	ref := fmt.Sprintf("stub_%d_%d", time.Now().UnixNano(), req.UserID)
	return &ChargeResponse{
		ProviderRef: ref,
		RedirectURL: "",
		Status:      "PENDING",
		ExpiresAt:   time.Now().Add(req.ExpiresIn),
	}, nil
}

func (s *StubProvider) InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	return &PayoutResponse{
		ProviderRef: "stub_payout_" + req.Reference,
		Status:      "PENDING",
	}, nil
}
