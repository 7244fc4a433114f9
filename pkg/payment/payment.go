package payment

import (
	"context"
	"time"
)

// ChargeRequest asks the provider to collect money from a customer.
type ChargeRequest struct {
	UserID      uint
	AmountCents int64
	Currency    string
	Reference   string // our unique reference; echoed back in the webhook
	Description string
	CallbackURL string
	ExpiresIn   time.Duration
}

// ChargeResponse carries the provider's transaction id and the page the
// customer is redirected to.
type ChargeResponse struct {
	ProviderRef string
	RedirectURL string
	Status      string
	ExpiresAt   time.Time
}

// PayoutRequest asks the provider to push money out to an executor.
type PayoutRequest struct {
	Reference   string // payout reference, used as idempotency key
	AmountCents int64
	Currency    string
	Method      string // BANK | WALLET
	Destination string // account / wallet identifier
	CallbackURL string
}

type PayoutResponse struct {
	ProviderRef string
	Status      string
}

// Provider is the external payment-gateway collaborator. The ledger core
// never speaks the gateway protocol itself; confirmations come back through
// webhooks keyed by our reference.
type Provider interface {
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error)
	InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error)
}
