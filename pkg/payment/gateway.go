package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// GatewayProvider talks to a hosted-checkout payment gateway over JSON.
// Charges return a redirect URL; both charges and payouts settle through
// webhooks carrying our reference.
type GatewayProvider struct {
	BaseURL string
	APIKey  string
	client  *http.Client
}

func NewGatewayProvider(baseURL, apiKey string) *GatewayProvider {
	return &GatewayProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

type gatewayChargeReq struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Description string `json:"description"`
	OrderID     string `json:"order_id"`
	CallbackURL string `json:"callback_url"`
}

type gatewayChargeResp struct {
	UUID        string `json:"uuid"`
	OrderID     string `json:"order_id"`
	Status      string `json:"status"`
	CheckoutURL string `json:"checkout_url"`
	ExpiresAt   string `json:"expires_at"`
}

func (p *GatewayProvider) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}
	body, _ := json.Marshal(gatewayChargeReq{
		Amount:      strconv.FormatFloat(float64(req.AmountCents)/100, 'f', 2, 64),
		Currency:    currency,
		Description: req.Description,
		OrderID:     req.Reference,
		CallbackURL: req.CallbackURL,
	})
	var out gatewayChargeResp
	if err := p.post(ctx, "/api/v1/charges", body, &out); err != nil {
		return nil, fmt.Errorf("create charge: %w", err)
	}
	expiresAt := time.Now().Add(req.ExpiresIn)
	if t, err := time.Parse(time.RFC3339, out.ExpiresAt); err == nil {
		expiresAt = t
	}
	return &ChargeResponse{
		ProviderRef: out.UUID,
		RedirectURL: out.CheckoutURL,
		Status:      out.Status,
		ExpiresAt:   expiresAt,
	}, nil
}

type gatewayPayoutReq struct {
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
	Destination string `json:"destination"`
	OrderID     string `json:"order_id"`
	CallbackURL string `json:"callback_url"`
}

type gatewayPayoutResp struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

func (p *GatewayProvider) InitiatePayout(ctx context.Context, req PayoutRequest) (*PayoutResponse, error) {
	currency := req.Currency
	if currency == "" {
		currency = "RUB"
	}
	body, _ := json.Marshal(gatewayPayoutReq{
		Amount:      strconv.FormatFloat(float64(req.AmountCents)/100, 'f', 2, 64),
		Currency:    currency,
		Method:      req.Method,
		Destination: req.Destination,
		OrderID:     req.Reference,
		CallbackURL: req.CallbackURL,
	})
	var out gatewayPayoutResp
	if err := p.post(ctx, "/api/v1/payouts", body, &out); err != nil {
		return nil, fmt.Errorf("initiate payout: %w", err)
	}
	return &PayoutResponse{ProviderRef: out.UUID, Status: out.Status}, nil
}

func (p *GatewayProvider) post(ctx context.Context, path string, body []byte, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.APIKey)
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("gateway status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
