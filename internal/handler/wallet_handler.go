package handler

import (
	"net/http"
	"strconv"

	"storya/internal/middleware"
	"storya/internal/service"

	"github.com/gin-gonic/gin"
)

type WalletHandler struct {
	paymentSvc *service.PaymentService
}

func NewWalletHandler(paymentSvc *service.PaymentService) *WalletHandler {
	return &WalletHandler{paymentSvc: paymentSvc}
}

func (h *WalletHandler) GetBalance(c *gin.Context) {
	balance, err := h.paymentSvc.GetBalance(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"balance_cents": balance, "currency": "RUB"})
}

// History returns the user's payment ledger rows, newest first.
func (h *WalletHandler) History(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	payments, err := h.paymentSvc.ListPayments(middleware.GetUserID(c), limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payments": payments})
}

// Deposit starts a top-up charge with the payment provider and returns the
// redirect URL the client should open.
func (h *WalletHandler) Deposit(c *gin.Context) {
	var req struct {
		AmountCents int64 `json:"amount_cents" binding:"required,min=100"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, redirectURL, err := h.paymentSvc.InitiateDeposit(c.Request.Context(), middleware.GetUserID(c), req.AmountCents)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"payment_id":   p.ID,
		"provider_ref": p.ProviderRef,
		"redirect_url": redirectURL,
		"expires_at":   p.ExpiresAt,
	})
}

// RequestPayout debits the balance and opens a PENDING payout.
func (h *WalletHandler) RequestPayout(c *gin.Context) {
	var req struct {
		AmountCents int64  `json:"amount_cents" binding:"required,min=100"`
		Method      string `json:"method" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payout, err := h.paymentSvc.RequestPayout(middleware.GetUserID(c), req.AmountCents, req.Method)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, payout)
}

func (h *WalletHandler) ListPayouts(c *gin.Context) {
	payouts, err := h.paymentSvc.ListPayouts(middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"payouts": payouts})
}
