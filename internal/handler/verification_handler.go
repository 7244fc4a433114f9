package handler

import (
	"net/http"

	"storya/internal/middleware"
	"storya/internal/service"

	"github.com/gin-gonic/gin"
)

type VerificationHandler struct {
	verifySvc *service.VerificationService
}

func NewVerificationHandler(verifySvc *service.VerificationService) *VerificationHandler {
	return &VerificationHandler{verifySvc: verifySvc}
}

// SelfEmployed refreshes the cached self-employment flag that gates bank
// payouts.
func (h *VerificationHandler) SelfEmployed(c *gin.Context) {
	var req struct {
		TaxID string `json:"tax_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.verifySvc.RefreshSelfEmployed(c.Request.Context(), middleware.GetUserID(c), req.TaxID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"self_employed_verified": u.SelfEmployedVerified})
}

// Wallet refreshes the cached wallet flag that gates wallet payouts.
func (h *VerificationHandler) Wallet(c *gin.Context) {
	var req struct {
		WalletID string `json:"wallet_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	u, err := h.verifySvc.RefreshWallet(c.Request.Context(), middleware.GetUserID(c), req.WalletID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"wallet_verified": u.WalletVerified})
}
