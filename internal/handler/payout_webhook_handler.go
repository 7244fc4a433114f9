package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"storya/config"
	"storya/internal/domain"
	"storya/internal/models"
	"storya/internal/repository"
	"storya/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// PayoutWebhookHandler receives payout result callbacks. A failed payout
// returns the money to the executor balance; the service side is idempotent
// against provider retries.
type PayoutWebhookHandler struct {
	cfg        *config.Config
	paymentSvc *service.PaymentService
	auditRepo  *repository.AuditLogRepository
}

func NewPayoutWebhookHandler(cfg *config.Config, paymentSvc *service.PaymentService, auditRepo *repository.AuditLogRepository) *PayoutWebhookHandler {
	return &PayoutWebhookHandler{cfg: cfg, paymentSvc: paymentSvc, auditRepo: auditRepo}
}

func (h *PayoutWebhookHandler) Handle(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body"})
		return
	}
	if h.cfg.Payment.WebhookSecret != "" {
		if !verifySignature(body, c.GetHeader("X-Webhook-Signature"), h.cfg.Payment.WebhookSecret) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid signature"})
			return
		}
	}
	var payload struct {
		Reference string `json:"reference"`
		Status    string `json:"status"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if payload.Reference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reference required"})
		return
	}
	success := payload.Status == "COMPLETED" || payload.Status == "completed" || payload.Status == "success"
	if err := h.paymentSvc.ResolvePayoutByReference(payload.Reference, success, time.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		zap.L().Error("payout webhook failed",
			zap.String("reference", payload.Reference),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		Action:     "payout_webhook",
		Resource:   "payout",
		ResourceID: payload.Reference,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}
