package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
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

// PaymentWebhookHandler receives deposit charge callbacks from the payment
// provider. The provider retries until it sees 200, so every outcome that is
// not a transport problem acks with 200.
type PaymentWebhookHandler struct {
	cfg        *config.Config
	paymentSvc *service.PaymentService
	auditRepo  *repository.AuditLogRepository
}

func NewPaymentWebhookHandler(cfg *config.Config, paymentSvc *service.PaymentService, auditRepo *repository.AuditLogRepository) *PaymentWebhookHandler {
	return &PaymentWebhookHandler{cfg: cfg, paymentSvc: paymentSvc, auditRepo: auditRepo}
}

func (h *PaymentWebhookHandler) Handle(c *gin.Context) {
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
	if err := h.paymentSvc.ConfirmDeposit(payload.Reference, success, time.Now()); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			// Not our charge; ack so the provider stops retrying.
			c.JSON(http.StatusOK, gin.H{"received": true})
			return
		}
		zap.L().Error("deposit webhook failed",
			zap.String("reference", payload.Reference),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "processing failed"})
		return
	}
	_ = h.auditRepo.Create(&models.AuditLog{
		Action:     "deposit_webhook",
		Resource:   "payment",
		ResourceID: payload.Reference,
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
	})
	c.JSON(http.StatusOK, gin.H{"received": true})
}

func verifySignature(body []byte, signature, secret string) bool {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(signature), []byte(expected))
}
